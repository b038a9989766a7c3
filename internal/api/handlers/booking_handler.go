package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/openride/backend/internal/api/dto"
	"github.com/openride/backend/pkg/websocket"
)

// CreateBooking handles POST /v1/bookings
func (h *Handlers) CreateBooking(c *gin.Context) {
	var req dto.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "BAD_REQUEST", "message": "Invalid request payload", "details": err.Error()})
		return
	}

	riderID, err := uuid.Parse(req.RiderID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "BAD_REQUEST", "message": "rider_id must be a UUID"})
		return
	}
	routeID, err := uuid.Parse(req.RouteID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "BAD_REQUEST", "message": "route_id must be a UUID"})
		return
	}

	b, err := h.Lifecycle.Create(c.Request.Context(), riderID, routeID, req.Seats)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.Monitoring.RecordBookingCreated(b.ID.String(), b.Seats, b.TotalAmount)
	h.Hub.NotifyUser(b.DriverID.String(), websocket.Message{
		Type: "booking_created",
		Data: gin.H{"booking_id": b.ID, "route_id": b.RouteID, "seats": b.Seats},
	})

	c.JSON(http.StatusCreated, b)
}

// GetBooking handles GET /v1/bookings/:id
func (h *Handlers) GetBooking(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "BAD_REQUEST", "message": "booking id must be a UUID"})
		return
	}

	b, err := h.Lifecycle.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// CancelBooking handles POST /v1/bookings/:id/cancel
func (h *Handlers) CancelBooking(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "BAD_REQUEST", "message": "booking id must be a UUID"})
		return
	}

	var req dto.CancelBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "BAD_REQUEST", "message": "Invalid request payload", "details": err.Error()})
		return
	}
	actorID, err := uuid.Parse(req.ActorID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "BAD_REQUEST", "message": "actor_id must be a UUID"})
		return
	}

	b, err := h.Lifecycle.Cancel(c.Request.Context(), id, actorID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.Hub.NotifyBooking(b.ID.String(), websocket.Message{
		Type: "booking_cancelled",
		Data: gin.H{"booking_id": b.ID},
	})

	c.JSON(http.StatusOK, b)
}
