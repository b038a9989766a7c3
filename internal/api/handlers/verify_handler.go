package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/openride/backend/internal/api/dto"
	"github.com/openride/backend/internal/domain/booking"
	"github.com/openride/backend/pkg/websocket"
)

// VerifyToken handles GET /v1/verify?token=... Read-only: safe for a
// driver to poll while the rider walks up.
func (h *Handlers) VerifyToken(c *gin.Context) {
	payload := c.Query("token")
	if payload == "" {
		c.JSON(http.StatusBadRequest, gin.H{"code": "BAD_REQUEST", "message": "token query parameter required"})
		return
	}

	result := h.Lifecycle.Verify(c.Request.Context(), payload)

	response := gin.H{
		"status": result.Status,
		"reason": result.Reason,
	}
	if result.Booking != nil {
		// Just enough for the driver display; no rider internals.
		response["booking_id"] = result.Booking.ID
		response["seats"] = result.Booking.Seats
	}
	c.JSON(http.StatusOK, response)
}

// RedeemToken handles POST /v1/redeem. Safe to retry: a duplicate attempt
// lands on ALREADY_REDEEMED rather than boarding twice.
func (h *Handlers) RedeemToken(c *gin.Context) {
	var req dto.RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "BAD_REQUEST", "message": "Invalid request payload", "details": err.Error()})
		return
	}

	driverID, err := uuid.Parse(req.DriverID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "BAD_REQUEST", "message": "driver_id must be a UUID"})
		return
	}

	b, err := h.Lifecycle.Redeem(c.Request.Context(), req.Token, driverID)
	if err != nil {
		if errors.Is(err, booking.ErrAlreadyRedeemed) {
			h.Monitoring.RecordTokenRedeemed("", "already_redeemed")
		}
		h.respondError(c, err)
		return
	}

	h.Monitoring.RecordTokenRedeemed(b.ID.String(), "success")
	h.Hub.NotifyBooking(b.ID.String(), websocket.Message{
		Type: "token_redeemed",
		Data: gin.H{"booking_id": b.ID, "redeemed_at": b.RedeemedAt},
	})

	c.JSON(http.StatusOK, gin.H{
		"booking_id":  b.ID,
		"state":       b.State,
		"seats":       b.Seats,
		"redeemed_at": b.RedeemedAt,
	})
}
