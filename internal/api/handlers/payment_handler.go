package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/openride/backend/internal/api/dto"
	"github.com/openride/backend/internal/service/token"
	"github.com/openride/backend/pkg/logger"
	"github.com/openride/backend/pkg/websocket"
)

const idempotencyTTL = 24 * time.Hour

// ConfirmPayment handles POST /v1/payments/confirm. This is the payment
// collaborator's callback: the gateway may redeliver, so responses are
// replayed from Redis under the caller's Idempotency-Key.
func (h *Handlers) ConfirmPayment(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "BAD_REQUEST", "message": "Invalid request payload", "details": err.Error()})
		return
	}

	idempotencyKey := c.GetHeader("Idempotency-Key")
	if idempotencyKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"code": "BAD_REQUEST", "message": "Idempotency-Key header required"})
		return
	}

	cacheKey := fmt.Sprintf("payment:confirm:%s", idempotencyKey)
	if h.Redis != nil {
		if cached, err := h.Redis.Get(ctx, cacheKey).Result(); err == nil {
			h.Logger.Info("Replaying cached payment confirmation",
				logger.String("idempotency_key", idempotencyKey))
			var response map[string]interface{}
			if err := json.Unmarshal([]byte(cached), &response); err == nil {
				c.JSON(http.StatusOK, response)
				return
			}
		}
	}

	bookingID, err := uuid.Parse(req.BookingID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "BAD_REQUEST", "message": "booking_id must be a UUID"})
		return
	}

	b, err := h.Lifecycle.ConfirmPayment(ctx, bookingID, req.AmountPaid)
	if err != nil {
		h.respondError(c, err)
		return
	}

	payload, err := token.Encode(b.Token)
	if err != nil {
		h.respondError(c, err)
		return
	}

	response := gin.H{
		"booking_id": b.ID,
		"state":      b.State,
		"token":      payload,
		"expires_at": b.Token.ExpiresAt,
	}

	if h.Redis != nil {
		if raw, err := json.Marshal(response); err == nil {
			if err := h.Redis.Set(ctx, cacheKey, raw, idempotencyTTL).Err(); err != nil {
				h.Logger.Warn("Failed to cache payment confirmation", logger.Err(err))
			}
		}
	}

	h.Monitoring.RecordTokenIssued(b.ID.String())
	h.Hub.NotifyUser(b.RiderID.String(), websocket.Message{
		Type: "token_issued",
		Data: gin.H{"booking_id": b.ID, "expires_at": b.Token.ExpiresAt},
	})

	c.JSON(http.StatusOK, response)
}
