package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/openride/backend/internal/api/handlers"
)

// SetupRoutes configures all API routes
func SetupRoutes(r *gin.Engine, h *handlers.Handlers, nrApp *newrelic.Application) {
	if nrApp != nil {
		r.Use(nrgin.Middleware(nrApp))
	}

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "healthy"})
	})

	v1 := r.Group("/v1")
	{
		// WebSocket connection for dashboards
		v1.GET("/ws", h.HandleWebSocket)

		// Matching
		v1.POST("/search", h.Search)
		v1.GET("/routes", h.ListRoutes)

		// Booking lifecycle
		bookings := v1.Group("/bookings")
		{
			bookings.POST("", h.CreateBooking)
			bookings.GET("/:id", h.GetBooking)
			bookings.POST("/:id/cancel", h.CancelBooking)
		}

		// Payment collaborator callback
		v1.POST("/payments/confirm", h.ConfirmPayment)

		// Boarding verification
		v1.GET("/verify", h.VerifyToken)
		v1.POST("/redeem", h.RedeemToken)
	}
}
