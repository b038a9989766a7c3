package dto

// SearchRequest is a rider's route search
type SearchRequest struct {
	Origin      string `json:"origin" binding:"required"`
	Destination string `json:"destination" binding:"required"`
	WindowStart string `json:"window_start" binding:"required"` // RFC 3339
	WindowEnd   string `json:"window_end" binding:"required"`   // RFC 3339
}

// CreateBookingRequest reserves seats on a route
type CreateBookingRequest struct {
	RiderID string `json:"rider_id" binding:"required,uuid"`
	RouteID string `json:"route_id" binding:"required,uuid"`
	Seats   int    `json:"seats" binding:"required,min=1"`
}

// ConfirmPaymentRequest is the payment collaborator's callback payload
type ConfirmPaymentRequest struct {
	BookingID  string  `json:"booking_id" binding:"required,uuid"`
	AmountPaid float64 `json:"amount_paid" binding:"required"`
}

// RedeemRequest is a driver's boarding-time redemption attempt
type RedeemRequest struct {
	Token    string `json:"token" binding:"required"`
	DriverID string `json:"driver_id" binding:"required,uuid"`
}

// CancelBookingRequest identifies who is cancelling
type CancelBookingRequest struct {
	ActorID string `json:"actor_id" binding:"required,uuid"`
}
