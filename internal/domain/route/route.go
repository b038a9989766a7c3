package route

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status represents whether a route is open for booking
type Status string

const (
	StatusOpen      Status = "open"
	StatusDeparted  Status = "departed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Route is a driver's offered route: the candidate side of matching.
// The engine reads every field; the seat counter is mutated only through
// the store's reserve/release primitives.
type Route struct {
	ID             uuid.UUID `json:"id"`
	DriverID       uuid.UUID `json:"driver_id"`
	Origin         string    `json:"origin"`
	Destination    string    `json:"destination"`
	Stops          []string  `json:"stops,omitempty"` // ordered intermediate stops
	Departure      time.Time `json:"departure"`
	SeatCapacity   int       `json:"seat_capacity"`
	SeatsBooked    int       `json:"seats_booked"`
	PricePerSeat   float64   `json:"price_per_seat"`
	DriverRating   float64   `json:"driver_rating"`
	DriverVerified bool      `json:"driver_verified"`
	Status         Status    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Repository defines read access to routes. Seat mutation lives on the
// storage.Store interface, not here.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Route, error)
	ListOpen(ctx context.Context) ([]*Route, error)
}

var (
	ErrRouteNotFound = errors.New("route not found")
)

// SeatsAvailable returns the number of seats still bookable.
func (r *Route) SeatsAvailable() int {
	return r.SeatCapacity - r.SeatsBooked
}

// OpenForBooking reports whether the route accepts new bookings.
func (r *Route) OpenForBooking() bool {
	return r.Status == StatusOpen
}

// IsValid validates the route entity.
func (r *Route) IsValid() error {
	if r.Origin == "" || r.Destination == "" {
		return errors.New("route requires origin and destination")
	}
	if r.SeatCapacity <= 0 {
		return errors.New("route requires positive seat capacity")
	}
	if r.SeatsBooked < 0 || r.SeatsBooked > r.SeatCapacity {
		return errors.New("seats booked out of range")
	}
	if r.PricePerSeat < 0 {
		return errors.New("negative price per seat")
	}
	return nil
}
