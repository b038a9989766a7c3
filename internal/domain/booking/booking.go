package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// State represents a booking's lifecycle state
type State string

const (
	StateCreated     State = "created"
	StatePaid        State = "paid"
	StateTokenIssued State = "token_issued"
	StateRedeemed    State = "redeemed"
	StateCancelled   State = "cancelled"
	StateExpired     State = "expired"
)

// Terminal reports whether no further transition is permitted from s.
func (s State) Terminal() bool {
	switch s {
	case StateRedeemed, StateCancelled, StateExpired:
		return true
	}
	return false
}

// Booking ties a rider to seats on a route. State is owned exclusively by
// the lifecycle controller; nothing else writes it.
type Booking struct {
	ID          uuid.UUID          `json:"id"`
	RiderID     uuid.UUID          `json:"rider_id"`
	RouteID     uuid.UUID          `json:"route_id"`
	DriverID    uuid.UUID          `json:"driver_id"`
	Seats       int                `json:"seats"`
	TotalAmount float64            `json:"total_amount"`
	State       State              `json:"state"`
	Token       *VerificationToken `json:"token,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	RedeemedAt  *time.Time         `json:"redeemed_at,omitempty"`
}

// VerificationToken is the single-use boarding credential bound 1:1 to a
// paid booking. Immutable once minted except for the redeemed flag, which
// flips false->true exactly once.
type VerificationToken struct {
	ID        string    `json:"token_id"`
	BookingID uuid.UUID `json:"booking_id"`
	Nonce     string    `json:"-"` // per-mint randomness, kept for audit
	Tag       string    `json:"sig"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Redeemed  bool      `json:"redeemed"`
}

// ExpiredAt reports whether the token is past its TTL at the given instant.
func (t *VerificationToken) ExpiredAt(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// Repository defines booking data access.
type Repository interface {
	Create(ctx context.Context, b *Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	GetByTokenID(ctx context.Context, tokenID string) (*Booking, error)
}
