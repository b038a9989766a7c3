package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/openride/backend/internal/domain/booking"
	"github.com/openride/backend/internal/domain/route"
)

// Store is the arena for the engine's shared mutable state: route seat
// counters and booking lifecycle fields. Every mutation here must be atomic
// with respect to concurrent callers; the store holds the authoritative
// lock, not the engine (an in-process mutex would not survive multiple
// engine instances against the same database).
type Store interface {
	// Routes
	GetRoute(ctx context.Context, id uuid.UUID) (*route.Route, error)
	ListOpenRoutes(ctx context.Context) ([]*route.Route, error)
	CreateRoute(ctx context.Context, r *route.Route) error

	// ReserveSeats atomically increments the booked-seat counter by n,
	// failing with booking.ErrCapacity if fewer than n seats remain.
	ReserveSeats(ctx context.Context, routeID uuid.UUID, n int) error
	// ReleaseSeats atomically returns n seats to the route.
	ReleaseSeats(ctx context.Context, routeID uuid.UUID, n int) error

	// Bookings
	CreateBooking(ctx context.Context, b *booking.Booking) error
	GetBooking(ctx context.Context, id uuid.UUID) (*booking.Booking, error)
	GetBookingByTokenID(ctx context.Context, tokenID string) (*booking.Booking, error)

	// TransitionState moves a booking from one state to another only if it
	// is currently in the expected state, failing with booking.ErrState
	// otherwise. Compare-and-swap, not read-then-write.
	TransitionState(ctx context.Context, id uuid.UUID, from, to booking.State) error

	// AttachToken binds the minted token to the booking. At most one token
	// per booking; a second attach fails with booking.ErrState.
	AttachToken(ctx context.Context, id uuid.UUID, tok *booking.VerificationToken) error

	// MarkRedeemed flips the redeemed flag and moves the booking from
	// token_issued to redeemed in one atomic step. Under concurrent calls
	// exactly one succeeds; the rest fail with booking.ErrAlreadyRedeemed.
	MarkRedeemed(ctx context.Context, id uuid.UUID, at time.Time) error
}
