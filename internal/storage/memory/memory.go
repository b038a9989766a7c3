package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/openride/backend/internal/domain/booking"
	"github.com/openride/backend/internal/domain/route"
)

// Store is an in-memory storage.Store implementation. A single mutex guards
// both tables, which makes every operation trivially serializable; it backs
// the demo mode and the test suite.
type Store struct {
	mu       sync.Mutex
	routes   map[uuid.UUID]*route.Route
	bookings map[uuid.UUID]*booking.Booking
	byToken  map[string]uuid.UUID
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		routes:   make(map[uuid.UUID]*route.Route),
		bookings: make(map[uuid.UUID]*booking.Booking),
		byToken:  make(map[string]uuid.UUID),
	}
}

func (s *Store) CreateRoute(_ context.Context, r *route.Route) error {
	if err := r.IsValid(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.routes[r.ID] = &cp
	return nil
}

func (s *Store) GetRoute(_ context.Context, id uuid.UUID) (*route.Route, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.routes[id]
	if !ok {
		return nil, route.ErrRouteNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *Store) ListOpenRoutes(_ context.Context) ([]*route.Route, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*route.Route, 0, len(s.routes))
	for _, r := range s.routes {
		if r.Status == route.StatusOpen {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *Store) ReserveSeats(_ context.Context, routeID uuid.UUID, n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.routes[routeID]
	if !ok {
		return route.ErrRouteNotFound
	}
	if r.SeatCapacity-r.SeatsBooked < n {
		return booking.ErrCapacity
	}
	r.SeatsBooked += n
	r.UpdatedAt = time.Now()
	return nil
}

func (s *Store) ReleaseSeats(_ context.Context, routeID uuid.UUID, n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.routes[routeID]
	if !ok {
		return route.ErrRouteNotFound
	}
	r.SeatsBooked -= n
	if r.SeatsBooked < 0 {
		r.SeatsBooked = 0
	}
	r.UpdatedAt = time.Now()
	return nil
}

func (s *Store) CreateBooking(_ context.Context, b *booking.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *b
	s.bookings[b.ID] = &cp
	return nil
}

func (s *Store) GetBooking(_ context.Context, id uuid.UUID) (*booking.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, booking.ErrBookingNotFound
	}
	return copyBooking(b), nil
}

func (s *Store) GetBookingByTokenID(_ context.Context, tokenID string) (*booking.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byToken[tokenID]
	if !ok {
		return nil, booking.ErrUnknownBooking
	}
	b, ok := s.bookings[id]
	if !ok {
		return nil, booking.ErrUnknownBooking
	}
	return copyBooking(b), nil
}

func (s *Store) TransitionState(_ context.Context, id uuid.UUID, from, to booking.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return booking.ErrBookingNotFound
	}
	if b.State != from {
		return booking.ErrState
	}
	b.State = to
	return nil
}

func (s *Store) AttachToken(_ context.Context, id uuid.UUID, tok *booking.VerificationToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return booking.ErrBookingNotFound
	}
	if b.Token != nil {
		return booking.ErrState
	}
	cp := *tok
	b.Token = &cp
	s.byToken[tok.ID] = id
	return nil
}

func (s *Store) MarkRedeemed(_ context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return booking.ErrBookingNotFound
	}
	if b.State == booking.StateRedeemed {
		return booking.ErrAlreadyRedeemed
	}
	if b.State != booking.StateTokenIssued || b.Token == nil || b.Token.Redeemed {
		return booking.ErrState
	}
	b.Token.Redeemed = true
	b.State = booking.StateRedeemed
	b.RedeemedAt = &at
	return nil
}

func copyBooking(b *booking.Booking) *booking.Booking {
	cp := *b
	if b.Token != nil {
		tok := *b.Token
		cp.Token = &tok
	}
	if b.RedeemedAt != nil {
		at := *b.RedeemedAt
		cp.RedeemedAt = &at
	}
	return &cp
}
