package lifecycle

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/openride/backend/internal/domain/booking"
	"github.com/openride/backend/internal/service/token"
	"github.com/openride/backend/internal/storage"
	"github.com/openride/backend/pkg/logger"
)

// Controller owns every booking state transition. No other component
// mutates booking state or route seat counters; both go through the store's
// atomic primitives so the guarantees hold across engine instances.
type Controller struct {
	store  storage.Store
	tokens *token.Engine
	logger *logger.Logger
	now    func() time.Time
}

// New creates a Controller.
func New(store storage.Store, tokens *token.Engine, log *logger.Logger) *Controller {
	return &Controller{
		store:  store,
		tokens: tokens,
		logger: log,
		now:    time.Now,
	}
}

// NewWithClock is New with an injectable clock, for expiry tests.
func NewWithClock(store storage.Store, tokens *token.Engine, log *logger.Logger, now func() time.Time) *Controller {
	c := New(store, tokens, log)
	if now != nil {
		c.now = now
	}
	return c
}

// Create reserves seats and opens a booking in the created state. The seat
// reservation is the race-sensitive step: two concurrent creates against
// the same route cannot jointly oversell it because the store's
// ReserveSeats is atomic.
func (c *Controller) Create(ctx context.Context, riderID, routeID uuid.UUID, seats int) (*booking.Booking, error) {
	if seats <= 0 {
		return nil, booking.ErrCapacity
	}
	r, err := c.store.GetRoute(ctx, routeID)
	if err != nil {
		return nil, err
	}
	if !r.OpenForBooking() {
		return nil, booking.ErrState
	}
	if r.DriverID == riderID {
		return nil, booking.ErrUnauthorized
	}

	if err := c.store.ReserveSeats(ctx, routeID, seats); err != nil {
		return nil, err
	}

	b := &booking.Booking{
		ID:          uuid.New(),
		RiderID:     riderID,
		RouteID:     routeID,
		DriverID:    r.DriverID,
		Seats:       seats,
		TotalAmount: roundAmount(float64(seats) * r.PricePerSeat),
		State:       booking.StateCreated,
		CreatedAt:   c.now(),
	}
	if err := c.store.CreateBooking(ctx, b); err != nil {
		// Hand the seats back so a failed insert leaves no dangling hold.
		if relErr := c.store.ReleaseSeats(ctx, routeID, seats); relErr != nil {
			c.logger.Error("Failed to release seats after booking insert failure",
				logger.String("route_id", routeID.String()), logger.Err(relErr))
		}
		return nil, err
	}

	c.logger.Info("Booking created",
		logger.String("booking_id", b.ID.String()),
		logger.String("route_id", routeID.String()),
		logger.Int("seats", seats),
		logger.Float64("total_amount", b.TotalAmount),
	)
	return b, nil
}

// ConfirmPayment moves a created booking to paid and mints its single
// verification token, landing in token_issued. Retrying after the token is
// issued fails with ErrState rather than minting a second token.
func (c *Controller) ConfirmPayment(ctx context.Context, bookingID uuid.UUID, amountPaid float64) (*booking.Booking, error) {
	b, err := c.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.State != booking.StateCreated {
		return nil, booking.ErrState
	}
	if math.Abs(amountPaid-b.TotalAmount) > 0.01 {
		return nil, booking.ErrAmountMismatch
	}

	if err := c.store.TransitionState(ctx, bookingID, booking.StateCreated, booking.StatePaid); err != nil {
		return nil, err
	}

	tok, err := c.tokens.Mint(b)
	if err != nil {
		return nil, err
	}
	if err := c.store.AttachToken(ctx, bookingID, tok); err != nil {
		return nil, err
	}
	if err := c.store.TransitionState(ctx, bookingID, booking.StatePaid, booking.StateTokenIssued); err != nil {
		return nil, err
	}

	c.logger.Info("Payment confirmed and token issued",
		logger.String("booking_id", bookingID.String()),
		logger.String("token_id", tok.ID),
	)
	return c.store.GetBooking(ctx, bookingID)
}

// VerifyStatus classifies a presented token for driver-side display.
type VerifyStatus string

const (
	StatusBoardable           VerifyStatus = "boardable"
	StatusAlreadyRedeemed     VerifyStatus = "already_redeemed"
	StatusExpired             VerifyStatus = "expired"
	StatusPaymentNotConfirmed VerifyStatus = "payment_not_confirmed"
	StatusUnknownToken        VerifyStatus = "unknown_token"
	StatusMalformedToken      VerifyStatus = "malformed_token"
)

// VerifyResult is the structured outcome of a read-only verification.
type VerifyResult struct {
	Status  VerifyStatus     `json:"status"`
	Reason  string           `json:"reason"`
	Booking *booking.Booking `json:"booking,omitempty"`
}

// Verify inspects a scanned token payload without mutating anything. It
// fails closed: whatever goes wrong, the answer is a refusal with a reason,
// never an error that could be mistaken for boardability.
func (c *Controller) Verify(ctx context.Context, payload string) VerifyResult {
	tok, ok := token.Decode(payload)
	if !ok {
		return VerifyResult{Status: StatusMalformedToken, Reason: "Token could not be read - ask the rider to refresh their code"}
	}

	b, err := c.store.GetBookingByTokenID(ctx, tok.ID)
	if err != nil {
		return VerifyResult{Status: StatusUnknownToken, Reason: "Token does not match any booking"}
	}
	if b.Token == nil || !token.TagMatches(tok, b) {
		return VerifyResult{Status: StatusMalformedToken, Reason: "Token integrity check failed - possible tampering"}
	}

	switch {
	case b.State == booking.StateRedeemed || b.Token.Redeemed:
		return VerifyResult{Status: StatusAlreadyRedeemed, Reason: "Token already redeemed - rider has boarded", Booking: b}
	case b.State == booking.StateExpired || b.Token.ExpiredAt(c.now()):
		return VerifyResult{Status: StatusExpired, Reason: "Token expired - contact support", Booking: b}
	case b.State != booking.StateTokenIssued:
		return VerifyResult{Status: StatusPaymentNotConfirmed, Reason: "Payment not confirmed - cannot board", Booking: b}
	default:
		return VerifyResult{Status: StatusBoardable, Reason: "Token valid - rider can board", Booking: b}
	}
}

// Redeem consumes a token at boarding. Exactly-once: the store's
// MarkRedeemed is a compare-and-swap on the token_issued state, so under
// concurrent redeems one caller wins and the rest get ErrAlreadyRedeemed.
func (c *Controller) Redeem(ctx context.Context, payload string, driverID uuid.UUID) (*booking.Booking, error) {
	tok, ok := token.Decode(payload)
	if !ok {
		return nil, booking.ErrMalformedToken
	}

	b, err := c.store.GetBookingByTokenID(ctx, tok.ID)
	if err != nil {
		if errors.Is(err, booking.ErrUnknownBooking) {
			return nil, booking.ErrUnknownBooking
		}
		return nil, err
	}
	if b.Token == nil || !token.TagMatches(tok, b) {
		return nil, booking.ErrMalformedToken
	}
	if b.DriverID != driverID {
		return nil, booking.ErrUnauthorized
	}
	if b.State == booking.StateRedeemed {
		return nil, booking.ErrAlreadyRedeemed
	}
	if b.State != booking.StateTokenIssued {
		return nil, booking.ErrState
	}
	if b.Token.ExpiredAt(c.now()) {
		// Time-triggered side exit: record the expiry before refusing.
		if err := c.store.TransitionState(ctx, b.ID, booking.StateTokenIssued, booking.StateExpired); err != nil && !errors.Is(err, booking.ErrState) {
			return nil, err
		}
		return nil, booking.ErrExpired
	}

	if err := c.store.MarkRedeemed(ctx, b.ID, c.now()); err != nil {
		return nil, err
	}

	c.logger.Info("Token redeemed",
		logger.String("booking_id", b.ID.String()),
		logger.String("token_id", tok.ID),
		logger.String("driver_id", driverID.String()),
	)
	return c.store.GetBooking(ctx, b.ID)
}

// Cancel releases a booking's seats and closes it. Permitted only from
// created or paid; once a token is out, the booking runs to redemption or
// expiry instead.
func (c *Controller) Cancel(ctx context.Context, bookingID, actorID uuid.UUID) (*booking.Booking, error) {
	b, err := c.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if actorID != b.RiderID && actorID != b.DriverID {
		return nil, booking.ErrUnauthorized
	}
	if b.State != booking.StateCreated && b.State != booking.StatePaid {
		return nil, booking.ErrState
	}

	if err := c.store.TransitionState(ctx, bookingID, b.State, booking.StateCancelled); err != nil {
		return nil, err
	}
	if err := c.store.ReleaseSeats(ctx, b.RouteID, b.Seats); err != nil {
		return nil, err
	}

	c.logger.Info("Booking cancelled",
		logger.String("booking_id", bookingID.String()),
		logger.String("actor_id", actorID.String()),
	)
	return c.store.GetBooking(ctx, bookingID)
}

// Get returns a booking by ID.
func (c *Controller) Get(ctx context.Context, bookingID uuid.UUID) (*booking.Booking, error) {
	return c.store.GetBooking(ctx, bookingID)
}

func roundAmount(v float64) float64 {
	return math.Round(v*100) / 100
}
