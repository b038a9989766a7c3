package lifecycle

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/openride/backend/internal/domain/booking"
	"github.com/openride/backend/internal/domain/route"
	"github.com/openride/backend/internal/service/token"
	"github.com/openride/backend/internal/storage/memory"
	"github.com/openride/backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store      *memory.Store
	controller *Controller
	route      *route.Route
	riderID    uuid.UUID
	driverID   uuid.UUID
}

func newFixture(t *testing.T, seatCapacity int) *fixture {
	t.Helper()

	store := memory.New()
	driverID := uuid.New()
	r := &route.Route{
		ID:           uuid.New(),
		DriverID:     driverID,
		Origin:       "Ikeja",
		Destination:  "VI",
		Departure:    time.Now().Add(2 * time.Hour),
		SeatCapacity: seatCapacity,
		PricePerSeat: 1500.00,
		Status:       route.StatusOpen,
	}
	require.NoError(t, store.CreateRoute(context.Background(), r))

	return &fixture{
		store:      store,
		controller: New(store, token.New(time.Hour), logger.NewNop()),
		route:      r,
		riderID:    uuid.New(),
		driverID:   driverID,
	}
}

// issuedBooking walks a fresh booking through payment so it holds a live token.
func (f *fixture) issuedBooking(t *testing.T, seats int) (*booking.Booking, string) {
	t.Helper()
	ctx := context.Background()

	b, err := f.controller.Create(ctx, f.riderID, f.route.ID, seats)
	require.NoError(t, err)

	b, err = f.controller.ConfirmPayment(ctx, b.ID, b.TotalAmount)
	require.NoError(t, err)
	require.Equal(t, booking.StateTokenIssued, b.State)
	require.NotNil(t, b.Token)

	payload, err := token.Encode(b.Token)
	require.NoError(t, err)
	return b, payload
}

func (f *fixture) seatsBooked(t *testing.T) int {
	t.Helper()
	r, err := f.store.GetRoute(context.Background(), f.route.ID)
	require.NoError(t, err)
	return r.SeatsBooked
}

// TestCreate_ReservesSeatsAndPricesBooking tests the happy path of creation
func TestCreate_ReservesSeatsAndPricesBooking(t *testing.T) {
	f := newFixture(t, 4)

	b, err := f.controller.Create(context.Background(), f.riderID, f.route.ID, 2)
	require.NoError(t, err)

	assert.Equal(t, booking.StateCreated, b.State)
	assert.Equal(t, 2, b.Seats)
	assert.Equal(t, 3000.00, b.TotalAmount, "2 seats at 1500 each")
	assert.Equal(t, f.driverID, b.DriverID)
	assert.Equal(t, 2, f.seatsBooked(t))
}

// TestCreate_CapacityExceeded tests over-capacity requests are refused
// without touching the seat counter
func TestCreate_CapacityExceeded(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()

	_, err := f.controller.Create(ctx, f.riderID, f.route.ID, 2)
	require.NoError(t, err)

	// One seat left; asking for two must fail and leave the counter alone.
	_, err = f.controller.Create(ctx, uuid.New(), f.route.ID, 2)
	assert.ErrorIs(t, err, booking.ErrCapacity)
	assert.Equal(t, 2, f.seatsBooked(t))

	// The remaining single seat is still bookable.
	_, err = f.controller.Create(ctx, uuid.New(), f.route.ID, 1)
	assert.NoError(t, err)
	assert.Equal(t, 3, f.seatsBooked(t))
}

// TestCreate_LastSeatsExactly tests booking down to zero availability
func TestCreate_LastSeatsExactly(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()

	b, err := f.controller.Create(ctx, f.riderID, f.route.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, b.Seats)

	r, err := f.store.GetRoute(ctx, f.route.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, r.SeatsAvailable())

	_, err = f.controller.Create(ctx, uuid.New(), f.route.ID, 1)
	assert.ErrorIs(t, err, booking.ErrCapacity)
}

// TestCreate_Refusals tests the pre-reservation guards
func TestCreate_Refusals(t *testing.T) {
	f := newFixture(t, 4)
	ctx := context.Background()

	_, err := f.controller.Create(ctx, f.riderID, f.route.ID, 0)
	assert.ErrorIs(t, err, booking.ErrCapacity, "Zero seats")

	_, err = f.controller.Create(ctx, f.riderID, uuid.New(), 1)
	assert.ErrorIs(t, err, route.ErrRouteNotFound, "Unknown route")

	_, err = f.controller.Create(ctx, f.driverID, f.route.ID, 1)
	assert.ErrorIs(t, err, booking.ErrUnauthorized, "Driver booking their own route")

	assert.Equal(t, 0, f.seatsBooked(t), "No refusal may leak a seat hold")
}

// TestCreate_ConcurrentNeverOversells tests the seat reservation under
// concurrent creates
func TestCreate_ConcurrentNeverOversells(t *testing.T) {
	f := newFixture(t, 5)
	ctx := context.Background()

	const attempts = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.controller.Create(ctx, uuid.New(), f.route.ID, 1); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, succeeded, "Exactly the capacity may be sold")
	assert.Equal(t, 5, f.seatsBooked(t))
}

// TestConfirmPayment_IssuesToken tests the created -> paid -> token_issued walk
func TestConfirmPayment_IssuesToken(t *testing.T) {
	f := newFixture(t, 4)
	ctx := context.Background()

	b, err := f.controller.Create(ctx, f.riderID, f.route.ID, 2)
	require.NoError(t, err)

	confirmed, err := f.controller.ConfirmPayment(ctx, b.ID, 3000.00)
	require.NoError(t, err)

	assert.Equal(t, booking.StateTokenIssued, confirmed.State)
	require.NotNil(t, confirmed.Token)
	assert.Equal(t, b.ID, confirmed.Token.BookingID)
	assert.False(t, confirmed.Token.Redeemed)
}

// TestConfirmPayment_AmountMismatch tests a wrong amount leaves the booking
// payable
func TestConfirmPayment_AmountMismatch(t *testing.T) {
	f := newFixture(t, 4)
	ctx := context.Background()

	b, err := f.controller.Create(ctx, f.riderID, f.route.ID, 2)
	require.NoError(t, err)

	_, err = f.controller.ConfirmPayment(ctx, b.ID, 2500.00)
	assert.ErrorIs(t, err, booking.ErrAmountMismatch)

	current, err := f.controller.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.StateCreated, current.State, "Booking stays payable after a mismatch")
	assert.Nil(t, current.Token)

	// A sub-cent difference is payment-gateway rounding, not a mismatch.
	_, err = f.controller.ConfirmPayment(ctx, b.ID, 3000.004)
	assert.NoError(t, err)
}

// TestConfirmPayment_Replays tests a second confirmation cannot mint a
// second token
func TestConfirmPayment_Replays(t *testing.T) {
	f := newFixture(t, 4)
	ctx := context.Background()

	b, _ := f.issuedBooking(t, 1)

	_, err := f.controller.ConfirmPayment(ctx, b.ID, b.TotalAmount)
	assert.ErrorIs(t, err, booking.ErrState)

	current, err := f.controller.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.Token.ID, current.Token.ID, "Original token untouched")
}

// TestConfirmPayment_UnknownBooking tests confirmation against a missing ID
func TestConfirmPayment_UnknownBooking(t *testing.T) {
	f := newFixture(t, 4)

	_, err := f.controller.ConfirmPayment(context.Background(), uuid.New(), 1500.00)
	assert.ErrorIs(t, err, booking.ErrBookingNotFound)
}

// TestVerify_Statuses tests the read-only classification of presented tokens
func TestVerify_Statuses(t *testing.T) {
	f := newFixture(t, 4)
	ctx := context.Background()

	_, payload := f.issuedBooking(t, 1)

	result := f.controller.Verify(ctx, payload)
	assert.Equal(t, StatusBoardable, result.Status)
	require.NotNil(t, result.Booking)

	result = f.controller.Verify(ctx, "not even json")
	assert.Equal(t, StatusMalformedToken, result.Status)
	assert.Nil(t, result.Booking)

	// A well-formed payload nobody minted.
	ghost := &booking.VerificationToken{
		ID:        token.DeriveID(uuid.NewString(), "nonce"),
		BookingID: uuid.New(),
		Tag:       "deadbeef",
		IssuedAt:  time.Now().UTC().Truncate(time.Second),
		ExpiresAt: time.Now().Add(time.Hour).UTC().Truncate(time.Second),
	}
	ghostPayload, err := token.Encode(ghost)
	require.NoError(t, err)
	result = f.controller.Verify(ctx, ghostPayload)
	assert.Equal(t, StatusUnknownToken, result.Status)
}

// TestVerify_TamperedPayload tests a reshaped payload fails the integrity
// check even though its token ID is real
func TestVerify_TamperedPayload(t *testing.T) {
	f := newFixture(t, 4)
	ctx := context.Background()

	b, _ := f.issuedBooking(t, 1)

	forged := *b.Token
	forged.Tag = "0000000000000000000000000000000000000000000000000000000000000000"
	payload, err := token.Encode(&forged)
	require.NoError(t, err)

	result := f.controller.Verify(ctx, payload)
	assert.Equal(t, StatusMalformedToken, result.Status)
}

// TestVerify_DoesNotMutate tests repeated verification leaves the booking
// boardable
func TestVerify_DoesNotMutate(t *testing.T) {
	f := newFixture(t, 4)
	ctx := context.Background()

	_, payload := f.issuedBooking(t, 1)

	for i := 0; i < 5; i++ {
		result := f.controller.Verify(ctx, payload)
		assert.Equal(t, StatusBoardable, result.Status)
	}
}

// TestRedeem_HappyPath tests a valid boarding
func TestRedeem_HappyPath(t *testing.T) {
	f := newFixture(t, 4)
	ctx := context.Background()

	b, payload := f.issuedBooking(t, 2)

	redeemed, err := f.controller.Redeem(ctx, payload, f.driverID)
	require.NoError(t, err)

	assert.Equal(t, booking.StateRedeemed, redeemed.State)
	require.NotNil(t, redeemed.RedeemedAt)
	assert.True(t, redeemed.Token.Redeemed)
	assert.Equal(t, b.ID, redeemed.ID)

	// The driver display now reports the boarding.
	result := f.controller.Verify(ctx, payload)
	assert.Equal(t, StatusAlreadyRedeemed, result.Status)
}

// TestRedeem_SecondAttemptRefused tests the single-use guarantee
func TestRedeem_SecondAttemptRefused(t *testing.T) {
	f := newFixture(t, 4)
	ctx := context.Background()

	_, payload := f.issuedBooking(t, 1)

	_, err := f.controller.Redeem(ctx, payload, f.driverID)
	require.NoError(t, err)

	_, err = f.controller.Redeem(ctx, payload, f.driverID)
	assert.ErrorIs(t, err, booking.ErrAlreadyRedeemed)
}

// TestRedeem_ExactlyOnceUnderConcurrency tests N racing redeems admit one winner
func TestRedeem_ExactlyOnceUnderConcurrency(t *testing.T) {
	f := newFixture(t, 4)
	ctx := context.Background()

	_, payload := f.issuedBooking(t, 1)

	const racers = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins, duplicates := 0, 0

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.controller.Redeem(ctx, payload, f.driverID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, booking.ErrAlreadyRedeemed):
				duplicates++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins, "Exactly one redeem may succeed")
	assert.Equal(t, racers-1, duplicates, "Every loser sees already-redeemed")
}

// TestRedeem_WrongDriver tests another driver cannot consume the token
func TestRedeem_WrongDriver(t *testing.T) {
	f := newFixture(t, 4)
	ctx := context.Background()

	_, payload := f.issuedBooking(t, 1)

	_, err := f.controller.Redeem(ctx, payload, uuid.New())
	assert.ErrorIs(t, err, booking.ErrUnauthorized)

	// The token stays live for the right driver.
	_, err = f.controller.Redeem(ctx, payload, f.driverID)
	assert.NoError(t, err)
}

// TestRedeem_Expired tests an expired token is refused and the booking is
// moved to expired
func TestRedeem_Expired(t *testing.T) {
	store := memory.New()
	driverID := uuid.New()
	r := &route.Route{
		ID:           uuid.New(),
		DriverID:     driverID,
		Origin:       "Ikeja",
		Destination:  "VI",
		Departure:    time.Now().Add(2 * time.Hour),
		SeatCapacity: 4,
		PricePerSeat: 1500.00,
		Status:       route.StatusOpen,
	}
	require.NoError(t, store.CreateRoute(context.Background(), r))

	clock := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	now := func() time.Time { return clock }
	engine := token.NewWithClock(time.Hour, now)
	controller := NewWithClock(store, engine, logger.NewNop(), now)
	ctx := context.Background()

	b, err := controller.Create(ctx, uuid.New(), r.ID, 1)
	require.NoError(t, err)
	b, err = controller.ConfirmPayment(ctx, b.ID, b.TotalAmount)
	require.NoError(t, err)
	payload, err := token.Encode(b.Token)
	require.NoError(t, err)

	// Jump past the TTL.
	clock = clock.Add(time.Hour + time.Second)

	_, err = controller.Redeem(ctx, payload, driverID)
	assert.ErrorIs(t, err, booking.ErrExpired)

	current, err := controller.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.StateExpired, current.State, "Expiry is recorded on refusal")

	result := controller.Verify(ctx, payload)
	assert.Equal(t, StatusExpired, result.Status)
}

// TestRedeem_BeforePayment tests a token cannot exist before payment, so a
// forged pre-payment payload never boards
func TestRedeem_BeforePayment(t *testing.T) {
	f := newFixture(t, 4)
	ctx := context.Background()

	b, err := f.controller.Create(ctx, f.riderID, f.route.ID, 1)
	require.NoError(t, err)

	forged := &booking.VerificationToken{
		ID:        token.DeriveID(b.ID.String(), "guessed"),
		BookingID: b.ID,
		Tag:       "deadbeef",
		IssuedAt:  time.Now().UTC().Truncate(time.Second),
		ExpiresAt: time.Now().Add(time.Hour).UTC().Truncate(time.Second),
	}
	payload, err := token.Encode(forged)
	require.NoError(t, err)

	_, err = f.controller.Redeem(ctx, payload, f.driverID)
	assert.ErrorIs(t, err, booking.ErrUnknownBooking)
}

// TestCancel_ReleasesSeats tests cancellation frees the seat hold
func TestCancel_ReleasesSeats(t *testing.T) {
	f := newFixture(t, 4)
	ctx := context.Background()

	b, err := f.controller.Create(ctx, f.riderID, f.route.ID, 3)
	require.NoError(t, err)
	require.Equal(t, 3, f.seatsBooked(t))

	cancelled, err := f.controller.Cancel(ctx, b.ID, f.riderID)
	require.NoError(t, err)

	assert.Equal(t, booking.StateCancelled, cancelled.State)
	assert.Equal(t, 0, f.seatsBooked(t), "Seats return to the pool")
}

// TestCancel_Permissions tests who may cancel and from which states
func TestCancel_Permissions(t *testing.T) {
	f := newFixture(t, 6)
	ctx := context.Background()

	b, err := f.controller.Create(ctx, f.riderID, f.route.ID, 1)
	require.NoError(t, err)

	_, err = f.controller.Cancel(ctx, b.ID, uuid.New())
	assert.ErrorIs(t, err, booking.ErrUnauthorized, "Strangers cannot cancel")

	_, err = f.controller.Cancel(ctx, b.ID, f.driverID)
	assert.NoError(t, err, "The route's driver may cancel")

	// Once a token is out, the booking runs to redemption or expiry.
	issued, _ := f.issuedBooking(t, 1)
	_, err = f.controller.Cancel(ctx, issued.ID, f.riderID)
	assert.ErrorIs(t, err, booking.ErrState)
}

// TestLifecycle_SeatConservation tests the seat counter across a full mixed
// workload: sold plus released always equals the initial hold
func TestLifecycle_SeatConservation(t *testing.T) {
	f := newFixture(t, 10)
	ctx := context.Background()

	// Three bookings: one rides, one cancels, one never pays.
	rides, payload := f.issuedBooking(t, 2)

	cancels, err := f.controller.Create(ctx, uuid.New(), f.route.ID, 3)
	require.NoError(t, err)

	_, err = f.controller.Create(ctx, uuid.New(), f.route.ID, 1)
	require.NoError(t, err)

	require.Equal(t, 6, f.seatsBooked(t))

	_, err = f.controller.Redeem(ctx, payload, f.driverID)
	require.NoError(t, err)

	_, err = f.controller.Cancel(ctx, cancels.ID, cancels.RiderID)
	require.NoError(t, err)

	// Redemption keeps its seats; only the cancellation released any.
	assert.Equal(t, 3, f.seatsBooked(t))

	current, err := f.controller.Get(ctx, rides.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.StateRedeemed, current.State)
}
