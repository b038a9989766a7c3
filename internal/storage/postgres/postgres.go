package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/openride/backend/internal/domain/booking"
	"github.com/openride/backend/internal/domain/route"
)

// Store is the PostgreSQL-backed storage.Store. All race-sensitive
// mutations are single-statement conditional updates so the database row
// lock is the authoritative lock; rows-affected checks translate the
// outcome back into domain errors.
type Store struct {
	db *sql.DB
}

// New wraps an open database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const routeColumns = `
	id, driver_id, origin, destination, stops, departure,
	seat_capacity, seats_booked, price_per_seat,
	driver_rating, driver_verified, status, created_at, updated_at`

func (s *Store) CreateRoute(ctx context.Context, r *route.Route) error {
	if err := r.IsValid(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO routes (`+routeColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, r.ID, r.DriverID, r.Origin, r.Destination, pq.Array(r.Stops), r.Departure,
		r.SeatCapacity, r.SeatsBooked, r.PricePerSeat,
		r.DriverRating, r.DriverVerified, r.Status, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert route: %w", err)
	}
	return nil
}

func (s *Store) GetRoute(ctx context.Context, id uuid.UUID) (*route.Route, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+routeColumns+` FROM routes WHERE id = $1`, id)
	return scanRoute(row)
}

func (s *Store) ListOpenRoutes(ctx context.Context) ([]*route.Route, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+routeColumns+` FROM routes
		WHERE status = 'open'
		ORDER BY departure ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list open routes: %w", err)
	}
	defer rows.Close()

	var out []*route.Route
	for rows.Next() {
		r, err := scanRoute(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ReserveSeats increments the booked counter only while enough seats
// remain; a zero-row update means the capacity check lost.
func (s *Store) ReserveSeats(ctx context.Context, routeID uuid.UUID, n int) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE routes
		SET seats_booked = seats_booked + $1, updated_at = NOW()
		WHERE id = $2 AND seat_capacity - seats_booked >= $1
	`, n, routeID)
	if err != nil {
		return fmt.Errorf("reserve seats: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		if _, err := s.GetRoute(ctx, routeID); err != nil {
			return err
		}
		return booking.ErrCapacity
	}
	return nil
}

func (s *Store) ReleaseSeats(ctx context.Context, routeID uuid.UUID, n int) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE routes
		SET seats_booked = GREATEST(seats_booked - $1, 0), updated_at = NOW()
		WHERE id = $2
	`, n, routeID)
	if err != nil {
		return fmt.Errorf("release seats: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return route.ErrRouteNotFound
	}
	return nil
}

func (s *Store) CreateBooking(ctx context.Context, b *booking.Booking) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bookings (id, rider_id, route_id, driver_id, seats, total_amount, state, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, b.ID, b.RiderID, b.RouteID, b.DriverID, b.Seats, b.TotalAmount, b.State, b.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

const bookingColumns = `
	id, rider_id, route_id, driver_id, seats, total_amount, state, created_at, redeemed_at,
	token_id, token_nonce, token_tag, token_issued_at, token_expires_at, token_redeemed`

func (s *Store) GetBooking(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	b, err := scanBooking(row)
	if err == sql.ErrNoRows {
		return nil, booking.ErrBookingNotFound
	}
	return b, err
}

func (s *Store) GetBookingByTokenID(ctx context.Context, tokenID string) (*booking.Booking, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE token_id = $1`, tokenID)
	b, err := scanBooking(row)
	if err == sql.ErrNoRows {
		return nil, booking.ErrUnknownBooking
	}
	return b, err
}

func (s *Store) TransitionState(ctx context.Context, id uuid.UUID, from, to booking.State) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE bookings SET state = $1 WHERE id = $2 AND state = $3
	`, to, id, from)
	if err != nil {
		return fmt.Errorf("transition booking state: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		if _, err := s.GetBooking(ctx, id); err != nil {
			return err
		}
		return booking.ErrState
	}
	return nil
}

func (s *Store) AttachToken(ctx context.Context, id uuid.UUID, tok *booking.VerificationToken) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE bookings
		SET token_id = $1, token_nonce = $2, token_tag = $3,
		    token_issued_at = $4, token_expires_at = $5, token_redeemed = FALSE
		WHERE id = $6 AND token_id IS NULL
	`, tok.ID, tok.Nonce, tok.Tag, tok.IssuedAt, tok.ExpiresAt, id)
	if err != nil {
		return fmt.Errorf("attach token: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		if _, err := s.GetBooking(ctx, id); err != nil {
			return err
		}
		return booking.ErrState
	}
	return nil
}

// MarkRedeemed is the exactly-once gate: the state predicate in the WHERE
// clause means two concurrent redeems can never both update the row.
func (s *Store) MarkRedeemed(ctx context.Context, id uuid.UUID, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE bookings
		SET state = 'redeemed', token_redeemed = TRUE, redeemed_at = $1
		WHERE id = $2 AND state = 'token_issued' AND token_redeemed = FALSE
	`, at, id)
	if err != nil {
		return fmt.Errorf("mark redeemed: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		b, err := s.GetBooking(ctx, id)
		if err != nil {
			return err
		}
		if b.State == booking.StateRedeemed {
			return booking.ErrAlreadyRedeemed
		}
		return booking.ErrState
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRoute(row scanner) (*route.Route, error) {
	var r route.Route
	var stops pq.StringArray
	err := row.Scan(
		&r.ID, &r.DriverID, &r.Origin, &r.Destination, &stops, &r.Departure,
		&r.SeatCapacity, &r.SeatsBooked, &r.PricePerSeat,
		&r.DriverRating, &r.DriverVerified, &r.Status, &r.CreatedAt, &r.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, route.ErrRouteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan route: %w", err)
	}
	r.Stops = []string(stops)
	return &r, nil
}

func scanBooking(row scanner) (*booking.Booking, error) {
	var b booking.Booking
	var redeemedAt sql.NullTime
	var tokenID, tokenNonce, tokenTag sql.NullString
	var tokenIssued, tokenExpires sql.NullTime
	var tokenRedeemed sql.NullBool
	err := row.Scan(
		&b.ID, &b.RiderID, &b.RouteID, &b.DriverID, &b.Seats, &b.TotalAmount,
		&b.State, &b.CreatedAt, &redeemedAt,
		&tokenID, &tokenNonce, &tokenTag, &tokenIssued, &tokenExpires, &tokenRedeemed,
	)
	if err != nil {
		return nil, err
	}
	if redeemedAt.Valid {
		b.RedeemedAt = &redeemedAt.Time
	}
	if tokenID.Valid {
		b.Token = &booking.VerificationToken{
			ID:        tokenID.String,
			BookingID: b.ID,
			Nonce:     tokenNonce.String,
			Tag:       tokenTag.String,
			IssuedAt:  tokenIssued.Time,
			ExpiresAt: tokenExpires.Time,
			Redeemed:  tokenRedeemed.Bool,
		}
	}
	return &b, nil
}
