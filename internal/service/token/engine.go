package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/openride/backend/internal/domain/booking"
)

// DefaultTTL is how long a minted token stays redeemable.
const DefaultTTL = 24 * time.Hour

const tokenPrefix = "SEAT"

// Engine mints and validates single-use verification tokens. It keeps no
// state of its own; the booking record is the source of truth for whether a
// token has been redeemed.
type Engine struct {
	ttl time.Duration
	now func() time.Time
}

// New creates an Engine with the given TTL (DefaultTTL when zero).
func New(ttl time.Duration) *Engine {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Engine{ttl: ttl, now: time.Now}
}

// NewWithClock is New with an injectable clock, for expiry tests.
func NewWithClock(ttl time.Duration, now func() time.Time) *Engine {
	e := New(ttl)
	if now != nil {
		e.now = now
	}
	return e
}

// TTL returns the configured token lifetime.
func (e *Engine) TTL() time.Duration {
	return e.ttl
}

// Mint creates the verification token for a paid booking. The token ID is
// derived from the booking ID plus a per-mint random nonce, so IDs are
// unguessable but reproducible from the recorded nonce. The integrity tag
// binds the booking's identity and amount, so a tampered payload is
// detectable without trusting the payload itself.
func (e *Engine) Mint(b *booking.Booking) (*booking.VerificationToken, error) {
	nonceBytes := make([]byte, 16)
	if _, err := rand.Read(nonceBytes); err != nil {
		return nil, fmt.Errorf("generate token nonce: %w", err)
	}
	nonce := hex.EncodeToString(nonceBytes)

	issuedAt := e.now().UTC().Truncate(time.Second)
	tok := &booking.VerificationToken{
		ID:        DeriveID(b.ID.String(), nonce),
		BookingID: b.ID,
		Nonce:     nonce,
		Tag:       Tag(b, issuedAt),
		IssuedAt:  issuedAt,
		ExpiresAt: issuedAt.Add(e.ttl),
	}
	return tok, nil
}

// DeriveID computes the token identifier for a booking ID and nonce.
func DeriveID(bookingID, nonce string) string {
	digest := sha256.Sum256([]byte(bookingID + ":" + nonce))
	return fmt.Sprintf("%s-%s-%s", tokenPrefix, strings.ReplaceAll(bookingID, "-", "")[:8], hex.EncodeToString(digest[:])[:8])
}

// Tag computes the integrity tag: a SHA-256 over the booking fields a
// forged payload would need to alter.
func Tag(b *booking.Booking, issuedAt time.Time) string {
	payload := fmt.Sprintf("%s|%s|%s|%.2f|%d",
		b.ID, b.RouteID, b.RiderID, b.TotalAmount, issuedAt.UTC().Unix())
	digest := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(digest[:])
}

// TagMatches recomputes the tag from the booking record and compares it to
// the one carried by the token.
func TagMatches(tok *booking.VerificationToken, b *booking.Booking) bool {
	return tok.Tag == Tag(b, tok.IssuedAt)
}

// wirePayload is the compact structure embedded in the rider's QR code.
type wirePayload struct {
	TokenID   string `json:"token_id"`
	BookingID string `json:"booking_id"`
	Sig       string `json:"sig"`
	IssuedAt  int64  `json:"issued_at"`
	ExpiresAt int64  `json:"expires_at"`
}

// Encode serializes the token into its scannable wire form.
func Encode(tok *booking.VerificationToken) (string, error) {
	raw, err := json.Marshal(wirePayload{
		TokenID:   tok.ID,
		BookingID: tok.BookingID.String(),
		Sig:       tok.Tag,
		IssuedAt:  tok.IssuedAt.Unix(),
		ExpiresAt: tok.ExpiresAt.Unix(),
	})
	if err != nil {
		return "", fmt.Errorf("encode token: %w", err)
	}
	return string(raw), nil
}

// Decode parses a scanned payload back into a token. It fails closed: any
// parse error, missing field, or shape violation yields ok=false, never a
// panic or partial token.
func Decode(payload string) (*booking.VerificationToken, bool) {
	var wire wirePayload
	if err := json.Unmarshal([]byte(payload), &wire); err != nil {
		return nil, false
	}
	if wire.TokenID == "" || wire.Sig == "" || wire.IssuedAt <= 0 || wire.ExpiresAt <= wire.IssuedAt {
		return nil, false
	}
	if !strings.HasPrefix(wire.TokenID, tokenPrefix+"-") || strings.Count(wire.TokenID, "-") != 2 {
		return nil, false
	}
	bookingID, err := uuid.Parse(wire.BookingID)
	if err != nil {
		return nil, false
	}
	return &booking.VerificationToken{
		ID:        wire.TokenID,
		BookingID: bookingID,
		Tag:       wire.Sig,
		IssuedAt:  time.Unix(wire.IssuedAt, 0).UTC(),
		ExpiresAt: time.Unix(wire.ExpiresAt, 0).UTC(),
	}, true
}
