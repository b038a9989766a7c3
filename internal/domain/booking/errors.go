package booking

import "errors"

var (
	ErrBookingNotFound = errors.New("booking not found")

	ErrCapacity        = errors.New("not enough seats available")
	ErrState           = errors.New("operation invalid for current booking state")
	ErrAmountMismatch  = errors.New("payment amount does not match booking total")
	ErrExpired         = errors.New("verification token has expired")
	ErrAlreadyRedeemed = errors.New("verification token already redeemed")
	ErrUnauthorized    = errors.New("actor not authorized for this booking")
	ErrMalformedToken  = errors.New("malformed verification token")
	ErrUnknownBooking  = errors.New("token does not reference a known booking")
)
