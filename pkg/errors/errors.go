package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/openride/backend/internal/domain/booking"
	"github.com/openride/backend/internal/domain/route"
)

// AppError represents an application error with a machine-checkable code
// and an HTTP status for the transport boundary.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// Common error constructors

// BadRequest creates a 400 error
func BadRequest(message string, err error) *AppError {
	return &AppError{Code: "BAD_REQUEST", Message: message, Status: http.StatusBadRequest, Err: err}
}

// NotFound creates a 404 error
func NotFound(message string, err error) *AppError {
	return &AppError{Code: "NOT_FOUND", Message: message, Status: http.StatusNotFound, Err: err}
}

// Internal creates a 500 error
func Internal(message string, err error) *AppError {
	return &AppError{Code: "INTERNAL_ERROR", Message: message, Status: http.StatusInternalServerError, Err: err}
}

// domainMap carries the fixed taxonomy of engine errors. Every sentinel the
// lifecycle controller or token engine can surface has exactly one code and
// status here, so clients can switch on the code instead of parsing text.
var domainMap = []struct {
	sentinel error
	code     string
	status   int
}{
	{booking.ErrCapacity, "CAPACITY", http.StatusConflict},
	{booking.ErrState, "STATE", http.StatusConflict},
	{booking.ErrAmountMismatch, "AMOUNT_MISMATCH", http.StatusUnprocessableEntity},
	{booking.ErrExpired, "EXPIRED", http.StatusGone},
	{booking.ErrAlreadyRedeemed, "ALREADY_REDEEMED", http.StatusConflict},
	{booking.ErrUnauthorized, "UNAUTHORIZED", http.StatusForbidden},
	{booking.ErrMalformedToken, "MALFORMED_TOKEN", http.StatusBadRequest},
	{booking.ErrUnknownBooking, "UNKNOWN_BOOKING", http.StatusNotFound},
	{booking.ErrBookingNotFound, "BOOKING_NOT_FOUND", http.StatusNotFound},
	{route.ErrRouteNotFound, "ROUTE_NOT_FOUND", http.StatusNotFound},
}

// FromDomain maps a domain error to its AppError. Unrecognized errors
// become a generic internal error so nothing internal leaks to the client.
func FromDomain(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	for _, m := range domainMap {
		if errors.Is(err, m.sentinel) {
			return &AppError{Code: m.code, Message: m.sentinel.Error(), Status: m.status, Err: err}
		}
	}
	return Internal("An unexpected error occurred", err)
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
