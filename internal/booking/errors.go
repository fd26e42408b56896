// Package booking holds the hall availability checker and the booking
// state machine.  It is transport-agnostic: handlers translate the
// sentinel errors below into HTTP responses.
package booking

import "errors"

var (
	// ErrNotFound is returned when the referenced hall or booking does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when the requested slot overlaps an active booking.
	ErrConflict = errors.New("time slot conflict")
	// ErrInvalidState is returned when a transition is attempted from a
	// status that does not allow it, including losing a concurrent decision.
	ErrInvalidState = errors.New("invalid booking state")
	// ErrForbidden is returned when the caller's role or ownership does not
	// permit the operation.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalid is returned for malformed input.  It is wrapped with a
	// message naming the offending field.
	ErrInvalid = errors.New("invalid input")
)
