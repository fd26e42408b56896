// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// booking core and handlers to distinguish between failure scenarios
// without inspecting driver errors. For example, ErrOverlap signals that
// a booking could not be written because another active booking holds an
// intersecting slot, while ErrStatusChanged reports that a conditional
// status update matched the row but not its expected status.
package repository

import "errors"

// ErrHallNotFound is returned when a hall lookup fails.
var ErrHallNotFound = errors.New("hall not found")

// ErrBookingNotFound is returned when a booking lookup fails.
var ErrBookingNotFound = errors.New("booking not found")

// ErrAccountNotFound is returned when an account lookup fails.
var ErrAccountNotFound = errors.New("account not found")

// ErrDepartmentNotFound is returned when a department id does not exist.
var ErrDepartmentNotFound = errors.New("department not found")

// ErrEmailExists is returned when creating an account whose email is
// already registered (MySQL error 1062).
var ErrEmailExists = errors.New("email already exists")

// ErrOverlap is returned when an insert or reschedule finds an active
// booking whose slot intersects the requested one.  Handlers should
// translate this into an HTTP 409 response.
var ErrOverlap = errors.New("overlapping booking")

// ErrStatusChanged is returned when a compare-and-swap on a booking's
// status affected no rows although the booking exists: another request
// moved it first, or it was never in an allowed source state.
var ErrStatusChanged = errors.New("booking status changed")

// ErrNoChange indicates an UPDATE whose values equal the stored ones.
var ErrNoChange = errors.New("no change")
