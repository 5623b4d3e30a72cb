package bookings

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound means no booking matches the given external id.
	ErrNotFound = errors.New("booking not found")
	// ErrNoBookings means the bookings table holds no rows for the query.
	ErrNoBookings = errors.New("no data in the bookings table")
	// ErrNothingToUpdate means an edit request carried none of the mutable fields.
	ErrNothingToUpdate = errors.New("no data to update")
	// ErrAlreadyApproved means a re-approval was refused.
	ErrAlreadyApproved = errors.New("booking has already been approved")
	// ErrNotPending means a denial was attempted on a non-pending booking.
	ErrNotPending = errors.New("booking is not pending")
	// ErrAlreadyCancelled means a cancellation was attempted twice.
	ErrAlreadyCancelled = errors.New("booking is already cancelled")
	// ErrNotificationFailed means the status change committed but the
	// confirmation email could not be dispatched.
	ErrNotificationFailed = errors.New("confirmation email could not be sent")
)

// FieldViolation is one offending field in a validation failure.
type FieldViolation struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidationError enumerates every offending field of a rejected input.
type ValidationError struct {
	Violations []FieldViolation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, fmt.Sprintf("%s: %s", v.Path, v.Message))
	}
	return strings.Join(parts, ", ")
}

// add appends a violation and returns the error for chaining.
func (e *ValidationError) add(path, message string) *ValidationError {
	e.Violations = append(e.Violations, FieldViolation{Path: path, Message: message})
	return e
}

// invalid builds a single-field validation error.
func invalid(path, message string) *ValidationError {
	return (&ValidationError{}).add(path, message)
}

// StorageError wraps a fault of the underlying storage engine.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
