package models

import (
	"errors"
	"fmt"
)

// Error taxonomy returned by repos and services. Handlers translate these to
// HTTP status codes; ErrUnavailable is the only one a caller should retry.
var (
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
	ErrConflict         = errors.New("conflict")
	ErrCapacityExceeded = errors.New("event is at capacity")
	ErrUnavailable      = errors.New("storage unavailable")
)

// ValidationError reports which input field failed and why, so clients can
// correct the request without seeing internal state.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// Unavailable wraps a transient storage failure so callers can detect it with
// errors.Is(err, ErrUnavailable).
func Unavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
