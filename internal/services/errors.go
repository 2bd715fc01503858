package services

import "errors"

// Service-level error kinds. Together with repositories.ErrNotFound and
// repositories.ErrInsufficientStock they form the full taxonomy the
// transport layer maps to responses.
var (
	// ErrInvalidInput marks malformed requests: missing ids, non-positive
	// quantities or prices, empty item lists. Detected before any mutation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidState marks an operation that is not legal for the entity's
	// current state, e.g. cancelling an already-cancelled order.
	ErrInvalidState = errors.New("invalid state")

	// ErrUnavailable marks an underlying store failure. The caller should
	// retry the whole operation; compensation has already run, so no partial
	// stock decrement is left behind.
	ErrUnavailable = errors.New("service unavailable")
)
