package clustering

import "errors"

var (
	// ErrInvalidConfig is returned for options outside their valid range.
	ErrInvalidConfig = errors.New("invalid clustering configuration")
	// ErrInvalidInput is returned for an empty artifact list or bad identifiers.
	ErrInvalidInput = errors.New("invalid clustering input")
	// ErrResourceExhausted is returned when a run would exceed its size limits.
	ErrResourceExhausted = errors.New("clustering resource limit exceeded")
)
