package retry

import "errors"

// Retry-related errors.
var (
	// ErrExhausted is returned when every attempt ended in a retryable failure.
	ErrExhausted = errors.New("retry budget exhausted")
)
