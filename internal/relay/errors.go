package relay

import "errors"

// Domain-specific errors for relay operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrInvalidRelayIndex is returned for relay indexes outside 0-7
	// (the ping sentinel -1 is only valid internally, never from callers).
	ErrInvalidRelayIndex = errors.New("relay: relay index must be between 0 and 7")

	// ErrInvalidMode is returned when a config carries an unknown mode.
	ErrInvalidMode = errors.New("relay: invalid mode")

	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("relay: not found")
)
