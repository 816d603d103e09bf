package telemetry

import "errors"

// Domain-specific errors for the ingest pipeline.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrValidation is returned when a sensor payload fails validation.
	// The offending payload is recorded in the event log.
	ErrValidation = errors.New("telemetry: invalid sensor data")

	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("telemetry: not found")
)
