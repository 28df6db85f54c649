package dynamo

import (
	"errors"
	"fmt"
)

// Setup-time errors. A simulation is never constructed when one of these is
// returned.
var (
	// ErrInvalidConfig indicates a configuration value outside its valid range.
	ErrInvalidConfig = errors.New("dynamo: invalid configuration")

	// ErrUnknownContainer indicates a container variant the solver cannot resolve.
	ErrUnknownContainer = errors.New("dynamo: unrecognized container variant")

	// ErrNonPositiveRadius indicates a particle radius <= 0.
	ErrNonPositiveRadius = errors.New("dynamo: particle radius must be positive")

	// ErrInvalidCapacity indicates a particle capacity <= 0.
	ErrInvalidCapacity = errors.New("dynamo: particle capacity must be positive")

	// ErrResourceExhausted indicates the store or grid would exceed its allocation limit.
	ErrResourceExhausted = errors.New("dynamo: allocation limit exceeded")
)

// Per-call errors returned by Step.
var (
	// ErrActiveCount indicates an active count outside [0, capacity].
	ErrActiveCount = errors.New("dynamo: active count out of range")

	// ErrInvalidTimestep indicates a negative, NaN or infinite frame dt.
	ErrInvalidTimestep = errors.New("dynamo: invalid timestep")
)

// ConfigError wraps a setup error with the offending field.
type ConfigError struct {
	Field   string
	Value   any
	Wrapped error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s=%v: %v", e.Field, e.Value, e.Wrapped)
}

func (e *ConfigError) Unwrap() error {
	return e.Wrapped
}

// NewConfigError is shorthand for a *ConfigError.
func NewConfigError(field string, value any, wrapped error) error {
	return &ConfigError{Field: field, Value: value, Wrapped: wrapped}
}

// StepError records which frame of a run failed.
type StepError struct {
	Frame   int
	Time    float64
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("frame %d (t=%.4f): %v", e.Frame, e.Time, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
