package api

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is matched by every pool or strategy configuration
	// error. Configuration errors are fatal and are never corrected silently.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrOverloaded is returned by Submit when a bounded queue is full and no
	// worker can be added.
	ErrOverloaded = errors.New("executor overloaded")

	// ErrShutdown is returned by Submit once the owning pool has been shut down.
	ErrShutdown = errors.New("executor shut down")

	// ErrNilTask is returned when a nil task is submitted.
	ErrNilTask = errors.New("nil task")

	// ErrNotStarted is returned when work is dispatched to a host that is not running.
	ErrNotStarted = errors.New("host not started")
)

// ConfigError describes a single invalid configuration field.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%v: %s %s", ErrInvalidConfig, e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

func configErrorf(field, format string, args ...any) error {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
