// Package planerr defines the error taxonomy shared by the planning packages
package planerr

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks an unrecoverable declarative mistake; planning aborts
	ErrConfiguration = errors.New("configuration error")

	// ErrNotFound marks a lookup or removal of an id that was never declared
	ErrNotFound = errors.New("not found")
)

// ConfigurationError provides structured information about an invalid declaration
type ConfigurationError struct {
	Scope   string // scope or declaration the error belongs to, may be empty
	Message string // human-readable description
	Err     error  // underlying cause, may be nil
}

// Configurationf creates a ConfigurationError with a formatted message
func Configurationf(scope, format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{
		Scope:   scope,
		Message: fmt.Sprintf(format, args...),
	}
}

// Error implements the error interface
func (e *ConfigurationError) Error() string {
	msg := e.Message
	if e.Scope != "" {
		msg = e.Scope + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return "configuration error: " + msg
}

// Unwrap exposes both the sentinel and the cause to errors.Is / errors.As
func (e *ConfigurationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrConfiguration}
	}
	return []error{ErrConfiguration, e.Err}
}

// NotFoundError reports an id missing from a registry of the given kind
type NotFoundError struct {
	Kind string `json:"kind"` // e.g. "plugins", "builtins"
	ID   string `json:"id"`
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %q not found", e.Kind, e.ID)
}

// Is matches ErrNotFound
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// IsConfiguration reports whether err is, or wraps, a configuration error
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}
