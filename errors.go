package facet

import (
	"errors"
	"fmt"
)

// Standard sentinel errors for metadata lookup and path resolution.
var (
	// ErrUnresolvable is returned when a projection path names a segment
	// with no mapping in the metadata.
	ErrUnresolvable = errors.New("facet: unresolvable path")

	// ErrNoProvider is returned when the registry needs its metadata
	// provider and none is configured.
	ErrNoProvider = errors.New("facet: metadata provider not configured")
)

// ConfigurationError represents an invalid registry or metadata
// configuration. It is fatal: retrying the failed call cannot succeed
// until the configuration changes.
type ConfigurationError struct {
	msg  string
	wrap error
}

// Error returns the error string.
func (e *ConfigurationError) Error() string {
	if e.wrap != nil {
		return fmt.Sprintf("facet: invalid configuration: %s: %v", e.msg, e.wrap)
	}
	return fmt.Sprintf("facet: invalid configuration: %s", e.msg)
}

// Unwrap returns the underlying error.
func (e *ConfigurationError) Unwrap() error {
	return e.wrap
}

// NewConfigurationError returns a new ConfigurationError with the given message.
func NewConfigurationError(msg string, wrap error) *ConfigurationError {
	return &ConfigurationError{msg: msg, wrap: wrap}
}

// IsConfigurationError returns true if the error is a ConfigurationError.
func IsConfigurationError(err error) bool {
	if err == nil {
		return false
	}
	var e *ConfigurationError
	return errors.As(err, &e)
}

// ResolutionError represents a failed projection-path resolution.
// Path always carries the full original path, not the segment that
// failed; the segment is named by the underlying error.
type ResolutionError struct {
	Path string // Original projection path being resolved
	Err  error  // Underlying error
}

// Error returns the error string.
func (e *ResolutionError) Error() string {
	return fmt.Sprintf("facet: resolving %q: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// NewResolutionError returns a new ResolutionError for the given path.
func NewResolutionError(path string, err error) *ResolutionError {
	return &ResolutionError{Path: path, Err: err}
}

// IsResolutionError returns true if the error is a ResolutionError.
func IsResolutionError(err error) bool {
	if err == nil {
		return false
	}
	var e *ResolutionError
	return errors.As(err, &e)
}

// IsUnresolvable returns true if the error was caused by a projection
// path with no mapping.
func IsUnresolvable(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrUnresolvable)
}
