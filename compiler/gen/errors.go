package gen

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure cases.
var (
	// ErrInvalidView indicates a view definition error.
	ErrInvalidView = errors.New("facet: invalid view")
	// ErrMissingConfig indicates a configuration error.
	ErrMissingConfig = errors.New("facet: missing configuration")
	// ErrGenerationFailed indicates a code generation failure.
	ErrGenerationFailed = errors.New("facet: code generation failed")
)

// ViewError represents a view definition error.
type ViewError struct {
	View    string // View type name
	Field   string // Field name (if applicable)
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ViewError) Error() string {
	var b strings.Builder
	b.WriteString("facet: view error")
	if e.View != "" {
		b.WriteString(" on view ")
		b.WriteString(e.View)
	}
	if e.Field != "" {
		b.WriteString(" field ")
		b.WriteString(e.Field)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *ViewError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for ViewError.
func (e *ViewError) Is(target error) bool {
	return target == ErrInvalidView
}

// NewViewError creates a new ViewError.
func NewViewError(viewName, fieldName, message string, cause error) *ViewError {
	return &ViewError{
		View:    viewName,
		Field:   fieldName,
		Message: message,
		Cause:   cause,
	}
}

// ConfigError represents a configuration error.
type ConfigError struct {
	Option  string
	Value   any
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("facet: config error for %q (value: %v): %s", e.Option, e.Value, e.Message)
	}
	return fmt.Sprintf("facet: config error for %q: %s", e.Option, e.Message)
}

// Is reports whether the target matches the sentinel error for ConfigError.
func (e *ConfigError) Is(target error) bool {
	return target == ErrMissingConfig
}

// NewConfigError creates a new ConfigError.
func NewConfigError(option string, value any, message string) *ConfigError {
	return &ConfigError{
		Option:  option,
		Value:   value,
		Message: message,
	}
}

// GenerationError represents a code generation error.
type GenerationError struct {
	Phase   string // "view", "provider", "constants", etc.
	File    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	var b strings.Builder
	b.WriteString("facet: generation error")
	if e.Phase != "" {
		b.WriteString(" in phase ")
		b.WriteString(e.Phase)
	}
	if e.File != "" {
		b.WriteString(" (file: ")
		b.WriteString(e.File)
		b.WriteString(")")
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for GenerationError.
func (e *GenerationError) Is(target error) bool {
	return target == ErrGenerationFailed
}

// NewGenerationError creates a new GenerationError.
func NewGenerationError(phase, file, message string, cause error) *GenerationError {
	return &GenerationError{
		Phase:   phase,
		File:    file,
		Message: message,
		Cause:   cause,
	}
}

// IsViewError reports whether the error is a ViewError.
func IsViewError(err error) bool {
	var viewErr *ViewError
	return errors.As(err, &viewErr)
}

// IsConfigError reports whether the error is a ConfigError.
func IsConfigError(err error) bool {
	var configErr *ConfigError
	return errors.As(err, &configErr)
}

// IsGenerationError reports whether the error is a GenerationError.
func IsGenerationError(err error) bool {
	var genErr *GenerationError
	return errors.As(err, &genErr)
}
