// Package errors provides a lightweight structured error type (ConversionError)
// for category-based classification in the conversion pipeline, job tracker,
// and HTTP service surface.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory represents the category of a conversion error for classification
type ErrorCategory string

const (
	// User-facing input and format errors
	CategoryInput  ErrorCategory = "input"
	CategoryFormat ErrorCategory = "format"

	// Geometry kernel integration errors
	CategoryKernel ErrorCategory = "kernel"

	// Mesh processing and export errors
	CategoryMesh       ErrorCategory = "mesh"
	CategoryExport     ErrorCategory = "export"
	CategoryFileSystem ErrorCategory = "filesystem"

	// Runtime and infrastructure errors
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Aborts the conversion
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
)

// ConversionError is a structured error with category, severity, and context
type ConversionError struct {
	Category ErrorCategory `json:"category"`
	Severity ErrorSeverity `json:"severity"`
	Message  string        `json:"message"`
	Cause    error         `json:"cause,omitempty"`
	Context  ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for ConversionError
type ContextFields map[string]any

// Error implements the error interface
func (e *ConversionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *ConversionError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *ConversionError) WithContext(key string, value any) *ConversionError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new ConversionError
func New(category ErrorCategory, severity ErrorSeverity, message string) *ConversionError {
	return &ConversionError{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Wrap creates a new ConversionError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *ConversionError {
	return &ConversionError{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// CategoryOf returns the category of err if it is (or wraps) a
// ConversionError, or CategoryInternal otherwise.
func CategoryOf(err error) ErrorCategory {
	var ce *ConversionError
	if errors.As(err, &ce) {
		return ce.Category
	}
	return CategoryInternal
}

// HasCategory reports whether err is (or wraps) a ConversionError of
// the given category.
func HasCategory(err error, category ErrorCategory) bool {
	var ce *ConversionError
	if errors.As(err, &ce) {
		return ce.Category == category
	}
	return false
}
