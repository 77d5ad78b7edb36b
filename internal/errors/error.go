package errors

import (
	stderrors "errors"
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryLookup     Category = "lookup"
	CategoryType       Category = "type"
	CategoryConversion Category = "conversion"
	CategoryReactor    Category = "reactor"
	CategoryConfig     Category = "config"
	CategoryCLI        Category = "cli"
	CategoryHTTP       Category = "http"
)

// PropError is a structured error with a code, an explanation and an optional cause.
type PropError struct {
	// Code is a unique error identifier (e.g., "E001").
	Code string

	// Category is the error type (lookup, conversion, etc.).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *PropError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *PropError) Unwrap() error {
	return e.Wrapped
}

// WithSuggestion adds a fix suggestion to the error.
func (e *PropError) WithSuggestion(s string) *PropError {
	e.Suggestion = s
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *PropError) WithDetail(d string) *PropError {
	e.Detail = d
	return e
}

// WithDetailf adds a formatted explanation to the error.
func (e *PropError) WithDetailf(format string, args ...any) *PropError {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// Wrap wraps another error.
func (e *PropError) Wrap(err error) *PropError {
	e.Wrapped = err
	return e
}

// New creates a PropError from a registered error code.
func New(code string) *PropError {
	template, ok := registry[code]
	if !ok {
		return &PropError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &PropError{
		Code:       code,
		Category:   template.Category,
		Message:    template.Message,
		Suggestion: template.Suggestion,
	}
}

// Newf creates a new PropError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *PropError {
	return &PropError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError returns the first PropError in err's chain, or wraps err in a
// new PropError with the given code.
func FromError(err error, code string) *PropError {
	if err == nil {
		return nil
	}
	var pe *PropError
	if stderrors.As(err, &pe) {
		return pe
	}
	return New(code).Wrap(err)
}

// CodeOf returns the code of the first PropError in err's chain, or "".
func CodeOf(err error) string {
	var pe *PropError
	if stderrors.As(err, &pe) {
		return pe.Code
	}
	return ""
}
