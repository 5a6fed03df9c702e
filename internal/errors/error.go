package errors

import (
	stderrors "errors"
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryRuntime  Category = "runtime"
	CategoryConfig   Category = "config"
	CategoryScenario Category = "scenario"
	CategoryCLI      Category = "cli"
)

// Location represents a position in a source file.
type Location struct {
	File   string
	Line   int
	Column int
}

// String returns the location as a formatted string.
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	if l.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// ArriveError is a structured error with an optional location and hint.
type ArriveError struct {
	// Code is a unique error identifier (e.g., "A001").
	Code string

	// Category is the error type (runtime, config, etc.).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Location is where the error was found, if it came from a file.
	Location *Location

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *ArriveError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *ArriveError) Unwrap() error {
	return e.Wrapped
}

// Is reports whether target is an ArriveError with the same code.
func (e *ArriveError) Is(target error) bool {
	t, ok := target.(*ArriveError)
	if !ok {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

// WithLocation adds a file position to the error.
func (e *ArriveError) WithLocation(file string, line, column int) *ArriveError {
	e.Location = &Location{File: file, Line: line, Column: column}
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *ArriveError) WithSuggestion(s string) *ArriveError {
	e.Suggestion = s
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *ArriveError) WithDetail(d string) *ArriveError {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *ArriveError) Wrap(err error) *ArriveError {
	e.Wrapped = err
	return e
}

// New creates an ArriveError from a registered error code.
func New(code string) *ArriveError {
	template, ok := registry[code]
	if !ok {
		return &ArriveError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &ArriveError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
	}
}

// Newf creates a new ArriveError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *ArriveError {
	return &ArriveError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in an ArriveError.
func FromError(err error, code string) *ArriveError {
	if err == nil {
		return nil
	}
	var ae *ArriveError
	if stderrors.As(err, &ae) {
		return ae
	}
	return New(code).Wrap(err)
}

// HasCode reports whether err is, or wraps, an ArriveError with code.
func HasCode(err error, code string) bool {
	var ae *ArriveError
	if !stderrors.As(err, &ae) {
		return false
	}
	return ae.Code == code
}
