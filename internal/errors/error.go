package errors

import (
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryRuntime    Category = "runtime"
	CategoryConfig     Category = "config"
	CategoryRepeat     Category = "repeat"
	CategoryDefinition Category = "definition"
)

// Location points at the file and field an error refers to.
type Location struct {
	File  string `json:"file,omitempty"`
	Field string `json:"field,omitempty"`
}

// String returns the location as "file: field".
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	switch {
	case l.File != "" && l.Field != "":
		return fmt.Sprintf("%s: %s", l.File, l.Field)
	case l.File != "":
		return l.File
	default:
		return l.Field
	}
}

// SceneError is a structured error with a code, location and suggestion.
type SceneError struct {
	// Code is a unique error identifier (e.g., "S201").
	Code string

	// Category is the error type.
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Location is the definition file and field the error refers to.
	Location *Location

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// DocURL is a link to documentation about this error.
	DocURL string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *SceneError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *SceneError) Unwrap() error {
	return e.Wrapped
}

// Is reports whether target is a SceneError with the same code.
func (e *SceneError) Is(target error) bool {
	t, ok := target.(*SceneError)
	if !ok || t.Code == "" {
		return false
	}
	return t.Code == e.Code
}

// WithLocation records the file and field the error refers to.
func (e *SceneError) WithLocation(file, field string) *SceneError {
	e.Location = &Location{File: file, Field: field}
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *SceneError) WithSuggestion(s string) *SceneError {
	e.Suggestion = s
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *SceneError) WithDetail(d string) *SceneError {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *SceneError) Wrap(err error) *SceneError {
	e.Wrapped = err
	return e
}

// New creates a SceneError from a registered error code.
func New(code string) *SceneError {
	template, ok := registry[code]
	if !ok {
		return &SceneError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &SceneError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
		DocURL:   template.DocURL,
	}
}

// Newf creates a new SceneError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *SceneError {
	return &SceneError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a SceneError.
func FromError(err error, code string) *SceneError {
	if err == nil {
		return nil
	}
	if se, ok := err.(*SceneError); ok {
		return se
	}
	return New(code).Wrap(err)
}
