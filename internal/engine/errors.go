package engine

import (
	"errors"
	"fmt"
)

// RuntimeError represents an error detected while evaluating a filter
// against a record.
//
// Runtime errors include:
//   - Unsupported value: a record field holds a type the evaluator cannot compare
//   - Invalid geometry: a record field used by a spatial comparison is not a geometry
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Field is the record field being evaluated.
	Field string
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeUnsupportedValue indicates a field value of an unknown type.
	ErrCodeUnsupportedValue RuntimeErrorCode = "UNSUPPORTED_VALUE"

	// ErrCodeInvalidGeometry indicates a field that cannot be read as a geometry.
	ErrCodeInvalidGeometry RuntimeErrorCode = "INVALID_GEOMETRY"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field=%s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsUnsupportedValue returns true if the error is an unsupported value error.
// Uses errors.As to handle wrapped errors.
func IsUnsupportedValue(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeUnsupportedValue
	}
	return false
}

// IsInvalidGeometry returns true if the error is an invalid geometry error.
func IsInvalidGeometry(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeInvalidGeometry
	}
	return false
}

func unsupportedValue(field string, v any) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeUnsupportedValue,
		Message: fmt.Sprintf("cannot compare value of type %T", v),
		Field:   field,
	}
}

func invalidGeometry(field string, format string, args ...any) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeInvalidGeometry,
		Message: fmt.Sprintf(format, args...),
		Field:   field,
	}
}
