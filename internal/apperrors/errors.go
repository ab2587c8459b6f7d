// Package apperrors defines the error taxonomy shared by the content engine
// and its HTTP collaborator.
package apperrors

import (
	"errors"
	"fmt"
)

// Code classifies an AppError.
type Code string

const (
	CodeValidation Code = "VALIDATION_FAILED"
	CodeNotFound   Code = "NOT_FOUND"
	CodeConflict   Code = "CONFLICT"
	CodeInternal   Code = "INTERNAL"
)

// AppError represents an application error with code and message.
type AppError struct {
	Code    Code
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Validation reports bad caller input. Never retried.
func Validation(format string, args ...interface{}) *AppError {
	return &AppError{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports a missing item or an unmet transition precondition.
func NotFound(format string, args ...interface{}) *AppError {
	return &AppError{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Conflict reports a uniqueness violation.
func Conflict(format string, args ...interface{}) *AppError {
	return &AppError{Code: CodeConflict, Message: fmt.Sprintf(format, args...)}
}

// Internal wraps a storage or transaction failure.
func Internal(message string, err error) *AppError {
	return &AppError{Code: CodeInternal, Message: message, Err: err}
}

// CodeOf returns the code of the first AppError in err's chain,
// or CodeInternal for any other non-nil error.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// IsNotFound is shorthand for Is(err, CodeNotFound).
func IsNotFound(err error) bool {
	return Is(err, CodeNotFound)
}

// Classify passes AppErrors through untouched and wraps anything else as Internal.
func Classify(message string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return err
	}
	return Internal(message, err)
}
