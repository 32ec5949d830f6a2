// Package apperror defines the application's error taxonomy.
//
// Every error that should reach a caller with a specific meaning wraps one of
// the sentinel errors below. HTTP handlers map the sentinel to a status code
// and use Message as the user-visible {"status": ...} text.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrValidation     = errors.New("Validation Error")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrUpstream       = errors.New("upstream unavailable")
	ErrNotImplemented = errors.New("not implemented")
)

type AppError struct {
	Err     error  // actual error
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Field:   id,
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// AuthMissing is returned when a request carries no session credential at all.
func AuthMissing() *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: "authorization missing",
	}
}

// SessionNotFound is returned when the presented credential does not resolve
// to a stored token. The label reads "session expired" because that is what
// the user sees, whether or not expiry was actually checked.
func SessionNotFound() *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: "session expired",
	}
}

// Upstream wraps a failure of an external collaborator (the chat platform).
func Upstream(message string, cause error) *AppError {
	return &AppError{
		Err:     errors.Join(ErrUpstream, cause),
		Message: message,
	}
}

func NotImplemented(operation string) *AppError {
	return &AppError{
		Err:     ErrNotImplemented,
		Message: operation + " not implemented",
	}
}
