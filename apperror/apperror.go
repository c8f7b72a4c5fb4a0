// Package apperror defines the error kinds that services hand back to the
// gateway and REST handlers. Every kind is reported to clients inside a
// response envelope; none of them becomes a transport-level failure.
package apperror

import (
	"errors"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrUnavailable  = errors.New("store unavailable")
)

type AppError struct {
	Err     error  // sentinel kind
	Message string // human-readable, safe to show to the client
	Field   string // optional: request field at fault
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(message string) *AppError {
	return &AppError{Err: ErrNotFound, Message: message}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{Err: ErrValidation, Message: message, Field: field}
}

func Conflict(field, message string) *AppError {
	return &AppError{Err: ErrConflict, Message: message, Field: field}
}

// Unauthorized is used for credential failures. The message must not reveal
// which credential was wrong.
func Unauthorized(message string) *AppError {
	return &AppError{Err: ErrUnauthorized, Message: message}
}

// Unavailable wraps a store failure. The cause stays reachable through
// errors.Is/As while Message carries the text shown to the client.
func Unavailable(cause error) *AppError {
	return &AppError{Err: errors.Join(ErrUnavailable, cause), Message: cause.Error()}
}

// Message returns the client-facing text for err. AppErrors contribute their
// own message; anything else is reported with its underlying error text.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
