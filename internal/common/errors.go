package common

import (
	"errors"
	"net/http"
)

// Sentinel conditions shared across domain services. Handlers translate these
// into HTTP status codes; services wrap them with fmt.Errorf("...: %w", ...).
var (
	// ErrValidation indicates the caller supplied a bad or missing field and
	// can recover by resubmitting corrected input.
	ErrValidation = errors.New("validation failure")
	// ErrNotFound indicates the referenced entity is absent or already removed.
	ErrNotFound = errors.New("not found")
	// ErrTransient indicates the underlying store timed out or the request was
	// cancelled. It is surfaced as-is without internal retries.
	ErrTransient = errors.New("transient unavailable")
)

// AppError represents an error with an attached code and HTTP status.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Details    any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap allows errors.Is/As to inspect the underlying error.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewAppError constructs an AppError.
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// IsAppError checks whether the error is an AppError.
func IsAppError(err error) bool {
	var target *AppError
	return errors.As(err, &target)
}

// HTTPStatusFor maps sentinel conditions and AppErrors onto HTTP status codes.
func HTTPStatusFor(err error) int {
	var app *AppError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &app):
		if app.HTTPStatus != 0 {
			return app.HTTPStatus
		}
		return http.StatusInternalServerError
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrTransient):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
