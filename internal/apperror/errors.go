package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError is an error that knows which HTTP status it maps to.
type AppError struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	HTTPCode int    `json:"-"`
	Cause    error  `json:"-"`

	origin *AppError
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is reports sentinel identity so that errors.Is works on values returned by
// WithCause.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e == t || (e.origin != nil && e.origin == t)
}

// WithCause returns a copy of a sentinel carrying cause. errors.Is(copy, sentinel) holds.
func (e *AppError) WithCause(cause error) *AppError {
	origin := e
	if e.origin != nil {
		origin = e.origin
	}
	return &AppError{
		Code:     e.Code,
		Message:  e.Message,
		HTTPCode: e.HTTPCode,
		Cause:    cause,
		origin:   origin,
	}
}

const (
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeBadRequest       = "BAD_REQUEST"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeForbidden        = "FORBIDDEN"
	CodeNotFound         = "NOT_FOUND"
	CodeConflict         = "CONFLICT"
	CodeDatabaseError    = "DATABASE_ERROR"
	CodeInternalError    = "INTERNAL_ERROR"
)

func Validation(message string, cause error) *AppError {
	return &AppError{Code: CodeValidationFailed, Message: message, HTTPCode: http.StatusBadRequest, Cause: cause}
}

// BadRequest is used for business rule failures, which the API reports as 400.
func BadRequest(message string) *AppError {
	return &AppError{Code: CodeBadRequest, Message: message, HTTPCode: http.StatusBadRequest}
}

func Unauthorized(message string) *AppError {
	return &AppError{Code: CodeUnauthorized, Message: message, HTTPCode: http.StatusUnauthorized}
}

func Forbidden(message string) *AppError {
	return &AppError{Code: CodeForbidden, Message: message, HTTPCode: http.StatusForbidden}
}

func NotFound(message string) *AppError {
	return &AppError{Code: CodeNotFound, Message: message, HTTPCode: http.StatusNotFound}
}

// Conflict reports unique constraint violations. The API surface keeps these at 400.
func Conflict(message string) *AppError {
	return &AppError{Code: CodeConflict, Message: message, HTTPCode: http.StatusBadRequest}
}

func Database(message string, cause error) *AppError {
	return &AppError{Code: CodeDatabaseError, Message: message, HTTPCode: http.StatusInternalServerError, Cause: cause}
}

func Internal(message string, cause error) *AppError {
	return &AppError{Code: CodeInternalError, Message: message, HTTPCode: http.StatusInternalServerError, Cause: cause}
}

// HTTPCode extracts the status code from err, defaulting to 500.
func HTTPCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPCode
	}
	return http.StatusInternalServerError
}

// IsType checks whether err carries the given code.
func IsType(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
