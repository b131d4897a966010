package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Common error types.
var (
	ErrNotFound        = errors.New("resource not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrValidation      = errors.New("validation failed")
	ErrLinkage         = errors.New("missing required linkage")
	ErrUpstreamAuth    = errors.New("upstream authorization failed")
	ErrUpstreamFetch   = errors.New("upstream fetch failed")
	ErrUpstreamTimeout = errors.New("upstream call timed out")
	ErrPersistence     = errors.New("persistence failure")
	ErrConflict        = errors.New("resource conflict")
	ErrInternal        = errors.New("internal error")
)

// AppError represents an application error with HTTP status and error code.
type AppError struct {
	Code       string   `json:"code"`
	Message    string   `json:"message"`
	StatusCode int      `json:"-"`
	Solutions  []string `json:"solutions,omitempty"`
	Details    any      `json:"details,omitempty"`
	Err        error    `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithSolutions attaches remediation hints for the client operator.
func (e *AppError) WithSolutions(hints ...string) *AppError {
	e.Solutions = append(e.Solutions, hints...)
	return e
}

// WithDetails attaches structured detail to the error.
func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

// NewAppError creates a new application error.
func NewAppError(code string, message string, statusCode int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Err:        err,
	}
}

// Common error constructors.

// Validation creates a validation error for missing or malformed input.
// Always local: detected before any upstream call.
func Validation(message string) *AppError {
	return &AppError{
		Code:       "VALIDATION_ERROR",
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Err:        ErrValidation,
	}
}

// Unauthorized creates an identity-token error.
func Unauthorized(message string) *AppError {
	if message == "" {
		message = "authentication required"
	}
	return &AppError{
		Code:       "UNAUTHORIZED",
		Message:    message,
		StatusCode: http.StatusUnauthorized,
		Err:        ErrUnauthorized,
	}
}

// Linkage creates an error for a caller lacking a required external
// credential or an approved connection.
func Linkage(message string) *AppError {
	return &AppError{
		Code:       "LINKAGE_ERROR",
		Message:    message,
		StatusCode: http.StatusForbidden,
		Err:        ErrLinkage,
	}
}

// NotFound creates a not found error.
func NotFound(resource string) *AppError {
	return &AppError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: http.StatusNotFound,
		Err:        ErrNotFound,
	}
}

// UpstreamAuth creates an error for a failed upstream token operation.
func UpstreamAuth(message string, err error) *AppError {
	return &AppError{
		Code:       "UPSTREAM_AUTH",
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Err:        errors.Join(ErrUpstreamAuth, err),
	}
}

// UpstreamFetch creates an error for a failed upstream read. The status code
// defaults to 500 when the upstream did not supply one.
func UpstreamFetch(message string, statusCode int, err error) *AppError {
	if statusCode == 0 {
		statusCode = http.StatusInternalServerError
	}
	return &AppError{
		Code:       "UPSTREAM_FETCH",
		Message:    message,
		StatusCode: statusCode,
		Err:        errors.Join(ErrUpstreamFetch, err),
	}
}

// UpstreamTimeout creates an error for a timed-out upstream call.
func UpstreamTimeout(message string) *AppError {
	return &AppError{
		Code:       "UPSTREAM_TIMEOUT",
		Message:    message,
		StatusCode: http.StatusGatewayTimeout,
		Err:        ErrUpstreamTimeout,
	}
}

// Persistence creates an error for a durable-store write failure.
func Persistence(message string, err error) *AppError {
	return &AppError{
		Code:       "PERSISTENCE_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Err:        errors.Join(ErrPersistence, err),
	}
}

// Internal creates an internal error.
func Internal(message string, err error) *AppError {
	return &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Err:        err,
	}
}

// GetStatusCode returns the appropriate HTTP status code for an error.
func GetStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrLinkage):
		return http.StatusForbidden
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrUpstreamTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
