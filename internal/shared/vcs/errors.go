package vcs

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/go-github/v57/github"

	apperrors "github.com/gradlink/server/internal/shared/errors"
)

// FieldError is a field-level validation error reported by the platform.
type FieldError struct {
	Resource string `json:"resource,omitempty"`
	Field    string `json:"field,omitempty"`
	Code     string `json:"code,omitempty"`
	Message  string `json:"message,omitempty"`
}

func (e FieldError) String() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s.%s %s", e.Resource, e.Field, e.Code)
}

// UpstreamError is an error returned by the external platform, carrying the
// upstream status code so handlers can pass it through.
type UpstreamError struct {
	StatusCode int
	Message    string
	Errors     []FieldError
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	return fmt.Sprintf("vcs: %s (status %d)", e.Message, e.StatusCode)
}

// IsNotFound reports whether the error is an upstream 404.
func IsNotFound(err error) bool {
	var upErr *UpstreamError
	return errors.As(err, &upErr) && upErr.StatusCode == http.StatusNotFound
}

// IsValidation reports whether the error is an upstream 422.
func IsValidation(err error) bool {
	var upErr *UpstreamError
	return errors.As(err, &upErr) && upErr.StatusCode == http.StatusUnprocessableEntity
}

// StatusCode returns the upstream status code carried by the error, or 0.
func StatusCode(err error) int {
	var upErr *UpstreamError
	if errors.As(err, &upErr) {
		return upErr.StatusCode
	}
	return 0
}

// translateError converts go-github and context errors into the shared
// taxonomy. A deadline on the bounded per-call context surfaces as an
// upstream timeout, never as a hang.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.ErrUpstreamTimeout
	}

	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) {
		up := &UpstreamError{
			Message: ghErr.Message,
		}
		if ghErr.Response != nil {
			up.StatusCode = ghErr.Response.StatusCode
		}
		for _, e := range ghErr.Errors {
			up.Errors = append(up.Errors, FieldError{
				Resource: e.Resource,
				Field:    e.Field,
				Code:     e.Code,
				Message:  e.Message,
			})
		}
		return up
	}

	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return &UpstreamError{
			StatusCode: http.StatusForbidden,
			Message:    "platform rate limit exceeded",
		}
	}

	return err
}
