package vcs

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/go-github/v57/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/gradlink/server/internal/shared/errors"
)

func TestTranslateErrorDeadline(t *testing.T) {
	err := translateError(fmt.Errorf("call: %w", context.DeadlineExceeded))
	assert.ErrorIs(t, err, apperrors.ErrUpstreamTimeout)
}

func TestTranslateErrorGitHubResponse(t *testing.T) {
	ghErr := &github.ErrorResponse{
		Response: &http.Response{StatusCode: http.StatusUnprocessableEntity},
		Message:  "Validation Failed",
		Errors: []github.Error{
			{Resource: "PullRequest", Field: "base", Code: "invalid", Message: "No commits between main and head"},
		},
	}

	err := translateError(ghErr)
	var upErr *UpstreamError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, http.StatusUnprocessableEntity, upErr.StatusCode)
	assert.True(t, IsValidation(err))
	require.Len(t, upErr.Errors, 1)
	assert.Equal(t, "No commits between main and head", upErr.Errors[0].Message)
}

func TestStatusHelpers(t *testing.T) {
	notFound := &UpstreamError{StatusCode: http.StatusNotFound, Message: "Not Found"}
	assert.True(t, IsNotFound(notFound))
	assert.False(t, IsValidation(notFound))
	assert.Equal(t, http.StatusNotFound, StatusCode(notFound))
	assert.Equal(t, 0, StatusCode(fmt.Errorf("plain")))

	wrapped := fmt.Errorf("gate: %w", notFound)
	assert.True(t, IsNotFound(wrapped))
}

func TestFieldErrorString(t *testing.T) {
	withMessage := FieldError{Message: "explicit"}
	assert.Equal(t, "explicit", withMessage.String())

	structured := FieldError{Resource: "PullRequest", Field: "base", Code: "invalid"}
	assert.Equal(t, "PullRequest.base invalid", structured.String())
}
