package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructorsCarryStatusAndSentinel(t *testing.T) {
	cases := []struct {
		name     string
		err      *AppError
		status   int
		sentinel error
	}{
		{"validation", Validation("bad input"), http.StatusBadRequest, ErrValidation},
		{"unauthorized", Unauthorized(""), http.StatusUnauthorized, ErrUnauthorized},
		{"linkage", Linkage("no credential"), http.StatusForbidden, ErrLinkage},
		{"not found", NotFound("repository"), http.StatusNotFound, ErrNotFound},
		{"upstream auth", UpstreamAuth("exchange failed", nil), http.StatusBadGateway, ErrUpstreamAuth},
		{"upstream timeout", UpstreamTimeout("timed out"), http.StatusGatewayTimeout, ErrUpstreamTimeout},
		{"persistence", Persistence("write failed", nil), http.StatusInternalServerError, ErrPersistence},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.status, tc.err.StatusCode)
			assert.ErrorIs(t, tc.err, tc.sentinel)
			assert.Equal(t, tc.status, GetStatusCode(tc.err))
		})
	}
}

func TestUpstreamFetchDefaultsStatus(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, UpstreamFetch("fetch failed", 0, nil).StatusCode)
	assert.Equal(t, http.StatusNotFound, UpstreamFetch("fetch failed", 404, nil).StatusCode)
}

func TestGetStatusCodeFromSentinels(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, GetStatusCode(fmt.Errorf("load: %w", ErrNotFound)))
	assert.Equal(t, http.StatusForbidden, GetStatusCode(fmt.Errorf("caller: %w", ErrLinkage)))
	assert.Equal(t, http.StatusInternalServerError, GetStatusCode(fmt.Errorf("boom")))
}

func TestWithSolutionsAndDetails(t *testing.T) {
	err := Validation("missing refresh token").
		WithSolutions("Reconnect the account").
		WithDetails(map[string]int{"ahead_by": 0})

	assert.Equal(t, []string{"Reconnect the account"}, err.Solutions)
	assert.NotNil(t, err.Details)
}

func TestErrorIncludesWrapped(t *testing.T) {
	inner := fmt.Errorf("dial tcp: refused")
	err := Persistence("write failed", inner)
	assert.Contains(t, err.Error(), "write failed")
	assert.Contains(t, err.Error(), "refused")
}
