package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/phrazzld/mediamatch-api/internal/api/shared"
	"github.com/phrazzld/mediamatch-api/internal/domain"
	"github.com/phrazzld/mediamatch-api/internal/service"
	"github.com/phrazzld/mediamatch-api/internal/service/auth"
	"github.com/phrazzld/mediamatch-api/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapErrorToStatusCode(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedMsg    string
	}{
		{
			name:           "nil error",
			err:            nil,
			expectedStatus: http.StatusInternalServerError,
			expectedMsg:    "An unexpected error occurred",
		},
		{
			name:           "missing credential",
			err:            auth.ErrMissingCredential,
			expectedStatus: http.StatusUnauthorized,
			expectedMsg:    "API key required",
		},
		{
			name:           "wrapped invalid credential",
			err:            fmt.Errorf("lookup: %w", auth.ErrInvalidCredential),
			expectedStatus: http.StatusUnauthorized,
			expectedMsg:    "Invalid API key",
		},
		{
			name:           "quota exceeded",
			err:            service.ErrQuotaExceeded,
			expectedStatus: http.StatusTooManyRequests,
			expectedMsg:    "Rate limit exceeded",
		},
		{
			name:           "task not found",
			err:            service.ErrTaskNotFound,
			expectedStatus: http.StatusNotFound,
			expectedMsg:    "Task not found",
		},
		{
			name:           "empty text",
			err:            fmt.Errorf("%w: %w", domain.ErrValidation, domain.ErrEmptyText),
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "Search text cannot be empty",
		},
		{
			name:           "match count",
			err:            fmt.Errorf("%w: %w: 0", domain.ErrValidation, domain.ErrInvalidMatchCount),
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "match_count must be between 1 and 100",
		},
		{
			name:           "threshold",
			err:            fmt.Errorf("%w: %w: 2", domain.ErrValidation, domain.ErrInvalidThreshold),
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "match_threshold must be between 0 and 1",
		},
		{
			name:           "malformed body",
			err:            fmt.Errorf("%w: unexpected EOF", shared.ErrInvalidRequestBody),
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    "Invalid request format",
		},
		{
			name:           "queue full",
			err:            fmt.Errorf("%w: %w", service.ErrServiceUnavailable, task.ErrQueueFull),
			expectedStatus: http.StatusServiceUnavailable,
			expectedMsg:    "Service temporarily unavailable, try again later",
		},
		{
			name:           "unknown error",
			err:            errors.New("dial tcp 10.0.0.1:5432: connection refused"),
			expectedStatus: http.StatusInternalServerError,
			expectedMsg:    "An unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectedStatus, MapErrorToStatusCode(tt.err))
			assert.Equal(t, tt.expectedMsg, GetSafeErrorMessage(tt.err))
		})
	}
}

func TestHandleAPIError(t *testing.T) {
	t.Run("fallback replaces generic message", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/api/search", nil)

		HandleAPIError(w, r, errors.New("secret=hunter2hunter2"), "Failed to submit search")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		var body shared.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "Failed to submit search", body.Error)
		assert.NotContains(t, w.Body.String(), "hunter2")
	})

	t.Run("fallback ignored for mapped errors", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/api/search", nil)

		HandleAPIError(w, r, service.ErrQuotaExceeded, "Failed to submit search")

		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Contains(t, w.Body.String(), "Rate limit exceeded")
	})
}

func TestSanitizeValidationError(t *testing.T) {
	err := shared.ValidateRequest(&SearchRequest{})
	require.Error(t, err)
	assert.Equal(t, "Invalid text: required field", SanitizeValidationError(err))
	assert.Equal(t, "Validation error", SanitizeValidationError(errors.New("other")))
}

func TestJSONFieldName(t *testing.T) {
	assert.Equal(t, "text", jsonFieldName("Text"))
	assert.Equal(t, "match_count", jsonFieldName("MatchCount"))
}
