package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/mediamatch-api/internal/api/shared"
	"github.com/phrazzld/mediamatch-api/internal/service/auth"
	"github.com/phrazzld/mediamatch-api/internal/task"
)

// MockSearchService is a mock implementation of service.SearchService for testing
type MockSearchService struct {
	SubmitFn    func(ctx context.Context, callerKey, text string, matchCount int, threshold float64) (uuid.UUID, error)
	GetStatusFn func(ctx context.Context, id uuid.UUID) (task.Record, error)
}

// Submit implements service.SearchService
func (m *MockSearchService) Submit(
	ctx context.Context,
	callerKey, text string,
	matchCount int,
	threshold float64,
) (uuid.UUID, error) {
	if m.SubmitFn != nil {
		return m.SubmitFn(ctx, callerKey, text, matchCount, threshold)
	}
	return uuid.New(), nil
}

// GetStatus implements service.SearchService
func (m *MockSearchService) GetStatus(ctx context.Context, id uuid.UUID) (task.Record, error) {
	if m.GetStatusFn != nil {
		return m.GetStatusFn(ctx, id)
	}
	return task.Record{ID: id, Status: task.StatusPending}, nil
}

// serve routes a single request through chi so path params resolve.
func serve(pattern, method, target, body string, handler http.HandlerFunc, cred *auth.Credential) *httptest.ResponseRecorder {
	router := chi.NewRouter()
	router.Method(method, pattern, handler)

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if cred != nil {
		req = req.WithContext(shared.WithCredential(req.Context(), *cred))
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}
