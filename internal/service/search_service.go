package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/mediamatch-api/internal/domain"
	"github.com/phrazzld/mediamatch-api/internal/service/auth"
	"github.com/phrazzld/mediamatch-api/internal/task"
)

// CredentialLookup resolves an API key to a credential without side effects.
type CredentialLookup interface {
	Lookup(key string) (auth.Credential, error)
}

// QuotaLedger admits or denies requests per caller.
type QuotaLedger interface {
	Admit(callerKey string, limit int, window time.Duration) bool
}

// SearchTaskFactory creates media search tasks.
type SearchTaskFactory interface {
	CreateTask(query domain.SearchQuery) (*task.MediaSearchTask, error)
}

// TaskRunner defines the interface for submitting background tasks
type TaskRunner interface {
	// Submit records the task as pending, queues it and returns its id
	Submit(ctx context.Context, t task.Task) (uuid.UUID, error)
}

// TaskReader reads task records.
type TaskReader interface {
	Get(ctx context.Context, id uuid.UUID) (task.Record, error)
}

// QuotaPolicy is the default per-caller limit.
type QuotaPolicy struct {
	Limit  int
	Window time.Duration
}

// SearchService provides media search operations
type SearchService interface {
	// Submit admits a search request and starts processing it in the
	// background. It returns the id to poll.
	Submit(ctx context.Context, callerKey, text string, matchCount int, threshold float64) (uuid.UUID, error)

	// GetStatus returns the current record of a task.
	GetStatus(ctx context.Context, id uuid.UUID) (task.Record, error)
}

// SearchServiceError wraps errors from the search service with context.
type SearchServiceError struct {
	// Operation is the operation that failed (e.g., "submit", "get_status")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for SearchServiceError.
func (e *SearchServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("search service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("search service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *SearchServiceError) Unwrap() error {
	return e.Err
}

// NewSearchServiceError creates a new SearchServiceError.
// Known sentinel errors are returned directly, or mapped to their service
// counterparts, without wrapping.
func NewSearchServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, ErrQuotaExceeded),
		errors.Is(err, auth.ErrMissingCredential),
		errors.Is(err, auth.ErrInvalidCredential),
		errors.Is(err, domain.ErrValidation):
		return err
	case errors.Is(err, task.ErrTaskNotFound):
		return ErrTaskNotFound
	case errors.Is(err, task.ErrQueueFull), errors.Is(err, task.ErrQueueClosed):
		return fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}

	return &SearchServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// searchServiceImpl implements the SearchService interface
type searchServiceImpl struct {
	credentials CredentialLookup
	ledger      QuotaLedger
	factory     SearchTaskFactory
	runner      TaskRunner
	tasks       TaskReader
	quota       QuotaPolicy
	logger      *slog.Logger
}

// NewSearchService creates a new SearchService
// It returns an error if any of the required dependencies are nil.
func NewSearchService(
	credentials CredentialLookup,
	ledger QuotaLedger,
	factory SearchTaskFactory,
	runner TaskRunner,
	tasks TaskReader,
	quota QuotaPolicy,
	logger *slog.Logger,
) (SearchService, error) {
	deps := []struct {
		name  string
		isNil bool
	}{
		{"credentials", credentials == nil},
		{"ledger", ledger == nil},
		{"factory", factory == nil},
		{"runner", runner == nil},
		{"tasks", tasks == nil},
	}
	for _, d := range deps {
		if d.isNil {
			return nil, &SearchServiceError{
				Operation: "create_service",
				Message:   d.name + " cannot be nil",
			}
		}
	}
	if quota.Limit <= 0 || quota.Window <= 0 {
		return nil, &SearchServiceError{
			Operation: "create_service",
			Message:   "quota limit and window must be positive",
		}
	}

	// Use provided logger or create default
	if logger == nil {
		logger = slog.Default()
	}

	return &searchServiceImpl{
		credentials: credentials,
		ledger:      ledger,
		factory:     factory,
		runner:      runner,
		tasks:       tasks,
		quota:       quota,
		logger:      logger.With("component", "search_service"),
	}, nil
}

// Submit checks the credential, validates the query, then charges the
// caller's quota before handing the task to the runner. Invalid requests
// never consume quota.
func (s *searchServiceImpl) Submit(
	ctx context.Context,
	callerKey, text string,
	matchCount int,
	threshold float64,
) (uuid.UUID, error) {
	// 1. Credential
	cred, err := s.credentials.Lookup(callerKey)
	if err != nil {
		s.logger.WarnContext(ctx, "search rejected: credential", "reason", err)
		return uuid.Nil, NewSearchServiceError("submit", "credential check failed", err)
	}
	logger := s.logger.With("caller", cred.Name)

	// 2. Validation
	query, err := domain.NewSearchQuery(text, matchCount, threshold)
	if err != nil {
		logger.DebugContext(ctx, "search rejected: invalid query", "error", err)
		return uuid.Nil, NewSearchServiceError("submit", "invalid search query", err)
	}

	// 3. Quota
	limit := s.quota.Limit
	if cred.RateLimit > 0 {
		limit = cred.RateLimit
	}
	if !s.ledger.Admit(cred.Key, limit, s.quota.Window) {
		logger.InfoContext(ctx, "search rejected: quota exceeded",
			"limit", limit,
			"window", s.quota.Window)
		return uuid.Nil, ErrQuotaExceeded
	}

	// 4. Submit
	searchTask, err := s.factory.CreateTask(query)
	if err != nil {
		return uuid.Nil, NewSearchServiceError("submit", "failed to create search task", err)
	}
	id, err := s.runner.Submit(ctx, searchTask)
	if err != nil {
		logger.ErrorContext(ctx, "failed to submit search task", "error", err)
		return uuid.Nil, NewSearchServiceError("submit", "failed to submit search task", err)
	}

	logger.InfoContext(ctx, "search task submitted",
		"task_id", id,
		"match_count", query.MatchCount,
		"match_threshold", query.MatchThreshold)
	return id, nil
}

// GetStatus returns the current record of a task.
func (s *searchServiceImpl) GetStatus(ctx context.Context, id uuid.UUID) (task.Record, error) {
	rec, err := s.tasks.Get(ctx, id)
	if err != nil {
		return task.Record{}, NewSearchServiceError("get_status", "failed to read task", err)
	}
	return rec, nil
}
