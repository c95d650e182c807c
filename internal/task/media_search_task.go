package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/mediamatch-api/internal/cache"
	"github.com/phrazzld/mediamatch-api/internal/domain"
	"github.com/phrazzld/mediamatch-api/internal/retrieval"
)

// Progress checkpoints of the media search pipeline.
const (
	ProgressEmbedding   = 20
	ProgressSearching   = 60
	ProgressReconciling = 80
)

// Common errors
var (
	ErrNilEmbedder   = errors.New("embedder cannot be nil")
	ErrNilMatcher    = errors.New("matcher cannot be nil")
	ErrNilReconciler = errors.New("reconciler cannot be nil")
	ErrNilCache      = errors.New("embedding cache cannot be nil")
	ErrNilLogger     = errors.New("logger cannot be nil")

	// ErrEmbeddingFailed wraps failures of the embedding step.
	ErrEmbeddingFailed = errors.New("text embedding failed")
	// ErrSearchFailed wraps failures of the remote search step.
	ErrSearchFailed = errors.New("media search failed")
)

// Embedder converts text into a vector. It must be safe for concurrent use.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Matcher finds media whose embeddings are similar to vector.
type Matcher interface {
	Match(ctx context.Context, vector []float32, threshold float64, count int) ([]domain.Media, error)
}

// Reconciler makes matched media retrievable.
type Reconciler interface {
	Reconcile(ctx context.Context, taskID string, items []domain.Media) retrieval.Reconciliation
}

// EmbeddingCache memoizes embeddings by normalized text.
type EmbeddingCache interface {
	GetOrCompute(ctx context.Context, key string, compute cache.ComputeFunc[[]float32]) ([]float32, error)
}

// SearchResult is stored on a completed media search record.
type SearchResult struct {
	Query domain.SearchQuery `json:"query"`
	// MediaList holds every matched item in match order; resolved items
	// carry their watch_url.
	MediaList []domain.Media       `json:"media_list"`
	Resolved  []retrieval.Resolved `json:"resolved"`
	Failed    []retrieval.Failed   `json:"failed"`
}

// MediaSearchTask implements the Task interface for matching a text
// description against the media library.
type MediaSearchTask struct {
	query      domain.SearchQuery
	embedder   Embedder
	matcher    Matcher
	reconciler Reconciler
	cache      EmbeddingCache
	logger     *slog.Logger
}

// Type returns the task type identifier
func (t *MediaSearchTask) Type() string {
	return TaskTypeMediaSearch
}

// Query returns the query the task will run.
func (t *MediaSearchTask) Query() domain.SearchQuery {
	return t.query
}

// Execute runs the pipeline: embed the text (through the cache), query the
// matcher, then reconcile the matches. Embedding and search failures end the
// task; per-item retrieval failures are part of the result.
func (t *MediaSearchTask) Execute(ctx context.Context, reporter Reporter) (any, error) {
	taskID := reporter.TaskID().String()
	logger := t.logger.With("task_id", taskID)

	// 1. Text to vector
	if err := reporter.Report(ctx, ProgressEmbedding, "converting text to vector"); err != nil {
		return nil, err
	}
	vector, err := t.cache.GetOrCompute(ctx, t.query.Text, func(ctx context.Context) ([]float32, error) {
		return t.embedder.Embed(ctx, t.query.Text)
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to embed text", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrEmbeddingFailed, err)
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: provider returned an empty vector", ErrEmbeddingFailed)
	}
	logger.DebugContext(ctx, "text embedded", "dimensions", len(vector))

	// 2. Remote search
	if err := reporter.Report(ctx, ProgressSearching, "searching for matching media"); err != nil {
		return nil, err
	}
	items, err := t.matcher.Match(ctx, vector, t.query.MatchThreshold, t.query.MatchCount)
	if err != nil {
		logger.ErrorContext(ctx, "failed to search media", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrSearchFailed, err)
	}
	logger.InfoContext(ctx, "media matched", "count", len(items))

	// 3. Reconcile
	msg := fmt.Sprintf("found %d matching media, resolving access", len(items))
	if err := reporter.Report(ctx, ProgressReconciling, msg); err != nil {
		return nil, err
	}
	rec := t.reconciler.Reconcile(ctx, taskID, items)

	return SearchResult{
		Query:     t.query,
		MediaList: annotate(items, rec),
		Resolved:  rec.Resolved,
		Failed:    rec.Failed,
	}, nil
}

// annotate returns the matched items in order with watch URLs filled in
// for the ones that resolved.
func annotate(items []domain.Media, rec retrieval.Reconciliation) []domain.Media {
	out := make([]domain.Media, len(items))
	copy(out, items)
	for _, r := range rec.Resolved {
		if r.Position >= 1 && r.Position <= len(out) {
			out[r.Position-1].WatchURL = r.WatchURL
		}
	}
	return out
}

// MediaSearchTaskFactory creates media search tasks sharing one set of
// collaborators.
type MediaSearchTaskFactory struct {
	embedder   Embedder
	matcher    Matcher
	reconciler Reconciler
	cache      EmbeddingCache
	logger     *slog.Logger
}

// NewMediaSearchTaskFactory validates the collaborators.
func NewMediaSearchTaskFactory(
	embedder Embedder,
	matcher Matcher,
	reconciler Reconciler,
	cache EmbeddingCache,
	logger *slog.Logger,
) (*MediaSearchTaskFactory, error) {
	if embedder == nil {
		return nil, ErrNilEmbedder
	}
	if matcher == nil {
		return nil, ErrNilMatcher
	}
	if reconciler == nil {
		return nil, ErrNilReconciler
	}
	if cache == nil {
		return nil, ErrNilCache
	}
	if logger == nil {
		return nil, ErrNilLogger
	}

	return &MediaSearchTaskFactory{
		embedder:   embedder,
		matcher:    matcher,
		reconciler: reconciler,
		cache:      cache,
		logger:     logger.With("task_type", TaskTypeMediaSearch),
	}, nil
}

// CreateTask validates the query and builds a task for it.
func (f *MediaSearchTaskFactory) CreateTask(query domain.SearchQuery) (*MediaSearchTask, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	return &MediaSearchTask{
		query:      query,
		embedder:   f.embedder,
		matcher:    f.matcher,
		reconciler: f.reconciler,
		cache:      f.cache,
		logger:     f.logger,
	}, nil
}
