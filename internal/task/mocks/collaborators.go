// Package mocks provides function-field test doubles for the collaborators
// of the media search pipeline.
package mocks

import (
	"context"

	"github.com/phrazzld/mediamatch-api/internal/domain"
	"github.com/phrazzld/mediamatch-api/internal/retrieval"
)

// Embedder is a mock implementation of task.Embedder.
type Embedder struct {
	EmbedFunc func(ctx context.Context, text string) ([]float32, error)
}

// Embed implements the Embedder interface for testing.
func (m *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if m.EmbedFunc != nil {
		return m.EmbedFunc(ctx, text)
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

// Matcher is a mock implementation of task.Matcher.
type Matcher struct {
	MatchFunc func(ctx context.Context, vector []float32, threshold float64, count int) ([]domain.Media, error)
}

// Match implements the Matcher interface for testing.
func (m *Matcher) Match(ctx context.Context, vector []float32, threshold float64, count int) ([]domain.Media, error) {
	if m.MatchFunc != nil {
		return m.MatchFunc(ctx, vector, threshold, count)
	}
	return nil, nil
}

// Reconciler is a mock implementation of task.Reconciler.
type Reconciler struct {
	ReconcileFunc func(ctx context.Context, taskID string, items []domain.Media) retrieval.Reconciliation
}

// Reconcile implements the Reconciler interface for testing. By default
// every item with a key resolves to "https://media.test/<key>".
func (m *Reconciler) Reconcile(ctx context.Context, taskID string, items []domain.Media) retrieval.Reconciliation {
	if m.ReconcileFunc != nil {
		return m.ReconcileFunc(ctx, taskID, items)
	}
	res := retrieval.Reconciliation{Resolved: []retrieval.Resolved{}, Failed: []retrieval.Failed{}}
	for i, item := range items {
		if item.Key == "" {
			res.Failed = append(res.Failed, retrieval.Failed{Position: i + 1, Media: item, Reason: domain.ErrMissingStorageKey.Error()})
			continue
		}
		item.WatchURL = "https://media.test/" + item.Key
		res.Resolved = append(res.Resolved, retrieval.Resolved{Position: i + 1, Media: item, WatchURL: item.WatchURL})
	}
	return res
}
