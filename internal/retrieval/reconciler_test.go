package retrieval

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/mediamatch-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockResolver implements AccessResolver with a function field.
type mockResolver struct {
	ResolveFn func(ctx context.Context, key string) (string, error)
}

func (m *mockResolver) ResolveAccess(ctx context.Context, key string) (string, error) {
	return m.ResolveFn(ctx, key)
}

// mockDownloader records downloaded paths.
type mockDownloader struct {
	mu    sync.Mutex
	paths map[string]string
	err   map[string]error
}

func (m *mockDownloader) DownloadTo(ctx context.Context, key, localPath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.err[key]; err != nil {
		return err
	}
	if m.paths == nil {
		m.paths = make(map[string]string)
	}
	m.paths[key] = localPath
	return nil
}

func presignResolver() *mockResolver {
	return &mockResolver{ResolveFn: func(ctx context.Context, key string) (string, error) {
		return "https://storage.example/" + key + "?X-Amz-Signature=abc", nil
	}}
}

func makeItems(n int) []domain.Media {
	items := make([]domain.Media, n)
	for i := range items {
		items[i] = domain.Media{ID: fmt.Sprintf("m%d", i+1), Key: fmt.Sprintf("films/m%d.mp4", i+1)}
	}
	return items
}

func ids(res Reconciliation) []string {
	var out []string
	for _, r := range res.Resolved {
		out = append(out, r.Media.ID)
	}
	for _, f := range res.Failed {
		out = append(out, f.Media.ID)
	}
	sort.Strings(out)
	return out
}

func TestNewReconciler_Validation(t *testing.T) {
	logger := testLogger()

	_, err := NewReconciler(nil, nil, Config{Mode: ModePresign}, logger)
	assert.ErrorIs(t, err, ErrNilResolver)

	_, err = NewReconciler(nil, nil, Config{Mode: ModeDownload, DownloadDir: "d"}, logger)
	assert.ErrorIs(t, err, ErrNilDownloader)

	_, err = NewReconciler(nil, &mockDownloader{}, Config{Mode: ModeDownload}, logger)
	assert.ErrorIs(t, err, ErrNoDownloadDir)

	_, err = NewReconciler(presignResolver(), nil, Config{Mode: "proxy"}, logger)
	assert.ErrorIs(t, err, ErrUnknownMode)

	r, err := NewReconciler(presignResolver(), nil, Config{Mode: ModePresign}, logger)
	require.NoError(t, err)
	assert.Equal(t, DefaultConcurrency, r.config.Concurrency)
	assert.Equal(t, ModePresign, r.Mode())
}

func TestReconcile_MissingKeyIsIsolated(t *testing.T) {
	r, err := NewReconciler(presignResolver(), nil, Config{Mode: ModePresign}, testLogger())
	require.NoError(t, err)

	items := makeItems(5)
	items[2].Key = ""

	res := r.Reconcile(context.Background(), "task-1", items)

	require.Len(t, res.Resolved, 4)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, "m3", res.Failed[0].Media.ID)
	assert.Equal(t, domain.ErrMissingStorageKey.Error(), res.Failed[0].Reason)
	assert.Equal(t, []string{"m1", "m2", "m3", "m4", "m5"}, ids(res))

	for _, resolved := range res.Resolved {
		assert.True(t, strings.HasPrefix(resolved.WatchURL, "https://storage.example/films/"))
		assert.Equal(t, resolved.WatchURL, resolved.Media.WatchURL)
	}
}

func TestReconcile_ResolverErrorsDoNotAbort(t *testing.T) {
	resolver := &mockResolver{ResolveFn: func(ctx context.Context, key string) (string, error) {
		if strings.Contains(key, "m2") || strings.Contains(key, "m4") {
			return "", errors.New("object not found")
		}
		return "https://storage.example/" + key, nil
	}}
	r, err := NewReconciler(resolver, nil, Config{Mode: ModePresign, Concurrency: 2}, testLogger())
	require.NoError(t, err)

	res := r.Reconcile(context.Background(), "task-2", makeItems(6))

	assert.Len(t, res.Resolved, 4)
	require.Len(t, res.Failed, 2)
	assert.Equal(t, "m2", res.Failed[0].Media.ID)
	assert.Equal(t, "m4", res.Failed[1].Media.ID)
	assert.Contains(t, res.Failed[0].Reason, "object not found")
	assert.Equal(t, []string{"m1", "m2", "m3", "m4", "m5", "m6"}, ids(res))
}

func TestReconcile_PreservesInputOrderWithinLists(t *testing.T) {
	resolver := &mockResolver{ResolveFn: func(ctx context.Context, key string) (string, error) {
		// Earlier items finish later.
		if strings.Contains(key, "m1.") {
			time.Sleep(30 * time.Millisecond)
		}
		return "u:" + key, nil
	}}
	r, err := NewReconciler(resolver, nil, Config{Mode: ModePresign, Concurrency: 8}, testLogger())
	require.NoError(t, err)

	res := r.Reconcile(context.Background(), "t", makeItems(4))
	require.Len(t, res.Resolved, 4)
	for i, resolved := range res.Resolved {
		assert.Equal(t, fmt.Sprintf("m%d", i+1), resolved.Media.ID)
	}
}

func TestReconcile_Empty(t *testing.T) {
	r, err := NewReconciler(presignResolver(), nil, Config{Mode: ModePresign}, testLogger())
	require.NoError(t, err)

	res := r.Reconcile(context.Background(), "t", nil)
	assert.Empty(t, res.Resolved)
	assert.NotNil(t, res.Failed)
	assert.Empty(t, res.Failed)
}

func TestReconcile_CancelledContextFailsRemainingItems(t *testing.T) {
	r, err := NewReconciler(presignResolver(), nil, Config{Mode: ModePresign}, testLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := r.Reconcile(ctx, "t", makeItems(3))
	assert.Empty(t, res.Resolved)
	require.Len(t, res.Failed, 3)
	assert.Contains(t, res.Failed[0].Reason, "cancelled")
}

func TestReconcile_DownloadMode(t *testing.T) {
	downloader := &mockDownloader{err: map[string]error{"films/m2.mp4": errors.New("disk full")}}
	dir := t.TempDir()
	r, err := NewReconciler(nil, downloader, Config{Mode: ModeDownload, DownloadDir: dir}, testLogger())
	require.NoError(t, err)

	items := makeItems(3)
	items[0].Key = "films/m1.mov"
	items[2].ID = "../../etc/passwd"

	res := r.Reconcile(context.Background(), "task-9", items)

	require.Len(t, res.Resolved, 2)
	require.Len(t, res.Failed, 1)
	assert.Contains(t, res.Failed[0].Reason, "disk full")

	first := res.Resolved[0]
	assert.Equal(t, filepath.Join(dir, "task-9", "m1.mov"), first.LocalPath)
	assert.Equal(t, "/api/download/task-9/m1.mov", first.WatchURL)

	// Path components in the id are stripped.
	third := res.Resolved[1]
	assert.Equal(t, filepath.Join(dir, "task-9", "passwd.mp4"), third.LocalPath)
	assert.Equal(t, filepath.Join(dir, "task-9"), r.TaskDir("task-9"))
}

func TestReconcile_DownloadModeDistinctFileNames(t *testing.T) {
	downloader := &mockDownloader{}
	dir := t.TempDir()
	r, err := NewReconciler(nil, downloader, Config{Mode: ModeDownload, DownloadDir: dir}, testLogger())
	require.NoError(t, err)

	items := []domain.Media{
		{ID: "a/x", Key: "films/1.mp4"},
		{ID: "b/x", Key: "films/2.mp4"},
		{ID: "x", Key: "films/3.mp4"},
	}
	res := r.Reconcile(context.Background(), "task-3", items)

	require.Len(t, res.Resolved, 3)
	taskDir := filepath.Join(dir, "task-3")
	assert.Equal(t, filepath.Join(taskDir, "x.mp4"), res.Resolved[0].LocalPath)
	assert.Equal(t, filepath.Join(taskDir, "x_2.mp4"), res.Resolved[1].LocalPath)
	assert.Equal(t, filepath.Join(taskDir, "x_3.mp4"), res.Resolved[2].LocalPath)
	assert.Equal(t, "/api/download/task-3/x_2.mp4", res.Resolved[1].WatchURL)

	paths := make(map[string]bool)
	for _, p := range downloader.paths {
		paths[p] = true
	}
	assert.Len(t, paths, 3)
}

func TestReconcile_PositionsCoverInput(t *testing.T) {
	r, err := NewReconciler(presignResolver(), nil, Config{Mode: ModePresign}, testLogger())
	require.NoError(t, err)

	items := makeItems(5)
	items[2].Key = ""
	res := r.Reconcile(context.Background(), "t", items)

	seen := make(map[int]bool)
	for _, resolved := range res.Resolved {
		seen[resolved.Position] = true
	}
	for _, failed := range res.Failed {
		assert.False(t, seen[failed.Position], "position %d reported twice", failed.Position)
		seen[failed.Position] = true
	}
	assert.Len(t, seen, 5)
	assert.Equal(t, 3, res.Failed[0].Position)
}
