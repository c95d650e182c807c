package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/phrazzld/mediamatch-api/internal/domain"
	"golang.org/x/sync/errgroup"
)

// Mode selects how items are made retrievable.
type Mode string

const (
	// ModePresign resolves each item to a time-limited storage URL.
	ModePresign Mode = "presign"
	// ModeDownload copies each item into DownloadDir/<task id>/.
	ModeDownload Mode = "download"
)

// Defaults for Config.
const (
	DefaultConcurrency       = 4
	DefaultDownloadURLPrefix = "/api/download"
)

// Configuration errors returned by NewReconciler.
var (
	ErrNilResolver   = errors.New("access resolver cannot be nil in presign mode")
	ErrNilDownloader = errors.New("downloader cannot be nil in download mode")
	ErrNoDownloadDir = errors.New("download directory cannot be empty in download mode")
	ErrUnknownMode   = errors.New("unknown retrieval mode")
)

// AccessResolver produces a direct-access URL for a storage key.
type AccessResolver interface {
	ResolveAccess(ctx context.Context, key string) (string, error)
}

// Downloader copies the object at key to localPath.
type Downloader interface {
	DownloadTo(ctx context.Context, key, localPath string) error
}

// Config holds reconciler settings.
type Config struct {
	Mode        Mode
	DownloadDir string
	// DownloadURLPrefix is prepended to task id and file name to build the
	// URL under which downloaded files are served.
	DownloadURLPrefix string
	// Concurrency bounds how many items are resolved at once.
	Concurrency int
}

// Resolved is an item that can be fetched. Position is the item's 1-based
// index in the reconciled input.
type Resolved struct {
	Position  int          `json:"position"`
	Media     domain.Media `json:"media"`
	WatchURL  string       `json:"watch_url"`
	LocalPath string       `json:"local_path,omitempty"`
}

// Failed is an item that could not be made retrievable.
type Failed struct {
	Position int          `json:"position"`
	Media    domain.Media `json:"media"`
	Reason   string       `json:"reason"`
}

// Reconciliation partitions the input items.
type Reconciliation struct {
	Resolved []Resolved `json:"resolved"`
	Failed   []Failed   `json:"failed"`
}

// Reconciler resolves matched media against object storage.
type Reconciler struct {
	resolver   AccessResolver
	downloader Downloader
	config     Config
	logger     *slog.Logger
}

// NewReconciler validates the configuration for the selected mode.
func NewReconciler(resolver AccessResolver, downloader Downloader, config Config, logger *slog.Logger) (*Reconciler, error) {
	switch config.Mode {
	case ModePresign:
		if resolver == nil {
			return nil, ErrNilResolver
		}
	case ModeDownload:
		if downloader == nil {
			return nil, ErrNilDownloader
		}
		if config.DownloadDir == "" {
			return nil, ErrNoDownloadDir
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, config.Mode)
	}

	if config.Concurrency <= 0 {
		config.Concurrency = DefaultConcurrency
	}
	if config.DownloadURLPrefix == "" {
		config.DownloadURLPrefix = DefaultDownloadURLPrefix
	}

	return &Reconciler{
		resolver:   resolver,
		downloader: downloader,
		config:     config,
		logger:     logger.With("component", "retrieval_reconciler", "mode", string(config.Mode)),
	}, nil
}

// Mode returns the configured mode.
func (r *Reconciler) Mode() Mode {
	return r.config.Mode
}

// TaskDir returns the directory that holds downloads for taskID.
func (r *Reconciler) TaskDir(taskID string) string {
	return filepath.Join(r.config.DownloadDir, taskID)
}

// outcome holds exactly one of resolved or failed.
type outcome struct {
	resolved *Resolved
	failed   *Failed
}

// Reconcile resolves every item. Items are processed concurrently but each
// output list keeps the input order.
func (r *Reconciler) Reconcile(ctx context.Context, taskID string, items []domain.Media) Reconciliation {
	outcomes := make([]outcome, len(items))
	names := make([]string, len(items))
	if r.config.Mode == ModeDownload {
		names = localNames(items)
	}

	var g errgroup.Group
	g.SetLimit(r.config.Concurrency)
	for i, item := range items {
		g.Go(func() error {
			outcomes[i] = r.reconcileItem(ctx, taskID, i+1, item, names[i])
			return nil
		})
	}
	// Workers never return errors; per-item failures live in outcomes.
	_ = g.Wait()

	result := Reconciliation{
		Resolved: make([]Resolved, 0, len(items)),
		Failed:   []Failed{},
	}
	for _, o := range outcomes {
		if o.resolved != nil {
			result.Resolved = append(result.Resolved, *o.resolved)
		} else {
			result.Failed = append(result.Failed, *o.failed)
		}
	}

	r.logger.InfoContext(ctx, "reconciliation finished",
		"task_id", taskID,
		"items", len(items),
		"resolved", len(result.Resolved),
		"failed", len(result.Failed))

	return result
}

// localNames assigns each item a distinct file name inside the task
// directory. A name already taken gets the item's position appended.
func localNames(items []domain.Media) []string {
	names := make([]string, len(items))
	used := make(map[string]bool, len(items))
	for i, item := range items {
		position := i + 1
		name := filepath.Base(item.LocalFileName(position))
		if used[name] {
			ext := filepath.Ext(name)
			stem := strings.TrimSuffix(name, ext)
			for n := 0; used[name]; n++ {
				if n == 0 {
					name = fmt.Sprintf("%s_%d%s", stem, position, ext)
				} else {
					name = fmt.Sprintf("%s_%d_%d%s", stem, position, n, ext)
				}
			}
		}
		used[name] = true
		names[i] = name
	}
	return names
}

func (r *Reconciler) reconcileItem(ctx context.Context, taskID string, position int, item domain.Media, name string) outcome {
	fail := func(reason string) outcome {
		r.logger.WarnContext(ctx, "media item not retrievable",
			"task_id", taskID,
			"media_id", item.ID,
			"position", position,
			"reason", reason)
		return outcome{failed: &Failed{Position: position, Media: item, Reason: reason}}
	}

	if item.Key == "" {
		return fail(domain.ErrMissingStorageKey.Error())
	}
	if err := ctx.Err(); err != nil {
		return fail(fmt.Sprintf("reconciliation cancelled: %v", err))
	}

	switch r.config.Mode {
	case ModeDownload:
		if name == "." || name == string(filepath.Separator) || name == ".." {
			return fail("invalid local file name")
		}
		localPath := filepath.Join(r.TaskDir(taskID), name)
		if err := r.downloader.DownloadTo(ctx, item.Key, localPath); err != nil {
			return fail(fmt.Sprintf("download failed: %v", err))
		}
		watchURL := fmt.Sprintf("%s/%s/%s", r.config.DownloadURLPrefix, taskID, url.PathEscape(name))
		item.WatchURL = watchURL
		return outcome{resolved: &Resolved{Position: position, Media: item, WatchURL: watchURL, LocalPath: localPath}}

	default:
		accessURL, err := r.resolver.ResolveAccess(ctx, item.Key)
		if err != nil {
			return fail(fmt.Sprintf("access resolution failed: %v", err))
		}
		item.WatchURL = accessURL
		return outcome{resolved: &Resolved{Position: position, Media: item, WatchURL: accessURL}}
	}
}
