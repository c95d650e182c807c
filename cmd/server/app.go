package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/phrazzld/mediamatch-api/internal/cache"
	"github.com/phrazzld/mediamatch-api/internal/config"
	"github.com/phrazzld/mediamatch-api/internal/events"
	"github.com/phrazzld/mediamatch-api/internal/platform/gemini"
	"github.com/phrazzld/mediamatch-api/internal/platform/matcher"
	"github.com/phrazzld/mediamatch-api/internal/platform/objectstore"
	"github.com/phrazzld/mediamatch-api/internal/quota"
	"github.com/phrazzld/mediamatch-api/internal/retrieval"
	"github.com/phrazzld/mediamatch-api/internal/service"
	"github.com/phrazzld/mediamatch-api/internal/service/auth"
	"github.com/phrazzld/mediamatch-api/internal/task"
)

// objectStorage is the part of the object store the application uses.
type objectStorage interface {
	retrieval.AccessResolver
	retrieval.Downloader
	Ping(ctx context.Context) error
}

// collaborators are the external systems the pipeline talks to.
type collaborators struct {
	embedder task.Embedder
	matcher  task.Matcher
	storage  objectStorage
}

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	credentials *auth.Registry
	ledger      *quota.Ledger
	embeddings  *cache.Cache[[]float32]
	storage     objectStorage
	reconciler  *retrieval.Reconciler

	taskStore  *task.MemoryStore
	taskRunner *task.Runner
	taskEvents *events.InMemoryEventEmitter
	taskTotals *events.StatusCounter

	searchService service.SearchService
}

// newApplication connects the external collaborators and assembles the
// application around them.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	embedder, err := gemini.NewEmbedder(ctx, logger, cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	logger.Info("Embedding client initialized", "model", cfg.Embedding.Model)

	matchClient, err := matcher.NewClient(cfg.Matcher, &http.Client{}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize matcher client: %w", err)
	}

	storage, err := objectstore.New(cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize object storage: %w", err)
	}
	if err := storage.Ping(ctx); err != nil {
		// Storage may come up after the API; the health endpoint keeps reporting it.
		logger.Warn("Object storage not reachable at startup", "bucket", cfg.Storage.Bucket, "error", err)
	}

	return assembleApplication(cfg, logger, collaborators{
		embedder: embedder,
		matcher:  matchClient,
		storage:  storage,
	})
}

// assembleApplication wires the in-process components. It does not start
// the task runner.
func assembleApplication(cfg *config.Config, logger *slog.Logger, deps collaborators) (*application, error) {
	app := &application{
		config:  cfg,
		logger:  logger,
		storage: deps.storage,
	}

	var err error
	app.credentials, err = buildCredentials(cfg.Auth)
	if err != nil {
		return nil, err
	}
	logger.Info("API credentials loaded", "count", app.credentials.Len())

	app.ledger = quota.NewLedger()

	app.embeddings, err = cache.New[[]float32](cache.Config{
		MaxEntries: cfg.Cache.MaxEntries,
		TTL:        cfg.Cache.TTL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding cache: %w", err)
	}

	app.reconciler, err = retrieval.NewReconciler(deps.storage, deps.storage, retrieval.Config{
		Mode:        retrieval.Mode(cfg.Storage.Mode),
		DownloadDir: cfg.Storage.DownloadDir,
		Concurrency: cfg.Storage.Concurrency,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create retrieval reconciler: %w", err)
	}

	app.taskStore = task.NewMemoryStore(logger)
	app.taskRunner = task.NewRunner(app.taskStore, task.RunnerConfig{
		WorkerCount:   cfg.Tasks.WorkerCount,
		QueueSize:     cfg.Tasks.QueueSize,
		Retention:     cfg.Tasks.Retention,
		SweepInterval: cfg.Tasks.SweepInterval,
	}, logger)

	app.taskEvents = events.NewInMemoryEventEmitter(logger)
	app.taskTotals = events.NewStatusCounter()
	app.taskEvents.RegisterHandler(app.taskTotals)
	app.taskEvents.RegisterHandler(finishedTaskLogger(logger))
	app.taskRunner.SetEventEmitter(app.taskEvents)

	factory, err := task.NewMediaSearchTaskFactory(deps.embedder, deps.matcher, app.reconciler, app.embeddings, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create search task factory: %w", err)
	}

	app.searchService, err = service.NewSearchService(
		app.credentials,
		app.ledger,
		factory,
		app.taskRunner,
		app.taskStore,
		service.QuotaPolicy{Limit: cfg.Quota.Limit, Window: cfg.Quota.Window},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create search service: %w", err)
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// finishedTaskLogger logs one line per task that reached a terminal state.
func finishedTaskLogger(logger *slog.Logger) events.EventHandler {
	logger = logger.With("component", "task_events")
	return events.HandlerFunc(func(ctx context.Context, event *events.TaskEvent) error {
		if !event.Terminal() {
			return nil
		}
		logger.InfoContext(ctx, "task finished",
			"task_id", event.TaskID,
			"task_type", event.TaskType,
			"transition", event.Transition,
			"elapsed", event.Elapsed)
		return nil
	})
}

// buildCredentials merges inline keys and the optional credentials file.
func buildCredentials(cfg config.AuthConfig) (*auth.Registry, error) {
	var creds []auth.Credential
	for _, key := range cfg.APIKeys {
		creds = append(creds, auth.Credential{Key: key})
	}

	if cfg.CredentialsFile != "" {
		fromFile, err := auth.LoadCredentialsFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load credentials file: %w", err)
		}
		creds = append(creds, fromFile...)
	}

	registry, err := auth.NewRegistry(creds)
	if err != nil {
		return nil, fmt.Errorf("failed to build credential registry: %w", err)
	}
	if registry.Len() == 0 {
		return nil, fmt.Errorf("failed to build credential registry: %w", config.ErrNoCredentials)
	}
	return registry, nil
}

// Run starts the task runner and serves HTTP until ctx is cancelled.
func (app *application) Run(ctx context.Context) error {
	app.taskRunner.Start()

	if err := app.startHTTPServer(ctx, app.setupRouter()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.taskRunner != nil {
		app.taskRunner.Stop()
	}
	app.logger.Info("Application shutdown completed")
}
