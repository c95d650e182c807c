package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/mediamatch-api/internal/events"
	"github.com/phrazzld/mediamatch-api/internal/redact"
)

// messages written by the runner
const (
	msgCompleted    = "processing completed"
	msgQueueFull    = "task rejected: queue is full, try again later"
	msgShuttingDown = "task rejected: service is shutting down"
)

// RunnerConfig holds configuration for the task runner
type RunnerConfig struct {
	// WorkerCount determines how many tasks execute concurrently
	WorkerCount int

	// QueueSize determines the buffer size for the in-memory job queue
	QueueSize int

	// Retention is how long terminal records are kept before being swept.
	// Zero disables sweeping.
	Retention time.Duration

	// SweepInterval defines how often to sweep old records
	// If zero, defaults to 5 minutes
	SweepInterval time.Duration
}

// DefaultRunnerConfig returns a RunnerConfig with reasonable defaults
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		WorkerCount:   8,
		QueueSize:     256,
		Retention:     24 * time.Hour,
		SweepInterval: 5 * time.Minute,
	}
}

// Runner accepts tasks, records them in the store and executes them on a
// worker pool. Completion is communicated only through the store.
type Runner struct {
	store      Store
	queue      *TaskQueue
	pool       *WorkerPool
	config     RunnerConfig
	logger     *slog.Logger
	errHandler func(id uuid.UUID, task Task, err error)
	emitter    events.EventEmitter

	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	startOnce  sync.Once
	stopOnce   sync.Once
}

// NewRunner creates a new Runner
func NewRunner(store Store, config RunnerConfig, logger *slog.Logger) *Runner {
	if config.SweepInterval == 0 {
		config.SweepInterval = 5 * time.Minute
	}
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultRunnerConfig().QueueSize
	}

	logger = logger.With("component", "task_runner")
	ctx, cancel := context.WithCancel(context.Background())

	r := &Runner{
		store:      store,
		queue:      NewTaskQueue(config.QueueSize, logger),
		config:     config,
		logger:     logger,
		ctx:        ctx,
		cancelFunc: cancel,
		errHandler: func(id uuid.UUID, task Task, err error) {
			// Default error handler just logs the error
			logger.Error("task execution failed",
				"task_id", id,
				"task_type", task.Type(),
				"error", redact.Error(err))
		},
	}
	r.pool = NewWorkerPool(r.queue, WorkerPoolConfig{WorkerCount: config.WorkerCount}, r.processJob, logger)
	return r
}

// SetErrorHandler allows setting a custom error handler function
func (r *Runner) SetErrorHandler(handler func(id uuid.UUID, task Task, err error)) {
	r.errHandler = handler
}

// SetEventEmitter publishes lifecycle transitions to emitter. It must be
// called before Start.
func (r *Runner) SetEventEmitter(emitter events.EventEmitter) {
	r.emitter = emitter
}

func (r *Runner) emit(ctx context.Context, id uuid.UUID, task Task, transition, message string, elapsed time.Duration) {
	if r.emitter == nil {
		return
	}
	event := events.NewTaskEvent(id, task.Type(), transition, message, elapsed)
	if err := r.emitter.EmitEvent(ctx, event); err != nil {
		r.logger.WarnContext(ctx, "failed to emit task event",
			"task_id", id,
			"transition", transition,
			"error", err)
	}
}

// Submit creates a pending record for the task and queues it. It returns as
// soon as the task is queued; execution happens on a worker.
//
// If the queue is full or already closed the record is moved to the error
// state and ErrQueueFull or ErrQueueClosed is returned.
func (r *Runner) Submit(ctx context.Context, task Task) (uuid.UUID, error) {
	id, err := r.store.Create(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create task record: %w", err)
	}

	r.emit(ctx, id, task, events.TransitionSubmitted, "", 0)

	job := Job{ID: id, Task: task, EnqueuedAt: time.Now()}
	if err := r.queue.Enqueue(job); err != nil {
		message := msgQueueFull
		if errors.Is(err, ErrQueueClosed) {
			message = msgShuttingDown
		}
		if updateErr := r.store.Update(ctx, id, Update{Status: StatusError, Message: message}); updateErr != nil {
			r.logger.ErrorContext(ctx, "failed to mark rejected task", "task_id", id, "error", updateErr)
		}
		r.emit(ctx, id, task, events.TransitionRejected, message, 0)
		return uuid.Nil, fmt.Errorf("failed to enqueue task: %w", err)
	}

	r.logger.DebugContext(ctx, "task submitted", "task_id", id, "task_type", task.Type())
	return id, nil
}

// Start launches the workers and the retention sweeper.
func (r *Runner) Start() {
	r.startOnce.Do(func() {
		r.pool.Start()

		sweeper, ok := r.store.(Sweeper)
		if ok && r.config.Retention > 0 {
			r.wg.Add(1)
			go r.retentionMonitor(sweeper)
		}
	})
}

// Stop shuts the runner down. Queued jobs that have not started are dropped;
// running jobs see their context cancelled.
func (r *Runner) Stop() {
	r.stopOnce.Do(func() {
		r.queue.Close()
		r.cancelFunc()
		r.pool.Stop()
		r.wg.Wait()
	})
}

// QueueLen returns the number of tasks waiting for a worker.
func (r *Runner) QueueLen() int {
	return r.queue.Len()
}

// processJob executes a single job and writes its terminal state.
func (r *Runner) processJob(ctx context.Context, job Job, workerID int) {
	logger := r.logger.With(
		"task_id", job.ID,
		"task_type", job.Task.Type(),
		"worker_id", workerID,
	)
	logger.InfoContext(ctx, "processing task", "queue_wait", time.Since(job.EnqueuedAt))

	reporter := &storeReporter{store: r.store, id: job.ID}
	result, err := r.execute(ctx, job, reporter)

	if err != nil {
		r.errHandler(job.ID, job.Task, err)
		update := Update{Status: StatusError, Progress: 0, Message: redact.Error(err)}
		if updateErr := r.store.Update(ctx, job.ID, update); updateErr != nil {
			logger.ErrorContext(ctx, "failed to update task status to error", "error", updateErr)
			return
		}
		r.emit(ctx, job.ID, job.Task, events.TransitionFailed, update.Message, time.Since(job.EnqueuedAt))
		return
	}

	update := Update{Status: StatusCompleted, Progress: 100, Message: msgCompleted, Result: result}
	if updateErr := r.store.Update(ctx, job.ID, update); updateErr != nil {
		logger.ErrorContext(ctx, "failed to update task status to completed", "error", updateErr)
		return
	}
	logger.InfoContext(ctx, "task completed successfully")
	r.emit(ctx, job.ID, job.Task, events.TransitionCompleted, msgCompleted, time.Since(job.EnqueuedAt))
}

// execute runs the task, turning a panic into an error so one faulty task
// cannot take down its worker.
func (r *Runner) execute(ctx context.Context, job Job, reporter Reporter) (result any, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("task panicked: %v", p)
		}
	}()
	return job.Task.Execute(ctx, reporter)
}

// retentionMonitor periodically removes terminal records older than the
// retention period.
func (r *Runner) retentionMonitor(sweeper Sweeper) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return

		case <-ticker.C:
			if removed := sweeper.Sweep(r.ctx, r.config.Retention); removed > 0 {
				r.logger.Info("swept expired task records",
					"removed", removed,
					"retention", r.config.Retention)
			}
		}
	}
}

// storeReporter writes progress for one task.
type storeReporter struct {
	store Store
	id    uuid.UUID
}

func (p *storeReporter) TaskID() uuid.UUID {
	return p.id
}

func (p *storeReporter) Report(ctx context.Context, progress int, message string) error {
	err := p.store.Update(ctx, p.id, Update{Status: StatusProcessing, Progress: progress, Message: message})
	if err != nil {
		return fmt.Errorf("failed to report progress: %w", err)
	}
	return nil
}
