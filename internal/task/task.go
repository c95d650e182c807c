package task

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status represents the current state of a task
type Status string

// Possible task status values
const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// Terminal reports whether no further change is allowed in this status.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusError:
		return true
	}
	return false
}

// Task type constants
const (
	// TaskTypeMediaSearch is the text-to-media matching pipeline.
	TaskTypeMediaSearch = "media_search"
)

// Common errors returned by task stores and the runner.
var (
	ErrTaskNotFound  = errors.New("task not found")
	ErrTaskTerminal  = errors.New("task already in terminal state")
	ErrInvalidUpdate = errors.New("invalid task update")
)

// Record is the lifecycle record a caller polls.
type Record struct {
	ID        uuid.UUID `json:"task_id"`
	Status    Status    `json:"status"`
	Progress  int       `json:"progress"`
	Message   string    `json:"message"`
	Result    any       `json:"data,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Update holds the mutable fields written by Store.Update.
// Result is only kept when Status is StatusCompleted.
type Update struct {
	Status   Status
	Progress int
	Message  string
	Result   any
}

// Task represents a unit of background work to be processed
type Task interface {
	// Type returns the task type identifier
	Type() string

	// Execute runs the task logic. It reports intermediate progress through
	// the reporter and returns the payload stored on completion.
	Execute(ctx context.Context, reporter Reporter) (any, error)
}

// Reporter lets a running task publish progress for its own record.
type Reporter interface {
	// TaskID returns the id of the record being reported on.
	TaskID() uuid.UUID

	// Report marks the task processing with the given progress and message.
	Report(ctx context.Context, progress int, message string) error
}

// Store defines the interface for task lifecycle records.
// Implementations must be safe for concurrent use.
type Store interface {
	// Create allocates a new pending record and returns its id.
	Create(ctx context.Context) (uuid.UUID, error)

	// Update overwrites the mutable fields of a non-terminal record.
	// Returns ErrTaskNotFound or ErrTaskTerminal without changing anything.
	Update(ctx context.Context, id uuid.UUID, update Update) error

	// Get returns a snapshot of the record.
	Get(ctx context.Context, id uuid.UUID) (Record, error)
}

// Sweeper is implemented by stores that can drop old terminal records.
type Sweeper interface {
	// Sweep removes terminal records last updated more than olderThan ago
	// and returns how many were removed.
	Sweep(ctx context.Context, olderThan time.Duration) int
}
