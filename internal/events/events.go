package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Lifecycle transitions carried by TaskEvent.Transition.
const (
	TransitionSubmitted = "submitted"
	TransitionRejected  = "rejected"
	TransitionCompleted = "completed"
	TransitionFailed    = "failed"
)

// TaskEvent describes one lifecycle transition of a task.
type TaskEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	TaskID     uuid.UUID `json:"task_id"`
	TaskType   string    `json:"task_type"`
	Transition string    `json:"transition"`

	// Message is the record message at the time of the transition. It has
	// already been redacted by the emitter.
	Message string `json:"message,omitempty"`

	// Elapsed is the time since the task was queued; zero for submissions.
	Elapsed time.Duration `json:"elapsed"`

	OccurredAt time.Time `json:"occurred_at"`
}

// NewTaskEvent creates a TaskEvent stamped with the current time.
func NewTaskEvent(taskID uuid.UUID, taskType, transition, message string, elapsed time.Duration) *TaskEvent {
	return &TaskEvent{
		ID:         uuid.New(),
		TaskID:     taskID,
		TaskType:   taskType,
		Transition: transition,
		Message:    message,
		Elapsed:    elapsed,
		OccurredAt: time.Now(),
	}
}

// Terminal reports whether the transition ends the task's lifecycle.
func (e *TaskEvent) Terminal() bool {
	switch e.Transition {
	case TransitionRejected, TransitionCompleted, TransitionFailed:
		return true
	}
	return false
}

// EventHandler defines an interface for components that can handle events.
// Handlers run on the emitting goroutine and must return quickly.
type EventHandler interface {
	HandleEvent(ctx context.Context, event *TaskEvent) error
}

// HandlerFunc adapts a function to EventHandler.
type HandlerFunc func(ctx context.Context, event *TaskEvent) error

// HandleEvent calls f.
func (f HandlerFunc) HandleEvent(ctx context.Context, event *TaskEvent) error {
	return f(ctx, event)
}

// EventEmitter defines an interface for components that can emit events.
// This allows the runner to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	EmitEvent(ctx context.Context, event *TaskEvent) error
}
