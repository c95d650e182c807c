package task

import (
	"context"
)

// MockTask is a simple implementation of the Task interface for testing
type MockTask struct {
	TaskType  string
	ExecuteFn func(ctx context.Context, reporter Reporter) (any, error)
}

// NewMockTask creates a MockTask that completes immediately with result.
func NewMockTask(result any) *MockTask {
	return &MockTask{
		TaskType: "mock_task",
		ExecuteFn: func(ctx context.Context, reporter Reporter) (any, error) {
			return result, nil
		},
	}
}

// Type returns the task type identifier
func (t *MockTask) Type() string {
	return t.TaskType
}

// Execute runs the task logic
func (t *MockTask) Execute(ctx context.Context, reporter Reporter) (any, error) {
	return t.ExecuteFn(ctx, reporter)
}
