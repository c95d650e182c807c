package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockEventHandler records the events it receives.
type MockEventHandler struct {
	mu     sync.Mutex
	Events []*TaskEvent
	Err    error
}

func (m *MockEventHandler) HandleEvent(_ context.Context, event *TaskEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
	return m.Err
}

func TestNewTaskEvent(t *testing.T) {
	taskID := uuid.New()
	event := NewTaskEvent(taskID, "media_search", TransitionCompleted, "processing completed", time.Second)

	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, taskID, event.TaskID)
	assert.Equal(t, "media_search", event.TaskType)
	assert.Equal(t, time.Second, event.Elapsed)
	assert.WithinDuration(t, time.Now(), event.OccurredAt, time.Second)
	assert.True(t, event.Terminal())
	assert.False(t, NewTaskEvent(taskID, "media_search", TransitionSubmitted, "", 0).Terminal())
}

func TestInMemoryEventEmitter(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	event := NewTaskEvent(uuid.New(), "media_search", TransitionSubmitted, "", 0)

	t.Run("no handlers", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)
		assert.NoError(t, emitter.EmitEvent(context.Background(), event))
	})

	t.Run("all handlers receive the event", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)
		handler1 := &MockEventHandler{}
		handler2 := &MockEventHandler{}
		emitter.RegisterHandler(handler1)
		emitter.RegisterHandler(handler2)

		require.NoError(t, emitter.EmitEvent(context.Background(), event))
		assert.Len(t, handler1.Events, 1)
		assert.Len(t, handler2.Events, 1)
		assert.Equal(t, event.ID, handler2.Events[0].ID)
	})

	t.Run("failing handler does not stop delivery", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)
		first := errors.New("first failure")
		failing := &MockEventHandler{Err: first}
		panicking := HandlerFunc(func(context.Context, *TaskEvent) error { panic("boom") })
		healthy := &MockEventHandler{}

		emitter.RegisterHandler(failing)
		emitter.RegisterHandler(panicking)
		emitter.RegisterHandler(healthy)

		err := emitter.EmitEvent(context.Background(), event)
		assert.ErrorIs(t, err, first)
		assert.Len(t, healthy.Events, 1)
	})
}

func TestStatusCounter(t *testing.T) {
	counter := NewStatusCounter()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			transition := TransitionCompleted
			if i%5 == 0 {
				transition = TransitionFailed
			}
			_ = counter.HandleEvent(ctx, NewTaskEvent(uuid.New(), "media_search", transition, "", 0))
		}(i)
	}
	wg.Wait()

	totals := counter.Totals()
	assert.EqualValues(t, 40, totals[TransitionCompleted])
	assert.EqualValues(t, 10, totals[TransitionFailed])

	totals[TransitionCompleted] = 0
	assert.EqualValues(t, 40, counter.Totals()[TransitionCompleted], "Totals returns a copy")
}
