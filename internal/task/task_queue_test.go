package task

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func newTestJob() Job {
	return Job{ID: uuid.New(), Task: NewMockTask(nil), EnqueuedAt: time.Now()}
}

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

func TestNewTaskQueue(t *testing.T) {
	logger := setupTestLogger()
	queueSize := 10
	queue := NewTaskQueue(queueSize, logger)

	assert.NotNil(t, queue)
	assert.Equal(t, queueSize, cap(queue.jobs))
	assert.False(t, queue.closed)
}

func TestEnqueue(t *testing.T) {
	logger := setupTestLogger()
	queue := NewTaskQueue(2, logger)

	assert.NoError(t, queue.Enqueue(newTestJob()))
	assert.NoError(t, queue.Enqueue(newTestJob()))
	assert.Equal(t, 2, queue.Len())

	// Test queue full
	job3 := newTestJob()
	err := queue.Enqueue(job3)
	assert.ErrorIs(t, err, ErrQueueFull)

	// Dequeue one item to make space
	<-queue.jobs

	assert.NoError(t, queue.Enqueue(job3))
}

func TestClose(t *testing.T) {
	logger := setupTestLogger()
	queue := NewTaskQueue(10, logger)

	job := newTestJob()
	assert.NoError(t, queue.Enqueue(job))

	queue.Close()
	assert.True(t, queue.closed)

	// Closing twice is a no-op
	queue.Close()

	err := queue.Enqueue(newTestJob())
	assert.ErrorIs(t, err, ErrQueueClosed)

	// Make sure we can still read from the queue
	received := <-queue.GetChannel()
	assert.Equal(t, job.ID, received.ID)

	select {
	case _, ok := <-queue.GetChannel():
		assert.False(t, ok, "Channel should be closed")
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Timed out waiting for closed channel read")
	}
}

func TestConcurrentEnqueueAndClose(t *testing.T) {
	logger := setupTestLogger()
	queue := NewTaskQueue(1000, logger)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				// Either outcome is fine; the send must never panic.
				_ = queue.Enqueue(newTestJob())
			}
		}()
	}
	queue.Close()
	wg.Wait()

	count := 0
	for range queue.GetChannel() {
		count++
	}
	assert.LessOrEqual(t, count, 500)
}
