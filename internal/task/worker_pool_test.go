package task

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// mockJobQueue implements JobQueueReader for testing
type mockJobQueue struct {
	ch chan Job
}

func newMockJobQueue() *mockJobQueue {
	return &mockJobQueue{
		ch: make(chan Job, 10),
	}
}

func (m *mockJobQueue) GetChannel() <-chan Job {
	return m.ch
}

func noopHandler(ctx context.Context, job Job, workerID int) {}

func TestNewWorkerPool(t *testing.T) {
	logger := setupTestLogger()
	queue := newMockJobQueue()

	pool := NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: 5}, noopHandler, logger)

	assert.NotNil(t, pool)
	assert.Equal(t, 5, pool.workerCount)
	assert.Equal(t, queue, pool.queue)
	assert.NotNil(t, pool.ctx)
	assert.NotNil(t, pool.cancel)

	// Test with invalid worker count (should default to 1)
	pool = NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: 0}, noopHandler, logger)
	assert.Equal(t, 1, pool.workerCount)

	pool = NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: -5}, noopHandler, logger)
	assert.Equal(t, 1, pool.workerCount)
}

func TestWorkerPool_ProcessesJobs(t *testing.T) {
	logger := setupTestLogger()
	queue := newMockJobQueue()

	processed := make(chan Job, 3)
	handler := func(ctx context.Context, job Job, workerID int) {
		processed <- job
	}

	pool := NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: 2}, handler, logger)
	pool.Start()
	defer pool.Stop()

	jobs := []Job{newTestJob(), newTestJob(), newTestJob()}
	for _, job := range jobs {
		queue.ch <- job
	}

	seen := make(map[string]bool)
	for range jobs {
		select {
		case job := <-processed:
			seen[job.ID.String()] = true
		case <-time.After(time.Second):
			t.Fatal("Timed out waiting for job to be processed")
		}
	}
	for _, job := range jobs {
		assert.True(t, seen[job.ID.String()])
	}
}

func TestWorkerPool_StopCancelsRunningJob(t *testing.T) {
	logger := setupTestLogger()
	queue := newMockJobQueue()

	started := make(chan struct{})
	var cancelled bool
	var mu sync.Mutex
	handler := func(ctx context.Context, job Job, workerID int) {
		close(started)
		<-ctx.Done()
		mu.Lock()
		cancelled = true
		mu.Unlock()
	}

	pool := NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: 1}, handler, logger)
	pool.Start()
	queue.ch <- newTestJob()
	<-started

	stopped := make(chan struct{})
	go func() {
		pool.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, cancelled)
}

func TestWorkerPool_ExitsWhenChannelClosed(t *testing.T) {
	logger := setupTestLogger()
	queue := newMockJobQueue()

	pool := NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: 3}, noopHandler, logger)
	pool.Start()
	close(queue.ch)

	done := make(chan struct{})
	go func() {
		pool.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("workers did not exit after channel close")
	}
	pool.Stop()
}
