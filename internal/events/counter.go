package events

import (
	"context"
	"sync"
)

// StatusCounter counts transitions per kind since process start.
type StatusCounter struct {
	mu     sync.Mutex
	totals map[string]int64
}

// NewStatusCounter returns an empty counter.
func NewStatusCounter() *StatusCounter {
	return &StatusCounter{totals: make(map[string]int64)}
}

// HandleEvent implements EventHandler.
func (c *StatusCounter) HandleEvent(_ context.Context, event *TaskEvent) error {
	c.mu.Lock()
	c.totals[event.Transition]++
	c.mu.Unlock()
	return nil
}

// Totals returns a copy of the counts.
func (c *StatusCounter) Totals() map[string]int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]int64, len(c.totals))
	for k, v := range c.totals {
		out[k] = v
	}
	return out
}
