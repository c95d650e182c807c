package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// messages written by the store itself
const msgCreated = "task created, waiting to be processed"

// MemoryStore keeps task records in a map guarded by a single RWMutex.
// Records are stored by value, so Get always returns a complete snapshot
// taken under the lock.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[uuid.UUID]Record
	logger  *slog.Logger
	now     func() time.Time
	newID   func() (uuid.UUID, error)
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithStoreClock replaces the store's time source.
func WithStoreClock(now func() time.Time) MemoryStoreOption {
	return func(s *MemoryStore) {
		s.now = now
	}
}

// WithIDGenerator replaces the id generator. Used in tests.
func WithIDGenerator(gen func() (uuid.UUID, error)) MemoryStoreOption {
	return func(s *MemoryStore) {
		s.newID = gen
	}
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(logger *slog.Logger, opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		records: make(map[uuid.UUID]Record),
		logger:  logger.With("component", "task_store"),
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewRandom,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create allocates a random id and a pending record with progress 0.
func (s *MemoryStore) Create(ctx context.Context) (uuid.UUID, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Collisions are practically impossible with random UUIDs, but a
	// duplicate must never overwrite a live record.
	for attempt := 0; attempt < 3; attempt++ {
		id, err := s.newID()
		if err != nil {
			return uuid.Nil, fmt.Errorf("failed to generate task id: %w", err)
		}
		if _, exists := s.records[id]; exists {
			continue
		}
		s.records[id] = Record{
			ID:        id,
			Status:    StatusPending,
			Progress:  0,
			Message:   msgCreated,
			CreatedAt: now,
			UpdatedAt: now,
		}
		return id, nil
	}
	return uuid.Nil, fmt.Errorf("failed to generate task id: too many collisions")
}

// Update applies update to a non-terminal record.
//
// Progress never goes down while the task is running: a lower value on a
// non-terminal update is raised to the current one. An error update always
// resets progress to 0.
func (s *MemoryStore) Update(ctx context.Context, id uuid.UUID, update Update) error {
	if !update.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidUpdate, update.Status)
	}
	if update.Progress < 0 || update.Progress > 100 {
		return fmt.Errorf("%w: progress %d out of range", ErrInvalidUpdate, update.Progress)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		s.logger.WarnContext(ctx, "update for unknown task ignored",
			"task_id", id,
			"status", update.Status)
		return ErrTaskNotFound
	}
	if rec.Status.Terminal() {
		s.logger.WarnContext(ctx, "write after terminal state rejected",
			"task_id", id,
			"current_status", rec.Status,
			"attempted_status", update.Status)
		return ErrTaskTerminal
	}

	progress := update.Progress
	switch {
	case update.Status == StatusError:
		progress = 0
	case progress < rec.Progress:
		progress = rec.Progress
	}

	rec.Status = update.Status
	rec.Progress = progress
	rec.Message = update.Message
	rec.Result = nil
	if update.Status == StatusCompleted {
		rec.Result = update.Result
	}
	rec.UpdatedAt = s.now()

	s.records[id] = rec
	return nil
}

// Get returns a copy of the record.
func (s *MemoryStore) Get(ctx context.Context, id uuid.UUID) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return Record{}, ErrTaskNotFound
	}
	return rec, nil
}

// Sweep removes terminal records older than the retention period.
func (s *MemoryStore) Sweep(ctx context.Context, olderThan time.Duration) int {
	cutoff := s.now().Add(-olderThan)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, rec := range s.records {
		if rec.Status.Terminal() && rec.UpdatedAt.Before(cutoff) {
			delete(s.records, id)
			removed++
		}
	}
	return removed
}

// Counts returns the number of records in each status.
func (s *MemoryStore) Counts(ctx context.Context) map[Status]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := map[Status]int{
		StatusPending:    0,
		StatusProcessing: 0,
		StatusCompleted:  0,
		StatusError:      0,
	}
	for _, rec := range s.records {
		counts[rec.Status]++
	}
	return counts
}

// Ensure MemoryStore implements the store interfaces
var (
	_ Store   = (*MemoryStore)(nil)
	_ Sweeper = (*MemoryStore)(nil)
)
