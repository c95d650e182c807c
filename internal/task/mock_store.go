package task

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// MockTaskStore implements the Store interface for testing. By default it
// delegates to an in-memory store; set the function fields to inject
// failures. Every update attempt is recorded, including rejected ones.
type MockTaskStore struct {
	mutex   sync.Mutex
	backing *MemoryStore
	updates map[uuid.UUID][]Update

	CreateFn func(ctx context.Context) (uuid.UUID, error)
	UpdateFn func(ctx context.Context, id uuid.UUID, update Update) error
	GetFn    func(ctx context.Context, id uuid.UUID) (Record, error)
}

// NewMockTaskStore creates a new MockTaskStore with default implementations
func NewMockTaskStore() *MockTaskStore {
	store := &MockTaskStore{
		backing: NewMemoryStore(slog.New(slog.NewTextHandler(io.Discard, nil))),
		updates: make(map[uuid.UUID][]Update),
	}
	store.CreateFn = store.backing.Create
	store.UpdateFn = store.backing.Update
	store.GetFn = store.backing.Get
	return store
}

// Create allocates a record in the mock store
func (s *MockTaskStore) Create(ctx context.Context) (uuid.UUID, error) {
	return s.CreateFn(ctx)
}

// Update records the attempt and applies it
func (s *MockTaskStore) Update(ctx context.Context, id uuid.UUID, update Update) error {
	s.mutex.Lock()
	s.updates[id] = append(s.updates[id], update)
	s.mutex.Unlock()

	return s.UpdateFn(ctx, id, update)
}

// Get returns a record from the mock store
func (s *MockTaskStore) Get(ctx context.Context, id uuid.UUID) (Record, error) {
	return s.GetFn(ctx, id)
}

// Updates returns every update attempted for id, in call order.
func (s *MockTaskStore) Updates(id uuid.UUID) []Update {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	out := make([]Update, len(s.updates[id]))
	copy(out, s.updates[id])
	return out
}
