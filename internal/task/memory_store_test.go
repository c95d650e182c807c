package task

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Create(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore(setupTestLogger(), WithStoreClock(func() time.Time { return now }))

	id, err := store.Create(context.Background())
	require.NoError(t, err)

	rec, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, rec.ID)
	assert.Equal(t, StatusPending, rec.Status)
	assert.Equal(t, 0, rec.Progress)
	assert.Equal(t, now, rec.CreatedAt)
	assert.Equal(t, now, rec.UpdatedAt)
	assert.Nil(t, rec.Result)
}

func TestMemoryStore_CreateSkipsCollisions(t *testing.T) {
	fixed := uuid.MustParse("3b241101-e2bb-4255-8caf-4136c566a962")
	other := uuid.MustParse("7c9e6679-7425-40de-944b-e07fc1f90ae7")
	ids := []uuid.UUID{fixed, fixed, other}
	calls := 0
	gen := func() (uuid.UUID, error) {
		id := ids[calls]
		calls++
		return id, nil
	}
	store := NewMemoryStore(setupTestLogger(), WithIDGenerator(gen))

	first, err := store.Create(context.Background())
	require.NoError(t, err)
	second, err := store.Create(context.Background())
	require.NoError(t, err)

	assert.Equal(t, fixed, first)
	assert.Equal(t, other, second)
}

func TestMemoryStore_CreateGeneratorFailure(t *testing.T) {
	store := NewMemoryStore(setupTestLogger(), WithIDGenerator(func() (uuid.UUID, error) {
		return uuid.Nil, errors.New("entropy exhausted")
	}))

	_, err := store.Create(context.Background())
	assert.Error(t, err)
}

func TestMemoryStore_Update(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name         string
		updates      []Update
		wantStatus   Status
		wantProgress int
		wantResult   any
		wantErr      error
	}{
		{
			name:         "processing update",
			updates:      []Update{{Status: StatusProcessing, Progress: 20, Message: "embedding"}},
			wantStatus:   StatusProcessing,
			wantProgress: 20,
		},
		{
			name: "lower progress is clamped",
			updates: []Update{
				{Status: StatusProcessing, Progress: 60},
				{Status: StatusProcessing, Progress: 20},
			},
			wantStatus:   StatusProcessing,
			wantProgress: 60,
		},
		{
			name: "error resets progress",
			updates: []Update{
				{Status: StatusProcessing, Progress: 60},
				{Status: StatusError, Progress: 60, Message: "search failed"},
			},
			wantStatus:   StatusError,
			wantProgress: 0,
		},
		{
			name:         "result kept on completion",
			updates:      []Update{{Status: StatusCompleted, Progress: 100, Result: "payload"}},
			wantStatus:   StatusCompleted,
			wantProgress: 100,
			wantResult:   "payload",
		},
		{
			name:         "result dropped when not completed",
			updates:      []Update{{Status: StatusProcessing, Progress: 20, Result: "payload"}},
			wantStatus:   StatusProcessing,
			wantProgress: 20,
		},
		{
			name:       "unknown status rejected",
			updates:    []Update{{Status: "finished", Progress: 10}},
			wantStatus: StatusPending,
			wantErr:    ErrInvalidUpdate,
		},
		{
			name:       "progress out of range rejected",
			updates:    []Update{{Status: StatusProcessing, Progress: 101}},
			wantStatus: StatusPending,
			wantErr:    ErrInvalidUpdate,
		},
		{
			name: "terminal record is frozen",
			updates: []Update{
				{Status: StatusCompleted, Progress: 100, Result: "payload"},
				{Status: StatusError, Message: "late"},
			},
			wantStatus:   StatusCompleted,
			wantProgress: 100,
			wantResult:   "payload",
			wantErr:      ErrTaskTerminal,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := NewMemoryStore(setupTestLogger())
			id, err := store.Create(ctx)
			require.NoError(t, err)

			var lastErr error
			for _, u := range tc.updates {
				lastErr = store.Update(ctx, id, u)
			}
			if tc.wantErr != nil {
				assert.ErrorIs(t, lastErr, tc.wantErr)
			} else {
				assert.NoError(t, lastErr)
			}

			rec, err := store.Get(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, tc.wantStatus, rec.Status)
			assert.Equal(t, tc.wantProgress, rec.Progress)
			assert.Equal(t, tc.wantResult, rec.Result)
		})
	}
}

func TestMemoryStore_UnknownID(t *testing.T) {
	store := NewMemoryStore(setupTestLogger())

	_, err := store.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrTaskNotFound)

	err = store.Update(context.Background(), uuid.New(), Update{Status: StatusProcessing})
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestMemoryStore_Sweep(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore(setupTestLogger(), WithStoreClock(func() time.Time { return now }))

	done, _ := store.Create(ctx)
	require.NoError(t, store.Update(ctx, done, Update{Status: StatusCompleted, Progress: 100}))
	running, _ := store.Create(ctx)
	require.NoError(t, store.Update(ctx, running, Update{Status: StatusProcessing, Progress: 20}))

	now = now.Add(2 * time.Hour)
	fresh, _ := store.Create(ctx)
	require.NoError(t, store.Update(ctx, fresh, Update{Status: StatusError}))

	removed := store.Sweep(ctx, time.Hour)
	assert.Equal(t, 1, removed)

	_, err := store.Get(ctx, done)
	assert.ErrorIs(t, err, ErrTaskNotFound)
	_, err = store.Get(ctx, running)
	assert.NoError(t, err, "non-terminal records are never swept")
	_, err = store.Get(ctx, fresh)
	assert.NoError(t, err)
}

func TestMemoryStore_Counts(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(setupTestLogger())

	_, _ = store.Create(ctx)
	id, _ := store.Create(ctx)
	require.NoError(t, store.Update(ctx, id, Update{Status: StatusCompleted, Progress: 100}))

	counts := store.Counts(ctx)
	assert.Equal(t, 1, counts[StatusPending])
	assert.Equal(t, 0, counts[StatusProcessing])
	assert.Equal(t, 1, counts[StatusCompleted])
	assert.Equal(t, 0, counts[StatusError])
}
