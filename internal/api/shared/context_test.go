package shared

import (
	"context"
	"encoding/hex"
	"testing"
	"time"

	"github.com/phrazzld/mediamatch-api/internal/service/auth"
	"github.com/stretchr/testify/assert"
)

func TestWithTraceID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetTraceID(ctx))

	generated := GetTraceID(WithTraceID(ctx, ""))
	assert.Len(t, generated, 32)
	_, err := hex.DecodeString(generated)
	assert.NoError(t, err)

	assert.Equal(t, "upstream-id", GetTraceID(WithTraceID(ctx, "upstream-id")))
	assert.Empty(t, GetTraceID(ctx), "parent context must stay unchanged")
}

func TestGetTraceID_WrongType(t *testing.T) {
	ctx := context.WithValue(context.Background(), TraceIDKey, 123)
	assert.Empty(t, GetTraceID(ctx))
}

func TestGenerateTraceID_Unique(t *testing.T) {
	const iterations = 1000
	seen := make(map[string]bool, iterations)
	for i := 0; i < iterations; i++ {
		id := generateTraceID()
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestFallbackTraceID(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 42, time.UTC)
	id := fallbackTraceID(now)
	assert.Len(t, id, 32)
	assert.NotEqual(t, id, fallbackTraceID(now.Add(time.Nanosecond)))
}

func TestCredentialContext(t *testing.T) {
	ctx := context.Background()

	_, ok := GetCredential(ctx)
	assert.False(t, ok)

	cred := auth.Credential{Key: "k-1", Name: "partner"}
	got, ok := GetCredential(WithCredential(ctx, cred))
	assert.True(t, ok)
	assert.Equal(t, "partner", got.Name)

	_, ok = GetCredential(WithCredential(ctx, auth.Credential{}))
	assert.False(t, ok, "credential without key is not authenticated")
}
