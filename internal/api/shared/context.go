package shared

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/phrazzld/mediamatch-api/internal/service/auth"
)

// ContextKey is the type of request context keys set by this package.
type ContextKey string

const (
	// CredentialContextKey holds the auth.Credential of the caller.
	CredentialContextKey ContextKey = "credential"

	// TraceIDKey is the key for the trace ID in the request context
	TraceIDKey ContextKey = "traceID"

	// TraceIDLength is the number of bytes used to generate the trace ID
	TraceIDLength = 16 // 32 hex characters
)

// WithTraceID stores traceID in the context. An empty traceID is replaced
// by a newly generated one.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	if traceID == "" {
		traceID = generateTraceID()
	}
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// GetTraceID retrieves the trace ID from the context.
// If no trace ID exists, it returns an empty string.
func GetTraceID(ctx context.Context) string {
	traceID, ok := ctx.Value(TraceIDKey).(string)
	if !ok {
		return ""
	}
	return traceID
}

// WithCredential stores the authenticated caller in the context.
func WithCredential(ctx context.Context, cred auth.Credential) context.Context {
	return context.WithValue(ctx, CredentialContextKey, cred)
}

// GetCredential returns the caller stored by WithCredential.
func GetCredential(ctx context.Context) (auth.Credential, bool) {
	cred, ok := ctx.Value(CredentialContextKey).(auth.Credential)
	if !ok || cred.Key == "" {
		return auth.Credential{}, false
	}
	return cred, true
}

// generateTraceID returns 32 random hex characters. If crypto/rand fails it
// falls back to a time-derived value, never a static one.
func generateTraceID() string {
	b := make([]byte, TraceIDLength)
	n, err := rand.Read(b)
	if err != nil || n != TraceIDLength {
		slog.Error("failed to generate secure random trace ID",
			"error", err,
			"bytes_read", n,
			"fallback", "time-based generation")
		return fallbackTraceID(time.Now())
	}
	return hex.EncodeToString(b)
}

func fallbackTraceID(now time.Time) string {
	b := make([]byte, TraceIDLength)
	binary.BigEndian.PutUint64(b[:8], uint64(now.UnixNano()))
	binary.BigEndian.PutUint32(b[8:12], uint32(now.Nanosecond()))
	binary.BigEndian.PutUint32(b[12:16], uint32(now.Unix()))
	return hex.EncodeToString(b)
}
