package middleware

import (
	"log/slog"
	"net/http"
	"regexp"

	"github.com/phrazzld/mediamatch-api/internal/api/shared"
	"github.com/phrazzld/mediamatch-api/internal/platform/logger"
)

// TraceHeader carries the trace ID on requests and responses.
const TraceHeader = "X-Trace-ID"

var validTraceID = regexp.MustCompile(`^[A-Za-z0-9_\-]{8,64}$`)

// TraceMiddleware adds a trace ID to the request context.
// This middleware should be applied early in the middleware chain to ensure
// that all subsequent handlers have access to the trace ID. A well-formed
// incoming X-Trace-ID is reused; otherwise a new ID is generated.
func TraceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		incoming := r.Header.Get(TraceHeader)
		if !validTraceID.MatchString(incoming) {
			incoming = ""
		}

		ctx := shared.WithTraceID(r.Context(), incoming)
		traceID := shared.GetTraceID(ctx)
		ctx = logger.WithAttrs(ctx, slog.String("trace_id", traceID))

		w.Header().Set(TraceHeader, traceID)

		slog.DebugContext(ctx, "request started",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("remote_addr", r.RemoteAddr))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
