package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/mediamatch-api/internal/api/shared"
	"github.com/phrazzld/mediamatch-api/internal/redact"
	"github.com/phrazzld/mediamatch-api/internal/task"
)

// StorageCheckTimeout bounds the storage probe of the health endpoint.
const StorageCheckTimeout = 3 * time.Second

// TaskCounter reports how many records exist per status.
type TaskCounter interface {
	Counts(ctx context.Context) map[task.Status]int
}

// TotalsReporter reports cumulative task transitions since start.
type TotalsReporter interface {
	Totals() map[string]int64
}

// Pinger checks that a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ServiceInfo is the static part of the info endpoint.
type ServiceInfo struct {
	Name          string
	Version       string
	RetrievalMode string
	Defaults      SearchDefaults
}

// HealthHandler serves the public health and info endpoints.
type HealthHandler struct {
	counter TaskCounter
	totals  TotalsReporter
	storage Pinger
	info    ServiceInfo
	logger  *slog.Logger
}

// NewHealthHandler creates a HealthHandler. totals and storage may be nil.
func NewHealthHandler(
	counter TaskCounter,
	totals TotalsReporter,
	storage Pinger,
	info ServiceInfo,
	logger *slog.Logger,
) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandler{
		counter: counter,
		totals:  totals,
		storage: storage,
		info:    info,
		logger:  logger.With("component", "health_handler"),
	}
}

// Health handles GET /api/health requests. It answers 503 when the
// storage probe fails.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status: "ok",
		Tasks:  make(map[string]int),
	}
	for status, n := range h.counter.Counts(r.Context()) {
		resp.Tasks[string(status)] = n
	}
	if h.totals != nil {
		resp.Totals = h.totals.Totals()
	}

	code := http.StatusOK
	if h.storage != nil {
		ctx, cancel := context.WithTimeout(r.Context(), StorageCheckTimeout)
		defer cancel()
		if err := h.storage.Ping(ctx); err != nil {
			h.logger.WarnContext(r.Context(), "storage health check failed", "error", redact.Error(err))
			resp.Status = "degraded"
			resp.Storage = "unreachable"
			code = http.StatusServiceUnavailable
		} else {
			resp.Storage = "ok"
		}
	}

	shared.RespondWithJSON(w, r, code, resp)
}

// Info handles GET /api/info requests
func (h *HealthHandler) Info(w http.ResponseWriter, r *http.Request) {
	endpoints := map[string]string{
		"search": "POST /api/search",
		"status": "GET /api/status/{taskID}",
		"health": "GET /api/health",
		"info":   "GET /api/info",
	}
	if h.info.RetrievalMode == "download" {
		endpoints["downloads"] = "GET /api/downloads/{taskID}"
		endpoints["download"] = "GET /api/download/{taskID}/{filename}"
	}

	shared.RespondWithJSON(w, r, http.StatusOK, InfoResponse{
		Name:          h.info.Name,
		Version:       h.info.Version,
		RetrievalMode: h.info.RetrievalMode,
		Defaults:      h.info.Defaults,
		Endpoints:     endpoints,
	})
}
