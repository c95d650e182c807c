package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/mediamatch-api/internal/api/shared"
	"github.com/phrazzld/mediamatch-api/internal/service"
	"github.com/phrazzld/mediamatch-api/internal/task"
)

// TaskIDParam is the chi path parameter holding a task id.
const TaskIDParam = "taskID"

// SearchDefaults are applied to fields a search request omits.
type SearchDefaults struct {
	MatchCount     int     `json:"match_count"`
	MatchThreshold float64 `json:"match_threshold"`
}

// SearchHandler handles search submission and status polling.
type SearchHandler struct {
	searchService service.SearchService
	defaults      SearchDefaults
	logger        *slog.Logger
}

// NewSearchHandler creates a new SearchHandler
func NewSearchHandler(searchService service.SearchService, defaults SearchDefaults, logger *slog.Logger) *SearchHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SearchHandler{
		searchService: searchService,
		defaults:      defaults,
		logger:        logger.With("component", "search_handler"),
	}
}

// Submit handles POST /api/search requests
func (h *SearchHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	matchCount := h.defaults.MatchCount
	if req.MatchCount != nil {
		matchCount = *req.MatchCount
	}
	threshold := h.defaults.MatchThreshold
	if req.MatchThreshold != nil {
		threshold = *req.MatchThreshold
	}

	// Set by the auth middleware; an empty key is rejected by the service.
	cred, _ := shared.GetCredential(r.Context())

	id, err := h.searchService.Submit(r.Context(), cred.Key, req.Text, matchCount, threshold)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to submit search")
		return
	}

	h.logger.DebugContext(r.Context(), "search accepted", "task_id", id)

	// 202 Accepted: processing happens asynchronously
	shared.RespondWithJSON(w, r, http.StatusAccepted, SearchAcceptedResponse{
		TaskID:    id,
		Status:    task.StatusPending,
		StatusURL: "/api/status/" + id.String(),
	})
}

// GetStatus handles GET /api/status/{taskID} requests
func (h *SearchHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, TaskIDParam)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	rec, err := h.searchService.GetStatus(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get task status")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, recordToResponse(rec))
}
