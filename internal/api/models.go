package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/mediamatch-api/internal/task"
)

// SearchRequest defines the payload for POST /api/search. Omitted numeric
// fields take the configured defaults.
type SearchRequest struct {
	Text           string   `json:"text"                      validate:"required"`
	MatchCount     *int     `json:"match_count,omitempty"`
	MatchThreshold *float64 `json:"match_threshold,omitempty"`
}

// SearchAcceptedResponse is returned with 202 once a search is queued.
type SearchAcceptedResponse struct {
	TaskID    uuid.UUID   `json:"task_id"`
	Status    task.Status `json:"status"`
	StatusURL string      `json:"status_url"`
}

// TaskStatusResponse is the polled view of a task.
type TaskStatusResponse struct {
	TaskID    uuid.UUID   `json:"task_id"`
	Status    task.Status `json:"status"`
	Progress  int         `json:"progress"`
	Message   string      `json:"message"`
	Data      any         `json:"data,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func recordToResponse(rec task.Record) TaskStatusResponse {
	return TaskStatusResponse{
		TaskID:    rec.ID,
		Status:    rec.Status,
		Progress:  rec.Progress,
		Message:   rec.Message,
		Data:      rec.Result,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
}

// DownloadFile describes one downloaded file of a task.
type DownloadFile struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	URL  string `json:"url"`
}

// DownloadListResponse lists the files downloaded for a task.
type DownloadListResponse struct {
	TaskID uuid.UUID      `json:"task_id"`
	Files  []DownloadFile `json:"files"`
}

// HealthResponse reports liveness, current record counts per status and
// cumulative transitions since start.
type HealthResponse struct {
	Status  string         `json:"status"`
	Tasks   map[string]int   `json:"tasks"`
	Totals  map[string]int64 `json:"totals,omitempty"`
	Storage string           `json:"storage,omitempty"`
}

// InfoResponse describes the service and its endpoints.
type InfoResponse struct {
	Name          string            `json:"name"`
	Version       string            `json:"version"`
	RetrievalMode string            `json:"retrieval_mode"`
	Defaults      SearchDefaults    `json:"defaults"`
	Endpoints     map[string]string `json:"endpoints"`
}
