package api

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/mediamatch-api/internal/api/shared"
	"github.com/phrazzld/mediamatch-api/internal/service"
)

// FilenameParam is the chi path parameter holding a downloaded file name.
const FilenameParam = "filename"

// ErrDownloadNotFound is returned when a task has no such downloaded file.
var ErrDownloadNotFound = errors.New("download not found")

// TaskDirs locates the download directory of a task.
type TaskDirs interface {
	TaskDir(taskID string) string
}

// DownloadHandler serves files fetched in download mode.
type DownloadHandler struct {
	searchService service.SearchService
	dirs          TaskDirs
	urlPrefix     string
	logger        *slog.Logger
}

// NewDownloadHandler creates a DownloadHandler. urlPrefix is the route
// under which single files are served, e.g. /api/download.
func NewDownloadHandler(
	searchService service.SearchService,
	dirs TaskDirs,
	urlPrefix string,
	logger *slog.Logger,
) *DownloadHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DownloadHandler{
		searchService: searchService,
		dirs:          dirs,
		urlPrefix:     strings.TrimSuffix(urlPrefix, "/"),
		logger:        logger.With("component", "download_handler"),
	}
}

// List handles GET /api/downloads/{taskID} requests
func (h *DownloadHandler) List(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, TaskIDParam)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if _, err := h.searchService.GetStatus(r.Context(), id); err != nil {
		HandleAPIError(w, r, err, "Failed to list downloads")
		return
	}

	entries, err := os.ReadDir(h.dirs.TaskDir(id.String()))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		HandleAPIError(w, r, fmt.Errorf("failed to read download directory: %w", err), "Failed to list downloads")
		return
	}

	files := make([]DownloadFile, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, DownloadFile{
			Name: entry.Name(),
			Size: info.Size(),
			URL:  path.Join(h.urlPrefix, id.String(), entry.Name()),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })

	shared.RespondWithJSON(w, r, http.StatusOK, DownloadListResponse{TaskID: id, Files: files})
}

// Serve handles GET /api/download/{taskID}/{filename} requests
func (h *DownloadHandler) Serve(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, TaskIDParam)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	name := chi.URLParam(r, FilenameParam)
	if !safeFileName(name) {
		h.logger.WarnContext(r.Context(), "rejected download file name", "task_id", id)
		HandleAPIError(w, r, ErrDownloadNotFound, "")
		return
	}

	full := filepath.Join(h.dirs.TaskDir(id.String()), name)
	info, err := os.Stat(full)
	if err != nil || !info.Mode().IsRegular() {
		HandleAPIError(w, r, fmt.Errorf("%w: %s", ErrDownloadNotFound, name), "")
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	http.ServeFile(w, r, full)
}

// safeFileName accepts a single path element that is not hidden.
func safeFileName(name string) bool {
	if name == "" || strings.HasPrefix(name, ".") {
		return false
	}
	if strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return false
	}
	return filepath.Base(name) == name
}
