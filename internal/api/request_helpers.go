package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/mediamatch-api/internal/domain"
)

// ErrInvalidTaskID is returned for a missing or malformed task id path segment.
var ErrInvalidTaskID = errors.New("invalid task id")

// getPathUUID extracts a UUID from the URL path parameters.
// Errors wrap domain.ErrValidation and ErrInvalidTaskID.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		return uuid.Nil, fmt.Errorf("%w: %w: %s is required", domain.ErrValidation, ErrInvalidTaskID, paramName)
	}

	id, err := uuid.Parse(pathParam)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: %w: %s has invalid format", domain.ErrValidation, ErrInvalidTaskID, paramName)
	}

	return id, nil
}
