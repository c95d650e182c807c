package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a search request fails validation.
	// It is always wrapped with a more specific message.
	ErrValidation = errors.New("validation failed")

	// ErrEmptyText is returned when the search text is empty after normalization.
	ErrEmptyText = errors.New("search text cannot be empty")

	// ErrInvalidMatchCount is returned when the requested match count is out of range.
	ErrInvalidMatchCount = errors.New("invalid match count")

	// ErrInvalidThreshold is returned when the match threshold is outside [0, 1].
	ErrInvalidThreshold = errors.New("invalid match threshold")

	// ErrMissingStorageKey is returned when a matched media item has no storage key.
	ErrMissingStorageKey = errors.New("missing storage key")
)
