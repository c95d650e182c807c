package gemini

import "errors"

// Error definitions for the gemini package.
var (
	// ErrInvalidConfig is returned when the embedder configuration is unusable.
	ErrInvalidConfig = errors.New("invalid gemini configuration")

	// ErrEmptyText is returned when asked to embed empty text.
	ErrEmptyText = errors.New("text to embed cannot be empty")

	// ErrInvalidResponse is returned when the API response carries no usable
	// embedding.
	ErrInvalidResponse = errors.New("invalid embedding response")
)
