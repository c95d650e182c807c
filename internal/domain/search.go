package domain

import (
	"fmt"
	"strings"
)

// Limits applied to search queries.
const (
	DefaultMatchCount = 5
	MaxMatchCount     = 100
	MaxTextLength     = 2000
)

// SearchQuery is a validated request to find media matching a text description.
type SearchQuery struct {
	Text           string  `json:"text"`
	MatchCount     int     `json:"match_count"`
	MatchThreshold float64 `json:"match_threshold"`
}

// NewSearchQuery normalizes the text and validates the query.
func NewSearchQuery(text string, matchCount int, threshold float64) (SearchQuery, error) {
	q := SearchQuery{
		Text:           NormalizeText(text),
		MatchCount:     matchCount,
		MatchThreshold: threshold,
	}
	if err := q.Validate(); err != nil {
		return SearchQuery{}, err
	}
	return q, nil
}

// Validate checks the query fields. All returned errors wrap ErrValidation.
func (q SearchQuery) Validate() error {
	if q.Text == "" {
		return fmt.Errorf("%w: %w", ErrValidation, ErrEmptyText)
	}
	if len(q.Text) > MaxTextLength {
		return fmt.Errorf("%w: text exceeds %d bytes", ErrValidation, MaxTextLength)
	}
	if q.MatchCount <= 0 || q.MatchCount > MaxMatchCount {
		return fmt.Errorf("%w: %w: %d (must be 1-%d)",
			ErrValidation, ErrInvalidMatchCount, q.MatchCount, MaxMatchCount)
	}
	if q.MatchThreshold < 0 || q.MatchThreshold > 1 {
		return fmt.Errorf("%w: %w: %g", ErrValidation, ErrInvalidThreshold, q.MatchThreshold)
	}
	return nil
}

// NormalizeText trims the text and collapses internal runs of whitespace.
// The result is used both as the embedding input and as the cache key.
func NormalizeText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
