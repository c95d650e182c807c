package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSearchQuery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		text      string
		count     int
		threshold float64
		wantErr   error
		wantText  string
	}{
		{name: "valid", text: "a cat playing in the garden", count: 3, wantText: "a cat playing in the garden"},
		{name: "normalizes whitespace", text: "  a   cat\n\tin  the garden ", count: 1, wantText: "a cat in the garden"},
		{name: "empty text", text: "", count: 3, wantErr: ErrEmptyText},
		{name: "whitespace only", text: " \n\t ", count: 3, wantErr: ErrEmptyText},
		{name: "zero count", text: "cat", count: 0, wantErr: ErrInvalidMatchCount},
		{name: "negative count", text: "cat", count: -2, wantErr: ErrInvalidMatchCount},
		{name: "count too large", text: "cat", count: MaxMatchCount + 1, wantErr: ErrInvalidMatchCount},
		{name: "negative threshold", text: "cat", count: 3, threshold: -0.1, wantErr: ErrInvalidThreshold},
		{name: "threshold above one", text: "cat", count: 3, threshold: 1.5, wantErr: ErrInvalidThreshold},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q, err := NewSearchQuery(tc.text, tc.count, tc.threshold)
			if tc.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrValidation)
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantText, q.Text)
			assert.Equal(t, tc.count, q.MatchCount)
		})
	}
}

func TestSearchQuery_TextTooLong(t *testing.T) {
	_, err := NewSearchQuery(strings.Repeat("x", MaxTextLength+1), 1, 0)
	assert.ErrorIs(t, err, ErrValidation)
}
