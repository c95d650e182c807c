// Package matcher is the HTTP client for the remote similarity search
// service. It posts a query embedding and returns the matched media in
// similarity order.
package matcher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/phrazzld/mediamatch-api/internal/config"
	"github.com/phrazzld/mediamatch-api/internal/domain"
	"github.com/sethvargo/go-retry"
)

// MatchPath is the endpoint of the match operation, relative to the base URL.
const MatchPath = "api/media/match-film-media"

// maxErrorBody caps how much of an error response is kept for the message.
const maxErrorBody = 512

var (
	// ErrInvalidConfig is returned when the client configuration is unusable.
	ErrInvalidConfig = errors.New("invalid matcher configuration")

	// ErrUnexpectedStatus is returned for non-2xx responses.
	ErrUnexpectedStatus = errors.New("unexpected matcher response status")

	// ErrInvalidResponse is returned when the response body cannot be decoded.
	ErrInvalidResponse = errors.New("invalid matcher response")
)

// matchRequest is the request body of the match operation.
type matchRequest struct {
	QueryEmbedding []float32 `json:"query_embedding"`
	MatchThreshold float64   `json:"match_threshold"`
	MatchCount     int       `json:"match_count"`
}

// Client implements task.Matcher over HTTP.
type Client struct {
	httpClient *http.Client
	endpoint   string
	token      string
	maxRetries int
	retryDelay time.Duration
	logger     *slog.Logger
}

// NewClient creates a matcher client. httpClient may be nil, in which case a
// client with the configured timeout is used.
func NewClient(cfg config.MatcherConfig, httpClient *http.Client, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: base URL %q is not absolute", ErrInvalidConfig, cfg.BaseURL)
	}
	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("%w: max retries cannot be negative", ErrInvalidConfig)
	}
	if cfg.RetryDelay <= 0 {
		return nil, fmt.Errorf("%w: retry delay must be positive", ErrInvalidConfig)
	}

	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}
	endpoint := base.ResolveReference(&url.URL{Path: MatchPath})

	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		httpClient: httpClient,
		endpoint:   endpoint.String(),
		token:      cfg.Token,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		logger:     logger.With("component", "matcher_client"),
	}, nil
}

// Match returns up to count media whose similarity to vector is at least
// threshold.
func (c *Client) Match(ctx context.Context, vector []float32, threshold float64, count int) ([]domain.Media, error) {
	body, err := json.Marshal(matchRequest{
		QueryEmbedding: vector,
		MatchThreshold: threshold,
		MatchCount:     count,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode match request: %w", err)
	}

	backoff := retry.WithMaxRetries(uint64(c.maxRetries),
		retry.WithJitterPercent(25, retry.NewExponential(c.retryDelay)))

	attempt := 0
	items, err := retry.DoValue(ctx, backoff, func(ctx context.Context) ([]domain.Media, error) {
		attempt++
		items, err := c.do(ctx, body)
		if err != nil {
			c.logger.WarnContext(ctx, "match request failed",
				"attempt", attempt,
				"error", err)
		}
		return items, err
	})
	if err != nil {
		return nil, fmt.Errorf("match failed after %d attempt(s): %w", attempt, err)
	}

	c.logger.DebugContext(ctx, "match request succeeded",
		"attempt", attempt,
		"matches", len(items))
	return items, nil
}

// do performs a single request. Retryable failures are wrapped with
// retry.RetryableError.
func (c *Client) do(ctx context.Context, body []byte) ([]domain.Media, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build match request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, retry.RetryableError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		statusErr := fmt.Errorf("%w: %d: %s", ErrUnexpectedStatus, resp.StatusCode, strings.TrimSpace(string(snippet)))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, retry.RetryableError(statusErr)
		}
		return nil, statusErr
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, retry.RetryableError(fmt.Errorf("failed to read match response: %w", err))
	}
	return decodeMedia(raw)
}

// decodeMedia accepts either a bare JSON array of media or an object
// wrapping it under "data" or "media_list".
func decodeMedia(raw []byte) ([]domain.Media, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []domain.Media{}, nil
	}

	if trimmed[0] == '[' {
		var items []domain.Media
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
		return items, nil
	}

	var wrapped struct {
		Data      []domain.Media `json:"data"`
		MediaList []domain.Media `json:"media_list"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	switch {
	case wrapped.Data != nil:
		return wrapped.Data, nil
	case wrapped.MediaList != nil:
		return wrapped.MediaList, nil
	}
	return []domain.Media{}, nil
}
