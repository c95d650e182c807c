package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/phrazzld/mediamatch-api/internal/config"
	"github.com/sethvargo/go-retry"
	"google.golang.org/genai"
)

// retrievalQueryTask asks the model for an embedding tuned for search queries.
const retrievalQueryTask = "RETRIEVAL_QUERY"

// embedAPI is the subset of genai.Models used by the embedder.
type embedAPI interface {
	EmbedContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.EmbedContentConfig,
	) (*genai.EmbedContentResponse, error)
}

// Embedder implements task.Embedder using the Gemini embedding models.
type Embedder struct {
	api    embedAPI
	config config.EmbeddingConfig
	logger *slog.Logger
}

// NewEmbedder creates an Embedder with a Gemini API client.
func NewEmbedder(ctx context.Context, logger *slog.Logger, cfg config.EmbeddingConfig) (*Embedder, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", ErrInvalidConfig, err)
	}

	return newEmbedder(client.Models, cfg, logger), nil
}

func newEmbedder(api embedAPI, cfg config.EmbeddingConfig, logger *slog.Logger) *Embedder {
	return &Embedder{
		api:    api,
		config: cfg,
		logger: logger.With("component", "gemini_embedder", "model", cfg.Model),
	}
}

// validateConfig checks the settings the embedder cannot run without.
func validateConfig(cfg config.EmbeddingConfig) error {
	if cfg.GeminiAPIKey == "" {
		return fmt.Errorf("%w: gemini API key cannot be empty", ErrInvalidConfig)
	}
	if cfg.Model == "" {
		return fmt.Errorf("%w: model name cannot be empty", ErrInvalidConfig)
	}
	if cfg.Dimensions <= 0 {
		return fmt.Errorf("%w: dimensions must be positive, got %d", ErrInvalidConfig, cfg.Dimensions)
	}
	if cfg.MaxRetries < 0 {
		return fmt.Errorf("%w: max retries cannot be negative", ErrInvalidConfig)
	}
	if cfg.RetryDelay <= 0 {
		return fmt.Errorf("%w: retry delay must be positive", ErrInvalidConfig)
	}
	return nil
}

// Embed returns the embedding of text. It is safe for concurrent use.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	if e.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.Timeout)
		defer cancel()
	}

	dims := int32(e.config.Dimensions)
	embedConfig := &genai.EmbedContentConfig{
		TaskType:             retrievalQueryTask,
		OutputDimensionality: &dims,
	}

	backoff := retry.WithMaxRetries(uint64(e.config.MaxRetries),
		retry.WithJitterPercent(25, retry.NewExponential(e.config.RetryDelay)))

	attempt := 0
	vector, err := retry.DoValue(ctx, backoff, func(ctx context.Context) ([]float32, error) {
		attempt++
		start := time.Now()

		resp, err := e.api.EmbedContent(ctx, e.config.Model, genai.Text(text), embedConfig)
		if err != nil {
			e.logger.WarnContext(ctx, "Gemini embed call failed",
				"attempt", attempt,
				"error", err)
			if isTransient(err) {
				return nil, retry.RetryableError(err)
			}
			return nil, err
		}

		values, err := extractVector(resp)
		if err != nil {
			return nil, err
		}

		e.logger.DebugContext(ctx, "Gemini embed call succeeded",
			"attempt", attempt,
			"dimensions", len(values),
			"duration", time.Since(start))
		return values, nil
	})
	if err != nil {
		return nil, fmt.Errorf("embedding failed after %d attempt(s): %w", attempt, err)
	}

	if len(vector) != e.config.Dimensions {
		e.logger.WarnContext(ctx, "embedding dimensions differ from configuration",
			"expected", e.config.Dimensions,
			"actual", len(vector))
	}
	return vector, nil
}

// extractVector pulls the first embedding out of a response.
func extractVector(resp *genai.EmbedContentResponse) ([]float32, error) {
	if resp == nil {
		return nil, fmt.Errorf("%w: nil response", ErrInvalidResponse)
	}
	if len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil {
		return nil, fmt.Errorf("%w: no embeddings in response", ErrInvalidResponse)
	}
	values := resp.Embeddings[0].Values
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: empty embedding", ErrInvalidResponse)
	}
	return values, nil
}

// isTransient reports whether err is worth retrying.
func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.Code)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return retryableStatus(apiErrPtr.Code)
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
