package main

import (
	"fmt"
	"log/slog"

	"github.com/phrazzld/mediamatch-api/internal/config"
)

// loadAppConfig loads the application configuration from environment variables or config file.
// Returns the loaded config and any loading error.
func loadAppConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// logConfigSummary writes the non-secret configuration at startup.
func logConfigSummary(logger *slog.Logger, cfg *config.Config) {
	logger.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"retrieval_mode", cfg.Storage.Mode,
		"workers", cfg.Tasks.WorkerCount,
		"queue_size", cfg.Tasks.QueueSize)

	logger.Debug("Collaborator configuration",
		"embedding_model", cfg.Embedding.Model,
		"embedding_dimensions", cfg.Embedding.Dimensions,
		"matcher_url", cfg.Matcher.BaseURL,
		"matcher_token_present", cfg.Matcher.Token != "",
		"storage_endpoint", cfg.Storage.Endpoint,
		"bucket", cfg.Storage.Bucket,
		"inline_api_keys", len(cfg.Auth.APIKeys),
		"credentials_file_present", cfg.Auth.CredentialsFile != "")
}
