package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every configuration environment variable.
const EnvPrefix = "MEDIAMATCH"

// ConfigFileEnv names the environment variable holding an explicit config
// file path.
const ConfigFileEnv = EnvPrefix + "_CONFIG_FILE"

// ErrNoCredentials is returned when neither inline keys nor a credentials
// file is configured.
var ErrNoCredentials = errors.New("no api keys configured: set auth.api_keys or auth.credentials_file")

// defaults for every setting that has one
var defaults = map[string]any{
	"server.port":             8080,
	"server.log_level":        "info",
	"server.read_timeout":     "15s",
	"server.write_timeout":    "30s",
	"server.shutdown_timeout": "20s",

	"quota.limit":  100,
	"quota.window": "1h",

	"search.default_match_count":     5,
	"search.default_match_threshold": 0.0,

	"cache.max_entries": 1000,
	"cache.ttl":         "1h",

	"tasks.worker_count":   8,
	"tasks.queue_size":     256,
	"tasks.retention":      "24h",
	"tasks.sweep_interval": "5m",

	"embedding.model":       "text-embedding-004",
	"embedding.dimensions":  512,
	"embedding.max_retries": 3,
	"embedding.retry_delay": "500ms",
	"embedding.timeout":     "30s",

	"matcher.timeout":     "30s",
	"matcher.max_retries": 2,
	"matcher.retry_delay": "500ms",

	"storage.use_ssl":        true,
	"storage.mode":           "presign",
	"storage.presign_expiry": "1h",
	"storage.download_dir":   "downloads",
	"storage.concurrency":    4,
	"storage.verify_objects": true,
}

// keys without defaults that must still be visible to Unmarshal when only
// set through the environment
var envOnlyKeys = []string{
	"auth.api_keys",
	"auth.credentials_file",
	"embedding.gemini_api_key",
	"matcher.base_url",
	"matcher.token",
	"storage.endpoint",
	"storage.access_key_id",
	"storage.secret_access_key",
	"storage.region",
	"storage.bucket",
}

// Load configuration from environment variables and optionally a config file.
// The file is taken from MEDIAMATCH_CONFIG_FILE, or config.yaml in the
// working directory when present. Environment variables take precedence
// over values from the file.
func Load() (*Config, error) {
	return LoadFile(os.Getenv(ConfigFileEnv))
}

// LoadFile is Load with an explicit config file path. An empty path falls
// back to an optional config.yaml in the working directory.
func LoadFile(configPath string) (*Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigType("yaml")
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, key := range envOnlyKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("error binding environment variable for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks struct tags and the cross-field rules tags cannot express.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	if len(nonEmpty(cfg.Auth.APIKeys)) == 0 && cfg.Auth.CredentialsFile == "" {
		return fmt.Errorf("configuration validation failed: %w", ErrNoCredentials)
	}
	return nil
}

func nonEmpty(values []string) []string {
	out := values[:0:0]
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
