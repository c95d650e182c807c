package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"    validate:"required"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Quota     QuotaConfig     `mapstructure:"quota"     validate:"required"`
	Search    SearchConfig    `mapstructure:"search"    validate:"required"`
	Cache     CacheConfig     `mapstructure:"cache"     validate:"required"`
	Tasks     TaskConfig      `mapstructure:"tasks"     validate:"required"`
	Embedding EmbeddingConfig `mapstructure:"embedding" validate:"required"`
	Matcher   MatcherConfig   `mapstructure:"matcher"   validate:"required"`
	Storage   StorageConfig   `mapstructure:"storage"   validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port"             validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level"        validate:"required,oneof=debug info warn error fatal"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"     validate:"gt=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"    validate:"gt=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// AuthConfig lists the accepted API keys. Keys may be given inline, through
// a YAML credentials file, or both; at least one source is required.
type AuthConfig struct {
	APIKeys         []string `mapstructure:"api_keys"`
	CredentialsFile string   `mapstructure:"credentials_file" validate:"omitempty,file"`
}

// QuotaConfig is the default per-caller search allowance.
type QuotaConfig struct {
	Limit  int           `mapstructure:"limit"  validate:"gt=0"`
	Window time.Duration `mapstructure:"window" validate:"gt=0"`
}

// SearchConfig holds request defaults.
type SearchConfig struct {
	DefaultMatchCount     int     `mapstructure:"default_match_count"     validate:"gt=0,lte=100"`
	DefaultMatchThreshold float64 `mapstructure:"default_match_threshold" validate:"gte=0,lte=1"`
}

// CacheConfig bounds the embedding cache.
type CacheConfig struct {
	MaxEntries int           `mapstructure:"max_entries" validate:"gt=0"`
	TTL        time.Duration `mapstructure:"ttl"         validate:"gt=0"`
}

// TaskConfig sizes the background task runner.
type TaskConfig struct {
	WorkerCount   int           `mapstructure:"worker_count"   validate:"gt=0"`
	QueueSize     int           `mapstructure:"queue_size"     validate:"gt=0"`
	Retention     time.Duration `mapstructure:"retention"      validate:"gte=0"`
	SweepInterval time.Duration `mapstructure:"sweep_interval" validate:"gt=0"`
}

// EmbeddingConfig contains the text embedding provider settings.
type EmbeddingConfig struct {
	GeminiAPIKey string        `mapstructure:"gemini_api_key" validate:"required"`
	Model        string        `mapstructure:"model"          validate:"required"`
	Dimensions   int           `mapstructure:"dimensions"     validate:"gt=0"`
	MaxRetries   int           `mapstructure:"max_retries"    validate:"gte=0,lte=10"`
	RetryDelay   time.Duration `mapstructure:"retry_delay"    validate:"gt=0"`
	Timeout      time.Duration `mapstructure:"timeout"        validate:"gt=0"`
}

// MatcherConfig points at the remote similarity search service.
type MatcherConfig struct {
	BaseURL    string        `mapstructure:"base_url"    validate:"required,url"`
	Token      string        `mapstructure:"token"`
	Timeout    time.Duration `mapstructure:"timeout"     validate:"gt=0"`
	MaxRetries int           `mapstructure:"max_retries" validate:"gte=0,lte=10"`
	RetryDelay time.Duration `mapstructure:"retry_delay" validate:"gt=0"`
}

// StorageConfig contains the S3-compatible object store settings.
type StorageConfig struct {
	Endpoint        string        `mapstructure:"endpoint"          validate:"required"`
	AccessKeyID     string        `mapstructure:"access_key_id"     validate:"required"`
	SecretAccessKey string        `mapstructure:"secret_access_key" validate:"required"`
	UseSSL          bool          `mapstructure:"use_ssl"`
	Region          string        `mapstructure:"region"`
	Bucket          string        `mapstructure:"bucket"            validate:"required"`
	Mode            string        `mapstructure:"mode"              validate:"oneof=presign download"`
	PresignExpiry   time.Duration `mapstructure:"presign_expiry"    validate:"gt=0,lte=168h"`
	DownloadDir     string        `mapstructure:"download_dir"      validate:"required_if=Mode download"`
	Concurrency     int           `mapstructure:"concurrency"       validate:"gt=0"`
	// VerifyObjects stats each object before presigning so missing objects
	// are reported as failed instead of yielding a dead link.
	VerifyObjects bool `mapstructure:"verify_objects"`
}
