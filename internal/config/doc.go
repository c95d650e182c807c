// Package config handles configuration loading, parsing, and validation
// from various sources (environment variables, files). It provides type-safe
// access to application settings needed by different components while keeping
// configuration details separate from business logic.
//
// Environment variables use the MEDIAMATCH_ prefix with dots replaced by
// underscores, e.g. MEDIAMATCH_STORAGE_BUCKET for storage.bucket. They take
// precedence over the optional YAML file.
package config
