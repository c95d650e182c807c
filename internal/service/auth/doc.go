// Package auth holds the static registry of API keys accepted by the
// service. Keys are loaded once at startup from configuration and an
// optional YAML file; the registry is read-only afterwards, apart from
// per-key usage counters.
package auth
