package auth

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"gopkg.in/yaml.v3"
)

// Credential is a registered API key.
type Credential struct {
	// Key is the secret the caller sends in the X-API-Key header.
	Key string `yaml:"key"`

	// Name identifies the caller in logs. Never log Key.
	Name string `yaml:"name"`

	// RateLimit overrides the default number of searches admitted per
	// quota window. Zero means use the default.
	RateLimit int `yaml:"rate_limit"`

	// CreatedAt is informational.
	CreatedAt time.Time `yaml:"created_at"`

	usage *atomic.Int64
}

// Usage returns how many requests have authenticated with this credential
// since startup.
func (c Credential) Usage() int64 {
	if c.usage == nil {
		return 0
	}
	return c.usage.Load()
}

// credentialsFile is the on-disk layout of a credentials file.
type credentialsFile struct {
	Credentials []Credential `yaml:"credentials"`
}

// Registry maps API keys to credentials. Safe for concurrent use: the map is
// never written after NewRegistry returns.
type Registry struct {
	byKey map[string]Credential
}

// NewRegistry builds a registry from the given credentials. Keys are trimmed;
// empty keys are skipped and duplicates rejected.
func NewRegistry(creds []Credential) (*Registry, error) {
	byKey := make(map[string]Credential, len(creds))
	for i, c := range creds {
		c.Key = strings.TrimSpace(c.Key)
		if c.Key == "" {
			continue
		}
		if _, exists := byKey[c.Key]; exists {
			return nil, fmt.Errorf("%w: entry %d (%s)", ErrDuplicateCredential, i, c.Name)
		}
		if c.Name == "" {
			c.Name = fmt.Sprintf("credential-%d", i+1)
		}
		if c.RateLimit < 0 {
			c.RateLimit = 0
		}
		c.usage = new(atomic.Int64)
		byKey[c.Key] = c
	}
	return &Registry{byKey: byKey}, nil
}

// LoadCredentialsFile reads credentials from a YAML file of the form:
//
//	credentials:
//	  - key: "..."
//	    name: "partner-a"
//	    rate_limit: 100
func LoadCredentialsFile(path string) ([]Credential, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	var file credentialsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCredentialsFile, err)
	}
	return file.Credentials, nil
}

// Lookup returns the credential for key without touching its usage counter.
func (r *Registry) Lookup(key string) (Credential, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return Credential{}, ErrMissingCredential
	}
	c, ok := r.byKey[key]
	if !ok {
		return Credential{}, ErrInvalidCredential
	}
	return c, nil
}

// Authenticate is Lookup plus a usage increment.
func (r *Registry) Authenticate(key string) (Credential, error) {
	c, err := r.Lookup(key)
	if err != nil {
		return Credential{}, err
	}
	c.usage.Add(1)
	return c, nil
}

// Len returns the number of registered keys.
func (r *Registry) Len() int {
	return len(r.byKey)
}
