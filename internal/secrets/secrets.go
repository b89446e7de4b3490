// Package secrets resolves service credentials from pluggable backends.
// The rest of the code treats credentials as opaque strings handed over at
// construction time; only this package knows where they come from.
package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
)

// Well-known secret keys.
const (
	KeyLLMAPIKey       = "llm_api_key"
	KeyEmbeddingAPIKey = "embedding_api_key"
	KeyQdrantAPIKey    = "qdrant_api_key"
	KeyNeo4jPassword   = "neo4j_password"
)

// Provider is the interface for secret backends.
type Provider interface {
	// Get retrieves a secret by key.
	Get(ctx context.Context, key string) (string, error)
	// Set stores a secret (not all providers support this).
	Set(ctx context.Context, key, value string) error
	// Name returns the provider name.
	Name() string
}

// Config configures the secrets manager.
type Config struct {
	// Provider selects the backend: "env" or "file".
	Provider string
	// FileConfig for the file backend (development only).
	FileConfig *FileConfig
	// EnvPrefix for environment variable names (default "BUDDY_").
	EnvPrefix string
}

// DefaultConfig returns the env-backed configuration.
func DefaultConfig() *Config {
	return &Config{Provider: "env", EnvPrefix: "BUDDY_"}
}

// Manager resolves secrets from a primary backend with an env fallback.
type Manager struct {
	primary  Provider
	fallback Provider
	mu       sync.RWMutex
	cache    map[string]string
}

// NewManager creates a secrets manager.
func NewManager(cfg *Config) (*Manager, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	var primary Provider
	switch cfg.Provider {
	case "file":
		if cfg.FileConfig == nil {
			return nil, fmt.Errorf("file config required for file provider")
		}
		p, err := NewFileProvider(cfg.FileConfig)
		if err != nil {
			return nil, fmt.Errorf("create file provider: %w", err)
		}
		primary = p
	case "env", "":
		primary = NewEnvProvider(cfg.EnvPrefix)
	default:
		return nil, fmt.Errorf("unknown secrets provider: %s", cfg.Provider)
	}

	return &Manager{
		primary:  primary,
		fallback: NewEnvProvider(cfg.EnvPrefix),
		cache:    make(map[string]string),
	}, nil
}

// Get retrieves a secret, trying primary then the env fallback.
func (m *Manager) Get(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	if val, ok := m.cache[key]; ok {
		m.mu.RUnlock()
		return val, nil
	}
	m.mu.RUnlock()

	if val, err := m.primary.Get(ctx, key); err == nil && val != "" {
		m.cacheSet(key, val)
		return val, nil
	}
	if val, err := m.fallback.Get(ctx, key); err == nil && val != "" {
		m.cacheSet(key, val)
		return val, nil
	}
	return "", fmt.Errorf("secret not found: %s", key)
}

// GetOrDefault retrieves a secret or returns defaultVal.
func (m *Manager) GetOrDefault(ctx context.Context, key, defaultVal string) string {
	val, err := m.Get(ctx, key)
	if err != nil || val == "" {
		return defaultVal
	}
	return val
}

func (m *Manager) cacheSet(key, value string) {
	m.mu.Lock()
	m.cache[key] = value
	m.mu.Unlock()
}

// EnvProvider reads secrets from environment variables.
type EnvProvider struct {
	prefix string
}

// NewEnvProvider creates an environment-based secrets provider.
func NewEnvProvider(prefix string) *EnvProvider {
	if prefix == "" {
		prefix = "BUDDY_"
	}
	return &EnvProvider{prefix: prefix}
}

func (p *EnvProvider) Name() string { return "env" }

func (p *EnvProvider) Get(ctx context.Context, key string) (string, error) {
	envKey := p.prefix + strings.ToUpper(key)
	if val := os.Getenv(envKey); val != "" {
		return val, nil
	}
	if val := os.Getenv(strings.ToUpper(key)); val != "" {
		return val, nil
	}
	return "", fmt.Errorf("env var not found: %s", envKey)
}

func (p *EnvProvider) Set(ctx context.Context, key, value string) error {
	return os.Setenv(p.prefix+strings.ToUpper(key), value)
}
