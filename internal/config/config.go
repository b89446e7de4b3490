package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/iitdbuddy/buddy/internal/profile"
)

// Config holds all application configuration.
type Config struct {
	LLM       LLMConfig                  `mapstructure:"llm"`
	Embedding EmbeddingConfig            `mapstructure:"embedding"`
	Vector    VectorConfig               `mapstructure:"vector"`
	Graph     GraphConfig                `mapstructure:"graph"`
	Server    ServerConfig               `mapstructure:"server"`
	Tracing   TracingConfig              `mapstructure:"tracing"`
	Log       LogConfig                  `mapstructure:"log"`
	Profiles  map[string]ProfileOverride `mapstructure:"profiles"`
}

// LLMConfig selects the completion provider.
type LLMConfig struct {
	Provider string `mapstructure:"provider"`
	Model    string `mapstructure:"model"`
	APIKey   string `mapstructure:"api_key"`
	BaseURL  string `mapstructure:"base_url"`
}

// EmbeddingConfig selects the embedding provider. It may point at a
// different host than the completion provider (e.g. Groq for completions,
// a local Ollama for 384-dim sentence embeddings).
type EmbeddingConfig struct {
	Provider   string `mapstructure:"provider"`
	Model      string `mapstructure:"model"`
	APIKey     string `mapstructure:"api_key"`
	BaseURL    string `mapstructure:"base_url"`
	Dimensions uint64 `mapstructure:"dimensions"`
}

// VectorConfig locates the Qdrant instance.
type VectorConfig struct {
	Host   string `mapstructure:"host"`
	Port   int    `mapstructure:"port"`
	APIKey string `mapstructure:"api_key"`
}

// GraphConfig locates the Neo4j instance for the prerequisite graph.
// An empty URI disables the graph features.
type GraphConfig struct {
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// TracingConfig configures OTLP trace export. Empty endpoint disables it.
type TracingConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	SampleRate   float64 `mapstructure:"sample_rate"`
	Environment  string  `mapstructure:"environment"`
}

// LogConfig configures slog output.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ProfileOverride adjusts one built-in advisory profile. Unset fields keep
// the built-in value.
type ProfileOverride struct {
	Collection  string  `mapstructure:"collection"`
	Limit       int     `mapstructure:"limit"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	RolePrompt  string  `mapstructure:"role_prompt"`
}

// ResolveProfiles returns the built-in profiles with config overrides
// applied.
func (c *Config) ResolveProfiles() map[string]profile.Profile {
	profiles := profile.Defaults()
	for name, o := range c.Profiles {
		p, ok := profiles[name]
		if !ok {
			continue
		}
		if o.Collection != "" {
			p.Collection = o.Collection
		}
		if o.Limit > 0 {
			p.Limit = o.Limit
		}
		if o.Temperature > 0 {
			p.Temperature = o.Temperature
		}
		if o.MaxTokens > 0 {
			p.MaxTokens = o.MaxTokens
		}
		if o.RolePrompt != "" {
			p.RolePrompt = o.RolePrompt
		}
		profiles[name] = p
	}
	return profiles
}

// Validate checks configuration for issues and returns warnings.
func (c *Config) Validate() []string {
	var warnings []string

	if c.LLM.Provider != "" && c.LLM.Provider != "none" && c.LLM.APIKey == "" {
		warnings = append(warnings, fmt.Sprintf("LLM provider '%s' is configured but api_key is empty", c.LLM.Provider))
	}

	for name, o := range c.Profiles {
		if o.Temperature < 0 || o.Temperature > 2.0 {
			warnings = append(warnings, fmt.Sprintf("profile '%s' temperature %.2f is outside recommended range [0.0, 2.0]", name, o.Temperature))
		}
		if o.Limit < 0 {
			warnings = append(warnings, fmt.Sprintf("profile '%s' limit %d is negative", name, o.Limit))
		}
		if o.MaxTokens < 0 {
			warnings = append(warnings, fmt.Sprintf("profile '%s' max_tokens %d is negative", name, o.MaxTokens))
		}
	}

	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1.0 {
		warnings = append(warnings, fmt.Sprintf("tracing sample_rate %.2f is outside [0.0, 1.0]", c.Tracing.SampleRate))
	}

	return warnings
}

// Load reads configuration from file and environment. Environment variables
// use the BUDDY_ prefix with dots replaced by underscores, e.g.
// BUDDY_LLM_API_KEY.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("BUDDY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("vector.host", "localhost")
	v.SetDefault("vector.port", 6334)
	v.SetDefault("embedding.dimensions", 384)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("tracing.sample_rate", 1.0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if warnings := cfg.Validate(); len(warnings) > 0 {
		for _, warning := range warnings {
			fmt.Fprintf(os.Stderr, "Warning: %s\n", warning)
		}
	}

	return &cfg, nil
}
