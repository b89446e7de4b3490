// Package llmutil wires the built-in LLM provider constructors into a
// factory so every binary shares one registration path.
package llmutil

import (
	"github.com/iitdbuddy/buddy/internal/llm"
	"github.com/iitdbuddy/buddy/internal/llm/anthropic"
	"github.com/iitdbuddy/buddy/internal/llm/openai"
)

// RegisterDefaultProviders registers all built-in LLM provider constructors
// (anthropic plus every OpenAI-compatible preset) into factory.
func RegisterDefaultProviders(factory *llm.ProviderFactory) {
	factory.Register("anthropic", func(c llm.ProviderConfig) (llm.Provider, error) {
		return anthropic.New(c.APIKey, c.Model, c.BaseURL), nil
	})
	factory.Register("openai", func(c llm.ProviderConfig) (llm.Provider, error) {
		return openai.New(c.APIKey, c.Model, c.BaseURL, c.EmbedModel), nil
	})
	// All OpenAI-compatible providers, preset base URLs.
	for _, p := range []struct{ name, url string }{
		{"groq", llm.KnownProviders["groq"]},
		{"ollama", llm.KnownProviders["ollama"]},
		{"together", llm.KnownProviders["together"]},
		{"deepseek", llm.KnownProviders["deepseek"]},
		{"custom", ""},
	} {
		p := p
		factory.Register(p.name, func(c llm.ProviderConfig) (llm.Provider, error) {
			base := c.BaseURL
			if base == "" {
				base = p.url
			}
			return openai.New(c.APIKey, c.Model, base, c.EmbedModel), nil
		})
	}
}
