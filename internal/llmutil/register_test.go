package llmutil

import (
	"testing"

	"github.com/iitdbuddy/buddy/internal/llm"
)

func TestRegisterDefaultProviders(t *testing.T) {
	factory := llm.NewFactory()
	RegisterDefaultProviders(factory)

	for _, name := range []string{"anthropic", "openai", "groq", "ollama", "together", "deepseek", "custom"} {
		p, err := factory.Create(llm.ProviderConfig{Provider: name, APIKey: "k", Model: "m"})
		if err != nil {
			t.Errorf("provider %q: %v", name, err)
			continue
		}
		if p == nil {
			t.Errorf("provider %q: expected non-nil provider", name)
		}
	}
}

func TestRegisterDefaultProviders_NoneStillDisables(t *testing.T) {
	factory := llm.NewFactory()
	RegisterDefaultProviders(factory)

	p, err := factory.Create(llm.ProviderConfig{Provider: "none"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != nil {
		t.Fatal("'none' must yield a nil provider")
	}
}
