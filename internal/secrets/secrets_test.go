package secrets

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestEnvProvider_Get(t *testing.T) {
	t.Setenv("BUDDY_LLM_API_KEY", "gsk_test")

	p := NewEnvProvider("BUDDY_")
	val, err := p.Get(context.Background(), KeyLLMAPIKey)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != "gsk_test" {
		t.Errorf("got %q", val)
	}
}

func TestEnvProvider_UnprefixedFallback(t *testing.T) {
	t.Setenv("QDRANT_API_KEY", "qd_test")

	p := NewEnvProvider("BUDDY_")
	val, err := p.Get(context.Background(), KeyQdrantAPIKey)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != "qd_test" {
		t.Errorf("got %q", val)
	}
}

func TestEnvProvider_Missing(t *testing.T) {
	p := NewEnvProvider("BUDDY_")
	if _, err := p.Get(context.Background(), "definitely_not_set_anywhere"); err == nil {
		t.Fatal("expected error for missing env var")
	}
}

func TestFileProvider_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.json")
	p, err := NewFileProvider(&FileConfig{Path: path, CreateIfMissing: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx := context.Background()
	if err := p.Set(ctx, KeyNeo4jPassword, "s3cret"); err != nil {
		t.Fatalf("set: %v", err)
	}

	// A fresh provider reads the persisted value.
	p2, err := NewFileProvider(&FileConfig{Path: path})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	val, err := p2.Get(ctx, KeyNeo4jPassword)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if val != "s3cret" {
		t.Errorf("got %q", val)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("secrets file mode %v, want 0600", info.Mode().Perm())
	}
}

func TestFileProvider_MissingPath(t *testing.T) {
	if _, err := NewFileProvider(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	if _, err := NewFileProvider(&FileConfig{}); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestManager_PrimaryThenFallback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.json")
	m, err := NewManager(&Config{
		Provider:   "file",
		FileConfig: &FileConfig{Path: path, CreateIfMissing: true},
		EnvPrefix:  "BUDDY_",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Not in the file, but present in the env fallback.
	t.Setenv("BUDDY_LLM_API_KEY", "from-env")
	val, err := m.Get(context.Background(), KeyLLMAPIKey)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if val != "from-env" {
		t.Errorf("got %q", val)
	}
}

func TestManager_Cache(t *testing.T) {
	t.Setenv("BUDDY_LLM_API_KEY", "first")

	m, err := NewManager(nil)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if got, _ := m.Get(ctx, KeyLLMAPIKey); got != "first" {
		t.Fatalf("got %q", got)
	}

	// Cached value survives the env changing underneath.
	t.Setenv("BUDDY_LLM_API_KEY", "second")
	if got, _ := m.Get(ctx, KeyLLMAPIKey); got != "first" {
		t.Errorf("expected cached value, got %q", got)
	}
}

func TestManager_GetOrDefault(t *testing.T) {
	m, err := NewManager(nil)
	if err != nil {
		t.Fatal(err)
	}
	got := m.GetOrDefault(context.Background(), "missing_key_for_test", "fallback")
	if got != "fallback" {
		t.Errorf("got %q", got)
	}
}

func TestNewManager_UnknownProvider(t *testing.T) {
	if _, err := NewManager(&Config{Provider: "vault"}); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}
