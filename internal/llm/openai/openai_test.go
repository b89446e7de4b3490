package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/iitdbuddy/buddy/internal/llm"
)

func TestComplete(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"model": "mixtral-8x7b-32768",
			"choices": []map[string]any{
				{"message": map[string]any{"content": "COL774 requires COL100."}, "finish_reason": "stop"},
			},
			"usage": map[string]any{"prompt_tokens": 42, "completion_tokens": 10},
		})
	}))
	defer srv.Close()

	c := New("test-key", "mixtral-8x7b-32768", srv.URL, "")
	resp, err := c.Complete(context.Background(), &llm.Prompt{
		SystemPrompt: "You are an academic advisor.",
		Messages:     []llm.Message{{Role: llm.RoleUser, Content: "prereqs?"}},
	}, &llm.RequestOptions{Temperature: llm.Temp(1.0), MaxTokens: llm.Tokens(500)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/chat/completions" {
		t.Errorf("wrong path %q", gotPath)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("wrong auth header %q", gotAuth)
	}
	if gotBody["model"] != "mixtral-8x7b-32768" {
		t.Errorf("wrong model %v", gotBody["model"])
	}
	if gotBody["max_tokens"] != float64(500) {
		t.Errorf("wrong max_tokens %v", gotBody["max_tokens"])
	}
	if gotBody["temperature"] != float64(1.0) {
		t.Errorf("wrong temperature %v", gotBody["temperature"])
	}

	msgs, _ := gotBody["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("expected system + user messages, got %d", len(msgs))
	}
	first, _ := msgs[0].(map[string]any)
	if first["role"] != "system" {
		t.Errorf("first message should be system, got %v", first["role"])
	}

	if resp.Content != "COL774 requires COL100." {
		t.Errorf("wrong content %q", resp.Content)
	}
	if resp.InputTokens != 42 || resp.OutputTokens != 10 {
		t.Errorf("usage not parsed: %+v", resp)
	}
	if resp.StopReason != "stop" {
		t.Errorf("wrong stop reason %q", resp.StopReason)
	}
}

func TestComplete_DefaultMaxTokens(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"content": "ok"}}},
		})
	}))
	defer srv.Close()

	c := New("k", "m", srv.URL, "")
	if _, err := c.Complete(context.Background(), &llm.Prompt{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
	}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotBody["max_tokens"] != float64(500) {
		t.Errorf("expected default max_tokens 500, got %v", gotBody["max_tokens"])
	}
}

func TestComplete_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "invalid api key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New("bad-key", "m", srv.URL, "")
	_, err := c.Complete(context.Background(), &llm.Prompt{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
	}, nil)
	if err == nil {
		t.Fatal("expected error for 401 response")
	}
}

func TestEmbed(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("wrong path %q", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"embedding": []float32{0.1, 0.2, 0.3}},
				{"embedding": []float32{0.4, 0.5, 0.6}},
			},
		})
	}))
	defer srv.Close()

	c := New("k", "m", srv.URL, "all-minilm")
	vecs, err := c.Embed(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotBody["model"] != "all-minilm" {
		t.Errorf("wrong embed model %v", gotBody["model"])
	}
	if len(vecs) != 2 || len(vecs[0]) != 3 {
		t.Fatalf("unexpected embedding shape: %v", vecs)
	}
	if vecs[1][2] != 0.6 {
		t.Errorf("unexpected embedding values: %v", vecs[1])
	}
}

func TestNew_Defaults(t *testing.T) {
	c := New("k", "m", "", "")
	if c.baseURL != defaultBaseURL {
		t.Errorf("expected default base URL, got %q", c.baseURL)
	}
	if c.embedModel != "all-minilm" {
		t.Errorf("expected default embed model, got %q", c.embedModel)
	}
}
