package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/iitdbuddy/buddy/internal/llm"
)

type fakeProvider struct {
	lastPrompt *llm.Prompt
	lastOpts   *llm.RequestOptions
	content    string
	embeds     [][]float32
	err        error
}

func (f *fakeProvider) Complete(ctx context.Context, prompt *llm.Prompt, opts *llm.RequestOptions) (*llm.Response, error) {
	f.lastPrompt = prompt
	f.lastOpts = opts
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Response{Content: f.content}, nil
}

func (f *fakeProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.embeds, nil
}

func (f *fakeProvider) Name() string { return "fake" }

func TestProviderSynthesizer_PromptFraming(t *testing.T) {
	fp := &fakeProvider{content: "answer"}
	s := NewProviderSynthesizer(fp)

	_, err := s.Synthesize(context.Background(), "Course: COL774", "what are the prereqs?",
		"You are an academic advisor.", SynthesisOptions{Temperature: 1.0, MaxTokens: 500})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if fp.lastPrompt.SystemPrompt != "You are an academic advisor." {
		t.Errorf("system prompt not set: %q", fp.lastPrompt.SystemPrompt)
	}
	if len(fp.lastPrompt.Messages) != 1 || fp.lastPrompt.Messages[0].Role != llm.RoleUser {
		t.Fatalf("expected a single user message, got %+v", fp.lastPrompt.Messages)
	}

	content := fp.lastPrompt.Messages[0].Content
	if !strings.HasPrefix(content, "Based on the following information and query, provide a helpful response:") {
		t.Errorf("user message missing opening instruction: %q", content)
	}
	if !strings.Contains(content, "Context:\nCourse: COL774") {
		t.Errorf("user message missing context section: %q", content)
	}
	if !strings.Contains(content, "User Query: what are the prereqs?") {
		t.Errorf("user message missing query section: %q", content)
	}
	if !strings.HasSuffix(content, "Please provide a structured response that addresses the query.") {
		t.Errorf("user message missing closing instruction: %q", content)
	}

	if fp.lastOpts.Temperature == nil || *fp.lastOpts.Temperature != 1.0 {
		t.Error("temperature not passed through")
	}
	if fp.lastOpts.MaxTokens == nil || *fp.lastOpts.MaxTokens != 500 {
		t.Error("max tokens not passed through")
	}
}

func TestProviderSynthesizer_StripsThinkingTags(t *testing.T) {
	fp := &fakeProvider{content: "<think>chain of thought</think>The answer."}
	s := NewProviderSynthesizer(fp)

	got, err := s.Synthesize(context.Background(), "ctx", "q", "role", SynthesisOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "The answer." {
		t.Errorf("thinking tags not stripped: %q", got)
	}
}

func TestProviderEmbedder_SingleText(t *testing.T) {
	fp := &fakeProvider{embeds: [][]float32{{0.1, 0.2}}}
	e := NewProviderEmbedder(fp)

	vec, err := e.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vec) != 2 || vec[0] != 0.1 {
		t.Errorf("unexpected vector %v", vec)
	}
}

func TestProviderEmbedder_EmptyResult(t *testing.T) {
	fp := &fakeProvider{embeds: nil}
	e := NewProviderEmbedder(fp)

	if _, err := e.Embed(context.Background(), "hello"); err == nil {
		t.Error("expected error for empty embedding result")
	}
}
