package pipeline

import (
	"context"
	"fmt"

	"github.com/iitdbuddy/buddy/internal/llm"
)

// userPromptTemplate frames every synthesis call. The two interpolation
// points carry the formatted context and the original query verbatim; the
// closing instruction to address the query is load-bearing for answer
// quality and must not be reworded casually.
const userPromptTemplate = `Based on the following information and query, provide a helpful response:

Context:
%s

User Query: %s

Please provide a structured response that addresses the query.`

// SynthesisOptions are the pass-through tuning knobs for one call.
type SynthesisOptions struct {
	Temperature float64
	MaxTokens   int
}

// Synthesizer produces a natural-language answer from a context block and
// the original query.
type Synthesizer interface {
	Synthesize(ctx context.Context, contextText, query, rolePrompt string, opts SynthesisOptions) (string, error)
}

// Embedder turns text into a fixed-length vector. Truncation, if any, is
// the embedding host's responsibility; the pipeline never alters the query.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ProviderSynthesizer adapts an llm.Provider to the Synthesizer contract,
// building the two-message exchange (system role prompt + templated user
// message).
type ProviderSynthesizer struct {
	provider llm.Provider
}

// NewProviderSynthesizer wraps provider.
func NewProviderSynthesizer(provider llm.Provider) *ProviderSynthesizer {
	return &ProviderSynthesizer{provider: provider}
}

func (s *ProviderSynthesizer) Synthesize(ctx context.Context, contextText, query, rolePrompt string, opts SynthesisOptions) (string, error) {
	prompt := &llm.Prompt{
		SystemPrompt: rolePrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: fmt.Sprintf(userPromptTemplate, contextText, query)},
		},
	}

	resp, err := s.provider.Complete(ctx, prompt, &llm.RequestOptions{
		Temperature: llm.Temp(opts.Temperature),
		MaxTokens:   llm.Tokens(opts.MaxTokens),
	})
	if err != nil {
		return "", err
	}
	return llm.StripThinkingTags(resp.Content), nil
}

// ProviderEmbedder adapts an llm.Provider's batch embedding call to the
// single-text Embedder contract.
type ProviderEmbedder struct {
	provider llm.Provider
}

// NewProviderEmbedder wraps provider.
func NewProviderEmbedder(provider llm.Provider) *ProviderEmbedder {
	return &ProviderEmbedder{provider: provider}
}

func (e *ProviderEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.provider.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return vecs[0], nil
}
