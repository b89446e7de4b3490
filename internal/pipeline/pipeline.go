// Package pipeline implements the retrieval-then-generation query pipeline:
// embed the query, retrieve the nearest documents, format a context block,
// and synthesize an answer. Control flow is strictly linear and synchronous;
// a failure at any stage short-circuits to a Failed result and discards
// whatever was computed for that invocation.
package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/iitdbuddy/buddy/internal/observability"
	"github.com/iitdbuddy/buddy/internal/vector"
)

const defaultLimit = 3

// Outcome is the terminal state of one pipeline invocation.
type Outcome string

const (
	// OutcomeNoQuery means the query was empty or whitespace-only; no
	// external call was made.
	OutcomeNoQuery Outcome = "no_query"
	// OutcomeNoResults means retrieval returned nothing. This is a valid
	// terminal state, distinct from failure.
	OutcomeNoResults Outcome = "no_results"
	// OutcomeAnswered carries documents, context, and an answer.
	OutcomeAnswered Outcome = "answered"
	// OutcomeFailed carries the failed stage and its cause.
	OutcomeFailed Outcome = "failed"
)

// Request parameterizes one invocation. One pipeline serves every advisory
// domain; the domain differences live entirely in these fields.
type Request struct {
	Query       string
	Collection  string
	Template    FieldTemplate
	RolePrompt  string
	Limit       int
	Temperature float64
	MaxTokens   int
}

// Timings records per-stage wall durations for one invocation.
type Timings struct {
	Embed     time.Duration
	Retrieve  time.Duration
	Synthesis time.Duration
}

// Result is the single outcome of Run. Documents stay attached on synthesis
// failure so callers can still render what was retrieved.
type Result struct {
	Outcome   Outcome
	Documents []vector.Document
	Context   string
	Answer    string
	Err       *StageError
	Timings   Timings
}

// Pipeline composes the three external collaborators. The handles are
// effectively immutable after construction and safe for concurrent
// invocations; no invocation writes shared state.
type Pipeline struct {
	embedder    Embedder
	retriever   vector.Retriever
	synthesizer Synthesizer
	logger      *slog.Logger
}

// New creates a Pipeline. A nil logger falls back to slog.Default.
func New(embedder Embedder, retriever vector.Retriever, synthesizer Synthesizer, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		embedder:    embedder,
		retriever:   retriever,
		synthesizer: synthesizer,
		logger:      logger,
	}
}

// Run executes validate → embed → retrieve → format → synthesize. Every
// external failure is converted at its stage boundary; Run never panics and
// never retries.
func (p *Pipeline) Run(ctx context.Context, req Request) Result {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return Result{Outcome: OutcomeNoQuery}
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	ctx, span := observability.StartPipelineSpan(ctx, req.Collection, limit)
	defer span.End()

	var res Result

	start := time.Now()
	vec, err := p.embed(ctx, query)
	res.Timings.Embed = time.Since(start)
	if err != nil {
		res.Outcome = OutcomeFailed
		res.Err = embeddingError(err)
		observability.RecordSpanError(span, res.Err)
		p.logger.Error("query embedding failed", "error", err)
		return res
	}

	start = time.Now()
	docs, err := p.retrieve(ctx, vec, req.Collection, limit)
	res.Timings.Retrieve = time.Since(start)
	if err != nil {
		res.Outcome = OutcomeFailed
		res.Err = retrievalError(err)
		observability.RecordSpanError(span, res.Err)
		p.logger.Error("retrieval failed", "collection", req.Collection, "error", err)
		return res
	}
	if len(docs) == 0 {
		res.Outcome = OutcomeNoResults
		p.logger.Debug("no documents retrieved", "collection", req.Collection)
		return res
	}

	res.Documents = docs
	res.Context = req.Template.Format(docs)

	start = time.Now()
	answer, err := p.synthesize(ctx, res.Context, query, req)
	res.Timings.Synthesis = time.Since(start)
	if err != nil {
		// Documents stay attached for display alongside the failure.
		res.Outcome = OutcomeFailed
		res.Err = synthesisError(err)
		observability.RecordSpanError(span, res.Err)
		p.logger.Error("answer synthesis failed", "error", err)
		return res
	}

	res.Outcome = OutcomeAnswered
	res.Answer = answer
	p.logger.Debug("query answered",
		"collection", req.Collection,
		"documents", len(docs),
		"context_chars", len(res.Context))
	return res
}

func (p *Pipeline) embed(ctx context.Context, query string) ([]float32, error) {
	ctx, span := observability.StartStageSpan(ctx, "llm.embed")
	defer span.End()
	return p.embedder.Embed(ctx, query)
}

func (p *Pipeline) retrieve(ctx context.Context, vec []float32, collection string, limit int) ([]vector.Document, error) {
	ctx, span := observability.StartStageSpan(ctx, "vector.search")
	defer span.End()
	return p.retriever.Search(ctx, vec, collection, limit)
}

func (p *Pipeline) synthesize(ctx context.Context, contextText, query string, req Request) (string, error) {
	ctx, span := observability.StartStageSpan(ctx, "llm.complete")
	defer span.End()
	return p.synthesizer.Synthesize(ctx, contextText, query, req.RolePrompt, SynthesisOptions{
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
}
