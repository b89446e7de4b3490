package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/iitdbuddy/buddy/internal/observability"
	"github.com/iitdbuddy/buddy/internal/pipeline"
	"github.com/iitdbuddy/buddy/internal/profile"
	"github.com/iitdbuddy/buddy/internal/vector"
)

// AskRequest is the body of POST /api/ask.
type AskRequest struct {
	Profile string `json:"profile"`
	Query   string `json:"query"`
	// Limit optionally overrides the profile's result limit.
	Limit int `json:"limit,omitempty"`
}

// AskDocument is one retrieved document in an ask response.
type AskDocument struct {
	Score   float32        `json:"score"`
	Payload vector.Payload `json:"payload"`
}

// AskResponse is the body of a successful POST /api/ask. Outcome is one of
// no_query, no_results, answered, failed. Documents stay present on a
// synthesis failure so clients can render what was retrieved.
type AskResponse struct {
	Outcome   string        `json:"outcome"`
	Answer    string        `json:"answer,omitempty"`
	Documents []AskDocument `json:"documents,omitempty"`
	Context   string        `json:"context,omitempty"`
	Error     string        `json:"error,omitempty"`
	Stage     string        `json:"stage,omitempty"`
}

// Server is the HTTP API around the query pipeline.
type Server struct {
	pipeline *pipeline.Pipeline
	profiles map[string]profile.Profile
	health   *Health
	registry *observability.MetricsRegistry
	logger   *slog.Logger
	httpSrv  *http.Server
}

// New creates a Server listening on addr.
func New(addr string, p *pipeline.Pipeline, profiles map[string]profile.Profile, registry *observability.MetricsRegistry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if registry == nil {
		registry = observability.NewMetricsRegistry()
	}

	s := &Server{
		pipeline: p,
		profiles: profiles,
		health:   NewHealth("0.1.0"),
		registry: registry,
		logger:   logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/ask", s.handleAsk)
	mux.HandleFunc("GET /api/profiles", s.handleProfiles)
	mux.Handle("/metrics", registry.Handler())
	s.health.Register(mux)

	s.httpSrv = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 120 * time.Second,
	}
	return s
}

// Health exposes the tracker for registering component checks.
func (s *Server) Health() *Health {
	return s.health
}

// ListenAndServe starts serving and blocks until shutdown.
func (s *Server) ListenAndServe() error {
	s.health.SetReady(true)
	s.logger.Info("http server listening", "addr", s.httpSrv.Addr)
	err := s.httpSrv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting new requests and drains in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	s.health.SetReady(false)
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return
	}

	prof, err := profile.Lookup(s.profiles, req.Profile)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}

	preq := prof.Request(req.Query)
	if req.Limit > 0 {
		preq.Limit = req.Limit
	}

	start := time.Now()
	res := s.pipeline.Run(r.Context(), preq)
	s.observe(prof.Name, string(res.Outcome), start)

	resp := AskResponse{Outcome: string(res.Outcome)}
	for _, d := range res.Documents {
		resp.Documents = append(resp.Documents, AskDocument{Score: d.Score, Payload: d.Payload})
	}
	switch res.Outcome {
	case pipeline.OutcomeAnswered:
		resp.Answer = res.Answer
		resp.Context = res.Context
	case pipeline.OutcomeFailed:
		resp.Stage = string(res.Err.Stage)
		resp.Error = res.Err.Cause.Error()
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleProfiles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"profiles": profile.Names(s.profiles)})
}

func (s *Server) observe(profileName, outcome string, start time.Time) {
	s.registry.NewCounter("buddy_queries_total",
		"Total pipeline invocations by profile and outcome.",
		map[string]string{"profile": profileName, "outcome": outcome}).Inc()
	s.registry.NewHistogram("buddy_query_seconds",
		"End-to-end pipeline latency by profile.",
		map[string]string{"profile": profileName}, nil).ObserveDuration(start)
}
