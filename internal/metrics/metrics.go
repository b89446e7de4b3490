// Package metrics collects per-query run statistics for CLI reporting.
package metrics

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/iitdbuddy/buddy/internal/pipeline"
)

// QueryMetrics collects statistics for a single pipeline invocation.
type QueryMetrics struct {
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at,omitempty"`
	Duration   time.Duration `json:"duration_ms,omitempty"`
	Profile    string        `json:"profile"`
	Collection string        `json:"collection"`
	Outcome    string        `json:"outcome"`
	Stages     []StageMetric `json:"stages"`
	Documents  int           `json:"documents"`
	ContextLen int           `json:"context_chars"`
	AnswerLen  int           `json:"answer_chars"`
	Error      string        `json:"error,omitempty"`
}

// StageMetric records a single stage's timing.
type StageMetric struct {
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration_ms"`
}

// New starts tracking a query run.
func New(profileName, collection string) *QueryMetrics {
	return &QueryMetrics{
		StartedAt:  time.Now(),
		Profile:    profileName,
		Collection: collection,
	}
}

// Finish folds a pipeline result into the metrics.
func (m *QueryMetrics) Finish(res pipeline.Result) {
	m.FinishedAt = time.Now()
	m.Duration = m.FinishedAt.Sub(m.StartedAt)
	m.Outcome = string(res.Outcome)
	m.Documents = len(res.Documents)
	m.ContextLen = len(res.Context)
	m.AnswerLen = len(res.Answer)
	m.Stages = []StageMetric{
		{Name: "embed", Duration: res.Timings.Embed},
		{Name: "retrieve", Duration: res.Timings.Retrieve},
		{Name: "synthesize", Duration: res.Timings.Synthesis},
	}
	if res.Err != nil {
		m.Error = res.Err.Error()
	}
}

// WriteJSON writes the metrics as indented JSON.
func (m *QueryMetrics) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(m)
}

// PrintSummary writes a human-readable summary.
func (m *QueryMetrics) PrintSummary(w io.Writer) {
	fmt.Fprintf(w, "\n╔══════════════════════════════════════╗\n")
	fmt.Fprintf(w, "║          BUDDY QUERY REPORT          ║\n")
	fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")
	fmt.Fprintf(w, "║ Profile:     %-23s║\n", m.Profile)
	fmt.Fprintf(w, "║ Collection:  %-23s║\n", m.Collection)
	fmt.Fprintf(w, "║ Outcome:     %-23s║\n", m.Outcome)
	fmt.Fprintf(w, "║ Duration:    %-23s║\n", m.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")
	fmt.Fprintf(w, "║ STAGES\n")
	for _, s := range m.Stages {
		fmt.Fprintf(w, "║   %-12s %8s\n", s.Name, s.Duration.Round(time.Millisecond))
	}
	fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")
	fmt.Fprintf(w, "║ Documents:   %d\n", m.Documents)
	fmt.Fprintf(w, "║ Context:     %s\n", formatBytes(m.ContextLen))
	fmt.Fprintf(w, "║ Answer:      %s\n", formatBytes(m.AnswerLen))
	if m.Error != "" {
		fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")
		fmt.Fprintf(w, "║ ERROR\n")
		fmt.Fprintf(w, "║   %s\n", m.Error)
	}
	fmt.Fprintf(w, "╚══════════════════════════════════════╝\n")
}

func formatBytes(n int) string {
	if n < 1024 {
		return fmt.Sprintf("%d B", n)
	}
	return fmt.Sprintf("%.1f KB", float64(n)/1024)
}
