package llm

// Response wraps an LLM completion result.
type Response struct {
	Content      string `json:"content"`
	Model        string `json:"model,omitempty"`
	InputTokens  int    `json:"input_tokens,omitempty"`
	OutputTokens int    `json:"output_tokens,omitempty"`
	StopReason   string `json:"stop_reason,omitempty"`
}

// RequestOptions are per-call tuning knobs. Nil fields fall back to
// provider defaults; values are passed through unvalidated.
type RequestOptions struct {
	Temperature *float64
	MaxTokens   *int
	TopP        *float64
	StopSeqs    []string
}

// Temp is a convenience for building a *float64 temperature.
func Temp(v float64) *float64 { return &v }

// Tokens is a convenience for building a *int max-token budget.
func Tokens(v int) *int { return &v }
