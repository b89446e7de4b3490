package pipeline

import "fmt"

// Stage identifies which pipeline stage an error originated from.
type Stage string

const (
	StageEmbed     Stage = "embed"
	StageRetrieve  Stage = "retrieve"
	StageSynthesis Stage = "synthesize"
)

// StageError wraps an external-call failure with the stage it happened in.
// Exactly three kinds exist, one per external service; absence of results is
// never reported through this type.
type StageError struct {
	Stage Stage
	Cause error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Cause)
}

func (e *StageError) Unwrap() error { return e.Cause }

func embeddingError(cause error) *StageError {
	return &StageError{Stage: StageEmbed, Cause: cause}
}

func retrievalError(cause error) *StageError {
	return &StageError{Stage: StageRetrieve, Cause: cause}
}

func synthesisError(cause error) *StageError {
	return &StageError{Stage: StageSynthesis, Cause: cause}
}
