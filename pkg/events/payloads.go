package events

// RunStatusPayload is the payload for run.status events — published
// whenever a Run transitions between lifecycle states (spec.md §3 Run
// status state machine).
type RunStatusPayload struct {
	Type      string `json:"type"` // always EventTypeRunStatus
	RunID     string `json:"run_id"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"` // RFC3339Nano
}

// GenerationStatusPayload is the payload for generation.status events —
// one per artifact generation attempt.
type GenerationStatusPayload struct {
	Type          string  `json:"type"`
	RunID         string  `json:"run_id"`
	DocumentID    string  `json:"document_id"`
	GeneratorName string  `json:"generator_name"`
	Iteration     int     `json:"iteration"`
	Status        string  `json:"status"` // dispatched, retrying, completed, failed, skipped
	DurationSec   float64 `json:"duration_seconds,omitempty"`
	Success       bool    `json:"success"`
	Description   string  `json:"description,omitempty"`
	Timestamp     string  `json:"timestamp"`
}

// EvaluationStatusPayload is the payload for evaluation.status events —
// one per judge's completed single-document evaluation of an artifact.
type EvaluationStatusPayload struct {
	Type         string  `json:"type"`
	RunID        string  `json:"run_id"`
	ArtifactID   string  `json:"artifact_id"`
	JudgeName    string  `json:"judge_name"`
	WeightedMean float64 `json:"weighted_mean,omitempty"`
	Success      bool    `json:"success"`
	Description  string  `json:"description,omitempty"`
	Timestamp    string  `json:"timestamp"`
}

// PairwiseStatusPayload is the payload for pairwise.status events — one per
// recorded head-to-head comparison.
type PairwiseStatusPayload struct {
	Type        string `json:"type"`
	RunID       string `json:"run_id"`
	DocumentID  string `json:"document_id"`
	ArtifactAID string `json:"artifact_a_id"`
	ArtifactBID string `json:"artifact_b_id"`
	Outcome     string `json:"outcome"`
	Timestamp   string `json:"timestamp"`
}

// CombinationStatusPayload is the payload for combination.status events.
type CombinationStatusPayload struct {
	Type         string `json:"type"`
	RunID        string `json:"run_id"`
	DocumentID   string `json:"document_id"`
	StrategyUsed string `json:"strategy_used"`
	Success      bool   `json:"success"`
	Description  string `json:"description,omitempty"`
	Timestamp    string `json:"timestamp"`
}

// PostCombineStatusPayload is the payload for post_combine.status events.
type PostCombineStatusPayload struct {
	Type        string  `json:"type"`
	RunID       string  `json:"run_id"`
	DocumentID  string  `json:"document_id"`
	JudgeName   string  `json:"judge_name"`
	Score       float64 `json:"score,omitempty"`
	Success     bool    `json:"success"`
	Description string  `json:"description,omitempty"`
	Timestamp   string  `json:"timestamp"`
}

// CompletionPayload is the payload for run.completion, published once a Run
// reaches a terminal status.
type CompletionPayload struct {
	Type           string `json:"type"`
	RunID          string `json:"run_id"`
	Status         string `json:"status"`
	CompletedCount int    `json:"completed_count"`
	FailedCount    int    `json:"failed_count"`
	SkippedCount   int    `json:"skipped_count"`
	Timestamp      string `json:"timestamp"`
}
