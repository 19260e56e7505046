// Package events publishes run lifecycle events to Postgres (persisted +
// NOTIFY) for cross-process delivery, the way the teacher's pkg/events
// delivers session/stage events to WebSocket clients — generalized here
// to the run/generation/evaluation/pairwise/combination/post_combine
// phases of spec.md §6.4, with no WebSocket layer since no HTTP surface
// is in scope.
package events

// Persistent event types (stored in the events table + NOTIFY).
const (
	EventTypeRunStatus         = "run.status"
	EventTypeGenerationStatus  = "generation.status"
	EventTypeEvaluationStatus  = "evaluation.status"
	EventTypePairwiseStatus    = "pairwise.status"
	EventTypeCombinationStatus = "combination.status"
	EventTypePostCombineStatus = "post_combine.status"
	EventTypeCompletion        = "run.completion"
)

// Phase identifies which pipeline stage an event describes, per spec.md §6.4.
type Phase string

const (
	PhaseGeneration   Phase = "generation"
	PhaseEvaluation   Phase = "evaluation"
	PhasePairwise     Phase = "pairwise"
	PhaseCombination  Phase = "combination"
	PhasePostCombine  Phase = "post_combine"
	PhaseFinalization Phase = "finalization"
)

// GlobalRunsChannel is the channel carrying transient run-level status
// events, for a dashboard-style subscriber watching every run at once.
const GlobalRunsChannel = "runs"

// RunChannel returns the channel name for one run's events.
// Format: "run:{run_id}"
func RunChannel(runID string) string {
	return "run:" + runID
}

// CancelChannel is the NOTIFY channel used to broadcast cancel(run_id)
// requests across worker processes (SPEC_FULL §6, cross-pod cancellation
// adapted from the teacher's pkg/events listener handler pattern).
const CancelChannel = "run_cancel"
