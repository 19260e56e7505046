// Package models contains the persistent entities of the document
// generation and evaluation pipeline: runs, documents, artifacts,
// evaluation results, pairwise comparisons, Elo ratings and generation
// tasks. These are plain structs scanned directly from Postgres rows by
// pkg/store; there is no ORM layer between them and the database.
package models

import "time"

// RunStatus is the lifecycle state of a Run.
type RunStatus string

const (
	RunStatusPending         RunStatus = "pending"
	RunStatusQueued          RunStatus = "queued"
	RunStatusRunning         RunStatus = "running"
	RunStatusCompleted       RunStatus = "completed"
	RunStatusFailed          RunStatus = "failed"
	RunStatusCancelled       RunStatus = "cancelled"
	RunStatusPartialFailure  RunStatus = "partial_failure"
)

// IsTerminal reports whether status is a terminal state for a Run.
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusCompleted, RunStatusFailed, RunStatusCancelled, RunStatusPartialFailure:
		return true
	default:
		return false
	}
}

// Run is the top-level unit of work: a batch of source documents pushed
// through generation, evaluation, pairwise ranking and combination under
// one configuration snapshot.
type Run struct {
	ID               string         `db:"id"`
	Name             string         `db:"name"`
	Status           RunStatus      `db:"status"`
	ConfigSnapshot   []byte         `db:"config_snapshot"` // canonical JSON used to compute ConfigHash
	ConfigHash       string         `db:"config_hash"`
	SkipUnchanged    bool           `db:"skip_unchanged"`
	TotalDocuments   int            `db:"total_documents"`
	CompletedCount   int            `db:"completed_count"`
	FailedCount      int            `db:"failed_count"`
	SkippedCount     int            `db:"skipped_count"`
	ErrorSummary     string         `db:"error_summary"`
	CreatedAt        time.Time      `db:"created_at"`
	StartedAt        *time.Time     `db:"started_at"`
	CompletedAt      *time.Time     `db:"completed_at"`
	HeartbeatAt      *time.Time     `db:"heartbeat_at"`
	WorkerID         string         `db:"worker_id"`
}

// ProviderBreakerState is one entry of RunProgress.BreakerStates
// (SPEC_FULL §6). RunRepo.Progress does not populate that field, so it is
// always empty.
type ProviderBreakerState struct {
	Provider string `json:"provider"`
	State    string `json:"state"` // "closed", "open", "half-open"
}

// RunProgress is a read-only projection of a Run's live counters, returned
// by status(run_id) without requiring callers to know the full Run shape.
type RunProgress struct {
	RunID           string                 `json:"run_id"`
	Status          RunStatus              `json:"status"`
	TotalDocuments  int                    `json:"total_documents"`
	CompletedCount  int                    `json:"completed_count"`
	FailedCount     int                    `json:"failed_count"`
	SkippedCount    int                    `json:"skipped_count"`
	BreakerStates   []ProviderBreakerState `json:"provider_breaker_states"`
}
