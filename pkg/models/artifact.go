package models

import "time"

// GeneratorConfig describes one generator backend as configured for a Run
// (its adapter name, model/parameters, and iteration count). Only the
// generator-affecting fields of this struct feed config_hash (SPEC_FULL
// §5.8) — fields that don't change generator output (e.g. display labels)
// are left out by pkg/executor's generatorAffectingConfig before
// pkg/fingerprint hashes the rest.
type GeneratorConfig struct {
	Name        string         `db:"name" json:"name"`
	Adapter     string         `db:"adapter" json:"adapter"` // "fpf" or "gptr"
	Model       string         `db:"model" json:"model"`
	Iterations  int            `db:"iterations" json:"iterations"`
	Params      map[string]any `db:"params" json:"params,omitempty"`
	MaxRetries  int            `db:"max_retries" json:"max_retries"`
	Timeout     time.Duration  `db:"timeout" json:"timeout"`
}

// ArtifactStatus is the lifecycle state of a single generated candidate.
type ArtifactStatus string

const (
	ArtifactStatusPending   ArtifactStatus = "pending"
	ArtifactStatusRunning   ArtifactStatus = "running"
	ArtifactStatusCompleted ArtifactStatus = "completed"
	ArtifactStatusFailed    ArtifactStatus = "failed"
)

// Artifact is one candidate report produced by one generator for one
// document within one run.
type Artifact struct {
	ID            string         `db:"id"`
	RunID         string         `db:"run_id"`
	DocumentID    string         `db:"document_id"`
	GeneratorName string         `db:"generator_name"`
	Iteration     int            `db:"iteration"`
	Status        ArtifactStatus `db:"status"`
	ContentRef    string         `db:"content_ref"` // storage-capability key
	ContentHash   string         `db:"content_hash"`
	TokensUsed    int            `db:"tokens_used"`
	DurationMS    int64          `db:"duration_ms"`
	ErrorMessage  string         `db:"error_message"`
	ErrorKind     string         `db:"error_kind"`
	CreatedAt     time.Time      `db:"created_at"`
	CompletedAt   *time.Time     `db:"completed_at"`
}

// GenerationTask tracks the outstanding work item dispatched to a
// generator adapter, including progress counters the worker pool and
// status(run_id) projection read without touching the artifact itself.
type GenerationTask struct {
	ID            string    `db:"id"`
	RunID         string    `db:"run_id"`
	DocumentID    string    `db:"document_id"`
	GeneratorName string    `db:"generator_name"`
	Iteration     int       `db:"iteration"`
	Attempt       int       `db:"attempt"`
	State         string    `db:"state"` // "dispatched", "retrying", "done", "killed"
	HeartbeatAt   *time.Time `db:"heartbeat_at"`
	CreatedAt     time.Time `db:"created_at"`
}
