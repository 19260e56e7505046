// Package executor drives a Run through generation, single-document
// evaluation, pairwise ranking, combination and post-combine evaluation,
// per spec.md §4.1's state machine and §5's concurrency budgets.
//
// Grounded on the teacher's pkg/queue: a WorkerPool/Worker pair claims
// work with SELECT ... FOR UPDATE SKIP LOCKED and delegates the entire
// unit of work to one RunExecutor call, mirroring how the teacher's
// worker delegates one AlertSession to a SessionExecutor. The executor
// writes progress to the database as it goes; the worker only claims,
// heartbeats, records the terminal status, and cleans up.
package executor

import (
	"context"
	"errors"
	"time"

	"github.com/codeready-toolchain/acm/pkg/models"
)

// Sentinel errors a poll loop treats as "try again later" rather than a
// processing failure — mirrors the teacher's pkg/queue.ErrNoSessionsAvailable
// and ErrAtCapacity.
var (
	ErrNoRunsAvailable = errors.New("no runs available")
	ErrAtCapacity      = errors.New("at capacity")
)

// RunExecutor owns a Run's entire lifecycle: every stage runs to
// completion (or the configured abort threshold trips) and progress is
// written to the database as it happens, not batched at the end. The
// Worker only claims, heartbeats, records the terminal status, and
// cleans up — the same division of responsibility as the teacher's
// SessionExecutor/Worker split.
type RunExecutor interface {
	Execute(ctx context.Context, run *models.Run) *RunResult
}

// RunResult is the terminal outcome of one Execute call. Unlike the
// per-document/per-artifact state (already persisted progressively),
// this is the only state the Worker still needs to record.
type RunResult struct {
	Status       models.RunStatus
	ErrorSummary string
}

// PoolHealth mirrors the teacher's queue.PoolHealth, adapted from
// sessions to runs.
type PoolHealth struct {
	IsHealthy        bool
	DBReachable      bool
	DBError          string
	WorkerID         string
	ActiveWorkers    int
	TotalWorkers     int
	ActiveRuns       int
	MaxConcurrent    int
	QueueDepth       int
	WorkerStats      []WorkerHealth
	LastOrphanScan   time.Time
	OrphansRecovered int
}

// WorkerHealth mirrors the teacher's queue.WorkerHealth.
type WorkerHealth struct {
	ID              string
	Status          string // "idle" or "working"
	CurrentRunID    string
	RunsProcessed   int
	LastActivity    time.Time
}
