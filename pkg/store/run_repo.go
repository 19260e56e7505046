package store

import (
	"context"
	"fmt"
	"time"

	"github.com/codeready-toolchain/acm/pkg/models"
)

// RunRepo persists and queries Run rows.
type RunRepo struct {
	db *DB
}

// NewRunRepo constructs a RunRepo over the given connection pool.
func NewRunRepo(db *DB) *RunRepo {
	return &RunRepo{db: db}
}

// Create inserts a new Run in "pending" status.
func (r *RunRepo) Create(ctx context.Context, run *models.Run) error {
	const q = `
		INSERT INTO runs (id, name, status, config_snapshot, config_hash, skip_unchanged, total_documents)
		VALUES (:id, :name, :status, :config_snapshot, :config_hash, :skip_unchanged, :total_documents)`
	_, err := r.db.NamedExecContext(ctx, q, run)
	if err != nil {
		return fmt.Errorf("store: create run: %w", err)
	}
	return nil
}

// Get fetches a Run by id.
func (r *RunRepo) Get(ctx context.Context, id string) (*models.Run, error) {
	var run models.Run
	const q = `SELECT * FROM runs WHERE id = $1`
	if err := r.db.GetContext(ctx, &run, q, id); err != nil {
		return nil, fmt.Errorf("store: get run %s: %w", id, err)
	}
	return &run, nil
}

// Enqueue transitions a Run from "pending" to "queued", making it visible
// to ClaimNext.
func (r *RunRepo) Enqueue(ctx context.Context, id string) error {
	const q = `UPDATE runs SET status = $1 WHERE id = $2 AND status = $3`
	res, err := r.db.ExecContext(ctx, q, models.RunStatusQueued, id, models.RunStatusPending)
	if err != nil {
		return fmt.Errorf("store: enqueue run %s: %w", id, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("store: run %s is not pending", id)
	}
	return nil
}

// ClaimNext atomically claims the oldest queued run using
// SELECT ... FOR UPDATE SKIP LOCKED, the same non-blocking claim pattern
// the teacher's worker pool uses for sessions (pkg/queue/worker.go).
// Returns nil, nil when no run is available.
func (r *RunRepo) ClaimNext(ctx context.Context, workerID string) (*models.Run, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("store: claim next run: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var run models.Run
	const selectQ = `
		SELECT * FROM runs
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT 1
		FOR UPDATE SKIP LOCKED`
	if err := tx.GetContext(ctx, &run, selectQ, models.RunStatusQueued); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: claim next run: select: %w", err)
	}

	now := time.Now()
	const updateQ = `
		UPDATE runs SET status = $1, worker_id = $2, started_at = $3, heartbeat_at = $3
		WHERE id = $4`
	if _, err := tx.ExecContext(ctx, updateQ, models.RunStatusRunning, workerID, now, run.ID); err != nil {
		return nil, fmt.Errorf("store: claim next run: update: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("store: claim next run: commit: %w", err)
	}

	run.Status = models.RunStatusRunning
	run.WorkerID = workerID
	run.StartedAt = &now
	return &run, nil
}

// Heartbeat refreshes a running run's heartbeat timestamp.
func (r *RunRepo) Heartbeat(ctx context.Context, id string) error {
	const q = `UPDATE runs SET heartbeat_at = now() WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return fmt.Errorf("store: heartbeat run %s: %w", id, err)
	}
	return nil
}

// Finish marks a run terminal, recording its final status and error summary.
func (r *RunRepo) Finish(ctx context.Context, id string, status models.RunStatus, errSummary string) error {
	const q = `
		UPDATE runs SET status = $1, error_summary = $2, completed_at = now()
		WHERE id = $3`
	_, err := r.db.ExecContext(ctx, q, status, errSummary, id)
	if err != nil {
		return fmt.Errorf("store: finish run %s: %w", id, err)
	}
	return nil
}

// IncrementCounters bumps completed/failed/skipped counters atomically.
func (r *RunRepo) IncrementCounters(ctx context.Context, id string, completedDelta, failedDelta, skippedDelta int) error {
	const q = `
		UPDATE runs
		SET completed_count = completed_count + $1,
		    failed_count = failed_count + $2,
		    skipped_count = skipped_count + $3
		WHERE id = $4`
	_, err := r.db.ExecContext(ctx, q, completedDelta, failedDelta, skippedDelta, id)
	if err != nil {
		return fmt.Errorf("store: increment counters for run %s: %w", id, err)
	}
	return nil
}

// Progress returns the read-only projection used by status(run_id).
func (r *RunRepo) Progress(ctx context.Context, id string) (*models.RunProgress, error) {
	run, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.RunProgress{
		RunID:          run.ID,
		Status:         run.Status,
		TotalDocuments: run.TotalDocuments,
		CompletedCount: run.CompletedCount,
		FailedCount:    run.FailedCount,
		SkippedCount:   run.SkippedCount,
	}, nil
}

// CountByStatus returns the number of runs currently in the given status,
// used for the worker pool's health report (queue depth, active runs).
func (r *RunRepo) CountByStatus(ctx context.Context, status models.RunStatus) (int, error) {
	var n int
	const q = `SELECT count(*) FROM runs WHERE status = $1`
	if err := r.db.GetContext(ctx, &n, q, status); err != nil {
		return 0, fmt.Errorf("store: count runs by status %s: %w", status, err)
	}
	return n, nil
}

// FindStuckRunning returns runs in "running" status whose heartbeat is
// older than the given staleness threshold — orphan recovery candidates
// (SPEC_FULL §6, adapted from the teacher's pkg/queue/orphan.go).
func (r *RunRepo) FindStuckRunning(ctx context.Context, staleSince time.Time) ([]models.Run, error) {
	var runs []models.Run
	const q = `
		SELECT * FROM runs
		WHERE status = $1 AND (heartbeat_at IS NULL OR heartbeat_at < $2)`
	if err := r.db.SelectContext(ctx, &runs, q, models.RunStatusRunning, staleSince); err != nil {
		return nil, fmt.Errorf("store: find stuck runs: %w", err)
	}
	return runs, nil
}

// RequeueOrphan puts a stuck run back to "queued" so another worker can
// claim it, rather than force-completing it.
func (r *RunRepo) RequeueOrphan(ctx context.Context, id string) error {
	const q = `
		UPDATE runs SET status = $1, worker_id = '', started_at = NULL, heartbeat_at = NULL
		WHERE id = $2 AND status = $3`
	_, err := r.db.ExecContext(ctx, q, models.RunStatusQueued, id, models.RunStatusRunning)
	if err != nil {
		return fmt.Errorf("store: requeue orphan run %s: %w", id, err)
	}
	return nil
}
