package store

import (
	"context"
	"fmt"
	"time"

	"github.com/codeready-toolchain/acm/pkg/models"
)

// TaskRepo tracks the in-flight generation tasks dispatched to adapters.
// The worker pool's orphan sweep does not read this table; it recovers
// stuck runs through RunRepo.FindStuckRunning (SPEC_FULL §6).
type TaskRepo struct {
	db *DB
}

// NewTaskRepo constructs a TaskRepo over the given connection pool.
func NewTaskRepo(db *DB) *TaskRepo {
	return &TaskRepo{db: db}
}

// Create inserts a new generation task in "dispatched" state.
func (r *TaskRepo) Create(ctx context.Context, t *models.GenerationTask) error {
	const q = `
		INSERT INTO generation_tasks (id, run_id, document_id, generator_name, iteration, attempt, state, heartbeat_at)
		VALUES (:id, :run_id, :document_id, :generator_name, :iteration, :attempt, :state, :heartbeat_at)`
	_, err := r.db.NamedExecContext(ctx, q, t)
	if err != nil {
		return fmt.Errorf("store: create generation task %s: %w", t.ID, err)
	}
	return nil
}

// Heartbeat refreshes a task's liveness timestamp. No caller in this module
// invokes it; the subprocess runner only logs its heartbeats.
func (r *TaskRepo) Heartbeat(ctx context.Context, id string) error {
	const q = `UPDATE generation_tasks SET heartbeat_at = now() WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return fmt.Errorf("store: heartbeat generation task %s: %w", id, err)
	}
	return nil
}

// MarkRetrying records an attempt increment after a retryable failure.
func (r *TaskRepo) MarkRetrying(ctx context.Context, id string, attempt int) error {
	const q = `UPDATE generation_tasks SET state = $1, attempt = $2, heartbeat_at = now() WHERE id = $3`
	_, err := r.db.ExecContext(ctx, q, "retrying", attempt, id)
	if err != nil {
		return fmt.Errorf("store: mark generation task retrying %s: %w", id, err)
	}
	return nil
}

// Finish marks a task "done" or "killed".
func (r *TaskRepo) Finish(ctx context.Context, id, state string) error {
	const q = `UPDATE generation_tasks SET state = $1 WHERE id = $2`
	_, err := r.db.ExecContext(ctx, q, state, id)
	if err != nil {
		return fmt.Errorf("store: finish generation task %s: %w", id, err)
	}
	return nil
}

// FindStale returns dispatched/retrying tasks whose heartbeat has gone
// silent past the staleness threshold — candidates for orphan recovery.
func (r *TaskRepo) FindStale(ctx context.Context, staleSince time.Time) ([]models.GenerationTask, error) {
	var tasks []models.GenerationTask
	const q = `
		SELECT * FROM generation_tasks
		WHERE state IN ('dispatched', 'retrying')
		  AND (heartbeat_at IS NULL OR heartbeat_at < $1)`
	if err := r.db.SelectContext(ctx, &tasks, q, staleSince); err != nil {
		return nil, fmt.Errorf("store: find stale generation tasks: %w", err)
	}
	return tasks, nil
}
