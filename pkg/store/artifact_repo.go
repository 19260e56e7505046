package store

import (
	"context"
	"fmt"

	"github.com/codeready-toolchain/acm/pkg/models"
)

// ArtifactRepo persists generated candidate artifacts.
type ArtifactRepo struct {
	db *DB
}

// NewArtifactRepo constructs an ArtifactRepo over the given connection pool.
func NewArtifactRepo(db *DB) *ArtifactRepo {
	return &ArtifactRepo{db: db}
}

// Create inserts a new Artifact in "pending" status.
func (r *ArtifactRepo) Create(ctx context.Context, a *models.Artifact) error {
	const q = `
		INSERT INTO artifacts (id, run_id, document_id, generator_name, iteration, status)
		VALUES (:id, :run_id, :document_id, :generator_name, :iteration, :status)`
	_, err := r.db.NamedExecContext(ctx, q, a)
	if err != nil {
		return fmt.Errorf("store: create artifact %s: %w", a.ID, err)
	}
	return nil
}

// Get fetches an Artifact by id.
func (r *ArtifactRepo) Get(ctx context.Context, id string) (*models.Artifact, error) {
	var a models.Artifact
	const q = `SELECT * FROM artifacts WHERE id = $1`
	if err := r.db.GetContext(ctx, &a, q, id); err != nil {
		return nil, fmt.Errorf("store: get artifact %s: %w", id, err)
	}
	return &a, nil
}

// ListForDocument returns every artifact generated for a document within a
// run, across all generators and iterations.
func (r *ArtifactRepo) ListForDocument(ctx context.Context, runID, documentID string) ([]models.Artifact, error) {
	var as []models.Artifact
	const q = `
		SELECT * FROM artifacts
		WHERE run_id = $1 AND document_id = $2
		ORDER BY generator_name, iteration`
	if err := r.db.SelectContext(ctx, &as, q, runID, documentID); err != nil {
		return nil, fmt.Errorf("store: list artifacts for document %s: %w", documentID, err)
	}
	return as, nil
}

// Complete records a successful generation, storing the content reference,
// content hash and usage metrics.
func (r *ArtifactRepo) Complete(ctx context.Context, id, contentRef, contentHash string, tokensUsed int, durationMS int64) error {
	const q = `
		UPDATE artifacts
		SET status = $1, content_ref = $2, content_hash = $3, tokens_used = $4, duration_ms = $5, completed_at = now()
		WHERE id = $6`
	_, err := r.db.ExecContext(ctx, q, models.ArtifactStatusCompleted, contentRef, contentHash, tokensUsed, durationMS, id)
	if err != nil {
		return fmt.Errorf("store: complete artifact %s: %w", id, err)
	}
	return nil
}

// Fail records a generation failure with an error kind (the adapter's error
// code) and message. The run-abort check counts failed artifacts by status
// only and does not read error_kind.
func (r *ArtifactRepo) Fail(ctx context.Context, id, errKind, message string) error {
	const q = `
		UPDATE artifacts
		SET status = $1, error_kind = $2, error_message = $3, completed_at = now()
		WHERE id = $4`
	_, err := r.db.ExecContext(ctx, q, models.ArtifactStatusFailed, errKind, message, id)
	if err != nil {
		return fmt.Errorf("store: fail artifact %s: %w", id, err)
	}
	return nil
}

// SetRunning marks an artifact dispatched to a generator adapter.
func (r *ArtifactRepo) SetRunning(ctx context.Context, id string) error {
	const q = `UPDATE artifacts SET status = $1 WHERE id = $2`
	_, err := r.db.ExecContext(ctx, q, models.ArtifactStatusRunning, id)
	if err != nil {
		return fmt.Errorf("store: set artifact running %s: %w", id, err)
	}
	return nil
}

// RecentFailureRate returns the fraction of the first `sample` artifacts
// (by creation order) within a run that failed, used by the run-abort
// threshold check (default 50% over the first 10 artifacts).
func (r *ArtifactRepo) RecentFailureRate(ctx context.Context, runID string, sample int) (float64, int, error) {
	type row struct {
		Status models.ArtifactStatus `db:"status"`
	}
	var rows []row
	const q = `
		SELECT status FROM artifacts
		WHERE run_id = $1 AND status IN ($2, $3)
		ORDER BY created_at ASC
		LIMIT $4`
	if err := r.db.SelectContext(ctx, &rows, q, runID, models.ArtifactStatusCompleted, models.ArtifactStatusFailed, sample); err != nil {
		return 0, 0, fmt.Errorf("store: recent failure rate for run %s: %w", runID, err)
	}
	if len(rows) == 0 {
		return 0, 0, nil
	}
	failed := 0
	for _, rw := range rows {
		if rw.Status == models.ArtifactStatusFailed {
			failed++
		}
	}
	return float64(failed) / float64(len(rows)), len(rows), nil
}
