package store

import (
	"context"
	"fmt"

	"github.com/codeready-toolchain/acm/pkg/models"
)

// EvalRepo persists single-document evaluation results.
type EvalRepo struct {
	db *DB
}

// NewEvalRepo constructs an EvalRepo over the given connection pool.
func NewEvalRepo(db *DB) *EvalRepo {
	return &EvalRepo{db: db}
}

// Create inserts one judge's aggregated evaluation of one artifact.
func (r *EvalRepo) Create(ctx context.Context, e *models.EvalResult) error {
	const q = `
		INSERT INTO eval_results (id, run_id, artifact_id, judge_name, criteria, weighted_mean, raw_responses, retried_count)
		VALUES (:id, :run_id, :artifact_id, :judge_name, :criteria, :weighted_mean, :raw_responses, :retried_count)`
	_, err := r.db.NamedExecContext(ctx, q, e)
	if err != nil {
		return fmt.Errorf("store: create eval result %s: %w", e.ID, err)
	}
	return nil
}

// ListForArtifact returns every judge's evaluation of an artifact.
func (r *EvalRepo) ListForArtifact(ctx context.Context, artifactID string) ([]models.EvalResult, error) {
	var results []models.EvalResult
	const q = `SELECT * FROM eval_results WHERE artifact_id = $1 ORDER BY judge_name`
	if err := r.db.SelectContext(ctx, &results, q, artifactID); err != nil {
		return nil, fmt.Errorf("store: list eval results for artifact %s: %w", artifactID, err)
	}
	return results, nil
}

// MeanWeightedScore returns the cross-judge mean of weighted_mean for an
// artifact, used by best_of_n combining and post-combine reporting.
func (r *EvalRepo) MeanWeightedScore(ctx context.Context, artifactID string) (float64, error) {
	var mean float64
	const q = `SELECT COALESCE(AVG(weighted_mean), 0) FROM eval_results WHERE artifact_id = $1`
	if err := r.db.GetContext(ctx, &mean, q, artifactID); err != nil {
		return 0, fmt.Errorf("store: mean weighted score for artifact %s: %w", artifactID, err)
	}
	return mean, nil
}
