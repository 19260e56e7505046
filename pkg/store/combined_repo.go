package store

import (
	"context"
	"fmt"

	"github.com/codeready-toolchain/acm/pkg/models"
)

// CombinedRepo persists the output of the combine phase.
type CombinedRepo struct {
	db *DB
}

// NewCombinedRepo constructs a CombinedRepo over the given connection pool.
func NewCombinedRepo(db *DB) *CombinedRepo {
	return &CombinedRepo{db: db}
}

// Create inserts one document's combined output.
func (r *CombinedRepo) Create(ctx context.Context, c *models.CombinedOutput) error {
	const q = `
		INSERT INTO combined_outputs
			(id, run_id, document_id, strategy_used, source_artifact_ids, combined_content_ref, metrics, warnings)
		VALUES
			(:id, :run_id, :document_id, :strategy_used, :source_artifact_ids, :combined_content_ref, :metrics, :warnings)`
	_, err := r.db.NamedExecContext(ctx, q, c)
	if err != nil {
		return fmt.Errorf("store: create combined output %s: %w", c.ID, err)
	}
	return nil
}

// GetForDocument fetches the combined output produced for a document
// within a run, if any.
func (r *CombinedRepo) GetForDocument(ctx context.Context, runID, documentID string) (*models.CombinedOutput, bool, error) {
	var c models.CombinedOutput
	const q = `SELECT * FROM combined_outputs WHERE run_id = $1 AND document_id = $2`
	if err := r.db.GetContext(ctx, &c, q, runID, documentID); err != nil {
		if isNoRows(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("store: get combined output %s/%s: %w", runID, documentID, err)
	}
	return &c, true, nil
}
