package store

import (
	"context"
	"fmt"

	"github.com/codeready-toolchain/acm/pkg/models"
)

// DocumentRepo persists documents and their per-run join rows.
type DocumentRepo struct {
	db *DB
}

// NewDocumentRepo constructs a DocumentRepo over the given connection pool.
func NewDocumentRepo(db *DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

// Upsert inserts a document or, if one with the same id already exists,
// refreshes its content hash — source documents are content-addressed so
// the caller can resubmit the same source_ref across runs.
func (r *DocumentRepo) Upsert(ctx context.Context, doc *models.Document) error {
	const q = `
		INSERT INTO documents (id, source_ref, content_hash, title)
		VALUES (:id, :source_ref, :content_hash, :title)
		ON CONFLICT (id) DO UPDATE SET content_hash = EXCLUDED.content_hash, title = EXCLUDED.title`
	_, err := r.db.NamedExecContext(ctx, q, doc)
	if err != nil {
		return fmt.Errorf("store: upsert document %s: %w", doc.ID, err)
	}
	return nil
}

// Get fetches a Document by id.
func (r *DocumentRepo) Get(ctx context.Context, id string) (*models.Document, error) {
	var doc models.Document
	const q = `SELECT * FROM documents WHERE id = $1`
	if err := r.db.GetContext(ctx, &doc, q, id); err != nil {
		return nil, fmt.Errorf("store: get document %s: %w", id, err)
	}
	return &doc, nil
}

// AttachToRun creates the run_documents join row a Run uses to track one
// document's progress, starting in "pending" status.
func (r *DocumentRepo) AttachToRun(ctx context.Context, runID, documentID string) error {
	const q = `
		INSERT INTO run_documents (run_id, document_id, status)
		VALUES ($1, $2, $3)
		ON CONFLICT (run_id, document_id) DO NOTHING`
	_, err := r.db.ExecContext(ctx, q, runID, documentID, models.DocumentStatusPending)
	if err != nil {
		return fmt.Errorf("store: attach document %s to run %s: %w", documentID, runID, err)
	}
	return nil
}

// GetRunDocument fetches one run's join row for one document.
func (r *DocumentRepo) GetRunDocument(ctx context.Context, runID, documentID string) (*models.RunDocument, error) {
	var rd models.RunDocument
	const q = `SELECT * FROM run_documents WHERE run_id = $1 AND document_id = $2`
	if err := r.db.GetContext(ctx, &rd, q, runID, documentID); err != nil {
		return nil, fmt.Errorf("store: get run_document %s/%s: %w", runID, documentID, err)
	}
	return &rd, nil
}

// ListForRun returns every run_documents row for a run, ordered by
// document_id for deterministic iteration.
func (r *DocumentRepo) ListForRun(ctx context.Context, runID string) ([]models.RunDocument, error) {
	var rds []models.RunDocument
	const q = `SELECT * FROM run_documents WHERE run_id = $1 ORDER BY document_id`
	if err := r.db.SelectContext(ctx, &rds, q, runID); err != nil {
		return nil, fmt.Errorf("store: list run_documents for run %s: %w", runID, err)
	}
	return rds, nil
}

// SetStatus transitions a run_document's status.
func (r *DocumentRepo) SetStatus(ctx context.Context, runID, documentID string, status models.DocumentStatus) error {
	const q = `UPDATE run_documents SET status = $1 WHERE run_id = $2 AND document_id = $3`
	_, err := r.db.ExecContext(ctx, q, status, runID, documentID)
	if err != nil {
		return fmt.Errorf("store: set run_document status %s/%s: %w", runID, documentID, err)
	}
	return nil
}

// MarkSkipped records that a document's generation stage was skipped
// because its content_hash/config_hash fingerprint already matched a
// completed artifact (SPEC_FULL §5.8).
func (r *DocumentRepo) MarkSkipped(ctx context.Context, runID, documentID, contentHash, configHash, reason string) error {
	const q = `
		UPDATE run_documents
		SET status = $1, skipped = true, skip_reason = $2, content_hash = $3, config_hash = $4, completed_at = now()
		WHERE run_id = $5 AND document_id = $6`
	_, err := r.db.ExecContext(ctx, q, models.DocumentStatusSkipped, reason, contentHash, configHash, runID, documentID)
	if err != nil {
		return fmt.Errorf("store: mark run_document skipped %s/%s: %w", runID, documentID, err)
	}
	return nil
}

// SetFingerprint records the content_hash/config_hash a run_document was
// processed under, independent of whether it was skipped.
func (r *DocumentRepo) SetFingerprint(ctx context.Context, runID, documentID, contentHash, configHash string) error {
	const q = `UPDATE run_documents SET content_hash = $1, config_hash = $2 WHERE run_id = $3 AND document_id = $4`
	_, err := r.db.ExecContext(ctx, q, contentHash, configHash, runID, documentID)
	if err != nil {
		return fmt.Errorf("store: set run_document fingerprint %s/%s: %w", runID, documentID, err)
	}
	return nil
}

// SetError records a terminal failure on a run_document.
func (r *DocumentRepo) SetError(ctx context.Context, runID, documentID, message string) error {
	const q = `
		UPDATE run_documents SET status = $1, error_message = $2, completed_at = now()
		WHERE run_id = $3 AND document_id = $4`
	_, err := r.db.ExecContext(ctx, q, models.DocumentStatusFailed, message, runID, documentID)
	if err != nil {
		return fmt.Errorf("store: set run_document error %s/%s: %w", runID, documentID, err)
	}
	return nil
}

// FindPriorArtifactHash looks up the content_hash of the most recent
// completed artifact produced for (documentID, generatorName) under the
// given config_hash, across any run — the cross-run skip lookup backing
// the content_hash/config_hash cache SPEC_FULL §5.8 describes.
func (r *DocumentRepo) FindPriorArtifactHash(ctx context.Context, documentID, generatorName, configHash string) (string, bool, error) {
	var hash string
	const q = `
		SELECT a.content_hash
		FROM artifacts a
		JOIN run_documents rd ON rd.document_id = a.document_id AND rd.run_id = a.run_id
		WHERE a.document_id = $1 AND a.generator_name = $2 AND rd.config_hash = $3
		  AND a.status = $4
		ORDER BY a.created_at DESC
		LIMIT 1`
	err := r.db.GetContext(ctx, &hash, q, documentID, generatorName, configHash, models.ArtifactStatusCompleted)
	if err != nil {
		if isNoRows(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("store: find prior artifact hash %s/%s: %w", documentID, generatorName, err)
	}
	return hash, true, nil
}

// FindPriorArtifact looks up the most recent completed artifact produced
// for (documentID, generatorName) under the given config_hash, across any
// run — the cross-run skip lookup backing the content_hash/config_hash
// cache SPEC_FULL §5.8 describes. Unlike FindPriorArtifactHash it also
// resolves the artifact id, so a skip hit can reuse that artifact instead
// of merely confirming the hashes match (spec.md §4.1 step 3).
func (r *DocumentRepo) FindPriorArtifact(ctx context.Context, documentID, generatorName, configHash string) (artifactID, contentHash string, found bool, err error) {
	var row struct {
		ID          string `db:"id"`
		ContentHash string `db:"content_hash"`
	}
	const q = `
		SELECT a.id, a.content_hash
		FROM artifacts a
		JOIN run_documents rd ON rd.document_id = a.document_id AND rd.run_id = a.run_id
		WHERE a.document_id = $1 AND a.generator_name = $2 AND rd.config_hash = $3
		  AND a.status = $4
		ORDER BY a.created_at DESC
		LIMIT 1`
	gerr := r.db.GetContext(ctx, &row, q, documentID, generatorName, configHash, models.ArtifactStatusCompleted)
	if gerr != nil {
		if isNoRows(gerr) {
			return "", "", false, nil
		}
		return "", "", false, fmt.Errorf("store: find prior artifact %s/%s: %w", documentID, generatorName, gerr)
	}
	return row.ID, row.ContentHash, true, nil
}
