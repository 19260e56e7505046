package models

import "time"

// DocumentStatus is the per-document lifecycle state within a Run.
type DocumentStatus string

const (
	DocumentStatusPending    DocumentStatus = "pending"
	DocumentStatusGenerating DocumentStatus = "generating"
	DocumentStatusEvaluating DocumentStatus = "evaluating"
	DocumentStatusRanking    DocumentStatus = "ranking"
	DocumentStatusCombining  DocumentStatus = "combining"
	DocumentStatusCompleted  DocumentStatus = "completed"
	DocumentStatusFailed     DocumentStatus = "failed"
	DocumentStatusSkipped    DocumentStatus = "skipped"
)

// Document is a source document submitted for processing, independent of
// any particular Run.
type Document struct {
	ID          string    `db:"id"`
	SourceRef   string    `db:"source_ref"` // storage-capability key, resolved externally
	ContentHash string    `db:"content_hash"`
	Title       string    `db:"title"`
	CreatedAt   time.Time `db:"created_at"`
}

// RunDocument is the join entity tracking one Document's progress within
// one Run, including the skip-logic fingerprint used to decide whether
// generation can be skipped (SPEC_FULL §5.8).
type RunDocument struct {
	RunID          string         `db:"run_id"`
	DocumentID     string         `db:"document_id"`
	Status         DocumentStatus `db:"status"`
	ContentHash    string         `db:"content_hash"`
	ConfigHash     string         `db:"config_hash"`
	Skipped        bool           `db:"skipped"`
	SkipReason     string         `db:"skip_reason"`
	ErrorMessage   string         `db:"error_message"`
	StartedAt      *time.Time     `db:"started_at"`
	CompletedAt    *time.Time     `db:"completed_at"`
}
