package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// Publisher persists run lifecycle events and broadcasts them via
// pg_notify, grounded on the teacher's EventPublisher
// (pkg/events/publisher.go): persist-then-notify in one transaction so
// NOTIFY only fires once the row is durably committed.
type Publisher struct {
	db *sql.DB
}

// NewPublisher creates a Publisher over the raw *sql.DB pooled by pkg/store.
func NewPublisher(db *sql.DB) *Publisher {
	return &Publisher{db: db}
}

// PublishRunStatus persists and broadcasts a run.status event.
func (p *Publisher) PublishRunStatus(ctx context.Context, runID string, payload RunStatusPayload) error {
	payload.Type = EventTypeRunStatus
	return p.persistAndNotify(ctx, runID, RunChannel(runID), payload)
}

// PublishGenerationStatus persists and broadcasts a generation.status event.
func (p *Publisher) PublishGenerationStatus(ctx context.Context, runID string, payload GenerationStatusPayload) error {
	payload.Type = EventTypeGenerationStatus
	return p.persistAndNotify(ctx, runID, RunChannel(runID), payload)
}

// PublishEvaluationStatus persists and broadcasts an evaluation.status event.
func (p *Publisher) PublishEvaluationStatus(ctx context.Context, runID string, payload EvaluationStatusPayload) error {
	payload.Type = EventTypeEvaluationStatus
	return p.persistAndNotify(ctx, runID, RunChannel(runID), payload)
}

// PublishPairwiseStatus persists and broadcasts a pairwise.status event.
func (p *Publisher) PublishPairwiseStatus(ctx context.Context, runID string, payload PairwiseStatusPayload) error {
	payload.Type = EventTypePairwiseStatus
	return p.persistAndNotify(ctx, runID, RunChannel(runID), payload)
}

// PublishCombinationStatus persists and broadcasts a combination.status event.
func (p *Publisher) PublishCombinationStatus(ctx context.Context, runID string, payload CombinationStatusPayload) error {
	payload.Type = EventTypeCombinationStatus
	return p.persistAndNotify(ctx, runID, RunChannel(runID), payload)
}

// PublishPostCombineStatus persists and broadcasts a post_combine.status event.
func (p *Publisher) PublishPostCombineStatus(ctx context.Context, runID string, payload PostCombineStatusPayload) error {
	payload.Type = EventTypePostCombineStatus
	return p.persistAndNotify(ctx, runID, RunChannel(runID), payload)
}

// PublishCompletion persists a run.completion event to the run's own
// channel and broadcasts a transient copy to the global runs channel,
// mirroring the teacher's PublishSessionStatus dual-channel broadcast.
// Both publishes are best-effort; the first error (if any) is returned.
func (p *Publisher) PublishCompletion(ctx context.Context, runID string, payload CompletionPayload) error {
	payload.Type = EventTypeCompletion
	var firstErr error
	if err := p.persistAndNotify(ctx, runID, RunChannel(runID), payload); err != nil {
		firstErr = err
	}
	if err := p.notifyOnly(ctx, GlobalRunsChannel, payload); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// BroadcastCancel sends a cancel(run_id) notification on CancelChannel for
// every worker process's NotifyListener to observe, without persisting a
// row — cancellation is recorded durably via the runs table status column,
// not the events log.
func (p *Publisher) BroadcastCancel(ctx context.Context, runID string) error {
	_, err := p.db.ExecContext(ctx, "SELECT pg_notify($1, $2)", CancelChannel, runID)
	if err != nil {
		return fmt.Errorf("events: broadcast cancel for run %s: %w", runID, err)
	}
	return nil
}

func (p *Publisher) persistAndNotify(ctx context.Context, runID, channel string, payload any) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("events: marshal payload: %w", err)
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("events: begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO events (run_id, channel, payload) VALUES ($1, $2, $3)`,
		runID, channel, payloadJSON,
	); err != nil {
		return fmt.Errorf("events: persist event: %w", err)
	}

	// pg_notify inside the transaction: it only fires once COMMIT succeeds,
	// so subscribers never see a notification for an uncommitted row.
	if _, err := tx.ExecContext(ctx, "SELECT pg_notify($1, $2)", channel, payloadJSON); err != nil {
		return fmt.Errorf("events: pg_notify: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("events: commit: %w", err)
	}
	return nil
}

func (p *Publisher) notifyOnly(ctx context.Context, channel string, payload any) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("events: marshal payload: %w", err)
	}
	if _, err := p.db.ExecContext(ctx, "SELECT pg_notify($1, $2)", channel, payloadJSON); err != nil {
		return fmt.Errorf("events: pg_notify: %w", err)
	}
	return nil
}
