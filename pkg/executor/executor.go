package executor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/codeready-toolchain/acm/pkg/events"
	"github.com/codeready-toolchain/acm/pkg/models"
)

// Executor drives one Run through every phase of spec.md §4.1:
// Generation → Streaming Single-Eval → Pairwise/Elo → Combine →
// Post-Combine Evaluation → finalize. It is the RunExecutor the teacher's
// Worker delegates a full unit of work to, the way the teacher's
// RealSessionExecutor drives chain → stage → agent → synthesis.
type Executor struct {
	deps *Deps
}

// NewExecutor builds an Executor over the given dependency bundle.
func NewExecutor(deps *Deps) *Executor {
	return &Executor{deps: deps}
}

// Execute runs the full pipeline for run, persisting progress as it goes.
// The returned RunResult carries only the terminal status the Worker
// still needs to record — every intermediate document/artifact/eval row
// was already written by the time this returns.
func (e *Executor) Execute(ctx context.Context, run *models.Run) *RunResult {
	log := slog.With("run_id", run.ID)

	rds, err := e.deps.Docs.ListForRun(ctx, run.ID)
	if err != nil {
		return &RunResult{Status: models.RunStatusFailed, ErrorSummary: fmt.Sprintf("list run documents: %v", err)}
	}

	aborted := false
	var abortReason string
	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, rd := range rds {
		rd := rd
		if ctx.Err() != nil {
			break
		}

		mu.Lock()
		stop := aborted
		mu.Unlock()
		if stop {
			break
		}

		if err := e.deps.Sems.Global.Acquire(ctx, 1); err != nil {
			break // context cancelled while waiting for a global slot
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer e.deps.Sems.Global.Release(1)

			if perr := e.processDocument(ctx, run, rd); perr != nil {
				log.Error("document processing failed", "document_id", rd.DocumentID, "error", perr)
			}

			if tripped, reason := e.checkAbortThreshold(ctx, run); tripped {
				mu.Lock()
				if !aborted {
					aborted = true
					abortReason = reason
				}
				mu.Unlock()
			}
		}()
	}

	wg.Wait()

	if ctx.Err() != nil {
		e.publishRunStatus(context.Background(), run.ID, models.RunStatusCancelled)
		return &RunResult{Status: models.RunStatusCancelled, ErrorSummary: ctx.Err().Error()}
	}

	progress, err := e.deps.Runs.Progress(ctx, run.ID)
	if err != nil {
		return &RunResult{Status: models.RunStatusFailed, ErrorSummary: fmt.Sprintf("load run progress: %v", err)}
	}

	status := finalStatus(progress, aborted)
	summary := abortReason
	if summary == "" && progress.FailedCount > 0 {
		summary = fmt.Sprintf("%d of %d documents failed", progress.FailedCount, progress.TotalDocuments)
	}

	e.publishRunStatus(context.Background(), run.ID, status)
	return &RunResult{Status: status, ErrorSummary: summary}
}

// finalStatus derives the terminal Run status from final counters, per
// spec.md §3's Run status state machine.
func finalStatus(p *models.RunProgress, aborted bool) models.RunStatus {
	switch {
	case aborted:
		return models.RunStatusFailed
	case p.FailedCount == 0:
		return models.RunStatusCompleted
	case p.CompletedCount == 0 && p.SkippedCount == 0:
		return models.RunStatusFailed
	default:
		return models.RunStatusPartialFailure
	}
}

// checkAbortThreshold implements spec.md §7's run-abort rule: once at
// least RunAbort.SampleSize artifacts have a terminal status, abort the
// run if the failure ratio over that sample meets or exceeds
// RunAbort.FailureRatio.
func (e *Executor) checkAbortThreshold(ctx context.Context, run *models.Run) (bool, string) {
	cfg := e.deps.Config.RunAbort
	if cfg.SampleSize <= 0 || cfg.FailureRatio <= 0 {
		return false, ""
	}
	ratio, sampled, err := e.deps.Artifacts.RecentFailureRate(ctx, run.ID, cfg.SampleSize)
	if err != nil || sampled < cfg.SampleSize {
		return false, ""
	}
	if ratio >= cfg.FailureRatio {
		return true, fmt.Sprintf("aborted: failure rate %.0f%% over first %d artifacts met the %.0f%% threshold",
			ratio*100, sampled, cfg.FailureRatio*100)
	}
	return false, ""
}

func (e *Executor) publishRunStatus(ctx context.Context, runID string, status models.RunStatus) {
	if e.deps.Publisher == nil {
		return
	}
	_ = e.deps.Publisher.PublishRunStatus(ctx, runID, events.RunStatusPayload{
		Type:      events.EventTypeRunStatus,
		RunID:     runID,
		Status:    string(status),
		Timestamp: time.Now().Format(time.RFC3339Nano),
	})
}

func newID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}
