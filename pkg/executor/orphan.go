package executor

import (
	"context"
	"sync"
	"time"

	"log/slog"

	"github.com/codeready-toolchain/acm/pkg/models"
)

// orphanState tracks orphan-detection metrics, surfaced through
// WorkerPool.Health.
type orphanState struct {
	mu               sync.Mutex
	lastOrphanScan   time.Time
	orphansRecovered int
}

// runOrphanDetection periodically scans for runs stuck in "running" with a
// stale heartbeat. Every worker pool runs this independently; recovery is
// idempotent since RequeueOrphan only transitions rows still "running".
func (p *WorkerPool) runOrphanDetection(ctx context.Context) {
	interval := p.deps.Config.Worker.OrphanScanInterval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			return
		case <-ticker.C:
			if err := p.detectAndRecoverOrphans(ctx); err != nil {
				slog.Error("orphan detection failed", "error", err)
			}
		}
	}
}

// detectAndRecoverOrphans requeues runs whose heartbeat is older than the
// configured missed-heartbeat threshold, so another worker can pick them
// back up (spec.md §6's orphan recovery: resume, not fail, on worker loss).
func (p *WorkerPool) detectAndRecoverOrphans(ctx context.Context) error {
	heartbeatInterval := p.deps.Config.Worker.HeartbeatInterval
	if heartbeatInterval <= 0 {
		heartbeatInterval = 10 * time.Second
	}
	missedFactor := p.deps.Config.Worker.MissedHeartbeatMult
	if missedFactor <= 0 {
		missedFactor = 3
	}
	staleSince := time.Now().Add(-time.Duration(missedFactor) * heartbeatInterval)

	orphans, err := p.deps.Runs.FindStuckRunning(ctx, staleSince)
	if err != nil {
		return err
	}
	if len(orphans) == 0 {
		p.orphans.mu.Lock()
		p.orphans.lastOrphanScan = time.Now()
		p.orphans.mu.Unlock()
		return nil
	}

	slog.Warn("detected orphaned runs", "count", len(orphans))

	recovered := 0
	for _, run := range orphans {
		if err := p.deps.Runs.RequeueOrphan(ctx, run.ID); err != nil {
			slog.Error("failed to requeue orphaned run", "run_id", run.ID, "error", err)
			continue
		}
		slog.Warn("orphaned run requeued", "run_id", run.ID, "worker_id", run.WorkerID)
		recovered++
	}

	p.orphans.mu.Lock()
	p.orphans.lastOrphanScan = time.Now()
	p.orphans.orphansRecovered += recovered
	p.orphans.mu.Unlock()
	return nil
}

// CleanupStartupOrphans requeues any runs left "running" and owned by
// workerID from a previous process instance of this pod, before the pool
// starts claiming new work.
func CleanupStartupOrphans(ctx context.Context, runs RunRepoFinder, workerIDPrefix string) error {
	stuck, err := runs.FindStuckRunning(ctx, time.Now())
	if err != nil {
		return err
	}
	for _, run := range stuck {
		if run.WorkerID == "" || !hasPrefix(run.WorkerID, workerIDPrefix) {
			continue
		}
		if err := runs.RequeueOrphan(ctx, run.ID); err != nil {
			slog.Error("failed to requeue startup orphan", "run_id", run.ID, "error", err)
			continue
		}
		slog.Info("startup orphan requeued", "run_id", run.ID)
	}
	return nil
}

// RunRepoFinder is the subset of *store.RunRepo CleanupStartupOrphans needs.
type RunRepoFinder interface {
	FindStuckRunning(ctx context.Context, staleSince time.Time) ([]models.Run, error)
	RequeueOrphan(ctx context.Context, id string) error
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}
