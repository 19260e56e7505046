package executor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/codeready-toolchain/acm/pkg/models"
)

// WorkerPool manages a pool of Workers sharing one Deps bundle. Grounded
// on the teacher's pkg/queue.WorkerPool: spawn N workers, run orphan
// detection alongside them, and expose a cancel registry so an API layer
// can cancel a run in flight without reaching into worker internals.
type WorkerPool struct {
	id          string
	deps        *Deps
	executor    RunExecutor
	workerCount int
	workers     []*Worker
	stopCh      chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup

	activeRuns map[string]context.CancelFunc
	mu         sync.RWMutex
	started    bool

	orphans orphanState
}

// NewWorkerPool builds a pool of workerCount workers identified by
// "<id>-worker-<n>", all sharing deps and executor.
func NewWorkerPool(id string, deps *Deps, executor RunExecutor, workerCount int) *WorkerPool {
	if workerCount < 1 {
		workerCount = 1
	}
	return &WorkerPool{
		id:          id,
		deps:        deps,
		executor:    executor,
		workerCount: workerCount,
		workers:     make([]*Worker, 0, workerCount),
		stopCh:      make(chan struct{}),
		activeRuns:  make(map[string]context.CancelFunc),
	}
}

// Start spawns the worker goroutines and the background orphan scan. Safe
// to call more than once; later calls are no-ops.
func (p *WorkerPool) Start(ctx context.Context) {
	if p.started {
		slog.Warn("worker pool already started, ignoring duplicate Start call", "pool_id", p.id)
		return
	}
	p.started = true

	slog.Info("starting worker pool", "pool_id", p.id, "worker_count", p.workerCount)

	for i := 0; i < p.workerCount; i++ {
		workerID := fmt.Sprintf("%s-worker-%d", p.id, i)
		worker := NewWorker(workerID, p.deps, p.executor, p)
		p.workers = append(p.workers, worker)
		worker.Start(ctx)
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.runOrphanDetection(ctx)
	}()

	slog.Info("worker pool started")
}

// Stop signals every worker to stop and waits for in-flight runs to
// finish before returning (graceful shutdown).
func (p *WorkerPool) Stop() {
	slog.Info("stopping worker pool gracefully")

	active := p.getActiveRunIDs()
	if len(active) > 0 {
		slog.Info("waiting for active runs to complete", "count", len(active), "run_ids", active)
	}

	for _, worker := range p.workers {
		worker.Stop()
	}

	p.stopOnce.Do(func() { close(p.stopCh) })
	p.wg.Wait()

	slog.Info("worker pool stopped gracefully")
}

// RegisterRun stores a cancel function so CancelRun can reach a run
// currently owned by this pool.
func (p *WorkerPool) RegisterRun(runID string, cancel context.CancelFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.activeRuns[runID] = cancel
}

// UnregisterRun removes the cancel function once a run finishes.
func (p *WorkerPool) UnregisterRun(runID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.activeRuns, runID)
}

// CancelRun cancels a run's context if this pool owns it. Returns true if
// the run was found here.
func (p *WorkerPool) CancelRun(runID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if cancel, ok := p.activeRuns[runID]; ok {
		cancel()
		return true
	}
	return false
}

// Health reports queue depth, active run count, and per-worker status.
func (p *WorkerPool) Health() *PoolHealth {
	ctx := context.Background()

	queueDepth, errQ := p.deps.Runs.CountByStatus(ctx, models.RunStatusQueued)
	if errQ != nil {
		slog.Error("failed to query queue depth for health check", "pool_id", p.id, "error", errQ)
	}

	activeRuns, errA := p.deps.Runs.CountByStatus(ctx, models.RunStatusRunning)
	if errA != nil {
		slog.Error("failed to query active runs for health check", "pool_id", p.id, "error", errA)
	}

	workerStats := make([]WorkerHealth, len(p.workers))
	activeWorkers := 0
	for i, worker := range p.workers {
		stats := worker.Health()
		workerStats[i] = stats
		if stats.Status == string(WorkerStatusWorking) {
			activeWorkers++
		}
	}

	dbHealthy := errQ == nil && errA == nil
	maxConcurrent := p.deps.Config.Worker.MaxConcurrentRuns
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	isHealthy := len(p.workers) > 0 && activeRuns <= maxConcurrent && dbHealthy

	p.orphans.mu.Lock()
	lastOrphanScan := p.orphans.lastOrphanScan
	orphansRecovered := p.orphans.orphansRecovered
	p.orphans.mu.Unlock()

	var dbError string
	if !dbHealthy {
		if errQ != nil {
			dbError = fmt.Sprintf("queue depth query failed: %v", errQ)
		} else if errA != nil {
			dbError = fmt.Sprintf("active runs query failed: %v", errA)
		}
	}

	return &PoolHealth{
		IsHealthy:        isHealthy,
		DBReachable:      dbHealthy,
		DBError:          dbError,
		WorkerID:         p.id,
		ActiveWorkers:    activeWorkers,
		TotalWorkers:     len(p.workers),
		ActiveRuns:       activeRuns,
		MaxConcurrent:    maxConcurrent,
		QueueDepth:       queueDepth,
		WorkerStats:      workerStats,
		LastOrphanScan:   lastOrphanScan,
		OrphansRecovered: orphansRecovered,
	}
}

func (p *WorkerPool) getActiveRunIDs() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ids := make([]string, 0, len(p.activeRuns))
	for id := range p.activeRuns {
		ids = append(ids, id)
	}
	return ids
}
