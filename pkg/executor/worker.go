package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/codeready-toolchain/acm/pkg/events"
	"github.com/codeready-toolchain/acm/pkg/models"
)

// WorkerStatus is a worker's current activity, reported through Health.
type WorkerStatus string

const (
	WorkerStatusIdle    WorkerStatus = "idle"
	WorkerStatusWorking WorkerStatus = "working"
)

// RunRegistry is the subset of WorkerPool a Worker needs for
// API-triggered cancellation of a run it is currently processing.
type RunRegistry interface {
	RegisterRun(runID string, cancel context.CancelFunc)
	UnregisterRun(runID string)
}

// Worker polls for queued runs, claims one at a time, and delegates the
// entire unit of work to a RunExecutor. Grounded on the teacher's
// pkg/queue.Worker: claim via FOR UPDATE SKIP LOCKED, heartbeat in the
// background while the executor runs, record the terminal status, and
// go back to polling.
type Worker struct {
	id       string
	deps     *Deps
	executor RunExecutor
	registry RunRegistry

	pollInterval        time.Duration
	pollJitter          time.Duration
	heartbeatInterval   time.Duration
	maxConcurrentRuns   int

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu                sync.RWMutex
	status            WorkerStatus
	currentRunID      string
	runsProcessed     int
	lastActivity      time.Time
}

// NewWorker builds a Worker identified by id, claiming runs with workerID.
func NewWorker(id string, deps *Deps, executor RunExecutor, registry RunRegistry) *Worker {
	cfg := deps.Config.Worker
	poll := cfg.PollInterval
	if poll <= 0 {
		poll = 2 * time.Second
	}
	heartbeat := cfg.HeartbeatInterval
	if heartbeat <= 0 {
		heartbeat = 10 * time.Second
	}
	maxConcurrent := cfg.MaxConcurrentRuns
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Worker{
		id:                id,
		deps:              deps,
		executor:          executor,
		registry:          registry,
		pollInterval:      poll,
		pollJitter:        cfg.PollJitter,
		heartbeatInterval: heartbeat,
		maxConcurrentRuns: maxConcurrent,
		stopCh:            make(chan struct{}),
		status:            WorkerStatusIdle,
		lastActivity:      time.Now(),
	}
}

// Start begins the worker's polling loop in a goroutine.
func (w *Worker) Start(ctx context.Context) {
	w.wg.Add(1)
	go w.run(ctx)
}

// Stop signals the worker to stop and waits for it to finish its current run.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	w.wg.Wait()
}

// Health returns this worker's current activity snapshot.
func (w *Worker) Health() WorkerHealth {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return WorkerHealth{
		ID:            w.id,
		Status:        string(w.status),
		CurrentRunID:  w.currentRunID,
		RunsProcessed: w.runsProcessed,
		LastActivity:  w.lastActivity,
	}
}

func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()

	log := slog.With("worker_id", w.id)
	log.Info("worker started")

	for {
		select {
		case <-w.stopCh:
			log.Info("worker shutting down")
			return
		case <-ctx.Done():
			log.Info("context cancelled, worker shutting down")
			return
		default:
			if err := w.pollAndProcess(ctx); err != nil {
				if errors.Is(err, ErrNoRunsAvailable) || errors.Is(err, ErrAtCapacity) {
					w.sleep(w.jitteredPollInterval())
					continue
				}
				log.Error("error processing run", "error", err)
				w.sleep(time.Second)
			}
		}
	}
}

func (w *Worker) sleep(d time.Duration) {
	select {
	case <-w.stopCh:
	case <-time.After(d):
	}
}

// pollAndProcess checks capacity, claims the next queued run, and drives
// it to completion via the RunExecutor.
func (w *Worker) pollAndProcess(ctx context.Context) error {
	active, err := w.deps.Runs.CountByStatus(ctx, models.RunStatusRunning)
	if err != nil {
		return fmt.Errorf("checking active runs: %w", err)
	}
	if active >= w.maxConcurrentRuns {
		return ErrAtCapacity
	}

	run, err := w.deps.Runs.ClaimNext(ctx, w.id)
	if err != nil {
		return fmt.Errorf("claim next run: %w", err)
	}
	if run == nil {
		return ErrNoRunsAvailable
	}

	log := slog.With("run_id", run.ID, "worker_id", w.id)
	log.Info("run claimed")
	w.publishRunStatus(ctx, run.ID, models.RunStatusRunning)

	w.setStatus(WorkerStatusWorking, run.ID)
	defer w.setStatus(WorkerStatusIdle, "")

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	w.registry.RegisterRun(run.ID, cancel)
	defer w.registry.UnregisterRun(run.ID)

	heartbeatCtx, cancelHeartbeat := context.WithCancel(runCtx)
	go w.runHeartbeat(heartbeatCtx, run.ID)

	result := w.executor.Execute(runCtx, run)
	cancelHeartbeat()

	if result == nil {
		switch {
		case errors.Is(runCtx.Err(), context.Canceled):
			result = &RunResult{Status: models.RunStatusCancelled, ErrorSummary: "run cancelled"}
		default:
			result = &RunResult{Status: models.RunStatusFailed, ErrorSummary: "executor returned nil result"}
		}
	}

	if err := w.deps.Runs.Finish(context.Background(), run.ID, result.Status, result.ErrorSummary); err != nil {
		log.Error("failed to record terminal run status", "error", err)
		return err
	}
	w.publishRunStatus(context.Background(), run.ID, result.Status)

	w.mu.Lock()
	w.runsProcessed++
	w.mu.Unlock()

	log.Info("run processing complete", "status", result.Status)
	return nil
}

// runHeartbeat periodically refreshes the run's heartbeat so orphan
// detection on another worker doesn't reclaim it mid-flight.
func (w *Worker) runHeartbeat(ctx context.Context, runID string) {
	ticker := time.NewTicker(w.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.deps.Runs.Heartbeat(ctx, runID); err != nil {
				slog.Warn("heartbeat update failed", "run_id", runID, "error", err)
			}
		}
	}
}

func (w *Worker) publishRunStatus(ctx context.Context, runID string, status models.RunStatus) {
	if w.deps.Publisher == nil {
		return
	}
	if err := w.deps.Publisher.PublishRunStatus(ctx, runID, events.RunStatusPayload{
		Type:      events.EventTypeRunStatus,
		RunID:     runID,
		Status:    string(status),
		Timestamp: time.Now().Format(time.RFC3339Nano),
	}); err != nil {
		slog.Warn("failed to publish run status", "run_id", runID, "status", status, "error", err)
	}
}

// jitteredPollInterval returns the configured poll interval with random
// jitter applied, spreading concurrent workers' claim attempts.
func (w *Worker) jitteredPollInterval() time.Duration {
	if w.pollJitter <= 0 {
		return w.pollInterval
	}
	offset := time.Duration(rand.Int64N(int64(2 * w.pollJitter)))
	return w.pollInterval - w.pollJitter + offset
}

func (w *Worker) setStatus(status WorkerStatus, runID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.status = status
	w.currentRunID = runID
	w.lastActivity = time.Now()
}
