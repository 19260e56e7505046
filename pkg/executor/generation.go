package executor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/codeready-toolchain/acm/pkg/config"
	"github.com/codeready-toolchain/acm/pkg/events"
	"github.com/codeready-toolchain/acm/pkg/fingerprint"
	"github.com/codeready-toolchain/acm/pkg/generator"
	"github.com/codeready-toolchain/acm/pkg/models"
)

// defaultGenerationTimeout bounds a generator call when its config leaves
// Timeout unset.
const defaultGenerationTimeout = 5 * time.Minute

// generatorAffectingConfig is the subset of a GeneratorYAMLConfig that
// feeds config_hash, per spec.md §5.8: provider/model/iterations/params,
// excluding timeouts, concurrency and paths.
type generatorAffectingConfig struct {
	Adapter    string         `json:"provider"`
	Model      string         `json:"model"`
	Iterations int            `json:"iterations"`
	Params     map[string]any `json:"params,omitempty"`
}

// processDocument drives one document through generation, streaming
// single-eval, pairwise ranking and combination, persisting progress at
// every step (SPEC_FULL §5.1).
func (e *Executor) processDocument(ctx context.Context, run *models.Run, rd models.RunDocument) error {
	log := slog.With("run_id", run.ID, "document_id", rd.DocumentID)

	doc, err := e.deps.Docs.Get(ctx, rd.DocumentID)
	if err != nil {
		return fmt.Errorf("get document: %w", err)
	}

	_ = e.deps.Docs.SetStatus(ctx, run.ID, rd.DocumentID, models.DocumentStatusGenerating)

	artifactIDs, err := e.generatePhase(ctx, run, doc)
	if err != nil {
		_ = e.deps.Docs.SetError(ctx, run.ID, rd.DocumentID, err.Error())
		return err
	}

	if len(artifactIDs) == 0 {
		_ = e.deps.Docs.SetStatus(ctx, run.ID, rd.DocumentID, models.DocumentStatusFailed)
		return fmt.Errorf("no successful artifacts produced for document %s", rd.DocumentID)
	}

	_ = e.deps.Docs.SetStatus(ctx, run.ID, rd.DocumentID, models.DocumentStatusRanking)
	if e.deps.PairwiseEval != nil && len(artifactIDs) > 1 {
		if err := e.pairwisePhase(ctx, run, rd.DocumentID, artifactIDs); err != nil {
			log.Warn("pairwise phase failed, continuing with single-doc scores only", "error", err)
		}
	}

	_ = e.deps.Docs.SetStatus(ctx, run.ID, rd.DocumentID, models.DocumentStatusCombining)
	if err := e.combinePhase(ctx, run, rd.DocumentID, artifactIDs); err != nil {
		_ = e.deps.Docs.SetError(ctx, run.ID, rd.DocumentID, err.Error())
		return err
	}

	_ = e.deps.Docs.SetStatus(ctx, run.ID, rd.DocumentID, models.DocumentStatusCompleted)
	_ = e.deps.Runs.IncrementCounters(ctx, run.ID, 1, 0, 0)
	return nil
}

// genJob is one (generator, iteration) unit of work to dispatch.
type genJob struct {
	genName string
	gcfg    config.GeneratorYAMLConfig
	iter    int
}

// genOutcome is one completed generation task, streamed to the eval
// consumer the instant it succeeds.
type genOutcome struct {
	artifactID string
	content    []byte
	ok         bool
}

// generatePhase dispatches a generation task for every configured
// (generator, iteration) pair, bounded by the global/per-generator/
// per-provider semaphores, and streams each successful artifact into
// single-document evaluation the instant it completes (spec.md §4.1
// steps 3-4). It returns the IDs of every artifact that completed
// evaluation successfully.
func (e *Executor) generatePhase(ctx context.Context, run *models.Run, doc *models.Document) ([]string, error) {
	jobs, reused, err := e.planGeneration(ctx, run, doc)
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return reused, nil
	}

	resultsCh := make(chan genOutcome, len(jobs))
	var dispatchWG sync.WaitGroup
	var evalWG sync.WaitGroup
	var mu sync.Mutex
	completed := append([]string(nil), reused...)

	evalWG.Add(1)
	go func() {
		defer evalWG.Done()
		for out := range resultsCh {
			if !out.ok {
				continue
			}
			if err := e.deps.Sems.Eval.Acquire(ctx, 1); err != nil {
				continue
			}
			evalWG.Add(1)
			go func(artifactID string, content []byte) {
				defer evalWG.Done()
				defer e.deps.Sems.Eval.Release(1)
				if e.evaluateArtifact(ctx, run, artifactID, content) {
					mu.Lock()
					completed = append(completed, artifactID)
					mu.Unlock()
				}
			}(out.artifactID, out.content)
		}
	}()

	for _, job := range jobs {
		job := job
		adapter, ok := e.deps.Adapters[job.genName]
		if !ok {
			continue
		}

		genSem := e.deps.Sems.ForGenerator(job.genName)
		if err := genSem.Acquire(ctx, 1); err != nil {
			break
		}
		provSem := e.deps.Sems.ForProvider(job.gcfg.Model)

		dispatchWG.Add(1)
		go func() {
			defer dispatchWG.Done()
			defer genSem.Release(1)
			if provSem != nil {
				if err := provSem.Acquire(ctx, 1); err != nil {
					return
				}
				defer provSem.Release(1)
			}
			artifactID, content, ok := e.runGeneration(ctx, run, doc, job.genName, adapter, job.gcfg, job.iter)
			resultsCh <- genOutcome{artifactID: artifactID, content: content, ok: ok}
		}()
	}

	dispatchWG.Wait()
	close(resultsCh)
	evalWG.Wait()

	return completed, nil
}

// planGeneration resolves the configured generators into concrete jobs,
// applying the skip-logic fingerprint cache (spec.md §5.8): a
// (document, generator, config) triple whose content_hash/config_hash
// both match the last successful run is marked skipped instead of
// re-dispatched. A skip hit reuses the prior artifact (spec.md §4.1 step
// 3) so it still flows into ranking/combine; only its eval dispatch is
// skipped, not the artifact itself.
func (e *Executor) planGeneration(ctx context.Context, run *models.Run, doc *models.Document) ([]genJob, []string, error) {
	var jobs []genJob
	var reused []string
	for name, gcfg := range e.deps.Config.Generators {
		iterations := gcfg.Iterations
		if iterations < 1 {
			iterations = 1
		}
		configHash, err := fingerprint.ConfigHash(generatorAffectingConfig{
			Adapter:    string(gcfg.Adapter),
			Model:      gcfg.Model,
			Iterations: iterations,
			Params:     gcfg.Params,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("compute config hash for generator %s: %w", name, err)
		}

		if run.SkipUnchanged {
			if priorID, priorHash, found, _ := e.deps.Docs.FindPriorArtifact(ctx, doc.ID, name, configHash); found && priorHash == doc.ContentHash {
				_ = e.deps.Docs.MarkSkipped(ctx, run.ID, doc.ID, doc.ContentHash, configHash, "content and config unchanged since last successful run")
				_ = e.deps.Runs.IncrementCounters(ctx, run.ID, 0, 0, 1)
				reused = append(reused, priorID)
				continue
			}
		}
		_ = e.deps.Docs.SetFingerprint(ctx, run.ID, doc.ID, doc.ContentHash, configHash)

		for i := 1; i <= iterations; i++ {
			jobs = append(jobs, genJob{genName: name, gcfg: gcfg, iter: i})
		}
	}
	return jobs, reused, nil
}

// runGeneration dispatches one (generator, iteration) task end to end:
// creates the GenerationTask/Artifact rows, calls the adapter, persists
// the outcome, writes content to storage, and emits a generation.status
// event.
func (e *Executor) runGeneration(ctx context.Context, run *models.Run, doc *models.Document, genName string, adapter generator.Adapter, gcfg config.GeneratorYAMLConfig, iteration int) (artifactID string, content []byte, ok bool) {
	taskID := newID("task")
	artifactID = newID("art")
	now := time.Now()

	_ = e.deps.Tasks.Create(ctx, &models.GenerationTask{
		ID: taskID, RunID: run.ID, DocumentID: doc.ID, GeneratorName: genName,
		Iteration: iteration, Attempt: 1, State: "dispatched", HeartbeatAt: &now,
	})
	_ = e.deps.Artifacts.Create(ctx, &models.Artifact{
		ID: artifactID, RunID: run.ID, DocumentID: doc.ID, GeneratorName: genName,
		Iteration: iteration, Status: models.ArtifactStatusPending,
	})
	_ = e.deps.Artifacts.SetRunning(ctx, artifactID)
	e.publishGenerationStatus(ctx, run.ID, doc.ID, genName, iteration, "dispatched", true, 0, "")

	timeout := gcfg.Timeout
	if timeout <= 0 {
		timeout = defaultGenerationTimeout
	}
	deadline := time.Now().Add(timeout)

	docRead, err := e.deps.Storage.Read(ctx, doc.SourceRef)
	if err != nil {
		e.failGeneration(ctx, run, taskID, artifactID, doc.ID, genName, iteration, string(generator.ErrorCodeProcessError), err.Error())
		return "", nil, false
	}

	input := generator.Input{
		DocumentContent: docRead.Bytes,
		DocumentTitle:   doc.Title,
		GeneratorName:   genName,
		Model:           gcfg.Model,
		Iteration:       iteration,
		Params:          gcfg.Params,
	}

	result, err := adapter.Generate(ctx, input, deadline, nil)
	if err != nil {
		e.failGeneration(ctx, run, taskID, artifactID, doc.ID, genName, iteration, string(generator.ErrorCodeProcessError), err.Error())
		return "", nil, false
	}
	if !result.Success {
		e.failGeneration(ctx, run, taskID, artifactID, doc.ID, genName, iteration, string(result.ErrorCode), result.Error)
		return "", nil, false
	}

	contentPath := fmt.Sprintf("runs/%s/artifacts/%s.md", run.ID, artifactID)
	contentRef, werr := e.deps.Storage.Write(ctx, contentPath, result.Content, fmt.Sprintf("generated artifact %s", artifactID))
	if werr != nil {
		e.failGeneration(ctx, run, taskID, artifactID, doc.ID, genName, iteration, string(generator.ErrorCodeProcessError), werr.Error())
		return "", nil, false
	}

	durationMS := int64(result.Metadata.DurationSeconds * 1000)
	_ = e.deps.Artifacts.Complete(ctx, artifactID, contentRef, result.ContentHash, result.Metadata.InputTokens+result.Metadata.OutputTokens, durationMS)
	_ = e.deps.Tasks.Finish(ctx, taskID, "done")
	e.publishGenerationStatus(ctx, run.ID, doc.ID, genName, iteration, "completed", true, result.Metadata.DurationSeconds, "")

	return artifactID, result.Content, true
}

func (e *Executor) failGeneration(ctx context.Context, run *models.Run, taskID, artifactID, documentID, genName string, iteration int, errKind, message string) {
	_ = e.deps.Artifacts.Fail(ctx, artifactID, errKind, message)
	_ = e.deps.Tasks.Finish(ctx, taskID, "killed")
	_ = e.deps.Runs.IncrementCounters(ctx, run.ID, 0, 1, 0)
	e.publishGenerationStatus(ctx, run.ID, documentID, genName, iteration, "failed", false, 0, message)
}

// evaluateArtifact runs the single-document evaluator's configured
// judges over one artifact's content and persists each judge's result,
// per spec.md §4.3. Returns true if at least one judge produced a score.
func (e *Executor) evaluateArtifact(ctx context.Context, run *models.Run, artifactID string, content []byte) bool {
	judges := e.deps.evalJudges(e.deps.Config.Evaluation.Judges)
	if len(judges) == 0 || e.deps.Evaluator == nil {
		return false
	}

	results, err := e.deps.Evaluator.EvaluateArtifact(ctx, judges, artifactID, run.ID, string(content), "")
	if err != nil || len(results) == 0 {
		return false
	}

	for i := range results {
		results[i].ID = newID("eval")
		if cerr := e.deps.Evals.Create(ctx, &results[i]); cerr != nil {
			continue
		}
		e.publishEvaluationStatus(ctx, run.ID, artifactID, results[i].JudgeName, results[i].WeightedMean, true, "")
	}
	return true
}

func (e *Executor) publishGenerationStatus(ctx context.Context, runID, documentID, genName string, iteration int, status string, success bool, durationSec float64, description string) {
	if e.deps.Publisher == nil {
		return
	}
	_ = e.deps.Publisher.PublishGenerationStatus(ctx, runID, events.GenerationStatusPayload{
		Type: events.EventTypeGenerationStatus, RunID: runID, DocumentID: documentID,
		GeneratorName: genName, Iteration: iteration, Status: status,
		DurationSec: durationSec, Success: success, Description: description,
		Timestamp: time.Now().Format(time.RFC3339Nano),
	})
}

func (e *Executor) publishEvaluationStatus(ctx context.Context, runID, artifactID, judgeName string, weightedMean float64, success bool, description string) {
	if e.deps.Publisher == nil {
		return
	}
	_ = e.deps.Publisher.PublishEvaluationStatus(ctx, runID, events.EvaluationStatusPayload{
		Type: events.EventTypeEvaluationStatus, RunID: runID, ArtifactID: artifactID,
		JudgeName: judgeName, WeightedMean: weightedMean, Success: success, Description: description,
		Timestamp: time.Now().Format(time.RFC3339Nano),
	})
}
