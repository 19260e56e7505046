package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/codeready-toolchain/acm/pkg/combiner"
	"github.com/codeready-toolchain/acm/pkg/config"
	"github.com/codeready-toolchain/acm/pkg/events"
	"github.com/codeready-toolchain/acm/pkg/models"
	"github.com/codeready-toolchain/acm/pkg/pairwise"
)

// pairwisePhase runs head-to-head comparisons over a document's
// candidate pool and folds the results into Elo ratings, per spec.md
// §4.4. It is a no-op when no pairwise judges are configured.
func (e *Executor) pairwisePhase(ctx context.Context, run *models.Run, documentID string, artifactIDs []string) error {
	judges := e.deps.pairwiseJudges(e.deps.Config.Pairwise.Judges)
	if len(judges) == 0 {
		return nil
	}

	e.deps.PairwiseEval.OnComparison = func(c *models.PairwiseComparison) {
		e.publishPairwiseStatus(ctx, run.ID, documentID, c.ArtifactAID, c.ArtifactBID, string(c.Outcome))
	}

	content := func(artifactID string) (string, error) {
		a, err := e.deps.Artifacts.Get(ctx, artifactID)
		if err != nil {
			return "", err
		}
		res, err := e.deps.Storage.Read(ctx, a.ContentRef)
		if err != nil {
			return "", err
		}
		return string(res.Bytes), nil
	}

	concurrency := e.deps.Config.Concurrency.Pairwise
	if concurrency < 1 {
		concurrency = 1
	}

	return e.deps.PairwiseEval.Run(ctx, run.ID, documentID, documentID, artifactIDs, judges, content, concurrency)
}

// combinedCandidate is one strategy's output, materialized as a real
// Artifact row (generator_name "combined:<strategy>") so it can flow
// through the same eval_results/pairwise_comparisons/elo_ratings tables —
// and their artifact_id foreign keys — as any generated artifact.
type combinedCandidate struct {
	artifactID string
	strategy   config.CombineStrategyName
	content    string
}

// combinePhase ranks a document's candidates (spec.md §4.4's rank_score
// and tie-break rules), selects the top N, and runs every configured
// combine strategy over them (spec.md §4.5), persisting one
// CombinedOutput per strategy. When more than one strategy is configured
// (cfg.ExtraStrategies) and post-combine evaluation is enabled, the
// combined outputs bypass the top-N filter and
// enter pairwise directly in a separate "combined:<document_id>" Elo pool
// (spec.md §4.1 step 9).
func (e *Executor) combinePhase(ctx context.Context, run *models.Run, documentID string, artifactIDs []string) error {
	candidates, err := e.buildCombineCandidates(ctx, run, documentID, artifactIDs)
	if err != nil {
		return fmt.Errorf("build combine candidates: %w", err)
	}
	if len(candidates) == 0 {
		return fmt.Errorf("no candidates available to combine for document %s", documentID)
	}

	cfg := e.deps.Config.Combiner
	rankCfg := pairwise.RankConfig{
		Count:     cfg.TopNCount,
		Threshold: cfg.TopNThreshold,
		Min:       cfg.TopNMin,
		Max:       cfg.TopNMax,
	}
	if rankCfg.Count < 1 {
		rankCfg.Count = 1
	}
	if rankCfg.Min < 1 {
		rankCfg.Min = 1
	}
	if rankCfg.Max < rankCfg.Min {
		rankCfg.Max = rankCfg.Count
	}
	ranked := pairwise.Rank(candidates)
	selected := pairwise.SelectTopN(ranked, rankCfg, nil)

	selectedIDs := make(map[string]bool, len(selected))
	for _, c := range selected {
		selectedIDs[c.ArtifactID] = true
	}

	combineCandidates, err := e.readCombineContent(ctx, candidates, selectedIDs)
	if err != nil {
		return fmt.Errorf("read selected artifact content: %w", err)
	}

	strategies := dedupStrategies(append([]config.CombineStrategyName{cfg.Strategy}, cfg.ExtraStrategies...))

	var combined []combinedCandidate
	for _, name := range strategies {
		cc, rerr := e.runCombineStrategy(ctx, run, documentID, name, combineCandidates, cfg)
		if rerr != nil {
			if name == cfg.Strategy {
				return rerr
			}
			continue
		}
		combined = append(combined, cc)
	}
	if len(combined) == 0 {
		return fmt.Errorf("no combine strategy produced output for document %s", documentID)
	}

	if e.deps.Config.PostCombine.Enabled {
		e.postCombineEval(ctx, run, documentID, combined)
	}
	return nil
}

// runCombineStrategy executes one combine strategy, persists its
// CombinedOutput row, and materializes the result as an Artifact
// (generator_name "combined:<strategy>") so post-combine eval and pairwise
// can address it like any other artifact.
func (e *Executor) runCombineStrategy(ctx context.Context, run *models.Run, documentID string, name config.CombineStrategyName, combineCandidates []combiner.Candidate, cfg config.CombinerYAMLConfig) (combinedCandidate, error) {
	cfg.Strategy = name

	var merger combiner.MergeCaller
	if name == config.CombineStrategyIntelligentMerge {
		merger = e.deps.mergeCaller(cfg.MergeModel)
	}

	strategy, err := combiner.New(name, merger, e.deps.Evaluator.CallTimeout)
	if err != nil {
		return combinedCandidate{}, fmt.Errorf("build combine strategy: %w", err)
	}

	result, err := combiner.Run(ctx, strategy, combineCandidates, cfg)
	if err != nil {
		e.publishCombinationStatus(ctx, run.ID, documentID, string(name), false, err.Error())
		return combinedCandidate{}, err
	}

	contentPath := fmt.Sprintf("runs/%s/combined/%s-%s.md", run.ID, documentID, name)
	contentRef, werr := e.deps.Storage.Write(ctx, contentPath, []byte(result.CombinedContent), "combined output")
	if werr != nil {
		return combinedCandidate{}, fmt.Errorf("write combined output: %w", werr)
	}

	metrics := models.JSONMap{
		"total_input_length": result.Metrics.TotalInputLength,
		"output_length":      result.Metrics.OutputLength,
		"compression_ratio":  result.Metrics.CompressionRatio,
		"duration_seconds":   result.Metrics.DurationSeconds,
	}
	if result.Metrics.MergeCost != nil {
		metrics["merge_cost"] = *result.Metrics.MergeCost
	}

	if err := e.deps.Combined.Create(ctx, &models.CombinedOutput{
		ID:                newID("combined"),
		RunID:             run.ID,
		DocumentID:        documentID,
		StrategyUsed:      models.CombineStrategy(result.StrategyUsed),
		SourceArtifactIDs: models.JSONStringSlice(result.SourceArtifactIDs),
		ContentRef:        contentRef,
		Metrics:           metrics,
		Warnings:          models.JSONStringSlice(result.Warnings),
	}); err != nil {
		return combinedCandidate{}, fmt.Errorf("persist combined output: %w", err)
	}

	artifactID := newID("art")
	if err := e.deps.Artifacts.Create(ctx, &models.Artifact{
		ID: artifactID, RunID: run.ID, DocumentID: documentID, GeneratorName: "combined:" + string(name),
		Status: models.ArtifactStatusPending,
	}); err != nil {
		return combinedCandidate{}, fmt.Errorf("persist combined artifact: %w", err)
	}
	if err := e.deps.Artifacts.Complete(ctx, artifactID, contentRef, "", 0, int64(result.Metrics.DurationSeconds*1000)); err != nil {
		return combinedCandidate{}, fmt.Errorf("complete combined artifact: %w", err)
	}

	e.publishCombinationStatus(ctx, run.ID, documentID, string(result.StrategyUsed), result.Success, "")
	return combinedCandidate{artifactID: artifactID, strategy: name, content: result.CombinedContent}, nil
}

func dedupStrategies(names []config.CombineStrategyName) []config.CombineStrategyName {
	seen := make(map[config.CombineStrategyName]bool, len(names))
	out := make([]config.CombineStrategyName, 0, len(names))
	for _, n := range names {
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// buildCombineCandidates assembles the ranking view of every successfully
// evaluated artifact: its cross-judge weighted mean, Elo rating (if a
// pairwise phase ran), and per-judge stdev for tie-breaking.
func (e *Executor) buildCombineCandidates(ctx context.Context, run *models.Run, documentID string, artifactIDs []string) ([]pairwise.Candidate, error) {
	candidates := make([]pairwise.Candidate, 0, len(artifactIDs))
	for _, id := range artifactIDs {
		mean, err := e.deps.Evals.MeanWeightedScore(ctx, id)
		if err != nil {
			continue
		}

		var elo float64
		var hasElo bool
		if e.deps.Pairwise != nil {
			if rating, rerr := e.deps.Pairwise.GetRating(ctx, id, documentID, e.deps.PairwiseEval.Initial); rerr == nil && rating.Games > 0 {
				elo = rating.Rating
				hasElo = true
			}
		}

		results, _ := e.deps.Evals.ListForArtifact(ctx, id)
		stdev := aggregateStdev(results)

		artifact, aerr := e.deps.Artifacts.Get(ctx, id)
		createdAtUnix := int64(0)
		if aerr == nil {
			createdAtUnix = artifact.CreatedAt.Unix()
		}

		candidates = append(candidates, pairwise.Candidate{
			ArtifactID:      id,
			Elo:             elo,
			OverallScore:    mean,
			HasPairwiseData: hasElo,
			JudgeStdev:      stdev,
			CreatedAtUnix:   createdAtUnix,
		})
	}
	return candidates, nil
}

func aggregateStdev(results []models.EvalResult) float64 {
	if len(results) == 0 {
		return 0
	}
	var sum float64
	for _, r := range results {
		for _, c := range r.Criteria {
			sum += c.Stdev
		}
	}
	n := 0
	for _, r := range results {
		n += len(r.Criteria)
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// readCombineContent fetches each selected artifact's stored content and
// builds the combiner.Candidate view the chosen strategy consumes.
func (e *Executor) readCombineContent(ctx context.Context, candidates []pairwise.Candidate, selected map[string]bool) ([]combiner.Candidate, error) {
	out := make([]combiner.Candidate, 0, len(selected))
	order := 0
	for _, c := range candidates {
		if !selected[c.ArtifactID] {
			continue
		}
		artifact, err := e.deps.Artifacts.Get(ctx, c.ArtifactID)
		if err != nil {
			return nil, err
		}
		res, err := e.deps.Storage.Read(ctx, artifact.ContentRef)
		if err != nil {
			return nil, err
		}
		order++
		out = append(out, combiner.Candidate{
			ArtifactID: c.ArtifactID,
			DocumentID: artifact.DocumentID,
			Order:      order,
			Content:    string(res.Bytes),
			Score:      c.OverallScore,
		})
	}
	return out, nil
}

// postCombineEval re-evaluates every combined output using the configured
// post-combine judges (spec.md §9's resolved open question: "always runs,
// configurable to skip"), then, when N_combined ≥ 2, pairwise-ranks the
// combined artifacts directly — bypassing the top-N filter — in the
// document's separate "combined:<document_id>" Elo pool (spec.md §4.1
// step 9).
func (e *Executor) postCombineEval(ctx context.Context, run *models.Run, documentID string, combined []combinedCandidate) {
	judges := e.deps.evalJudges(e.deps.Config.PostCombine.Judges)
	if len(judges) > 0 && e.deps.Evaluator != nil {
		for _, cc := range combined {
			results, err := e.deps.Evaluator.EvaluateArtifact(ctx, judges, cc.artifactID, run.ID, cc.content, "")
			if err != nil {
				e.publishPostCombineStatus(ctx, run.ID, documentID, "", 0, false, err.Error())
				continue
			}
			for i := range results {
				results[i].ID = newID("eval")
				if err := e.deps.Evals.Create(ctx, &results[i]); err != nil {
					continue
				}
				e.publishPostCombineStatus(ctx, run.ID, documentID, results[i].JudgeName, results[i].WeightedMean, true, "")
			}
		}
	}

	if len(combined) < 2 || e.deps.PairwiseEval == nil {
		return
	}
	pairwiseJudges := e.deps.pairwiseJudges(e.deps.Config.Pairwise.Judges)
	if len(pairwiseJudges) == 0 {
		return
	}

	content := make(map[string]string, len(combined))
	combinedIDs := make([]string, 0, len(combined))
	for _, cc := range combined {
		content[cc.artifactID] = cc.content
		combinedIDs = append(combinedIDs, cc.artifactID)
	}
	resolver := func(artifactID string) (string, error) {
		if c, ok := content[artifactID]; ok {
			return c, nil
		}
		return "", fmt.Errorf("unknown combined artifact %s", artifactID)
	}

	pool := "combined:" + documentID
	e.deps.PairwiseEval.OnComparison = func(c *models.PairwiseComparison) {
		e.publishPairwiseStatus(ctx, run.ID, documentID, c.ArtifactAID, c.ArtifactBID, string(c.Outcome))
	}

	concurrency := e.deps.Config.Concurrency.Pairwise
	if concurrency < 1 {
		concurrency = 1
	}
	if err := e.deps.PairwiseEval.Run(ctx, run.ID, documentID, pool, combinedIDs, pairwiseJudges, resolver, concurrency); err != nil {
		e.publishPostCombineStatus(ctx, run.ID, documentID, "", 0, false, err.Error())
	}
}

func (e *Executor) publishPairwiseStatus(ctx context.Context, runID, documentID, artifactAID, artifactBID, outcome string) {
	if e.deps.Publisher == nil {
		return
	}
	_ = e.deps.Publisher.PublishPairwiseStatus(ctx, runID, events.PairwiseStatusPayload{
		Type: events.EventTypePairwiseStatus, RunID: runID, DocumentID: documentID,
		ArtifactAID: artifactAID, ArtifactBID: artifactBID, Outcome: outcome,
		Timestamp: time.Now().Format(time.RFC3339Nano),
	})
}

func (e *Executor) publishCombinationStatus(ctx context.Context, runID, documentID, strategy string, success bool, description string) {
	if e.deps.Publisher == nil {
		return
	}
	_ = e.deps.Publisher.PublishCombinationStatus(ctx, runID, events.CombinationStatusPayload{
		Type: events.EventTypeCombinationStatus, RunID: runID, DocumentID: documentID,
		StrategyUsed: strategy, Success: success, Description: description,
		Timestamp: time.Now().Format(time.RFC3339Nano),
	})
}

func (e *Executor) publishPostCombineStatus(ctx context.Context, runID, documentID, judgeName string, score float64, success bool, description string) {
	if e.deps.Publisher == nil {
		return
	}
	_ = e.deps.Publisher.PublishPostCombineStatus(ctx, runID, events.PostCombineStatusPayload{
		Type: events.EventTypePostCombineStatus, RunID: runID, DocumentID: documentID,
		JudgeName: judgeName, Score: score, Success: success, Description: description,
		Timestamp: time.Now().Format(time.RFC3339Nano),
	})
}
