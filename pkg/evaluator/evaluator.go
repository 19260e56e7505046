// Package evaluator implements the single-document evaluator of
// spec.md §4.3: N judges score one artifact K iterations each over a
// weighted rubric, and the results aggregate into a per-judge mean/stdev
// and a weighted cross-judge mean.
//
// Grounded on the teacher's pkg/agent/controller/scoring.go: a
// multi-turn-with-retry extraction loop around a typed result struct,
// generalized from "extract one trailing integer" to "extract and
// validate a full per-criterion JSON rubric."
package evaluator

import (
	"context"
	"math"
	"time"

	"github.com/codeready-toolchain/acm/pkg/config"
	"github.com/codeready-toolchain/acm/pkg/models"
)

// Criterion is one weighted rubric entry with its configured score range.
type Criterion struct {
	Name        string
	Description string
	Weight      float64
	MinScore    int
	MaxScore    int
}

// DefaultMinScore and DefaultMaxScore bound the default integer score range
// for a criterion per spec.md §4.3.
const (
	DefaultMinScore = 1
	DefaultMaxScore = 10
)

// JudgeCaller is the subset of judge.Client an evaluator needs —
// satisfied by *judge.Client, narrowed here so this package doesn't
// import pkg/judge's provider-construction concerns.
type JudgeCaller interface {
	Name() string
	Complete(ctx context.Context, systemPrompt, userPrompt string, temperature float64, timeout time.Duration) (string, error)
}

// Evaluator scores artifacts against a fixed rubric using a configured
// set of judges, per spec.md §4.3.
type Evaluator struct {
	Criteria     []Criterion
	JudgeWeights map[string]float64 // judge name -> weight; defaults to 1 when absent
	Iterations   int
	Temperature  float64
	CallTimeout  time.Duration
}

// NewFromConfig builds an Evaluator from the configured rubric, applying
// spec.md §4.3's default 1..10 integer range to every criterion.
func NewFromConfig(cfg config.EvaluationYAMLConfig, judgeWeights map[string]float64, callTimeout time.Duration) *Evaluator {
	criteria := make([]Criterion, 0, len(cfg.Rubric))
	for _, c := range cfg.Rubric {
		criteria = append(criteria, Criterion{
			Name:     c.Name,
			Weight:   c.Weight,
			MinScore: DefaultMinScore,
			MaxScore: DefaultMaxScore,
		})
	}
	iterations := cfg.Iterations
	if iterations <= 0 {
		iterations = 1
	}
	return &Evaluator{
		Criteria:     criteria,
		JudgeWeights: judgeWeights,
		Iterations:   iterations,
		Temperature:  0.3,
		CallTimeout:  callTimeout,
	}
}

// EvaluateArtifact runs every configured judge Iterations times over
// content and returns one models.EvalResult per judge. Per spec.md
// §4.3's empty-content policy, empty/whitespace-only content short-
// circuits with no judge calls and a nil result slice.
func (e *Evaluator) EvaluateArtifact(ctx context.Context, judges []JudgeCaller, artifactID, runID, content, sourceContext string) ([]models.EvalResult, error) {
	if isBlank(content) {
		return nil, nil
	}

	results := make([]models.EvalResult, 0, len(judges))
	for _, j := range judges {
		res, err := e.evaluateWithJudge(ctx, j, artifactID, runID, content, sourceContext)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

func (e *Evaluator) evaluateWithJudge(ctx context.Context, j JudgeCaller, artifactID, runID, content, sourceContext string) (models.EvalResult, error) {
	perCriterionIterationScores := make(map[string][]float64, len(e.Criteria))
	rawResponses := make([]string, 0, e.Iterations)
	retried := 0

	for i := 0; i < e.Iterations; i++ {
		prompt := buildJudgePrompt(e.Criteria, content, sourceContext, false)
		raw, err := j.Complete(ctx, judgeSystemPrompt, prompt, e.Temperature, e.CallTimeout)
		if err != nil {
			return models.EvalResult{}, err
		}

		scores, perr := parseRubricResponse(raw, e.Criteria)
		if perr != nil {
			retried++
			strictPrompt := buildJudgePrompt(e.Criteria, content, sourceContext, true)
			raw, err = j.Complete(ctx, judgeSystemPrompt, strictPrompt, e.Temperature, e.CallTimeout)
			if err != nil {
				return models.EvalResult{}, err
			}
			scores, perr = parseRubricResponse(raw, e.Criteria)
			if perr != nil {
				rawResponses = append(rawResponses, raw)
				continue // this iteration contributes no scores; still recorded as raw
			}
		}

		rawResponses = append(rawResponses, raw)
		for name, score := range scores {
			perCriterionIterationScores[name] = append(perCriterionIterationScores[name], score)
		}
	}

	criteria := make([]models.CriterionScore, 0, len(e.Criteria))
	var weightedSum, weightSum float64
	for _, c := range e.Criteria {
		vals := perCriterionIterationScores[c.Name]
		mean, stdev := meanStdev(vals)
		criteria = append(criteria, models.CriterionScore{
			Criterion:  c.Name,
			Mean:       mean,
			Stdev:      stdev,
			Confidence: confidenceLabel(stdev),
			Raw:        vals,
		})
		weightedSum += mean * c.Weight
		weightSum += c.Weight
	}

	overall := 0.0
	if weightSum > 0 {
		overall = weightedSum / weightSum
	}

	return models.EvalResult{
		RunID:        runID,
		ArtifactID:   artifactID,
		JudgeName:    j.Name(),
		Criteria:     criteria,
		WeightedMean: overall,
		RawResponses: rawResponses,
		RetriedCount: retried,
	}, nil
}

// CrossJudgeWeightedMean computes the weighted mean overall score across
// judges, per spec.md §4.3's "across judges: weighted mean using judge
// weights" aggregation step.
func (e *Evaluator) CrossJudgeWeightedMean(results []models.EvalResult) float64 {
	var weightedSum, weightSum float64
	for _, r := range results {
		w := e.JudgeWeights[r.JudgeName]
		if w == 0 {
			w = 1
		}
		weightedSum += r.WeightedMean * w
		weightSum += w
	}
	if weightSum == 0 {
		return 0
	}
	return weightedSum / weightSum
}

func confidenceLabel(stdev float64) models.Confidence {
	switch {
	case stdev < 0.5:
		return models.ConfidenceHigh
	case stdev <= 1.0:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}

func meanStdev(vals []float64) (mean, stdev float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	mean = sum / float64(len(vals))
	if len(vals) < 2 {
		return mean, 0
	}
	var sq float64
	for _, v := range vals {
		d := v - mean
		sq += d * d
	}
	stdev = math.Sqrt(sq / float64(len(vals)-1))
	return mean, stdev
}

func isBlank(s string) bool {
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
	}
	return true
}
