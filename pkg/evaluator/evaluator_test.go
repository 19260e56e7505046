package evaluator_test

import (
	"context"
	"testing"
	"time"

	"github.com/codeready-toolchain/acm/pkg/evaluator"
	"github.com/codeready-toolchain/acm/pkg/models"
	"github.com/stretchr/testify/require"
)

// scriptedJudge returns one canned response per call, in order, looping
// the last response if more calls arrive than scripted.
type scriptedJudge struct {
	name      string
	responses []string
	calls     int
}

func (s *scriptedJudge) Name() string { return s.name }

func (s *scriptedJudge) Complete(_ context.Context, _, _ string, _ float64, _ time.Duration) (string, error) {
	idx := s.calls
	if idx >= len(s.responses) {
		idx = len(s.responses) - 1
	}
	s.calls++
	return s.responses[idx], nil
}

func criteria() []evaluator.Criterion {
	return []evaluator.Criterion{
		{Name: "accuracy", Weight: 0.6, MinScore: 1, MaxScore: 10},
		{Name: "clarity", Weight: 0.4, MinScore: 1, MaxScore: 10},
	}
}

func TestEvaluateArtifactAggregatesAcrossIterations(t *testing.T) {
	e := &evaluator.Evaluator{
		Criteria:    criteria(),
		Iterations:  3,
		Temperature: 0.3,
		CallTimeout: time.Second,
	}
	judge := &scriptedJudge{name: "j1", responses: []string{
		`{"accuracy": 8, "clarity": 6}`,
		`{"accuracy": 9, "clarity": 7}`,
		`{"accuracy": 7, "clarity": 5}`,
	}}

	results, err := e.EvaluateArtifact(context.Background(), []evaluator.JudgeCaller{judge}, "artifact-1", "run-1", "some generated content", "")
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	require.Equal(t, "j1", r.JudgeName)
	require.Len(t, r.Criteria, 2)
	require.InDelta(t, 8.0, r.Criteria[0].Mean, 0.01) // accuracy mean of 8,9,7
	require.Greater(t, r.WeightedMean, 0.0)
}

func TestEvaluateArtifactEmptyContentSkipsJudgeCalls(t *testing.T) {
	e := &evaluator.Evaluator{Criteria: criteria(), Iterations: 1, CallTimeout: time.Second}
	judge := &scriptedJudge{name: "j1", responses: []string{`{"accuracy": 5, "clarity": 5}`}}

	results, err := e.EvaluateArtifact(context.Background(), []evaluator.JudgeCaller{judge}, "artifact-1", "run-1", "   \n\t", "")
	require.NoError(t, err)
	require.Nil(t, results)
	require.Equal(t, 0, judge.calls)
}

func TestEvaluateArtifactRetriesOnceOnUnparsableResponse(t *testing.T) {
	e := &evaluator.Evaluator{Criteria: criteria(), Iterations: 1, CallTimeout: time.Second}
	judge := &scriptedJudge{name: "j1", responses: []string{
		"not json at all",
		"```json\n{\"accuracy\": 6, \"clarity\": 6}\n```",
	}}

	results, err := e.EvaluateArtifact(context.Background(), []evaluator.JudgeCaller{judge}, "artifact-1", "run-1", "content", "")
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, 1, results[0].RetriedCount)
	require.Equal(t, 2, judge.calls)
}

func TestCrossJudgeWeightedMean(t *testing.T) {
	e := &evaluator.Evaluator{
		Criteria:     criteria(),
		JudgeWeights: map[string]float64{"j1": 2, "j2": 1},
	}
	results := []models.EvalResult{
		{JudgeName: "j1", WeightedMean: 8},
		{JudgeName: "j2", WeightedMean: 5},
	}
	got := e.CrossJudgeWeightedMean(results)
	require.InDelta(t, 7.0, got, 0.01) // (8*2 + 5*1) / 3
}
