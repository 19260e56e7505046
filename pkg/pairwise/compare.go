package pairwise

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/codeready-toolchain/acm/pkg/models"
)

const comparisonSystemPrompt = `You are an impartial judge comparing two candidate documents. Respond with strict JSON only, no prose outside the JSON object.`

// JudgeCaller is the narrowed judge interface pairwise needs — the same
// shape evaluator.JudgeCaller uses, so *judge.Client satisfies both
// without either package importing the other.
type JudgeCaller interface {
	Name() string
	Complete(ctx context.Context, systemPrompt, userPrompt string, temperature float64, timeout time.Duration) (string, error)
}

type verdict struct {
	Winner     string  `json:"winner"` // "a", "b", or "tie"
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

func buildComparisonPrompt(contentA, contentB string) string {
	var b strings.Builder
	b.WriteString("Compare the two documents below and decide which is better overall.\n\n")
	b.WriteString("Document A:\n")
	b.WriteString(contentA)
	b.WriteString("\n\nDocument B:\n")
	b.WriteString(contentB)
	b.WriteString("\n\nRespond with a JSON object of the exact shape {\"winner\": \"a\"|\"b\"|\"tie\", \"confidence\": <0..1>, \"reasoning\": \"...\"}.")
	return b.String()
}

func parseVerdict(raw string) (verdict, error) {
	trimmed := strings.TrimSpace(raw)
	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start >= 0 && end > start {
		trimmed = trimmed[start : end+1]
	}
	var v verdict
	if err := json.Unmarshal([]byte(trimmed), &v); err != nil {
		return verdict{}, fmt.Errorf("pairwise: verdict is not valid JSON: %w", err)
	}
	switch v.Winner {
	case "a", "b", "tie":
	default:
		return verdict{}, fmt.Errorf("pairwise: verdict has unrecognized winner %q", v.Winner)
	}
	return v, nil
}

// Compare runs one judge's head-to-head verdict on (contentA, contentB),
// applying spec.md §4.4's position-bias mitigation: when doubleRun is
// false the call order is randomized by rng; when true the pair is run
// twice with positions swapped and a disagreement on winner collapses to
// a tie.
func Compare(ctx context.Context, j JudgeCaller, contentA, contentB string, temperature float64, timeout time.Duration, doubleRun bool, rng *rand.Rand) (models.PairwiseOutcome, string, float64, error) {
	if doubleRun {
		return compareDoubleRun(ctx, j, contentA, contentB, temperature, timeout)
	}
	return compareRandomized(ctx, j, contentA, contentB, temperature, timeout, rng)
}

func compareRandomized(ctx context.Context, j JudgeCaller, contentA, contentB string, temperature float64, timeout time.Duration, rng *rand.Rand) (models.PairwiseOutcome, string, float64, error) {
	swapped := rng != nil && rng.Intn(2) == 1
	first, second := contentA, contentB
	if swapped {
		first, second = contentB, contentA
	}

	v, err := callVerdict(ctx, j, first, second, temperature, timeout)
	if err != nil {
		return "", "", 0, err
	}

	outcome := verdictToOutcome(v.Winner)
	if swapped {
		outcome = flipOutcome(outcome)
	}
	return outcome, v.Reasoning, clampConfidence(v.Confidence), nil
}

func compareDoubleRun(ctx context.Context, j JudgeCaller, contentA, contentB string, temperature float64, timeout time.Duration) (models.PairwiseOutcome, string, float64, error) {
	first, err := callVerdict(ctx, j, contentA, contentB, temperature, timeout)
	if err != nil {
		return "", "", 0, err
	}
	second, err := callVerdict(ctx, j, contentB, contentA, temperature, timeout)
	if err != nil {
		return "", "", 0, err
	}

	outcomeA := verdictToOutcome(first.Winner)
	outcomeB := flipOutcome(verdictToOutcome(second.Winner))
	avgConfidence := clampConfidence((first.Confidence + second.Confidence) / 2)
	if outcomeA != outcomeB {
		return models.PairwiseOutcomeTie, "position swap disagreement", 0, nil
	}
	return outcomeA, first.Reasoning, avgConfidence, nil
}

// clampConfidence guards against a judge returning a confidence outside
// the [0,1] contract (spec.md §4.4).
func clampConfidence(c float64) float64 {
	switch {
	case c < 0:
		return 0
	case c > 1:
		return 1
	default:
		return c
	}
}

func callVerdict(ctx context.Context, j JudgeCaller, first, second string, temperature float64, timeout time.Duration) (verdict, error) {
	raw, err := j.Complete(ctx, comparisonSystemPrompt, buildComparisonPrompt(first, second), temperature, timeout)
	if err != nil {
		return verdict{}, err
	}
	return parseVerdict(raw)
}

func verdictToOutcome(winner string) models.PairwiseOutcome {
	switch winner {
	case "a":
		return models.PairwiseOutcomeAWins
	case "b":
		return models.PairwiseOutcomeBWins
	default:
		return models.PairwiseOutcomeTie
	}
}

func flipOutcome(o models.PairwiseOutcome) models.PairwiseOutcome {
	switch o {
	case models.PairwiseOutcomeAWins:
		return models.PairwiseOutcomeBWins
	case models.PairwiseOutcomeBWins:
		return models.PairwiseOutcomeAWins
	default:
		return models.PairwiseOutcomeTie
	}
}

func outcomeToScoreA(o models.PairwiseOutcome) Score {
	switch o {
	case models.PairwiseOutcomeAWins:
		return ScoreWin
	case models.PairwiseOutcomeBWins:
		return ScoreLoss
	default:
		return ScoreTie
	}
}
