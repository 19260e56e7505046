package combiner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/codeready-toolchain/acm/pkg/config"
)

const mergeSystemPrompt = `You synthesize multiple draft documents into a single coherent document. Preserve factual claims and, when asked, inline citations. Do not invent new information.`

// intelligentMergeStrategy is the only strategy permitted to call back
// into the LLM path (spec.md §4.5's invariant) — every other strategy
// reads exclusively from already-generated artifact content.
type intelligentMergeStrategy struct {
	caller  MergeCaller
	timeout time.Duration
}

func (s intelligentMergeStrategy) Combine(ctx context.Context, candidates []Candidate, cfg config.CombinerYAMLConfig) (Result, error) {
	if len(candidates) == 0 {
		return Result{StrategyUsed: config.CombineStrategyIntelligentMerge, Success: false, Warnings: []string{"no candidates to merge"}}, nil
	}

	prompt := buildMergePrompt(candidates, cfg)
	merged, err := s.caller.Complete(ctx, mergeSystemPrompt, prompt, 0.1, s.timeout)
	if err != nil {
		return Result{}, fmt.Errorf("combiner: intelligent_merge call failed: %w", err)
	}

	ids := make([]string, 0, len(candidates))
	contributions := make([]Contribution, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.ArtifactID)
		contributions = append(contributions, Contribution{ArtifactID: c.ArtifactID, Reason: "merged by " + s.caller.Name(), Included: true})
	}

	res := buildResult(config.CombineStrategyIntelligentMerge, merged, ids, contributions, candidates, cfg)
	cost := estimateMergeCost(prompt, merged)
	res.Metrics.MergeCost = &cost
	return res, nil
}

func buildMergePrompt(candidates []Candidate, cfg config.CombinerYAMLConfig) string {
	var b strings.Builder
	if cfg.MergePrompt != "" {
		b.WriteString(cfg.MergePrompt)
		b.WriteString("\n\n")
	} else {
		b.WriteString("Merge the following draft documents into one coherent document.\n\n")
	}
	if cfg.PreserveCitations {
		b.WriteString("Preserve every inline citation or source reference present in the drafts.\n\n")
	}
	for i, c := range candidates {
		fmt.Fprintf(&b, "--- Draft %d (%s) ---\n%s\n\n", i+1, c.ArtifactID, c.Content)
	}
	return b.String()
}

// estimateMergeCost is a rough token-count proxy (chars/4) for the
// result contract's optional merge_cost metric; the exact pricing model
// is an external, provider-specific concern outside this package.
func estimateMergeCost(prompt, output string) float64 {
	return float64(len(prompt)+len(output)) / 4
}
