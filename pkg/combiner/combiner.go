// Package combiner assembles one final document from a set of scored
// artifact candidates, per spec.md §4.5. Five strategies share one
// Strategy interface, selected by a factory — the same "interface +
// switch-selected concrete type" shape the teacher's
// controller.Factory uses to pick an agent's iteration controller.
package combiner

import (
	"context"
	"fmt"
	"time"

	"github.com/codeready-toolchain/acm/pkg/config"
)

// Source is a web source an artifact cited, carried through combine so
// the result can emit a deduplicated references block.
type Source struct {
	URI   string
	Title string
}

// Candidate is one artifact's combine-time view: its content, score,
// named sections (for section_assembly), and cited sources.
type Candidate struct {
	ArtifactID   string
	DocumentID   string
	Order        int // explicit artifact order, for concatenate's "artifact_order" mode
	Content      string
	Score        float64 // overall_score from single-doc evaluation
	Sections     map[string]string
	Sources      []Source
}

// Contribution records why one candidate did or didn't make it into the
// combined output, per spec.md §4.5's result contract.
type Contribution struct {
	ArtifactID string
	Reason     string
	Included   bool
}

// Metrics are the combine-run measurements spec.md §4.5 requires in the
// result contract.
type Metrics struct {
	TotalInputLength int
	OutputLength     int
	CompressionRatio float64
	DurationSeconds  float64
	MergeCost        *float64 // set only by intelligent_merge
}

// Result is the combiner's output contract (spec.md §4.5).
type Result struct {
	CombinedContent  string
	StrategyUsed     config.CombineStrategyName
	SourceArtifactIDs []string
	Contributions    []Contribution
	Sources          []Source
	Metrics          Metrics
	Success          bool
	Warnings         []string
}

// Strategy combines a candidate set into one Result.
type Strategy interface {
	Combine(ctx context.Context, candidates []Candidate, cfg config.CombinerYAMLConfig) (Result, error)
}

// MergeCaller is the narrowed LLM interface intelligent_merge needs —
// shaped like evaluator.JudgeCaller and pairwise.JudgeCaller so
// *judge.Client satisfies all three without a cross-import.
type MergeCaller interface {
	Name() string
	Complete(ctx context.Context, systemPrompt, userPrompt string, temperature float64, timeout time.Duration) (string, error)
}

// New builds the Strategy named by cfg.Strategy. merger is only consulted
// by intelligent_merge and may be nil for the other four strategies.
func New(name config.CombineStrategyName, merger MergeCaller, mergeTimeout time.Duration) (Strategy, error) {
	switch name {
	case config.CombineStrategyConcatenate:
		return concatenateStrategy{}, nil
	case config.CombineStrategyBestOfN:
		return bestOfNStrategy{}, nil
	case config.CombineStrategySectionAssembly:
		return sectionAssemblyStrategy{}, nil
	case config.CombineStrategyIntelligentMerge:
		if merger == nil {
			return nil, fmt.Errorf("combiner: intelligent_merge requires a merge caller")
		}
		return intelligentMergeStrategy{caller: merger, timeout: mergeTimeout}, nil
	case config.CombineStrategyWeightedBlend:
		return weightedBlendStrategy{}, nil
	default:
		return nil, fmt.Errorf("combiner: unknown strategy %q", name)
	}
}

// Run invokes s.Combine and stamps the result's DurationSeconds, so
// callers never have to thread timing through each strategy
// implementation individually.
func Run(ctx context.Context, s Strategy, candidates []Candidate, cfg config.CombinerYAMLConfig) (Result, error) {
	start := time.Now()
	res, err := s.Combine(ctx, candidates, cfg)
	res.Metrics.DurationSeconds = time.Since(start).Seconds()
	return res, err
}

func totalInputLength(candidates []Candidate) int {
	n := 0
	for _, c := range candidates {
		n += len(c.Content)
	}
	return n
}

func compressionRatio(input, output int) float64 {
	if input == 0 {
		return 0
	}
	return float64(output) / float64(input)
}
