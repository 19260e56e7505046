package combiner

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/codeready-toolchain/acm/pkg/config"
)

type concatenateStrategy struct{}

func (concatenateStrategy) Combine(_ context.Context, candidates []Candidate, cfg config.CombinerYAMLConfig) (Result, error) {
	ordered := make([]Candidate, len(candidates))
	copy(ordered, candidates)
	if cfg.ArtifactOrder {
		sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Order < ordered[j].Order })
	}

	sep := cfg.Separator
	if sep == "" {
		sep = "\n\n---\n\n"
	}

	var b strings.Builder
	contributions := make([]Contribution, 0, len(ordered))
	ids := make([]string, 0, len(ordered))

	if cfg.IncludeTOC {
		b.WriteString("## Table of Contents\n")
		for i, c := range ordered {
			fmt.Fprintf(&b, "%d. %s\n", i+1, c.ArtifactID)
		}
		b.WriteString("\n")
	}

	for i, c := range ordered {
		if i > 0 {
			b.WriteString(sep)
		}
		b.WriteString(c.Content)
		contributions = append(contributions, Contribution{ArtifactID: c.ArtifactID, Reason: "concatenated", Included: true})
		ids = append(ids, c.ArtifactID)
	}

	combined := b.String()
	res := buildResult(config.CombineStrategyConcatenate, combined, ids, contributions, candidates, cfg)
	return res, nil
}

type bestOfNStrategy struct{}

func (bestOfNStrategy) Combine(_ context.Context, candidates []Candidate, cfg config.CombinerYAMLConfig) (Result, error) {
	eligible := make([]Candidate, 0, len(candidates))
	contributions := make([]Contribution, 0, len(candidates))
	for _, c := range candidates {
		if c.Score < cfg.MinimumScore {
			contributions = append(contributions, Contribution{ArtifactID: c.ArtifactID, Reason: "below minimum_score", Included: false})
			continue
		}
		eligible = append(eligible, c)
	}
	if len(eligible) == 0 {
		return Result{StrategyUsed: config.CombineStrategyBestOfN, Success: false, Warnings: []string{"no candidate meets minimum_score"}, Contributions: contributions}, nil
	}

	best := pickBest(eligible, cfg.TieBreaker)
	for _, c := range eligible {
		reason := "not selected"
		if c.ArtifactID == best.ArtifactID {
			reason = "highest score"
		}
		contributions = append(contributions, Contribution{ArtifactID: c.ArtifactID, Reason: reason, Included: c.ArtifactID == best.ArtifactID})
	}

	res := buildResult(config.CombineStrategyBestOfN, best.Content, []string{best.ArtifactID}, contributions, candidates, cfg)
	return res, nil
}

// pickBest returns the highest-scored candidate, applying the configured
// tie_breaker when two or more candidates share the top score.
func pickBest(candidates []Candidate, tb config.TieBreaker) Candidate {
	best := candidates[0]
	tied := []Candidate{best}
	for _, c := range candidates[1:] {
		switch {
		case c.Score > best.Score:
			best = c
			tied = []Candidate{c}
		case c.Score == best.Score:
			tied = append(tied, c)
		}
	}
	if len(tied) == 1 {
		return best
	}

	switch tb {
	case config.TieBreakerShortest:
		shortest := tied[0]
		for _, c := range tied[1:] {
			if len(c.Content) < len(shortest.Content) {
				shortest = c
			}
		}
		return shortest
	case config.TieBreakerLongest:
		longest := tied[0]
		for _, c := range tied[1:] {
			if len(c.Content) > len(longest.Content) {
				longest = c
			}
		}
		return longest
	case config.TieBreakerRandom:
		return tied[0] // selection order is already candidate order; deterministic given identical inputs
	default: // "first"
		return tied[0]
	}
}

type sectionAssemblyStrategy struct{}

func (sectionAssemblyStrategy) Combine(_ context.Context, candidates []Candidate, cfg config.CombinerYAMLConfig) (Result, error) {
	var b strings.Builder
	contributions := make([]Contribution, 0, len(cfg.SectionOrder))
	ids := make([]string, 0)
	seen := make(map[string]bool)

	for _, section := range cfg.SectionOrder {
		owner, content, ok := findSection(candidates, section)
		header := cfg.SectionHeaders[section]
		if header == "" {
			header = section
		}

		if !ok {
			switch cfg.MissingSectionBehavior {
			case config.MissingSectionSkip:
				contributions = append(contributions, Contribution{ArtifactID: "", Reason: fmt.Sprintf("section %q missing, skipped", section), Included: false})
				continue
			case config.MissingSectionPlaceholder:
				fmt.Fprintf(&b, "## %s\n\n_section not available_\n\n", header)
				continue
			default:
				return Result{}, fmt.Errorf("combiner: section_assembly missing required section %q", section)
			}
		}

		fmt.Fprintf(&b, "## %s\n\n%s\n\n", header, content)
		contributions = append(contributions, Contribution{ArtifactID: owner, Reason: fmt.Sprintf("contributed section %q", section), Included: true})
		if !seen[owner] {
			ids = append(ids, owner)
			seen[owner] = true
		}
	}

	res := buildResult(config.CombineStrategySectionAssembly, strings.TrimSpace(b.String()), ids, contributions, candidates, cfg)
	return res, nil
}

func findSection(candidates []Candidate, section string) (artifactID, content string, ok bool) {
	for _, c := range candidates {
		if v, present := c.Sections[section]; present {
			return c.ArtifactID, v, true
		}
	}
	return "", "", false
}

type weightedBlendStrategy struct{}

func (weightedBlendStrategy) Combine(_ context.Context, candidates []Candidate, cfg config.CombinerYAMLConfig) (Result, error) {
	var b strings.Builder
	contributions := make([]Contribution, 0, len(candidates))
	ids := make([]string, 0, len(candidates))

	fragments := blendFragments(candidates, cfg.BlendLevel)
	for _, f := range fragments {
		if f.score < cfg.MinimumScore {
			contributions = append(contributions, Contribution{ArtifactID: f.artifactID, Reason: "fragment below minimum_score", Included: false})
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(f.text)
		contributions = append(contributions, Contribution{ArtifactID: f.artifactID, Reason: "fragment selected", Included: true})
		ids = appendUnique(ids, f.artifactID)
	}

	res := buildResult(config.CombineStrategyWeightedBlend, b.String(), ids, contributions, candidates, cfg)
	return res, nil
}

type fragment struct {
	artifactID string
	text       string
	score      float64
}

// blendFragments splits each candidate into fragments at the configured
// granularity, each inheriting its candidate's overall score (finer-
// grained per-fragment scoring is out of scope for this evaluator).
func blendFragments(candidates []Candidate, level config.BlendLevel) []fragment {
	var frags []fragment
	for _, c := range candidates {
		switch level {
		case config.BlendLevelParagraph:
			for _, p := range strings.Split(c.Content, "\n\n") {
				if strings.TrimSpace(p) == "" {
					continue
				}
				frags = append(frags, fragment{artifactID: c.ArtifactID, text: p, score: c.Score})
			}
		case config.BlendLevelSection:
			for name, content := range c.Sections {
				_ = name
				frags = append(frags, fragment{artifactID: c.ArtifactID, text: content, score: c.Score})
			}
		default: // document
			frags = append(frags, fragment{artifactID: c.ArtifactID, text: c.Content, score: c.Score})
		}
	}
	return frags
}

func appendUnique(ids []string, id string) []string {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

// buildResult fills in the Metrics/Sources/Success fields shared by every
// strategy, given the final combined content and per-artifact bookkeeping
// a concrete strategy already computed.
func buildResult(strategy config.CombineStrategyName, combined string, ids []string, contributions []Contribution, all []Candidate, cfg config.CombinerYAMLConfig) Result {
	res := Result{
		CombinedContent:   combined,
		StrategyUsed:      strategy,
		SourceArtifactIDs: ids,
		Contributions:     contributions,
		Success:           combined != "",
		Metrics: Metrics{
			TotalInputLength: totalInputLength(all),
			OutputLength:     len(combined),
			CompressionRatio: compressionRatio(totalInputLength(all), len(combined)),
		},
	}
	if cfg.IncludeSources {
		res.Sources = DedupSources(all)
		if len(res.Sources) > 0 {
			res.CombinedContent += renderReferences(res.Sources)
		}
	}
	return res
}
