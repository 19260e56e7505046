package config

// AdapterKind selects which generator backend a GeneratorYAMLConfig drives.
type AdapterKind string

const (
	AdapterKindFPF  AdapterKind = "fpf"
	AdapterKindGPTR AdapterKind = "gptr"
)

// IsValid reports whether the adapter kind is one this build knows how to
// construct a generator.Adapter for.
func (k AdapterKind) IsValid() bool {
	return k == AdapterKindFPF || k == AdapterKindGPTR
}

// JudgeProviderType selects which LLM backend a judge's HTTP client talks
// to. Matches the provider identifiers langchaingo's llms package exposes.
type JudgeProviderType string

const (
	JudgeProviderOpenAI    JudgeProviderType = "openai"
	JudgeProviderAnthropic JudgeProviderType = "anthropic"
)

// IsValid reports whether the judge provider type is supported.
func (t JudgeProviderType) IsValid() bool {
	return t == JudgeProviderOpenAI || t == JudgeProviderAnthropic
}

// PairSelectionStrategy names a pair-selection algorithm for the pairwise
// evaluator. The value is validated, but pairwise.SelectPairs picks its
// algorithm from the pool size (spec.md §4.4) and does not consult it.
type PairSelectionStrategy string

const (
	PairSelectionRoundRobin PairSelectionStrategy = "round_robin"
	PairSelectionSwiss      PairSelectionStrategy = "swiss"
	PairSelectionTopK       PairSelectionStrategy = "top_k"
)

// IsValid reports whether the pair-selection strategy is recognized.
func (s PairSelectionStrategy) IsValid() bool {
	switch s {
	case PairSelectionRoundRobin, PairSelectionSwiss, PairSelectionTopK:
		return true
	default:
		return false
	}
}

// CombineStrategyName names one of the combiner's five strategies, as
// spelled in YAML. Mirrors models.CombineStrategy one-to-one; kept as a
// distinct string type here so config validation doesn't import pkg/models.
type CombineStrategyName string

const (
	CombineStrategyConcatenate      CombineStrategyName = "concatenate"
	CombineStrategyBestOfN          CombineStrategyName = "best_of_n"
	CombineStrategySectionAssembly  CombineStrategyName = "section_assembly"
	CombineStrategyIntelligentMerge CombineStrategyName = "intelligent_merge"
	CombineStrategyWeightedBlend    CombineStrategyName = "weighted_blend"
)

// IsValid reports whether the combine strategy name is one of the five
// built-in strategies.
func (s CombineStrategyName) IsValid() bool {
	switch s {
	case CombineStrategyConcatenate, CombineStrategyBestOfN, CombineStrategySectionAssembly,
		CombineStrategyIntelligentMerge, CombineStrategyWeightedBlend:
		return true
	default:
		return false
	}
}

// TieBreaker selects how best_of_n breaks a tie among equally-scored
// candidates, per spec.md §4.5's "Required config" column.
type TieBreaker string

const (
	TieBreakerFirst    TieBreaker = "first"
	TieBreakerRandom   TieBreaker = "random"
	TieBreakerShortest TieBreaker = "shortest"
	TieBreakerLongest  TieBreaker = "longest"
)

// IsValid reports whether the tie-breaker policy is recognized.
func (t TieBreaker) IsValid() bool {
	switch t {
	case TieBreakerFirst, TieBreakerRandom, TieBreakerShortest, TieBreakerLongest:
		return true
	default:
		return false
	}
}

// MissingSectionBehavior controls how section_assembly reacts to a
// candidate missing a configured section.
type MissingSectionBehavior string

const (
	MissingSectionError       MissingSectionBehavior = "error"
	MissingSectionSkip        MissingSectionBehavior = "skip"
	MissingSectionPlaceholder MissingSectionBehavior = "placeholder"
)

// IsValid reports whether the missing-section behavior is recognized.
func (m MissingSectionBehavior) IsValid() bool {
	switch m {
	case MissingSectionError, MissingSectionSkip, MissingSectionPlaceholder:
		return true
	default:
		return false
	}
}

// BlendLevel selects the fragment granularity weighted_blend selects by.
type BlendLevel string

const (
	BlendLevelParagraph BlendLevel = "paragraph"
	BlendLevelSection   BlendLevel = "section"
	BlendLevelDocument  BlendLevel = "document"
)

// IsValid reports whether the blend level is recognized.
func (b BlendLevel) IsValid() bool {
	switch b {
	case BlendLevelParagraph, BlendLevelSection, BlendLevelDocument:
		return true
	default:
		return false
	}
}
