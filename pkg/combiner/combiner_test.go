package combiner_test

import (
	"context"
	"testing"
	"time"

	"github.com/codeready-toolchain/acm/pkg/combiner"
	"github.com/codeready-toolchain/acm/pkg/config"
	"github.com/stretchr/testify/require"
)

func TestConcatenateJoinsInArtifactOrder(t *testing.T) {
	strategy, err := combiner.New(config.CombineStrategyConcatenate, nil, 0)
	require.NoError(t, err)

	candidates := []combiner.Candidate{
		{ArtifactID: "b", Order: 2, Content: "second"},
		{ArtifactID: "a", Order: 1, Content: "first"},
	}
	res, err := combiner.Run(context.Background(), strategy, candidates, config.CombinerYAMLConfig{
		Strategy: config.CombineStrategyConcatenate, ArtifactOrder: true, Separator: "\n--\n",
	})
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, "first\n--\nsecond", res.CombinedContent)
	require.Equal(t, []string{"a", "b"}, res.SourceArtifactIDs)
}

func TestBestOfNPicksHighestScoreAboveThreshold(t *testing.T) {
	strategy, err := combiner.New(config.CombineStrategyBestOfN, nil, 0)
	require.NoError(t, err)

	candidates := []combiner.Candidate{
		{ArtifactID: "low", Score: 2, Content: "weak"},
		{ArtifactID: "high", Score: 9, Content: "strong"},
	}
	res, err := combiner.Run(context.Background(), strategy, candidates, config.CombinerYAMLConfig{
		Strategy: config.CombineStrategyBestOfN, MinimumScore: 1, TieBreaker: config.TieBreakerFirst,
	})
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, "strong", res.CombinedContent)
	require.Equal(t, []string{"high"}, res.SourceArtifactIDs)
}

func TestBestOfNFailsWhenNoCandidateMeetsMinimum(t *testing.T) {
	strategy, err := combiner.New(config.CombineStrategyBestOfN, nil, 0)
	require.NoError(t, err)

	candidates := []combiner.Candidate{{ArtifactID: "a", Score: 1, Content: "weak"}}
	res, err := combiner.Run(context.Background(), strategy, candidates, config.CombinerYAMLConfig{
		Strategy: config.CombineStrategyBestOfN, MinimumScore: 5,
	})
	require.NoError(t, err)
	require.False(t, res.Success)
	require.NotEmpty(t, res.Warnings)
}

func TestSectionAssemblyErrorsOnMissingRequiredSection(t *testing.T) {
	strategy, err := combiner.New(config.CombineStrategySectionAssembly, nil, 0)
	require.NoError(t, err)

	candidates := []combiner.Candidate{{ArtifactID: "a", Sections: map[string]string{"intro": "hello"}}}
	_, err = combiner.Run(context.Background(), strategy, candidates, config.CombinerYAMLConfig{
		Strategy: config.CombineStrategySectionAssembly, SectionOrder: []string{"intro", "conclusion"},
		MissingSectionBehavior: config.MissingSectionError,
	})
	require.Error(t, err)
}

func TestSectionAssemblyPlaceholdersMissingSection(t *testing.T) {
	strategy, err := combiner.New(config.CombineStrategySectionAssembly, nil, 0)
	require.NoError(t, err)

	candidates := []combiner.Candidate{{ArtifactID: "a", Sections: map[string]string{"intro": "hello"}}}
	res, err := combiner.Run(context.Background(), strategy, candidates, config.CombinerYAMLConfig{
		Strategy: config.CombineStrategySectionAssembly, SectionOrder: []string{"intro", "conclusion"},
		MissingSectionBehavior: config.MissingSectionPlaceholder,
	})
	require.NoError(t, err)
	require.Contains(t, res.CombinedContent, "hello")
	require.Contains(t, res.CombinedContent, "not available")
}

func TestWeightedBlendDropsFragmentsBelowMinimumScore(t *testing.T) {
	strategy, err := combiner.New(config.CombineStrategyWeightedBlend, nil, 0)
	require.NoError(t, err)

	candidates := []combiner.Candidate{
		{ArtifactID: "a", Score: 2, Content: "skip me"},
		{ArtifactID: "b", Score: 8, Content: "keep me"},
	}
	res, err := combiner.Run(context.Background(), strategy, candidates, config.CombinerYAMLConfig{
		Strategy: config.CombineStrategyWeightedBlend, BlendLevel: config.BlendLevelDocument, MinimumScore: 5,
	})
	require.NoError(t, err)
	require.Equal(t, "keep me", res.CombinedContent)
}

func TestDedupSourcesNormalizesURL(t *testing.T) {
	candidates := []combiner.Candidate{
		{ArtifactID: "a", Sources: []combiner.Source{{URI: "https://Example.com/page/", Title: "Page"}}},
		{ArtifactID: "b", Sources: []combiner.Source{{URI: "https://example.com/page", Title: "Page dup"}}},
	}
	sources := combiner.DedupSources(candidates)
	require.Len(t, sources, 1)
}

type scriptedMerger struct {
	name     string
	response string
}

func (s *scriptedMerger) Name() string { return s.name }

func (s *scriptedMerger) Complete(_ context.Context, _, _ string, _ float64, _ time.Duration) (string, error) {
	return s.response, nil
}

func TestIntelligentMergeCallsLLMAndSetsMergeCost(t *testing.T) {
	merger := &scriptedMerger{name: "merge-model", response: "synthesized document"}
	strategy, err := combiner.New(config.CombineStrategyIntelligentMerge, merger, time.Second)
	require.NoError(t, err)

	candidates := []combiner.Candidate{
		{ArtifactID: "a", Content: "draft one"},
		{ArtifactID: "b", Content: "draft two"},
	}
	res, err := combiner.Run(context.Background(), strategy, candidates, config.CombinerYAMLConfig{
		Strategy: config.CombineStrategyIntelligentMerge, MergePrompt: "Combine these.",
	})
	require.NoError(t, err)
	require.Equal(t, "synthesized document", res.CombinedContent)
	require.NotNil(t, res.Metrics.MergeCost)
	require.Greater(t, *res.Metrics.MergeCost, 0.0)
}

func TestNewIntelligentMergeRequiresCaller(t *testing.T) {
	_, err := combiner.New(config.CombineStrategyIntelligentMerge, nil, 0)
	require.Error(t, err)
}
