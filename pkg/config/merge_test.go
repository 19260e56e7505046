package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeGeneratorsUserOverridesBuiltin(t *testing.T) {
	builtin := map[string]GeneratorYAMLConfig{
		"fpf": {Adapter: AdapterKindFPF, Model: "gpt-5"},
	}
	user := map[string]GeneratorYAMLConfig{
		"fpf":    {Adapter: AdapterKindFPF, Model: "gpt-5.1"},
		"custom": {Adapter: AdapterKindGPTR, Model: "gpt-5"},
	}

	merged := mergeGenerators(builtin, user)

	assert.Len(t, merged, 2)
	assert.Equal(t, "gpt-5.1", merged["fpf"].Model)
	assert.Equal(t, "gpt-5", merged["custom"].Model)
}

func TestMergeGeneratorsDefensiveCopy(t *testing.T) {
	builtin := map[string]GeneratorYAMLConfig{
		"fpf": {Adapter: AdapterKindFPF, Model: "gpt-5"},
	}
	merged := mergeGenerators(builtin, nil)
	merged["fpf"].Model = "mutated"

	assert.Equal(t, "gpt-5", builtin["fpf"].Model, "mutating the merged copy must not affect the source map")
}

func TestMergeJudgesUserOverridesBuiltin(t *testing.T) {
	builtin := map[string]JudgeYAMLConfig{
		"openai-judge": {Provider: JudgeProviderOpenAI, Model: "gpt-5"},
	}
	user := map[string]JudgeYAMLConfig{
		"openai-judge": {Provider: JudgeProviderOpenAI, Model: "gpt-5.1"},
	}

	merged := mergeJudges(builtin, user)

	assert.Len(t, merged, 1)
	assert.Equal(t, "gpt-5.1", merged["openai-judge"].Model)
}
