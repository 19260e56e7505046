package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigGetGeneratorNotFound(t *testing.T) {
	cfg := &Config{Generators: map[string]*GeneratorYAMLConfig{}}

	_, err := cfg.GetGenerator("missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGeneratorNotFound)
}

func TestConfigGetGeneratorFound(t *testing.T) {
	cfg := &Config{Generators: map[string]*GeneratorYAMLConfig{
		"fpf": {Adapter: AdapterKindFPF, Model: "gpt-5"},
	}}

	g, err := cfg.GetGenerator("fpf")
	require.NoError(t, err)
	assert.Equal(t, "gpt-5", g.Model)
}

func TestConfigGetJudgeNotFound(t *testing.T) {
	cfg := &Config{Judges: map[string]*JudgeYAMLConfig{}}

	_, err := cfg.GetJudge("missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrJudgeNotFound)
}

func TestConfigStats(t *testing.T) {
	cfg := &Config{
		Generators: map[string]*GeneratorYAMLConfig{"fpf": {}, "gptr": {}},
		Judges:     map[string]*JudgeYAMLConfig{"openai-judge": {}},
	}

	stats := cfg.Stats()
	assert.Equal(t, 2, stats.Generators)
	assert.Equal(t, 1, stats.Judges)
}
