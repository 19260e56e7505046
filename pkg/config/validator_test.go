package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Generators: map[string]*GeneratorYAMLConfig{
			"fpf": {Adapter: AdapterKindFPF, Model: "gpt-5", Timeout: 0, KillAfter: 0},
		},
		Judges: map[string]*JudgeYAMLConfig{
			"openai-judge": {Provider: JudgeProviderOpenAI, Model: "gpt-5", Weight: 1},
		},
		Evaluation: EvaluationYAMLConfig{
			Iterations: 3,
			Judges:     []string{"openai-judge"},
			Rubric:     []RubricCriterionYAMLConfig{{Name: "accuracy", Weight: 1}},
		},
		Pairwise: PairwiseYAMLConfig{
			Judges:    []string{"openai-judge"},
			Selection: PairSelectionRoundRobin,
			EloK:      32,
		},
		Combiner: CombinerYAMLConfig{
			Strategy:  CombineStrategyBestOfN,
			TopNCount: 1,
			TopNMin:   1,
			TopNMax:   1,
		},
		PostCombine: PostCombineEvalYAMLConfig{Enabled: true},
		Concurrency: ConcurrencyYAMLConfig{Global: 16, PerGenerator: 4, Eval: 8, Pairwise: 4},
		Breaker:     CircuitBreakerYAMLConfig{ConsecutiveAuthErrors: 3, ConsecutiveRateLimits: 5, OpenDuration: 1},
		RunAbort:    RunAbortYAMLConfig{SampleSize: 10, FailureRatio: 0.5},
		Worker: WorkerYAMLConfig{
			PollInterval: 2, PollJitter: 0, MaxConcurrentRuns: 4,
			HeartbeatInterval: 1, MissedHeartbeatMult: 3,
		},
	}
}

func TestValidateAllAcceptsValidConfig(t *testing.T) {
	err := NewValidator(validConfig()).ValidateAll()
	require.NoError(t, err)
}

func TestValidateGeneratorsRejectsUnknownAdapter(t *testing.T) {
	cfg := validConfig()
	cfg.Generators["fpf"].Adapter = "not-a-real-adapter"

	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestValidateGeneratorsRejectsKillAfterBelowTimeout(t *testing.T) {
	cfg := validConfig()
	cfg.Generators["fpf"].Timeout = 10
	cfg.Generators["fpf"].KillAfter = 5

	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kill_after")
}

func TestValidateRejectsEmptyGenerators(t *testing.T) {
	cfg := validConfig()
	cfg.Generators = map[string]*GeneratorYAMLConfig{}

	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingRequiredField)
}

func TestValidateEvaluationRejectsUnknownJudgeReference(t *testing.T) {
	cfg := validConfig()
	cfg.Evaluation.Judges = []string{"does-not-exist"}

	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidReference)
}

func TestValidateEvaluationRejectsZeroWeightRubric(t *testing.T) {
	cfg := validConfig()
	cfg.Evaluation.Rubric = []RubricCriterionYAMLConfig{{Name: "accuracy", Weight: 0}}

	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestValidateCombinerRequiresWeightsForWeightedBlend(t *testing.T) {
	cfg := validConfig()
	cfg.Combiner.Strategy = CombineStrategyWeightedBlend
	cfg.Combiner.Weights = nil

	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingRequiredField)
}

func TestValidateCombinerRejectsUnknownExtraStrategy(t *testing.T) {
	cfg := validConfig()
	cfg.Combiner.ExtraStrategies = []CombineStrategyName{"not-a-real-strategy"}

	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestValidateWorkerRejectsJitterNotLessThanInterval(t *testing.T) {
	cfg := validConfig()
	cfg.Worker.PollJitter = cfg.Worker.PollInterval

	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "poll_jitter")
}

func TestValidatePairwiseSkippedWhenDisabled(t *testing.T) {
	cfg := validConfig()
	disabled := false
	cfg.Pairwise.Enabled = &disabled
	cfg.Pairwise.Selection = "garbage"

	err := NewValidator(cfg).ValidateAll()
	require.NoError(t, err)
}
