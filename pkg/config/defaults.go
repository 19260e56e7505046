package config

import "time"

// Defaults mirrors the teacher's system-wide Defaults struct, holding the
// fallback values applied when acm.yaml doesn't override them.
type Defaults struct {
	SkipUnchanged bool
	Evaluation    EvaluationYAMLConfig
	Pairwise      PairwiseYAMLConfig
	Combiner      CombinerYAMLConfig
	PostCombine   PostCombineEvalYAMLConfig
	Concurrency   ConcurrencyYAMLConfig
	Breaker       CircuitBreakerYAMLConfig
	RunAbort      RunAbortYAMLConfig
	Database      DatabaseYAMLConfig
	Worker        WorkerYAMLConfig
}

// DefaultConfig returns the built-in system-wide defaults, used as the
// base that acm.yaml's top-level (non-generator, non-judge) sections are
// deep-merged onto via dario.cat/mergo.
func DefaultConfig() *Defaults {
	return &Defaults{
		SkipUnchanged: true,
		Evaluation: EvaluationYAMLConfig{
			Iterations: 3,
			Rubric: []RubricCriterionYAMLConfig{
				{Name: "accuracy", Weight: 0.30},
				{Name: "completeness", Weight: 0.25},
				{Name: "clarity", Weight: 0.20},
				{Name: "relevance", Weight: 0.15},
				{Name: "formatting", Weight: 0.10},
			},
		},
		Pairwise: PairwiseYAMLConfig{
			Selection:       PairSelectionRoundRobin,
			TopK:            3,
			EloK:            32,
			EloInitialScore: 1500,
		},
		Combiner: CombinerYAMLConfig{
			Strategy:      CombineStrategyBestOfN,
			TopNCount:     1,
			TopNThreshold: 0,
			TopNMin:       1,
			TopNMax:       1,
		},
		PostCombine: PostCombineEvalYAMLConfig{
			Enabled: true,
		},
		Concurrency: ConcurrencyYAMLConfig{
			Global:       4,
			PerGenerator: 2,
			PerProvider:  3,
			Eval:         4,
			Pairwise:     4,
		},
		Breaker: CircuitBreakerYAMLConfig{
			ConsecutiveAuthErrors: 3,
			ConsecutiveRateLimits: 5,
			OpenDuration:          2 * time.Minute,
		},
		RunAbort: RunAbortYAMLConfig{
			SampleSize:   10,
			FailureRatio: 0.5,
		},
		Database: DatabaseYAMLConfig{
			DSNEnv:          "ACM_DATABASE_DSN",
			MaxOpenConns:    20,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Worker: WorkerYAMLConfig{
			PollInterval:        2 * time.Second,
			PollJitter:          500 * time.Millisecond,
			MaxConcurrentRuns:   4,
			HeartbeatInterval:   15 * time.Second,
			MissedHeartbeatMult: 3,
			OrphanScanInterval:  1 * time.Minute,
		},
	}
}
