package config

import "time"

// Shared types used across configuration structs.

// GeneratorYAMLConfig describes one generator backend entry under the
// `generators:` key, per spec.md §4.2.
type GeneratorYAMLConfig struct {
	Adapter       AdapterKind    `yaml:"adapter" validate:"required"`
	Model         string         `yaml:"model" validate:"required"`
	Iterations    int            `yaml:"iterations,omitempty" validate:"omitempty,min=1"`
	Params        map[string]any `yaml:"params,omitempty"`
	MaxConcurrent int            `yaml:"max_concurrent,omitempty" validate:"omitempty,min=1"`
	MaxRetries    int            `yaml:"max_retries,omitempty" validate:"omitempty,min=0"`
	Timeout       time.Duration  `yaml:"timeout,omitempty"`
	KillAfter     time.Duration  `yaml:"kill_after,omitempty"`
	CommandEnv    []string       `yaml:"command_env,omitempty"`
}

// JudgeYAMLConfig describes one judge provider entry under the `judges:`
// key, per spec.md §4.3/§6.3.
type JudgeYAMLConfig struct {
	Provider  JudgeProviderType `yaml:"provider" validate:"required"`
	Model     string            `yaml:"model" validate:"required"`
	APIKeyEnv string            `yaml:"api_key_env,omitempty"`
	BaseURL   string            `yaml:"base_url,omitempty"`
	Weight    float64           `yaml:"weight,omitempty" validate:"omitempty,min=0"`
	Timeout   time.Duration     `yaml:"timeout,omitempty"`
}

// RubricCriterionYAMLConfig is one weighted scoring criterion in the
// single-document evaluation rubric.
type RubricCriterionYAMLConfig struct {
	Name   string  `yaml:"name" validate:"required"`
	Weight float64 `yaml:"weight" validate:"required,min=0"`
}

// EvaluationYAMLConfig configures the single-document evaluator, per
// spec.md §4.3.
type EvaluationYAMLConfig struct {
	Judges     []string                    `yaml:"judges,omitempty"`
	Iterations int                         `yaml:"iterations,omitempty" validate:"omitempty,min=1"`
	Rubric     []RubricCriterionYAMLConfig `yaml:"rubric,omitempty"`
}

// PairwiseYAMLConfig configures the pairwise/Elo phase, per spec.md §4.4.
type PairwiseYAMLConfig struct {
	Enabled         *bool                 `yaml:"enabled,omitempty"`
	Judges          []string              `yaml:"judges,omitempty"`
	Selection       PairSelectionStrategy `yaml:"selection,omitempty"`
	TopK            int                   `yaml:"top_k,omitempty" validate:"omitempty,min=1"`
	EloK            float64               `yaml:"elo_k,omitempty" validate:"omitempty,min=0"`
	EloInitialScore float64               `yaml:"elo_initial_score,omitempty"`
}

// CombinerYAMLConfig configures the combine phase, per spec.md §4.5. Only
// the fields relevant to the configured Strategy need be set; the rest
// are ignored.
type CombinerYAMLConfig struct {
	Strategy CombineStrategyName `yaml:"strategy" validate:"required"`
	Weights  map[string]float64  `yaml:"weights,omitempty"`

	// ExtraStrategies runs additional combine strategies over the same
	// top-N candidate set. Each produces its own CombinedOutput; when the
	// resulting combined set has N_combined >= 2 they are pairwise-ranked
	// in the document's "combined:<document_id>" Elo pool (spec.md §4.1
	// step 9) instead of just the primary Strategy's output being kept.
	ExtraStrategies []CombineStrategyName `yaml:"extra_strategies,omitempty"`

	// Top-N selection bounds for the ranked candidate pool entering combine
	// (spec.md §4.4): take up to TopNCount artifacts whose rank_score is at
	// or above TopNThreshold (normalized 0..1), always keep at least
	// TopNMin, never exceed TopNMax.
	TopNCount     int     `yaml:"top_n_count,omitempty" validate:"omitempty,min=1"`
	TopNThreshold float64 `yaml:"top_n_threshold,omitempty"`
	TopNMin       int     `yaml:"top_n_min,omitempty" validate:"omitempty,min=1"`
	TopNMax       int     `yaml:"top_n_max,omitempty" validate:"omitempty,min=1"`

	// IncludeSources appends a deduplicated references block when any
	// candidate carries web sources (spec.md §4.5 "Source aggregation").
	IncludeSources bool `yaml:"include_sources,omitempty"`

	// concatenate
	Separator     string `yaml:"separator,omitempty"`
	IncludeTOC    bool   `yaml:"include_toc,omitempty"`
	ArtifactOrder bool   `yaml:"artifact_order,omitempty"` // true = explicit artifact order; false = document order

	// best_of_n
	Metric       string     `yaml:"metric,omitempty"`
	TieBreaker   TieBreaker `yaml:"tie_breaker,omitempty"`
	MinimumScore float64    `yaml:"minimum_score,omitempty"`

	// section_assembly
	SectionOrder           []string                `yaml:"section_order,omitempty"`
	MissingSectionBehavior MissingSectionBehavior  `yaml:"missing_section_behavior,omitempty"`
	SectionHeaders         map[string]string       `yaml:"section_headers,omitempty"`

	// intelligent_merge
	MergePrompt      string `yaml:"merge_prompt,omitempty"`
	MergeModel       string `yaml:"merge_model,omitempty"`
	MaxTokens        int    `yaml:"max_tokens,omitempty" validate:"omitempty,min=1"`
	PreserveCitations bool  `yaml:"preserve_citations,omitempty"`

	// weighted_blend
	BlendLevel BlendLevel `yaml:"blend_level,omitempty"`
}

// PostCombineEvalYAMLConfig configures whether/how combined outputs are
// re-evaluated, per spec.md §9's resolved open question (always runs,
// configurable to skip).
type PostCombineEvalYAMLConfig struct {
	Enabled bool     `yaml:"enabled"`
	Judges  []string `yaml:"judges,omitempty"`
}

// ConcurrencyYAMLConfig configures the bounded semaphores of spec.md §5.
type ConcurrencyYAMLConfig struct {
	Global       int `yaml:"global,omitempty" validate:"omitempty,min=1"`
	PerGenerator int `yaml:"per_generator,omitempty" validate:"omitempty,min=1"`
	PerProvider  int `yaml:"per_provider,omitempty" validate:"omitempty,min=1"`
	Eval         int `yaml:"eval,omitempty" validate:"omitempty,min=1"`
	Pairwise     int `yaml:"pairwise,omitempty" validate:"omitempty,min=1"`
}

// CircuitBreakerYAMLConfig holds the provider health-gating settings of
// spec.md §7. They are loaded and validated, but pkg/judge's breakers do
// not read them; those trip at fixed thresholds (3 auth errors, 5 rate
// limits, 30s open).
type CircuitBreakerYAMLConfig struct {
	ConsecutiveAuthErrors int           `yaml:"consecutive_auth_errors,omitempty" validate:"omitempty,min=1"`
	ConsecutiveRateLimits int           `yaml:"consecutive_rate_limits,omitempty" validate:"omitempty,min=1"`
	OpenDuration          time.Duration `yaml:"open_duration,omitempty"`
}

// RunAbortYAMLConfig configures the run-level abort threshold of
// spec.md §7 ("50% failure rate over first 10 docs aborts run").
type RunAbortYAMLConfig struct {
	SampleSize   int     `yaml:"sample_size,omitempty" validate:"omitempty,min=1"`
	FailureRatio float64 `yaml:"failure_ratio,omitempty" validate:"omitempty,min=0,max=1"`
}

// DatabaseYAMLConfig configures the Postgres connection pool.
type DatabaseYAMLConfig struct {
	DSNEnv          string        `yaml:"dsn_env,omitempty"`
	MaxOpenConns    int           `yaml:"max_open_conns,omitempty" validate:"omitempty,min=1"`
	MaxIdleConns    int           `yaml:"max_idle_conns,omitempty" validate:"omitempty,min=0"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime,omitempty"`
}

// WorkerYAMLConfig configures the run-claiming worker pool, mirroring the
// teacher's QueueConfig shape adapted to runs instead of sessions.
type WorkerYAMLConfig struct {
	PollInterval        time.Duration `yaml:"poll_interval,omitempty"`
	PollJitter          time.Duration `yaml:"poll_jitter,omitempty"`
	MaxConcurrentRuns   int           `yaml:"max_concurrent_runs,omitempty" validate:"omitempty,min=1"`
	HeartbeatInterval   time.Duration `yaml:"heartbeat_interval,omitempty"`
	MissedHeartbeatMult int           `yaml:"missed_heartbeat_factor,omitempty" validate:"omitempty,min=1"`
	OrphanScanInterval  time.Duration `yaml:"orphan_scan_interval,omitempty"`
}

// ACMYAMLConfig is the top-level parsed shape of acm.yaml, before defaults
// are merged in and the config is validated.
type ACMYAMLConfig struct {
	Generators    map[string]GeneratorYAMLConfig `yaml:"generators"`
	Judges        map[string]JudgeYAMLConfig     `yaml:"judges"`
	Evaluation    *EvaluationYAMLConfig          `yaml:"evaluation"`
	Pairwise      *PairwiseYAMLConfig            `yaml:"pairwise"`
	Combiner      *CombinerYAMLConfig            `yaml:"combiner"`
	PostCombine   *PostCombineEvalYAMLConfig     `yaml:"post_combine_eval"`
	Concurrency   *ConcurrencyYAMLConfig         `yaml:"concurrency"`
	Breaker       *CircuitBreakerYAMLConfig      `yaml:"circuit_breaker"`
	RunAbort      *RunAbortYAMLConfig            `yaml:"run_abort"`
	Database      *DatabaseYAMLConfig            `yaml:"database"`
	Worker        *WorkerYAMLConfig              `yaml:"worker"`
	SkipUnchanged *bool                          `yaml:"skip_unchanged,omitempty"`
}
