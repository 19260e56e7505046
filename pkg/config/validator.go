package config

import "fmt"

// Validator validates configuration comprehensively with clear error messages.
type Validator struct {
	cfg *Config
}

// NewValidator creates a validator for the given configuration.
func NewValidator(cfg *Config) *Validator {
	return &Validator{cfg: cfg}
}

// ValidateAll performs comprehensive validation (fail-fast — stops at the
// first error). Validated in dependency order: generators and judges
// first (named entities), then the sections that reference them by name.
func (v *Validator) ValidateAll() error {
	if err := v.validateGenerators(); err != nil {
		return fmt.Errorf("generator validation failed: %w", err)
	}
	if err := v.validateJudges(); err != nil {
		return fmt.Errorf("judge validation failed: %w", err)
	}
	if err := v.validateEvaluation(); err != nil {
		return fmt.Errorf("evaluation validation failed: %w", err)
	}
	if err := v.validatePairwise(); err != nil {
		return fmt.Errorf("pairwise validation failed: %w", err)
	}
	if err := v.validateCombiner(); err != nil {
		return fmt.Errorf("combiner validation failed: %w", err)
	}
	if err := v.validateConcurrency(); err != nil {
		return fmt.Errorf("concurrency validation failed: %w", err)
	}
	if err := v.validateBreaker(); err != nil {
		return fmt.Errorf("circuit breaker validation failed: %w", err)
	}
	if err := v.validateRunAbort(); err != nil {
		return fmt.Errorf("run abort validation failed: %w", err)
	}
	if err := v.validateWorker(); err != nil {
		return fmt.Errorf("worker validation failed: %w", err)
	}
	return nil
}

func (v *Validator) validateGenerators() error {
	if len(v.cfg.Generators) == 0 {
		return fmt.Errorf("%w: at least one generator must be configured", ErrMissingRequiredField)
	}
	for name, g := range v.cfg.Generators {
		if !g.Adapter.IsValid() {
			return NewValidationError("generator", name, "adapter", ErrInvalidValue)
		}
		if g.Model == "" {
			return NewValidationError("generator", name, "model", ErrMissingRequiredField)
		}
		if g.Iterations < 0 {
			return NewValidationError("generator", name, "iterations", ErrInvalidValue)
		}
		if g.KillAfter > 0 && g.Timeout > 0 && g.KillAfter < g.Timeout {
			return NewValidationError("generator", name, "kill_after",
				fmt.Errorf("%w: kill_after (%v) must be >= timeout (%v), retries happen above the kill boundary",
					ErrInvalidValue, g.KillAfter, g.Timeout))
		}
	}
	return nil
}

func (v *Validator) validateJudges() error {
	if len(v.cfg.Judges) == 0 {
		return fmt.Errorf("%w: at least one judge must be configured", ErrMissingRequiredField)
	}
	for name, j := range v.cfg.Judges {
		if !j.Provider.IsValid() {
			return NewValidationError("judge", name, "provider", ErrInvalidValue)
		}
		if j.Model == "" {
			return NewValidationError("judge", name, "model", ErrMissingRequiredField)
		}
		if j.Weight < 0 {
			return NewValidationError("judge", name, "weight", ErrInvalidValue)
		}
	}
	return nil
}

func (v *Validator) validateJudgeRefs(component string, names []string) error {
	for _, name := range names {
		if _, ok := v.cfg.Judges[name]; !ok {
			return NewValidationError(component, name, "judges",
				fmt.Errorf("%w: unknown judge %q", ErrInvalidReference, name))
		}
	}
	return nil
}

func (v *Validator) validateEvaluation() error {
	e := v.cfg.Evaluation
	if e.Iterations < 1 {
		return NewValidationError("evaluation", "", "iterations", ErrInvalidValue)
	}
	if len(e.Rubric) == 0 {
		return fmt.Errorf("%w: evaluation.rubric must define at least one criterion", ErrMissingRequiredField)
	}
	var totalWeight float64
	for _, c := range e.Rubric {
		if c.Name == "" {
			return NewValidationError("evaluation", "", "rubric", ErrMissingRequiredField)
		}
		if c.Weight < 0 {
			return NewValidationError("evaluation", c.Name, "weight", ErrInvalidValue)
		}
		totalWeight += c.Weight
	}
	if totalWeight <= 0 {
		return NewValidationError("evaluation", "", "rubric",
			fmt.Errorf("%w: criteria weights must sum to a positive number", ErrInvalidValue))
	}
	return v.validateJudgeRefs("evaluation", e.Judges)
}

func (v *Validator) validatePairwise() error {
	p := v.cfg.Pairwise
	if p.Enabled != nil && !*p.Enabled {
		return nil
	}
	if !p.Selection.IsValid() {
		return NewValidationError("pairwise", "", "selection", ErrInvalidValue)
	}
	if p.Selection == PairSelectionTopK && p.TopK < 1 {
		return NewValidationError("pairwise", "", "top_k", ErrInvalidValue)
	}
	if p.EloK <= 0 {
		return NewValidationError("pairwise", "", "elo_k", ErrInvalidValue)
	}
	return v.validateJudgeRefs("pairwise", p.Judges)
}

func (v *Validator) validateCombiner() error {
	c := v.cfg.Combiner
	if !c.Strategy.IsValid() {
		return NewValidationError("combiner", "", "strategy", ErrInvalidValue)
	}
	if c.TopNCount < 1 {
		return NewValidationError("combiner", "", "top_n_count", ErrInvalidValue)
	}
	if c.Strategy == CombineStrategyWeightedBlend && len(c.Weights) == 0 {
		return NewValidationError("combiner", "", "weights",
			fmt.Errorf("%w: weighted_blend requires at least one weight entry", ErrMissingRequiredField))
	}
	if c.Strategy == CombineStrategySectionAssembly && len(c.SectionOrder) == 0 {
		return NewValidationError("combiner", "", "section_order",
			fmt.Errorf("%w: section_assembly requires section_order", ErrMissingRequiredField))
	}
	if c.Strategy == CombineStrategyIntelligentMerge && c.MergePrompt == "" {
		return NewValidationError("combiner", "", "merge_prompt",
			fmt.Errorf("%w: intelligent_merge requires merge_prompt", ErrMissingRequiredField))
	}
	for _, s := range c.ExtraStrategies {
		if !s.IsValid() {
			return NewValidationError("combiner", "", "extra_strategies", ErrInvalidValue)
		}
	}
	return v.validateJudgeRefs("post_combine_eval", v.cfg.PostCombine.Judges)
}

func (v *Validator) validateConcurrency() error {
	c := v.cfg.Concurrency
	if c.Global < 1 {
		return NewValidationError("concurrency", "", "global", ErrInvalidValue)
	}
	if c.PerGenerator < 1 {
		return NewValidationError("concurrency", "", "per_generator", ErrInvalidValue)
	}
	if c.Eval < 1 {
		return NewValidationError("concurrency", "", "eval", ErrInvalidValue)
	}
	if c.Pairwise < 1 {
		return NewValidationError("concurrency", "", "pairwise", ErrInvalidValue)
	}
	return nil
}

func (v *Validator) validateBreaker() error {
	b := v.cfg.Breaker
	if b.ConsecutiveAuthErrors < 1 {
		return NewValidationError("circuit_breaker", "", "consecutive_auth_errors", ErrInvalidValue)
	}
	if b.ConsecutiveRateLimits < 1 {
		return NewValidationError("circuit_breaker", "", "consecutive_rate_limits", ErrInvalidValue)
	}
	if b.OpenDuration <= 0 {
		return NewValidationError("circuit_breaker", "", "open_duration", ErrInvalidValue)
	}
	return nil
}

func (v *Validator) validateRunAbort() error {
	r := v.cfg.RunAbort
	if r.SampleSize < 1 {
		return NewValidationError("run_abort", "", "sample_size", ErrInvalidValue)
	}
	if r.FailureRatio <= 0 || r.FailureRatio > 1 {
		return NewValidationError("run_abort", "", "failure_ratio", ErrInvalidValue)
	}
	return nil
}

func (v *Validator) validateWorker() error {
	w := v.cfg.Worker
	if w.PollInterval <= 0 {
		return NewValidationError("worker", "", "poll_interval", ErrInvalidValue)
	}
	if w.PollJitter >= w.PollInterval {
		return NewValidationError("worker", "", "poll_jitter",
			fmt.Errorf("%w: poll_jitter must be less than poll_interval", ErrInvalidValue))
	}
	if w.MaxConcurrentRuns < 1 {
		return NewValidationError("worker", "", "max_concurrent_runs", ErrInvalidValue)
	}
	if w.HeartbeatInterval <= 0 {
		return NewValidationError("worker", "", "heartbeat_interval", ErrInvalidValue)
	}
	if w.MissedHeartbeatMult < 1 {
		return NewValidationError("worker", "", "missed_heartbeat_factor", ErrInvalidValue)
	}
	return nil
}
