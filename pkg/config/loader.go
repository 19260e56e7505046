package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// Initialize loads, validates, and returns ready-to-use configuration.
// This is the primary entry point for configuration loading.
//
// Steps performed:
//  1. Load acm.yaml from configDir
//  2. Expand environment variables
//  3. Parse YAML into structs
//  4. Merge built-in + user-defined generators and judges
//  5. Deep-merge user overrides onto system-wide defaults
//  6. Validate all configuration
//  7. Return Config ready for use
func Initialize(ctx context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("initializing configuration")

	cfg, err := load(ctx, configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	stats := cfg.Stats()
	log.Info("configuration initialized successfully",
		"generators", stats.Generators,
		"judges", stats.Judges)

	return cfg, nil
}

func load(_ context.Context, configDir string) (*Config, error) {
	loader := &configLoader{configDir: configDir}

	yamlCfg, err := loader.loadACMYAML()
	if err != nil {
		return nil, NewLoadError("acm.yaml", err)
	}

	builtinGenerators := GetBuiltinGenerators()
	builtinJudges := GetBuiltinJudges()

	generators := mergeGenerators(builtinGenerators, yamlCfg.Generators)
	judges := mergeJudges(builtinJudges, yamlCfg.Judges)

	defaults := DefaultConfig()

	evaluation := defaults.Evaluation
	if yamlCfg.Evaluation != nil {
		if err := mergo.Merge(&evaluation, yamlCfg.Evaluation, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge evaluation config: %w", err)
		}
	}

	pairwise := defaults.Pairwise
	if yamlCfg.Pairwise != nil {
		if err := mergo.Merge(&pairwise, yamlCfg.Pairwise, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge pairwise config: %w", err)
		}
	}

	combiner := defaults.Combiner
	if yamlCfg.Combiner != nil {
		if err := mergo.Merge(&combiner, yamlCfg.Combiner, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge combiner config: %w", err)
		}
	}

	postCombine := defaults.PostCombine
	if yamlCfg.PostCombine != nil {
		postCombine = *yamlCfg.PostCombine
	}

	concurrency := defaults.Concurrency
	if yamlCfg.Concurrency != nil {
		if err := mergo.Merge(&concurrency, yamlCfg.Concurrency, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge concurrency config: %w", err)
		}
	}

	breaker := defaults.Breaker
	if yamlCfg.Breaker != nil {
		if err := mergo.Merge(&breaker, yamlCfg.Breaker, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge circuit breaker config: %w", err)
		}
	}

	runAbort := defaults.RunAbort
	if yamlCfg.RunAbort != nil {
		if err := mergo.Merge(&runAbort, yamlCfg.RunAbort, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge run abort config: %w", err)
		}
	}

	database := defaults.Database
	if yamlCfg.Database != nil {
		if err := mergo.Merge(&database, yamlCfg.Database, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge database config: %w", err)
		}
	}

	worker := defaults.Worker
	if yamlCfg.Worker != nil {
		if err := mergo.Merge(&worker, yamlCfg.Worker, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge worker config: %w", err)
		}
	}

	skipUnchanged := defaults.SkipUnchanged
	if yamlCfg.SkipUnchanged != nil {
		skipUnchanged = *yamlCfg.SkipUnchanged
	}

	return &Config{
		configDir:     configDir,
		Generators:    generators,
		Judges:        judges,
		Evaluation:    evaluation,
		Pairwise:      pairwise,
		Combiner:      combiner,
		PostCombine:   postCombine,
		Concurrency:   concurrency,
		Breaker:       breaker,
		RunAbort:      runAbort,
		Database:      database,
		Worker:        worker,
		SkipUnchanged: skipUnchanged,
	}, nil
}

// validate performs comprehensive validation on loaded configuration.
func validate(cfg *Config) error {
	v := NewValidator(cfg)
	return v.ValidateAll()
}

type configLoader struct {
	configDir string
}

func (l *configLoader) loadYAML(filename string, target any) error {
	path := filepath.Join(l.configDir, filename)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return err
	}

	// Expand ${VAR}/$VAR references before parsing so credentials and
	// endpoints can live in the environment rather than in acm.yaml.
	data = ExpandEnv(data)

	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	return nil
}

func (l *configLoader) loadACMYAML() (*ACMYAMLConfig, error) {
	cfg := &ACMYAMLConfig{
		Generators: make(map[string]GeneratorYAMLConfig),
		Judges:     make(map[string]JudgeYAMLConfig),
	}

	if err := l.loadYAML("acm.yaml", cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
