package config

// Config is the umbrella configuration object produced by Initialize()
// and threaded through the executor, generator, judge, evaluator,
// pairwise and combiner packages.
type Config struct {
	configDir string

	Generators  map[string]*GeneratorYAMLConfig
	Judges      map[string]*JudgeYAMLConfig
	Evaluation  EvaluationYAMLConfig
	Pairwise    PairwiseYAMLConfig
	Combiner    CombinerYAMLConfig
	PostCombine PostCombineEvalYAMLConfig
	Concurrency ConcurrencyYAMLConfig
	Breaker     CircuitBreakerYAMLConfig
	RunAbort    RunAbortYAMLConfig
	Database    DatabaseYAMLConfig
	Worker      WorkerYAMLConfig

	SkipUnchanged bool
}

// Stats summarizes the loaded configuration for startup logging.
type Stats struct {
	Generators int
	Judges     int
}

// Stats returns configuration statistics for logging/monitoring.
func (c *Config) Stats() Stats {
	return Stats{
		Generators: len(c.Generators),
		Judges:     len(c.Judges),
	}
}

// ConfigDir returns the configuration directory path.
func (c *Config) ConfigDir() string {
	return c.configDir
}

// GetGenerator retrieves a generator configuration by name.
func (c *Config) GetGenerator(name string) (*GeneratorYAMLConfig, error) {
	g, ok := c.Generators[name]
	if !ok {
		return nil, &ValidationError{Component: "generator", ID: name, Err: ErrGeneratorNotFound}
	}
	return g, nil
}

// GetJudge retrieves a judge configuration by name.
func (c *Config) GetJudge(name string) (*JudgeYAMLConfig, error) {
	j, ok := c.Judges[name]
	if !ok {
		return nil, &ValidationError{Component: "judge", ID: name, Err: ErrJudgeNotFound}
	}
	return j, nil
}
