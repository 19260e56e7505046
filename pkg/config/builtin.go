package config

import "time"

// GetBuiltinGenerators returns the built-in generator presets shipped
// with acm, analogous to the teacher's GetBuiltinConfig() built-in
// agents/chains. User-defined generators in acm.yaml with the same name
// override these; new names are added alongside them.
func GetBuiltinGenerators() map[string]GeneratorYAMLConfig {
	return map[string]GeneratorYAMLConfig{
		"fpf": {
			Adapter:       AdapterKindFPF,
			Model:         "gpt-5",
			Iterations:    1,
			MaxConcurrent: 4,
			MaxRetries:    2,
			Timeout:       5 * time.Minute,
			KillAfter:     6 * time.Minute,
		},
		"gptr": {
			Adapter:       AdapterKindGPTR,
			Model:         "gpt-5",
			Iterations:    1,
			MaxConcurrent: 4,
			MaxRetries:    2,
			Timeout:       8 * time.Minute,
			KillAfter:     9 * time.Minute,
		},
	}
}

// GetBuiltinJudges returns the built-in judge presets shipped with acm.
func GetBuiltinJudges() map[string]JudgeYAMLConfig {
	return map[string]JudgeYAMLConfig{
		"openai-judge": {
			Provider:  JudgeProviderOpenAI,
			Model:     "gpt-5",
			APIKeyEnv: "OPENAI_API_KEY",
			Weight:    1.0,
			Timeout:   60 * time.Second,
		},
		"anthropic-judge": {
			Provider:  JudgeProviderAnthropic,
			Model:     "claude-opus-4",
			APIKeyEnv: "ANTHROPIC_API_KEY",
			Weight:    1.0,
			Timeout:   60 * time.Second,
		},
	}
}
