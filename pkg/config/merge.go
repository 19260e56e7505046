package config

// mergeGenerators merges built-in and user-defined generator configurations.
// User-defined generators override built-in generators with the same name.
func mergeGenerators(builtin, user map[string]GeneratorYAMLConfig) map[string]*GeneratorYAMLConfig {
	result := make(map[string]*GeneratorYAMLConfig, len(builtin)+len(user))

	for name, g := range builtin {
		gCopy := g
		result[name] = &gCopy
	}
	for name, g := range user {
		gCopy := g
		result[name] = &gCopy
	}
	return result
}

// mergeJudges merges built-in and user-defined judge configurations.
// User-defined judges override built-in judges with the same name.
func mergeJudges(builtin, user map[string]JudgeYAMLConfig) map[string]*JudgeYAMLConfig {
	result := make(map[string]*JudgeYAMLConfig, len(builtin)+len(user))

	for name, j := range builtin {
		jCopy := j
		result[name] = &jCopy
	}
	for name, j := range user {
		jCopy := j
		result[name] = &jCopy
	}
	return result
}
