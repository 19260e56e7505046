package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandEnvSubstitutesBraceSyntax(t *testing.T) {
	t.Setenv("ACM_TEST_KEY", "secret-value")
	out := ExpandEnv([]byte("api_key_env: ${ACM_TEST_KEY}"))
	assert.Equal(t, "api_key_env: secret-value", string(out))
}

func TestExpandEnvSubstitutesShellSyntax(t *testing.T) {
	t.Setenv("ACM_TEST_KEY", "secret-value")
	out := ExpandEnv([]byte("api_key_env: $ACM_TEST_KEY"))
	assert.Equal(t, "api_key_env: secret-value", string(out))
}

func TestExpandEnvMissingVariableBecomesEmpty(t *testing.T) {
	out := ExpandEnv([]byte("value: ${ACM_DOES_NOT_EXIST}"))
	assert.Equal(t, "value: ", string(out))
}
