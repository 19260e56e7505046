package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentHashIsDeterministic(t *testing.T) {
	a := ContentHash([]byte("hello world"))
	b := ContentHash([]byte("hello world"))
	assert.Equal(t, a, b)
	assert.Contains(t, a, "sha256:")
}

func TestContentHashDiffersOnContentChange(t *testing.T) {
	a := ContentHash([]byte("hello world"))
	b := ContentHash([]byte("hello world!"))
	assert.NotEqual(t, a, b)
}

func TestConfigHashIgnoresKeyOrder(t *testing.T) {
	type cfg struct {
		Model      string `json:"model"`
		Iterations int    `json:"iterations"`
	}

	a, err := ConfigHash(map[string]any{"model": "gpt-5", "iterations": 3})
	require.NoError(t, err)

	b, err := ConfigHash(map[string]any{"iterations": 3, "model": "gpt-5"})
	require.NoError(t, err)

	assert.Equal(t, a, b, "field order must not affect the hash")

	c, err := ConfigHash(cfg{Model: "gpt-5", Iterations: 3})
	require.NoError(t, err)
	assert.Equal(t, a, c, "struct and map encodings of the same fields must agree")
}

func TestConfigHashChangesOnValueChange(t *testing.T) {
	a, err := ConfigHash(map[string]any{"model": "gpt-5"})
	require.NoError(t, err)

	b, err := ConfigHash(map[string]any{"model": "gpt-5.1"})
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestConfigHashHandlesNestedStructures(t *testing.T) {
	cfg := map[string]any{
		"model": "gpt-5",
		"params": map[string]any{
			"temperature": 0.2,
			"tags":        []any{"a", "b"},
		},
	}
	h1, err := ConfigHash(cfg)
	require.NoError(t, err)

	reordered := map[string]any{
		"params": map[string]any{
			"tags":        []any{"a", "b"},
			"temperature": 0.2,
		},
		"model": "gpt-5",
	}
	h2, err := ConfigHash(reordered)
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
}
