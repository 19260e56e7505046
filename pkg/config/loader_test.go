package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalACMYAML = `
generators:
  fpf:
    adapter: fpf
    model: gpt-5
    iterations: 2
judges:
  openai-judge:
    provider: openai
    model: gpt-5
    api_key_env: OPENAI_API_KEY
evaluation:
  judges: [openai-judge]
  rubric:
    - name: accuracy
      weight: 1
pairwise:
  judges: [openai-judge]
combiner:
  strategy: best_of_n
  top_n_count: 1
`

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "acm.yaml"), []byte(contents), 0o644))
	return dir
}

func TestInitializeLoadsAndValidatesMinimalConfig(t *testing.T) {
	dir := writeConfig(t, minimalACMYAML)

	cfg, err := Initialize(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Generators["fpf"].Iterations)
	assert.Equal(t, "gpt-5", cfg.Judges["openai-judge"].Model)
	// Built-in "gptr" generator and "anthropic-judge" judge still present.
	assert.Contains(t, cfg.Generators, "gptr")
	assert.Contains(t, cfg.Judges, "anthropic-judge")
}

func TestInitializeExpandsEnvVars(t *testing.T) {
	t.Setenv("ACM_TEST_MODEL", "gpt-5-turbo")
	dir := writeConfig(t, `
generators:
  fpf:
    adapter: fpf
    model: ${ACM_TEST_MODEL}
judges:
  openai-judge:
    provider: openai
    model: gpt-5
evaluation:
  judges: [openai-judge]
  rubric:
    - name: accuracy
      weight: 1
`)

	cfg, err := Initialize(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, "gpt-5-turbo", cfg.Generators["fpf"].Model)
}

func TestInitializeFailsOnMissingFile(t *testing.T) {
	dir := t.TempDir()

	_, err := Initialize(context.Background(), dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfigNotFound)
}

func TestInitializeFailsOnInvalidYAML(t *testing.T) {
	dir := writeConfig(t, "generators: [this is not a map")

	_, err := Initialize(context.Background(), dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidYAML)
}

func TestInitializeFailsValidationOnUnknownJudgeReference(t *testing.T) {
	dir := writeConfig(t, `
generators:
  fpf:
    adapter: fpf
    model: gpt-5
judges:
  openai-judge:
    provider: openai
    model: gpt-5
evaluation:
  judges: [does-not-exist]
  rubric:
    - name: accuracy
      weight: 1
`)

	_, err := Initialize(context.Background(), dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidReference)
}
