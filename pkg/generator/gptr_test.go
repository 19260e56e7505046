package generator_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/codeready-toolchain/acm/pkg/generator"
	"github.com/stretchr/testify/require"
)

// gptrFixtureScript emulates the gpt-researcher CLI: it accepts
// --prompt-file/--report-type, writes a report next to the prompt file,
// and prints the terminal {path, model} JSON line spec.md §6.2 describes.
func gptrFixtureScript(t *testing.T, outFile string, exitCode int) string {
	t.Helper()
	script := filepath.Join(t.TempDir(), "gptr.sh")
	body := `#!/bin/sh
while [ "$#" -gt 0 ]; do
  case "$1" in
    --prompt-file) shift ;;
    --report-type) shift ;;
    *) ;;
  esac
  shift
done
echo "researched content" > "` + outFile + `"
echo '{"path":"` + outFile + `","model":"research-model"}'
exit ` + itoa(exitCode) + `
`
	require.NoError(t, os.WriteFile(script, []byte(body), 0o755))
	return script
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

func promptWriter(dir string) func(ctx context.Context, content []byte) (string, func(), error) {
	return func(_ context.Context, content []byte) (string, func(), error) {
		path := filepath.Join(dir, "prompt.txt")
		if err := os.WriteFile(path, content, 0o644); err != nil {
			return "", nil, err
		}
		return path, func() { _ = os.Remove(path) }, nil
	}
}

func TestGPTRAdapterGenerateSuccess(t *testing.T) {
	dir := t.TempDir()
	outFile := filepath.Join(dir, "report.md")
	script := gptrFixtureScript(t, outFile, 0)

	adapter := generator.NewGPTRAdapter("gptr", script, "research_report", promptWriter(dir), nil, newDiskStore(dir), 2, 2*time.Second, 5*time.Second, 200*time.Millisecond)

	var events []generator.EventType
	res, err := adapter.Generate(context.Background(), generator.Input{
		DocumentContent: []byte("source text"),
		Model:           "research-model",
	}, time.Now().Add(5*time.Second), func(e generator.ProgressEvent) { events = append(events, e.Type) })

	require.NoError(t, err)
	require.True(t, res.Success)
	require.Contains(t, string(res.Content), "researched content")
	require.Equal(t, "research-model", res.Metadata.Model)
	require.Contains(t, events, generator.EventCompleted)
}

func TestGPTRAdapterNonZeroExitSurfacesFailure(t *testing.T) {
	dir := t.TempDir()
	outFile := filepath.Join(dir, "report.md")
	script := gptrFixtureScript(t, outFile, 7)

	adapter := generator.NewGPTRAdapter("gptr", script, "research_report", promptWriter(dir), nil, newDiskStore(dir), 2, 2*time.Second, 5*time.Second, 200*time.Millisecond)

	res, err := adapter.Generate(context.Background(), generator.Input{
		DocumentContent: []byte("source text"),
	}, time.Now().Add(5*time.Second), nil)

	require.NoError(t, err)
	require.False(t, res.Success)
}

func TestGPTRAdapterSupportsIterationsIsFalse(t *testing.T) {
	adapter := generator.NewGPTRAdapter("gptr", "sh", "research_report", promptWriter(t.TempDir()), nil, nil, 2, time.Second, time.Second, 0)
	require.False(t, adapter.SupportsIterations())
}
