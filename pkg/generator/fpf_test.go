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

// fpfFixtureScript emulates fpf-cli: it reads and discards stdin, writes
// the given content to outFile, and prints a run_complete event. Grounded
// is controllable so tests can exercise the "exit 0 but ungrounded" path,
// which the adapter must reclassify as a missing-grounding retry.
func fpfFixtureScript(t *testing.T, outFile string, grounded bool) string {
	t.Helper()
	script := filepath.Join(t.TempDir(), "fpf.sh")
	body := `#!/bin/sh
cat >/dev/null
echo "hello from fpf" > "` + outFile + `"
echo '{"event":"run_complete","ok":true,"path":"` + outFile + `","model":"gpt-test","grounded":` + boolStr(grounded) + `,"reasoned":true,"input_tokens":10,"output_tokens":20}'
`
	require.NoError(t, os.WriteFile(script, []byte(body), 0o755))
	return script
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func TestFPFAdapterGenerateSuccess(t *testing.T) {
	dir := t.TempDir()
	outFile := filepath.Join(dir, "out.md")
	script := fpfFixtureScript(t, outFile, true)

	adapter := generator.NewFPFAdapter("fpf", "sh", []string{script}, nil, newDiskStore(dir), 2, 2*time.Second, 5*time.Second, 200*time.Millisecond)

	var events []generator.EventType
	res, err := adapter.Generate(context.Background(), generator.Input{
		DocumentTitle: "doc.md",
		Model:         "gpt-test",
		Iteration:     1,
		OutputDir:     dir,
	}, time.Now().Add(5*time.Second), func(e generator.ProgressEvent) { events = append(events, e.Type) })

	require.NoError(t, err)
	require.True(t, res.Success)
	require.Contains(t, string(res.Content), "hello from fpf")
	require.NotEmpty(t, res.ContentHash)
	require.Equal(t, "gpt-test", res.Metadata.Model)
	require.Contains(t, events, generator.EventCompleted)
}

func TestFPFAdapterRetriesOnMissingGroundingThenFails(t *testing.T) {
	dir := t.TempDir()
	outFile := filepath.Join(dir, "out.md")
	script := fpfFixtureScript(t, outFile, false) // always reports ungrounded

	adapter := generator.NewFPFAdapter("fpf", "sh", []string{script}, nil, newDiskStore(dir), 2, 2*time.Second, 10*time.Second, 200*time.Millisecond)

	res, err := adapter.Generate(context.Background(), generator.Input{
		DocumentTitle: "doc.md",
		Model:         "gpt-test",
		OutputDir:     dir,
	}, time.Now().Add(10*time.Second), nil)

	require.NoError(t, err)
	require.False(t, res.Success)
	require.Equal(t, generator.ErrorCodeGroundingMissing, res.ErrorCode)
}

func TestFPFAdapterHealthCheck(t *testing.T) {
	adapter := generator.NewFPFAdapter("fpf", "sh", []string{"-c", "exit 0"}, nil, nil, 2, time.Second, time.Second, 0)
	require.True(t, adapter.HealthCheck(context.Background()))
}
