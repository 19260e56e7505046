package subprocess_test

import (
	"context"
	"testing"
	"time"

	"github.com/codeready-toolchain/acm/pkg/subprocess"
	"github.com/stretchr/testify/require"
)

func TestRunSucceedsOnFirstAttempt(t *testing.T) {
	cfg := subprocess.Config{
		Command:           "echo",
		Args:              []string{"hello"},
		PerAttemptTimeout: time.Second,
		TotalTimeout:      5 * time.Second,
		MaxRetries:        1,
		HeartbeatInterval: time.Minute,
	}

	res, err := subprocess.Run(context.Background(), cfg, nil)
	require.NoError(t, err)
	require.Equal(t, 0, res.ExitCode)
	require.Equal(t, 1, res.Attempts)
	require.Contains(t, string(res.Stdout), "hello")
}

func TestRunRetriesTransientFailureUntilMaxRetries(t *testing.T) {
	// "false" always exits 1; with FPFClassifier that is treated as
	// transient and retried until max_retries is exhausted, which lets us
	// assert the retry count without needing a stateful fixture script.
	cfg := subprocess.Config{
		Command:           "false",
		PerAttemptTimeout: time.Second,
		TotalTimeout:      5 * time.Second,
		MaxRetries:        3,
		HeartbeatInterval: time.Minute,
		Classify:          subprocess.FPFClassifier,
	}

	res, err := subprocess.Run(context.Background(), cfg, nil)
	require.Error(t, err)
	require.Equal(t, 3, res.Attempts)
	require.Equal(t, 2, res.RetriedCount)
}

func TestRunDoesNotRetryNonTransientFailure(t *testing.T) {
	cfg := subprocess.Config{
		Command:           "sh",
		Args:              []string{"-c", "exit 9"},
		PerAttemptTimeout: time.Second,
		TotalTimeout:      5 * time.Second,
		MaxRetries:        3,
		HeartbeatInterval: time.Minute,
		Classify:          subprocess.FPFClassifier,
	}

	res, err := subprocess.Run(context.Background(), cfg, nil)
	require.Error(t, err)
	require.Equal(t, 1, res.Attempts)
	require.Equal(t, 9, res.ExitCode)
}

func TestRunKillsOnPerAttemptTimeout(t *testing.T) {
	cfg := subprocess.Config{
		Command:           "sleep",
		Args:              []string{"5"},
		PerAttemptTimeout: 200 * time.Millisecond,
		TotalTimeout:      400 * time.Millisecond,
		KillGrace:         50 * time.Millisecond,
		MaxRetries:        1,
		HeartbeatInterval: time.Minute,
	}

	start := time.Now()
	_, err := subprocess.Run(context.Background(), cfg, nil)
	require.Error(t, err)
	require.Less(t, time.Since(start), 2*time.Second)
}

func TestRunCapturesProgressLines(t *testing.T) {
	cfg := subprocess.Config{
		Command:           "sh",
		Args:              []string{"-c", "echo line1; echo line2"},
		PerAttemptTimeout: time.Second,
		TotalTimeout:      5 * time.Second,
		MaxRetries:        1,
		HeartbeatInterval: time.Minute,
	}

	var lines []string
	_, err := subprocess.Run(context.Background(), cfg, func(line string) {
		lines = append(lines, line)
	})
	require.NoError(t, err)
	require.Equal(t, []string{"line1", "line2"}, lines)
}
