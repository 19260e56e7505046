package events

import "testing"

func TestRunChannelFormat(t *testing.T) {
	if got, want := RunChannel("run-123"), "run:run-123"; got != want {
		t.Errorf("RunChannel() = %q, want %q", got, want)
	}
}

func TestGlobalRunsChannelIsStable(t *testing.T) {
	if GlobalRunsChannel != "runs" {
		t.Errorf("GlobalRunsChannel = %q, want %q", GlobalRunsChannel, "runs")
	}
}

func TestCancelChannelIsStable(t *testing.T) {
	if CancelChannel != "run_cancel" {
		t.Errorf("CancelChannel = %q, want %q", CancelChannel, "run_cancel")
	}
}
