package executor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/codeready-toolchain/acm/pkg/config"
	"github.com/codeready-toolchain/acm/pkg/models"
)

func TestFinalStatusAborted(t *testing.T) {
	status := finalStatus(&models.RunProgress{TotalDocuments: 10, CompletedCount: 3, FailedCount: 1}, true)
	assert.Equal(t, models.RunStatusFailed, status)
}

func TestFinalStatusAllSucceeded(t *testing.T) {
	status := finalStatus(&models.RunProgress{TotalDocuments: 5, CompletedCount: 5}, false)
	assert.Equal(t, models.RunStatusCompleted, status)
}

func TestFinalStatusAllFailed(t *testing.T) {
	status := finalStatus(&models.RunProgress{TotalDocuments: 5, FailedCount: 5}, false)
	assert.Equal(t, models.RunStatusFailed, status)
}

func TestFinalStatusPartialFailure(t *testing.T) {
	status := finalStatus(&models.RunProgress{TotalDocuments: 5, CompletedCount: 3, FailedCount: 2}, false)
	assert.Equal(t, models.RunStatusPartialFailure, status)
}

func TestCheckAbortThresholdDisabledWhenUnconfigured(t *testing.T) {
	e := &Executor{deps: &Deps{Config: &config.Config{RunAbort: config.RunAbortYAMLConfig{}}}}

	tripped, reason := e.checkAbortThreshold(t.Context(), &models.Run{ID: "run-1"})
	assert.False(t, tripped)
	assert.Empty(t, reason)
}

func TestNewIDHasPrefix(t *testing.T) {
	id := newID("eval")
	assert.True(t, strings.HasPrefix(id, "eval-"))
}
