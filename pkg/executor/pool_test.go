package executor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorkerPoolCancelRunUnknown(t *testing.T) {
	p := NewWorkerPool("pool-1", testWorkerDeps(), nil, 2)
	assert.False(t, p.CancelRun("does-not-exist"))
}

func TestWorkerPoolRegisterAndCancelRun(t *testing.T) {
	p := NewWorkerPool("pool-1", testWorkerDeps(), nil, 2)

	cancelled := false
	_, cancel := context.WithCancel(context.Background())
	p.RegisterRun("run-1", func() { cancelled = true; cancel() })

	assert.True(t, p.CancelRun("run-1"))
	assert.True(t, cancelled)
}

func TestWorkerPoolUnregisterRun(t *testing.T) {
	p := NewWorkerPool("pool-1", testWorkerDeps(), nil, 2)

	p.RegisterRun("run-1", func() {})
	p.UnregisterRun("run-1")

	assert.False(t, p.CancelRun("run-1"))
}

func TestWorkerPoolGetActiveRunIDs(t *testing.T) {
	p := NewWorkerPool("pool-1", testWorkerDeps(), nil, 2)

	p.RegisterRun("run-1", func() {})
	p.RegisterRun("run-2", func() {})

	ids := p.getActiveRunIDs()
	assert.ElementsMatch(t, []string{"run-1", "run-2"}, ids)
}

func TestNewWorkerPoolDefaultsWorkerCountToOne(t *testing.T) {
	p := NewWorkerPool("pool-1", testWorkerDeps(), nil, 0)
	assert.Equal(t, 1, p.workerCount)
}
