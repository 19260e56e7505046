package executor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasPrefix(t *testing.T) {
	assert.True(t, hasPrefix("pod-123-worker-0", "pod-123"))
	assert.False(t, hasPrefix("pod-456-worker-0", "pod-123"))
	assert.False(t, hasPrefix("pod", "pod-123"))
	assert.True(t, hasPrefix("pod-123", ""))
}
