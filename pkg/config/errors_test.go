package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationErrorError(t *testing.T) {
	baseErr := errors.New("base error")

	tests := []struct {
		name     string
		err      *ValidationError
		contains []string
	}{
		{
			name: "full error",
			err:  NewValidationError("generator", "fpf", "model", baseErr),
			contains: []string{"generator", "fpf", "model", "base error"},
		},
		{
			name: "judge error",
			err:  NewValidationError("judge", "openai-judge", "weight", errors.New("invalid weight")),
			contains: []string{"judge", "openai-judge", "weight", "invalid weight"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errStr := tt.err.Error()
			for _, substr := range tt.contains {
				assert.Contains(t, errStr, substr)
			}
		})
	}
}

func TestValidationErrorUnwrap(t *testing.T) {
	baseErr := errors.New("base error")
	validationErr := NewValidationError("test", "test-id", "field", baseErr)

	assert.Equal(t, baseErr, validationErr.Unwrap())
	assert.True(t, errors.Is(validationErr, baseErr))
}

func TestLoadErrorError(t *testing.T) {
	loadErr := &LoadError{File: "acm.yaml", Err: errors.New("file not found")}
	errStr := loadErr.Error()
	assert.Contains(t, errStr, "failed to load")
	assert.Contains(t, errStr, "acm.yaml")
	assert.Contains(t, errStr, "file not found")
}

func TestLoadErrorUnwrap(t *testing.T) {
	baseErr := errors.New("base error")
	loadErr := &LoadError{File: "test.yaml", Err: baseErr}

	assert.Equal(t, baseErr, loadErr.Unwrap())
	assert.True(t, errors.Is(loadErr, baseErr))
}
