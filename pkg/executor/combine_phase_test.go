package executor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/codeready-toolchain/acm/pkg/models"
)

func TestAggregateStdevEmpty(t *testing.T) {
	assert.Equal(t, 0.0, aggregateStdev(nil))
}

func TestAggregateStdevAveragesAcrossCriteria(t *testing.T) {
	results := []models.EvalResult{
		{Criteria: models.JSONCriteria{{Stdev: 1.0}, {Stdev: 3.0}}},
		{Criteria: models.JSONCriteria{{Stdev: 2.0}}},
	}
	// (1.0 + 3.0 + 2.0) / 3
	assert.InDelta(t, 2.0, aggregateStdev(results), 0.0001)
}

func TestAggregateStdevIgnoresResultsWithNoCriteria(t *testing.T) {
	results := []models.EvalResult{{Criteria: nil}}
	assert.Equal(t, 0.0, aggregateStdev(results))
}
