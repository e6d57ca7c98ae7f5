package optimize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProjectMonotoneBand_AlreadyFeasible(t *testing.T) {
	x := []float64{0.1, 0.2, 0.3, 0.4}
	got := projectMonotoneBand(x, 0.1, 0.6)
	assert.Equal(t, x, got)
}

func TestProjectMonotoneBand_PoolsViolators(t *testing.T) {
	// A decreasing pair pools to its mean.
	got := projectMonotoneBand([]float64{0.4, 0.2}, 0.0, 1.0)
	assert.InDeltaSlice(t, []float64{0.3, 0.3}, got, 1e-12)

	// Cascading pools.
	got = projectMonotoneBand([]float64{0.5, 0.3, 0.1}, 0.0, 1.0)
	assert.InDeltaSlice(t, []float64{0.3, 0.3, 0.3}, got, 1e-12)
}

func TestProjectMonotoneBand_ClampsToBounds(t *testing.T) {
	got := projectMonotoneBand([]float64{0.0, 0.2, 0.9}, 0.1, 0.6)
	assert.InDeltaSlice(t, []float64{0.1, 0.2, 0.6}, got, 1e-12)
}

func TestProjectMonotoneBand_OutputIsFeasible(t *testing.T) {
	inputs := [][]float64{
		{0.9, 0.1, 0.5, 0.2},
		{-1, 2, -1, 2},
		{0.35, 0.35, 0.35, 0.35},
		{0.6, 0.5, 0.4, 0.3},
	}
	for _, x := range inputs {
		got := projectMonotoneBand(x, 0.1, 0.6)
		assert.True(t, feasible(got, 0.1, 0.6, 1e-12), "projection of %v = %v not feasible", x, got)
	}
}

func TestProjectMonotoneBand_Idempotent(t *testing.T) {
	x := []float64{0.7, 0.1, 0.4, 0.9}
	once := projectMonotoneBand(x, 0.1, 0.6)
	twice := projectMonotoneBand(once, 0.1, 0.6)
	assert.InDeltaSlice(t, once, twice, 1e-12)
}

func TestFeasible(t *testing.T) {
	assert.True(t, feasible([]float64{0.1, 0.1, 0.6}, 0.1, 0.6, 1e-9))
	assert.False(t, feasible([]float64{0.1, 0.05}, 0.1, 0.6, 1e-9))  // below lower bound
	assert.False(t, feasible([]float64{0.3, 0.2}, 0.1, 0.6, 1e-9))   // decreasing
	assert.False(t, feasible([]float64{0.3, 0.65}, 0.1, 0.6, 1e-9))  // above upper bound
	assert.True(t, feasible([]float64{0.3, 0.3 - 1e-10}, 0.1, 0.6, 1e-9)) // within tolerance
}
