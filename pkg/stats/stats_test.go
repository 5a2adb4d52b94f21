package stats_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/itzzomkar/NavYatra/pkg/stats"
)

func TestMean(t *testing.T) {
	assert.Zero(t, stats.Mean(nil))
	assert.InDelta(t, 2.0, stats.Mean([]float64{1, 2, 3}), 1e-9)
}

func TestStdDev(t *testing.T) {
	assert.Zero(t, stats.StdDev(nil))
	assert.Zero(t, stats.StdDev([]float64{5}))
	// Population form: sqrt(mean of squared deviations).
	assert.InDelta(t, 2.0, stats.StdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9}), 1e-9)
}

func TestArgMax(t *testing.T) {
	assert.Equal(t, -1, stats.ArgMax(nil))
	assert.Equal(t, 2, stats.ArgMax([]float64{1, 3, 7, 2}))
	// Ties resolve to the lowest index.
	assert.Equal(t, 0, stats.ArgMax([]float64{7, 7, 7}))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.5, stats.Clamp(0.5, 0, 1))
	assert.Equal(t, 0.0, stats.Clamp(-3, 0, 1))
	assert.Equal(t, 1.0, stats.Clamp(9, 0, 1))
}
