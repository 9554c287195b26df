package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecomputePace(t *testing.T) {
	assert.Equal(t, 5.0, RecomputePace(0, 1800, 6))
	assert.Equal(t, 4.0, RecomputePace(7, 240, 1))
}

func TestRecomputePaceKeepsPreviousValue(t *testing.T) {
	assert.Equal(t, 0.0, RecomputePace(0, 0, 3))
	assert.Equal(t, 6.5, RecomputePace(6.5, 0, 3))
	assert.Equal(t, 6.5, RecomputePace(6.5, 600, 0))
	assert.Equal(t, 6.5, RecomputePace(6.5, 600, -1))
	assert.Equal(t, 6.5, RecomputePace(6.5, 600, math.NaN()))
}

func TestAddDistance(t *testing.T) {
	assert.Equal(t, 1.5, AddDistance(1, 0.5))
	assert.Equal(t, 1.0, AddDistance(1, 0))
	assert.Equal(t, 1.0, AddDistance(1, -0.3))
	assert.Equal(t, 1.0, AddDistance(1, math.NaN()))
	assert.Equal(t, 1.0, AddDistance(1, math.Inf(1)))
}
