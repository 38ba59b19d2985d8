// Copyright © 2024 Ardentcraft.

package geom

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSolveQuadraticTwoRoots(t *testing.T) {
	// t^2 - 3t + 2 = 0 -> roots 1, 2.
	t0, t1, ok := solveQuadratic(1, -3, 2)
	assert.True(t, ok)
	assert.InDelta(t, 1.0, t0, 1e-12)
	assert.InDelta(t, 2.0, t1, 1e-12)
}

func TestSolveQuadraticNoRealRoots(t *testing.T) {
	_, _, ok := solveQuadratic(1, 0, 1)
	assert.False(t, ok)
}

func TestSolveQuadraticLinearFallback(t *testing.T) {
	// a ~ 0: 2t - 4 = 0 -> t = 2.
	t0, t1, ok := solveQuadratic(0, 2, -4)
	assert.True(t, ok)
	assert.Equal(t, t0, t1)
	assert.InDelta(t, 2.0, t0, 1e-12)
}

func TestSolveQuadraticDegenerateNoEquation(t *testing.T) {
	_, _, ok := solveQuadratic(0, 0, 5)
	assert.False(t, ok)
}
