// Copyright © 2024 Ardentcraft.

package mathx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAABoxIntersects(t *testing.T) {
	a := NewAABox(V3(0, 0, 0), V3(1, 1, 1))
	b := NewAABox(V3(0.5, 0.5, 0.5), V3(2, 2, 2))
	c := NewAABox(V3(5, 5, 5), V3(6, 6, 6))
	assert.True(t, a.Intersects(b))
	assert.False(t, a.Intersects(c))
}

func TestAABoxContains(t *testing.T) {
	a := NewAABox(V3(0, 0, 0), V3(1, 1, 1))
	assert.True(t, a.Contains(V3(0, 0, 0)))
	assert.True(t, a.Contains(V3(1, 1, 1)))
	assert.False(t, a.Contains(V3(1.01, 0, 0)))
}

func TestAABoxMerge(t *testing.T) {
	a := NewAABox(V3(0, 0, 0), V3(1, 1, 1))
	b := NewAABox(V3(-1, -1, -1), V3(0.5, 0.5, 0.5))
	m := a.Merge(b)
	assert.Equal(t, V3(-1, -1, -1), m.Low)
	assert.Equal(t, V3(1, 1, 1), m.High)
}

func TestAABoxSquaredDistToPoint(t *testing.T) {
	a := NewAABox(V3(0, 0, 0), V3(1, 1, 1))
	assert.InDelta(t, 0.0, a.SquaredDistToPoint(V3(0.5, 0.5, 0.5)), 1e-12)
	assert.InDelta(t, 1.0, a.SquaredDistToPoint(V3(2, 0, 0)), 1e-9)
}
