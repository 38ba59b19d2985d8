// Copyright © 2024 Ardentcraft.

package geom

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ardentcraft/worldphys/mathx"
)

func TestIntersectCapsuleTriangleOverlapping(t *testing.T) {
	tri := flatTriangle()
	cap := Capsule{P0: mathx.V3(1, 1, 0.3), P1: mathx.V3(1, 1, 1.3), Radius: 0.5}
	hit, ok := IntersectCapsuleTriangle(cap, tri)
	assert.True(t, ok)
	assert.InDelta(t, 0.2, hit.Depth, 1e-9)
	assert.InDelta(t, 1.0, hit.Normal.Z(), 1e-9)
	assert.Equal(t, RegionCap0, hit.Region)
}

func TestIntersectCapsuleTriangleRegionSide(t *testing.T) {
	tri := flatTriangle()
	cap := Capsule{P0: mathx.V3(1, 1, -1), P1: mathx.V3(1, 1, 1), Radius: 0.5}
	hit, ok := IntersectCapsuleTriangle(cap, tri)
	assert.True(t, ok)
	assert.Equal(t, RegionSide, hit.Region)
}

func TestIntersectCapsuleTriangleTooFar(t *testing.T) {
	tri := flatTriangle()
	cap := Capsule{P0: mathx.V3(1, 1, 5), P1: mathx.V3(1, 1, 6), Radius: 0.5}
	_, ok := IntersectCapsuleTriangle(cap, tri)
	assert.False(t, ok)
}

func TestIntersectCapsuleTriangleSingleSidedRejectsBackface(t *testing.T) {
	tri := flatTriangle() // normal points +Z for winding A,B,C.
	cap := Capsule{P0: mathx.V3(1, 1, -0.3), P1: mathx.V3(1, 1, -1.3), Radius: 0.5}
	_, ok := IntersectCapsuleTriangle(cap, tri)
	assert.False(t, ok)
}

func TestIntersectCapsuleTriangleDoubleSidedAcceptsBackface(t *testing.T) {
	tri := flatTriangle()
	tri.DoubleSided = true
	cap := Capsule{P0: mathx.V3(1, 1, -0.3), P1: mathx.V3(1, 1, -1.3), Radius: 0.5}
	hit, ok := IntersectCapsuleTriangle(cap, tri)
	assert.True(t, ok)
	assert.InDelta(t, -1.0, hit.Normal.Z(), 1e-9)
}

func TestIntersectSphereTriangle(t *testing.T) {
	tri := flatTriangle()
	hit, ok := IntersectSphereTriangle(mathx.V3(1, 1, 0.4), 0.5, tri)
	assert.True(t, ok)
	assert.InDelta(t, 0.1, hit.Depth, 1e-9)
}
