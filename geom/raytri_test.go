// Copyright © 2024 Ardentcraft.

package geom

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ardentcraft/worldphys/mathx"
)

func TestIntersectRayTriangleHitsCenter(t *testing.T) {
	tri := flatTriangle()
	tt, _, _, ok := IntersectRayTriangle(mathx.V3(1, 1, 5), mathx.V3(0, 0, -1), tri)
	assert.True(t, ok)
	assert.InDelta(t, 5.0, tt, 1e-9)
}

func TestIntersectRayTriangleMissesOutsideEdges(t *testing.T) {
	tri := flatTriangle()
	_, _, _, ok := IntersectRayTriangle(mathx.V3(10, 10, 5), mathx.V3(0, 0, -1), tri)
	assert.False(t, ok)
}

func TestIntersectRayTriangleSingleSidedRejectsBackface(t *testing.T) {
	tri := flatTriangle()
	_, _, _, ok := IntersectRayTriangle(mathx.V3(1, 1, -5), mathx.V3(0, 0, 1), tri)
	assert.False(t, ok)
}

func TestIntersectRayTriangleDoubleSidedAcceptsBackface(t *testing.T) {
	tri := flatTriangle()
	tri.DoubleSided = true
	tt, _, _, ok := IntersectRayTriangle(mathx.V3(1, 1, -5), mathx.V3(0, 0, 1), tri)
	assert.True(t, ok)
	assert.InDelta(t, 5.0, tt, 1e-9)
}
