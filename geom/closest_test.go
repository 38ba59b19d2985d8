// Copyright © 2024 Ardentcraft.

package geom

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ardentcraft/worldphys/mathx"
)

func TestClosestPointOnSegmentClampsToEndpoints(t *testing.T) {
	a, b := mathx.V3(0, 0, 0), mathx.V3(10, 0, 0)
	p, tt := ClosestPointOnSegment(mathx.V3(-5, 3, 0), a, b)
	assert.Equal(t, a, p)
	assert.Equal(t, 0.0, tt)

	p, tt = ClosestPointOnSegment(mathx.V3(15, 3, 0), a, b)
	assert.Equal(t, b, p)
	assert.Equal(t, 1.0, tt)

	p, tt = ClosestPointOnSegment(mathx.V3(4, 3, 0), a, b)
	assert.InDelta(t, 4.0, p.X(), 1e-9)
	assert.InDelta(t, 0.4, tt, 1e-9)
}

func TestClosestPointsSegmentSegmentParallel(t *testing.T) {
	c1, c2, _, _ := ClosestPointsSegmentSegment(
		mathx.V3(0, 0, 0), mathx.V3(10, 0, 0),
		mathx.V3(0, 1, 0), mathx.V3(10, 1, 0),
	)
	assert.InDelta(t, 1.0, c2.Sub(c1).Len(), 1e-9)
}

func TestClosestPointsSegmentSegmentSkew(t *testing.T) {
	c1, c2, _, _ := ClosestPointsSegmentSegment(
		mathx.V3(-1, 0, 0), mathx.V3(1, 0, 0),
		mathx.V3(0, -1, 1), mathx.V3(0, 1, 1),
	)
	assert.InDelta(t, 0, c1.X(), 1e-9)
	assert.InDelta(t, 0, c1.Y(), 1e-9)
	assert.InDelta(t, 1.0, c2.Sub(c1).Len(), 1e-9)
}

func flatTriangle() Triangle {
	return Triangle{A: mathx.V3(0, 0, 0), B: mathx.V3(4, 0, 0), C: mathx.V3(0, 4, 0)}
}

func TestClosestPointOnTriangleVertexRegion(t *testing.T) {
	tri := flatTriangle()
	p := ClosestPointOnTriangle(mathx.V3(-5, -5, 0), tri.A, tri.B, tri.C)
	assert.Equal(t, tri.A, p)
}

func TestClosestPointOnTriangleEdgeRegion(t *testing.T) {
	tri := flatTriangle()
	p := ClosestPointOnTriangle(mathx.V3(2, -3, 0), tri.A, tri.B, tri.C)
	assert.InDelta(t, 2.0, p.X(), 1e-9)
	assert.InDelta(t, 0.0, p.Y(), 1e-9)
}

func TestClosestPointOnTriangleInteriorRegion(t *testing.T) {
	tri := flatTriangle()
	p := ClosestPointOnTriangle(mathx.V3(1, 1, 5), tri.A, tri.B, tri.C)
	assert.InDelta(t, 1.0, p.X(), 1e-9)
	assert.InDelta(t, 1.0, p.Y(), 1e-9)
	assert.InDelta(t, 0.0, p.Z(), 1e-9)
}

func TestClosestPointsSegmentTriangleAboveFace(t *testing.T) {
	tri := flatTriangle()
	onSeg, onTri := ClosestPointsSegmentTriangle(mathx.V3(1, 1, 3), mathx.V3(1, 1, 5), tri)
	assert.InDelta(t, 0.0, onTri.Z(), 1e-9)
	assert.InDelta(t, 3.0, onSeg.Z(), 1e-9)
}

func TestClosestPointsSegmentTriangleDegenerate(t *testing.T) {
	degenerate := Triangle{A: mathx.V3(0, 0, 0), B: mathx.V3(4, 0, 0), C: mathx.V3(2, 0, 0)}
	assert.True(t, degenerate.IsDegenerate())
	onSeg, onTri := ClosestPointsSegmentTriangle(mathx.V3(2, 5, 0), mathx.V3(2, 6, 0), degenerate)
	assert.InDelta(t, 2.0, onTri.X(), 1e-9)
	assert.InDelta(t, 0.0, onTri.Y(), 1e-9)
	assert.InDelta(t, 5.0, onSeg.Y(), 1e-9)
}
