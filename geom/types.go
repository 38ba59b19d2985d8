// Copyright © 2024 Ardentcraft.
//
// Package geom implements the capsule/triangle collision kernel: closest
// points, discrete overlap, and continuous sweep. Every routine here is a
// pure function over value types — no shared state, no allocation beyond
// the returned result, so the broad/narrow-phase loops in scenequery can
// call into it millions of times a tick without GC pressure.
//
// The kernel is grounded on the teacher's physics/gjk.go and physics/epa.go
// (closest-feature enumeration over Voronoi regions) and physics/clipping.go
// (plane/edge clipping), adapted from GJK-on-convex-hulls to the
// capsule-vs-triangle primitive this spec actually needs.
package geom

import "github.com/ardentcraft/worldphys/mathx"

// Capsule is a swept sphere: two endpoints plus a radius. P0 is the feet
// reference, P1 the head reference.
type Capsule struct {
	P0, P1 mathx.Vec3
	Radius float64
}

// FullHeightCapsule builds a capsule from a feet position, placing P0 at
// feet + radius·ẑ and P1 at feet + (height - radius)·ẑ. When height is
// less than 2·radius (a degenerate/too-short request), P1 collapses to P0
// rather than producing an inverted capsule.
func FullHeightCapsule(feet mathx.Vec3, height, radius float64) Capsule {
	p0 := feet.Add(mathx.V3(0, 0, radius))
	headZ := height - radius
	if headZ < radius {
		headZ = radius
	}
	p1 := feet.Add(mathx.V3(0, 0, headZ))
	return Capsule{P0: p0, P1: p1, Radius: radius}
}

// Translate returns c shifted by d.
func (c Capsule) Translate(d mathx.Vec3) Capsule {
	return Capsule{P0: c.P0.Add(d), P1: c.P1.Add(d), Radius: c.Radius}
}

// Axis returns the capsule's segment direction and length (P1 - P0); the
// zero vector/zero length when the capsule has degenerated to a sphere.
func (c Capsule) Axis() (dir mathx.Vec3, length float64) {
	d := c.P1.Sub(c.P0)
	length = d.Len()
	if length <= mathx.Epsilon {
		return mathx.Zero3, 0
	}
	return d.Scale(1.0 / length), length
}

// Bounds returns the world-space AABox enclosing c.
func (c Capsule) Bounds() mathx.AABox {
	box := mathx.NewAABox(c.P0, c.P1)
	return box.Inflate(c.Radius)
}

// Region classifies which part of the capsule a contact point's closest
// segment parameter falls into: the two spherical caps or the cylindrical
// side. Carried on Hit and SweepHit, and from there on scenequery.SceneHit,
// for callers that need to distinguish, e.g., a head-bump from a foot-trip.
type Region int

const (
	RegionCap0 Region = iota // nearest P0 (feet).
	RegionSide                // nearest the cylindrical side.
	RegionCap1                // nearest P1 (head).
)

func regionFor(t float64) Region {
	switch {
	case t <= 1e-6:
		return RegionCap0
	case t >= 1-1e-6:
		return RegionCap1
	default:
		return RegionSide
	}
}

// capsuleRegionAt classifies axisPoint — a point already known to lie on (or
// very near) c's axis — by its parameter along P0->P1. A degenerate
// (zero-length) capsule has no side to distinguish and always reports
// RegionCap0.
func capsuleRegionAt(c Capsule, axisPoint mathx.Vec3) Region {
	dir, length := c.Axis()
	if length <= mathx.Epsilon {
		return RegionCap0
	}
	t := axisPoint.Sub(c.P0).Dot(dir) / length
	return regionFor(t)
}

// Triangle is a collision primitive: three world/local-space vertices, a
// double-sided flag, and a 32-bit collision mask the caller can filter on.
type Triangle struct {
	A, B, C     mathx.Vec3
	DoubleSided bool
	Mask        uint32
}

// Plane returns the triangle's supporting plane.
func (t Triangle) Plane() mathx.Plane { return mathx.PlaneFromTriangle(t.A, t.B, t.C) }

// Area2 returns twice the triangle's area (the magnitude of the cross
// product of two edges) — used to detect degenerate triangles without a
// sqrt.
func (t Triangle) Area2() float64 {
	return t.B.Sub(t.A).Cross(t.C.Sub(t.A)).Len()
}

// IsDegenerate reports whether the triangle's area is below the kernel's
// degeneracy threshold (spec: area < 1e-12 falls back to segment-segment
// of the two longest edges). Area2 is twice the area, hence 2e-12.
func (t Triangle) IsDegenerate() bool {
	return t.Area2() < 2e-12
}

// Bounds returns the triangle's AABox.
func (t Triangle) Bounds() mathx.AABox {
	return mathx.NewAABox(t.A, t.B).Encompass(t.C)
}

// Hit is a discrete overlap result between a capsule/sphere and a
// triangle.
type Hit struct {
	Point  mathx.Vec3
	Normal mathx.Vec3
	Depth  float64
	Region Region
}

// SweepHit is a continuous-sweep result: the normalized time of impact and
// the contact point/normal at that instant.
type SweepHit struct {
	T      float64
	Point  mathx.Vec3
	Normal mathx.Vec3
	Region Region
}
