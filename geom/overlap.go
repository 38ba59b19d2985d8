// Copyright © 2024 Ardentcraft.

package geom

import "github.com/ardentcraft/worldphys/mathx"

// IntersectCapsuleTriangle is the discrete overlap test between a capsule
// and a triangle. Returns a Hit when the distance between the capsule axis
// and the triangle is at most the capsule radius.
//
// Single-sided triangles reject contacts where the capsule axis' closest
// point lies behind the triangle plane (the capsule approaching from the
// non-collidable face) — this matches the source engine's treatment of
// interior/one-way geometry.
func IntersectCapsuleTriangle(c Capsule, tri Triangle) (Hit, bool) {
	onSeg, onTri := ClosestPointsSegmentTriangle(c.P0, c.P1, tri)
	diff := onSeg.Sub(onTri)
	dist := diff.Len()
	if dist > c.Radius {
		return Hit{}, false
	}

	if !tri.DoubleSided {
		plane := tri.Plane()
		if plane.SignedDistance(onSeg) < 0 {
			return Hit{}, false
		}
	}

	normal := diff.NormalizeOrZero()
	if normal == mathx.Zero3 {
		// axis passes exactly through the triangle's closest point; fall
		// back to the plane normal so callers still get a usable contact.
		normal = tri.Plane().Normal
	}
	return Hit{
		Point:  onTri,
		Normal: normal,
		Depth:  c.Radius - dist,
		Region: capsuleRegionAt(c, onSeg),
	}, true
}

// IntersectSphereTriangle is IntersectCapsuleTriangle's zero-length-segment
// special case.
func IntersectSphereTriangle(center mathx.Vec3, r float64, tri Triangle) (Hit, bool) {
	return IntersectCapsuleTriangle(Capsule{P0: center, P1: center, Radius: r}, tri)
}
