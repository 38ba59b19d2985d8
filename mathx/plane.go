// Copyright © 2024 Ardentcraft.

package mathx

// Plane is n·x = d, with n a unit normal (not enforced — callers that need
// a guaranteed-unit normal should normalize before constructing).
type Plane struct {
	Normal Vec3
	D      float64
}

// PlaneFromPoint builds a plane through p with the given normal.
func PlaneFromPoint(p, normal Vec3) Plane {
	return Plane{Normal: normal, D: normal.Dot(p)}
}

// PlaneFromTriangle builds the plane containing a, b, c. The normal
// follows the right-hand rule for the winding a→b→c.
func PlaneFromTriangle(a, b, c Vec3) Plane {
	n := b.Sub(a).Cross(c.Sub(a)).NormalizeOrZero()
	return PlaneFromPoint(a, n)
}

// SignedDistance returns the signed distance from p to the plane; positive
// on the side the normal points to.
func (p Plane) SignedDistance(pt Vec3) float64 {
	return p.Normal.Dot(pt) - p.D
}

// Project returns the point on the plane nearest pt.
func (p Plane) Project(pt Vec3) Vec3 {
	return pt.Sub(p.Normal.Scale(p.SignedDistance(pt)))
}

// Barycentric computes the barycentric coordinates (u, v, w) of point p
// with respect to triangle (a, b, c), such that p ≈ u*a + v*b + w*c.
// Uses Ericson's area-ratio method (Real-Time Collision Detection §3.4).
// Degenerate (zero-area) triangles return (0,0,0, false).
func Barycentric(p, a, b, c Vec3) (u, v, w float64, ok bool) {
	v0 := b.Sub(a)
	v1 := c.Sub(a)
	v2 := p.Sub(a)
	d00 := v0.Dot(v0)
	d01 := v0.Dot(v1)
	d11 := v1.Dot(v1)
	d20 := v2.Dot(v0)
	d21 := v2.Dot(v1)
	denom := d00*d11 - d01*d01
	if denom > -1e-12 && denom < 1e-12 {
		return 0, 0, 0, false
	}
	v = (d11*d20 - d01*d21) / denom
	w = (d00*d21 - d01*d20) / denom
	u = 1 - v - w
	return u, v, w, true
}

// InsideTriangle reports whether barycentric coordinates (u, v, w) place a
// point within the closed triangle (allowing a small epsilon slop on the
// edges, since sweep TOI roots land exactly on edges by construction).
func InsideTriangle(u, v, w float64) bool {
	const slop = 1e-7
	return u >= -slop && v >= -slop && w >= -slop
}
