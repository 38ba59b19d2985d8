// Copyright © 2024 Ardentcraft.

package geom

import "github.com/ardentcraft/worldphys/mathx"

// IntersectRayTriangle computes the Möller–Trumbore intersection of ray
// (origin o, unit direction d) with tri, returning the ray parameter t and
// barycentric (u, v) at the hit. Single-sided triangles reject a hit
// approached from the back face (negative determinant).
func IntersectRayTriangle(o, d mathx.Vec3, tri Triangle) (t, u, v float64, ok bool) {
	e1 := tri.B.Sub(tri.A)
	e2 := tri.C.Sub(tri.A)
	pvec := d.Cross(e2)
	det := e1.Dot(pvec)

	if !tri.DoubleSided && det < mathx.Epsilon {
		return 0, 0, 0, false
	}
	if det > -mathx.Epsilon && det < mathx.Epsilon {
		return 0, 0, 0, false
	}
	invDet := 1.0 / det

	tvec := o.Sub(tri.A)
	u = tvec.Dot(pvec) * invDet
	if u < 0 || u > 1 {
		return 0, 0, 0, false
	}

	qvec := tvec.Cross(e1)
	v = d.Dot(qvec) * invDet
	if v < 0 || u+v > 1 {
		return 0, 0, 0, false
	}

	t = e2.Dot(qvec) * invDet
	if t < 0 {
		return 0, 0, 0, false
	}
	return t, u, v, true
}
