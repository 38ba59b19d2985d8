// Copyright © 2024 Ardentcraft.

package geom

import "github.com/ardentcraft/worldphys/mathx"

// ClosestPointOnSegment returns the point on segment [a,b] nearest p, and
// the parameter t ∈ [0,1] at which it occurs.
func ClosestPointOnSegment(p, a, b mathx.Vec3) (closest mathx.Vec3, t float64) {
	ab := b.Sub(a)
	denom := ab.Dot(ab)
	if denom <= mathx.Epsilon {
		return a, 0
	}
	t = p.Sub(a).Dot(ab) / denom
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return a.Add(ab.Scale(t)), t
}

// ClosestPointsSegmentSegment returns the closest points between segments
// [p1,q1] and [p2,q2] (Ericson, Real-Time Collision Detection §5.1.9).
func ClosestPointsSegmentSegment(p1, q1, p2, q2 mathx.Vec3) (c1, c2 mathx.Vec3, s, t float64) {
	d1 := q1.Sub(p1)
	d2 := q2.Sub(p2)
	r := p1.Sub(p2)
	a := d1.Dot(d1)
	e := d2.Dot(d2)
	f := d2.Dot(r)

	const eps = mathx.Epsilon
	if a <= eps && e <= eps {
		return p1, p2, 0, 0
	}
	if a <= eps {
		s = 0
		t = clamp01(f / e)
	} else {
		c := d1.Dot(r)
		if e <= eps {
			t = 0
			s = clamp01(-c / a)
		} else {
			b := d1.Dot(d2)
			denom := a*e - b*b
			if denom != 0 {
				s = clamp01((b*f - c*e) / denom)
			} else {
				s = 0
			}
			t = (b*s + f) / e
			if t < 0 {
				t = 0
				s = clamp01(-c / a)
			} else if t > 1 {
				t = 1
				s = clamp01((b - c) / a)
			}
		}
	}
	c1 = p1.Add(d1.Scale(s))
	c2 = p2.Add(d2.Scale(t))
	return c1, c2, s, t
}

// ClosestPointOnTriangle returns the point on triangle (a,b,c) nearest p,
// using the 7-region Voronoi test (Ericson §5.1.5). Assumes a non-
// degenerate triangle; callers must check Triangle.IsDegenerate first.
func ClosestPointOnTriangle(p, a, b, c mathx.Vec3) mathx.Vec3 {
	ab := b.Sub(a)
	ac := c.Sub(a)
	ap := p.Sub(a)

	d1 := ab.Dot(ap)
	d2 := ac.Dot(ap)
	if d1 <= 0 && d2 <= 0 {
		return a // vertex region A
	}

	bp := p.Sub(b)
	d3 := ab.Dot(bp)
	d4 := ac.Dot(bp)
	if d3 >= 0 && d4 <= d3 {
		return b // vertex region B
	}

	vc := d1*d4 - d3*d2
	if vc <= 0 && d1 >= 0 && d3 <= 0 {
		v := d1 / (d1 - d3)
		return a.Add(ab.Scale(v)) // edge AB
	}

	cp := p.Sub(c)
	d5 := ab.Dot(cp)
	d6 := ac.Dot(cp)
	if d6 >= 0 && d5 <= d6 {
		return c // vertex region C
	}

	vb := d5*d2 - d1*d6
	if vb <= 0 && d2 >= 0 && d6 <= 0 {
		w := d2 / (d2 - d6)
		return a.Add(ac.Scale(w)) // edge AC
	}

	va := d3*d6 - d5*d4
	if va <= 0 && (d4-d3) >= 0 && (d5-d6) >= 0 {
		w := (d4 - d3) / ((d4 - d3) + (d5 - d6))
		return b.Add(c.Sub(b).Scale(w)) // edge BC
	}

	// interior
	denom := 1.0 / (va + vb + vc)
	v := vb * denom
	w := vc * denom
	return a.Add(ab.Scale(v)).Add(ac.Scale(w))
}

// ClosestPointsSegmentTriangle returns the closest point pair between
// segment [segA,segB] and triangle tri: the robust closest-point pair
// required by the spec's capsule/triangle kernel. A segment that crosses
// the triangle's interior returns the crossing point as both points;
// otherwise it enumerates the segment-vs-point-on-triangle (per endpoint)
// and segment-vs-edge candidates and keeps the minimum. Degenerate triangles (area below
// 1e-12) fall back to segment-vs-segment of the two longest edges.
func ClosestPointsSegmentTriangle(segA, segB mathx.Vec3, tri Triangle) (onSeg, onTri mathx.Vec3) {
	if tri.IsDegenerate() {
		ea, eb := longestTwoEdges(tri)
		c1, c2, _, _ := ClosestPointsSegmentSegment(segA, segB, ea[0], ea[1])
		d1 := c1.Sub(c2).LenSqr()
		c3, c4, _, _ := ClosestPointsSegmentSegment(segA, segB, eb[0], eb[1])
		d2 := c3.Sub(c4).LenSqr()
		if d2 < d1 {
			return c3, c4
		}
		return c1, c2
	}

	// segment crossing the triangle's interior.
	plane := tri.Plane()
	da, db := plane.SignedDistance(segA), plane.SignedDistance(segB)
	if da*db < 0 {
		p := segA.Add(segB.Sub(segA).Scale(da / (da - db)))
		if u, v, w, ok := mathx.Barycentric(p, tri.A, tri.B, tri.C); ok && mathx.InsideTriangle(u, v, w) {
			return p, p
		}
	}

	bestDist := mathx.Large
	consider := func(s, t mathx.Vec3) {
		d := s.Sub(t).LenSqr()
		if d < bestDist {
			bestDist = d
			onSeg, onTri = s, t
		}
	}

	// endpoints projected onto the triangle.
	consider(segA, ClosestPointOnTriangle(segA, tri.A, tri.B, tri.C))
	consider(segB, ClosestPointOnTriangle(segB, tri.A, tri.B, tri.C))

	// segment against each triangle edge.
	edges := [3][2]mathx.Vec3{{tri.A, tri.B}, {tri.B, tri.C}, {tri.C, tri.A}}
	for _, e := range edges {
		c1, c2, _, _ := ClosestPointsSegmentSegment(segA, segB, e[0], e[1])
		consider(c1, c2)
	}

	return onSeg, onTri
}

func longestTwoEdges(tri Triangle) (longest, second [2]mathx.Vec3) {
	edges := [3][2]mathx.Vec3{{tri.A, tri.B}, {tri.B, tri.C}, {tri.C, tri.A}}
	lens := [3]float64{
		tri.B.Sub(tri.A).LenSqr(),
		tri.C.Sub(tri.B).LenSqr(),
		tri.A.Sub(tri.C).LenSqr(),
	}
	i0 := 0
	for i := 1; i < 3; i++ {
		if lens[i] > lens[i0] {
			i0 = i
		}
	}
	i1 := -1
	for i := 0; i < 3; i++ {
		if i == i0 {
			continue
		}
		if i1 == -1 || lens[i] > lens[i1] {
			i1 = i
		}
	}
	return edges[i0], edges[i1]
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
