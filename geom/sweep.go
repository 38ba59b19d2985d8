// Copyright © 2024 Ardentcraft.

package geom

import "github.com/ardentcraft/worldphys/mathx"

// rootEpsilon is the numerical slop the spec calls for: roots in
// (-rootEpsilon, 0) are "already in contact, no forward motion" and
// rejected; roots beyond 1+rootEpsilon are rejected as out of range.
const rootEpsilon = 1e-4

// CapsuleTriangleSweep finds the smallest t ∈ [0,1] such that c displaced
// by t·vel is in discrete contact with tri. Returns ok=false when vel is
// (near) zero — callers use IntersectCapsuleTriangle for that case — or
// when no contact occurs within the sweep.
//
// Algorithm (spec §4.1): (i) plane intersection gives a candidate t_plane;
// (ii) if the contact at t_plane projects inside the triangle, return it;
// (iii) otherwise solve the earliest capsule-edge and capsule-vertex
// contacts via swept-point-vs-segment quadratics and return the minimum
// valid root.
func CapsuleTriangleSweep(c Capsule, vel mathx.Vec3, tri Triangle) (SweepHit, bool) {
	if vel.LenSqr() <= mathx.Epsilon*mathx.Epsilon {
		return SweepHit{}, false
	}
	if tri.IsDegenerate() {
		return sweepDegenerate(c, vel, tri)
	}

	plane := tri.Plane()
	best := SweepHit{}
	found := false

	if hit, ok := sweepPlane(c, vel, tri, plane); ok {
		best, found = hit, true
	}

	// Edge and vertex contacts: only needed when the face sweep missed
	// (the plane contact landed outside the triangle) or didn't run at
	// all (sweep direction parallel to the plane).
	if !found {
		edges := [3][2]mathx.Vec3{{tri.A, tri.B}, {tri.B, tri.C}, {tri.C, tri.A}}
		for _, e := range edges {
			if hit, ok := sweepCapsuleEdge(c, vel, e[0], e[1], tri); ok {
				if !found || hit.T < best.T {
					best, found = hit, true
				}
			}
		}
		verts := [3]mathx.Vec3{tri.A, tri.B, tri.C}
		for _, v := range verts {
			if hit, ok := sweepCapsuleVertex(c, vel, v, tri); ok {
				if !found || hit.T < best.T {
					best, found = hit, true
				}
			}
		}
	}

	if !found {
		return SweepHit{}, false
	}
	return best, true
}

// sweepPlane solves the plane-TOI candidate and tests whether the contact
// lands inside the triangle.
func sweepPlane(c Capsule, vel mathx.Vec3, tri Triangle, plane mathx.Plane) (SweepHit, bool) {
	// the capsule point nearest the plane is whichever endpoint has the
	// smaller signed distance; a straight segment's distance-to-plane is
	// linear, so the extremum is always at an endpoint.
	d0 := plane.SignedDistance(c.P0)
	d1 := plane.SignedDistance(c.P1)
	lead := c.P0
	s0 := d0
	if d1 < d0 {
		lead = c.P1
		s0 = d1
	}

	target := c.Radius
	onFront := s0 >= 0
	if !onFront {
		if !tri.DoubleSided {
			return SweepHit{}, false
		}
		target = -c.Radius
	}

	denom := plane.Normal.Dot(vel)
	if denom == 0 {
		return SweepHit{}, false // moving parallel to the plane.
	}
	t := (target - s0) / denom
	if t < -rootEpsilon || t > 1+rootEpsilon {
		return SweepHit{}, false
	}
	if t < 0 {
		t = 0
	}

	contactLead := lead.Add(vel.Scale(t))
	contactPoint := plane.Project(contactLead)
	u, v, w, ok := mathx.Barycentric(contactPoint, tri.A, tri.B, tri.C)
	if !ok || !mathx.InsideTriangle(u, v, w) {
		return SweepHit{}, false
	}

	n := plane.Normal
	if !onFront {
		n = n.Neg()
	}
	return SweepHit{T: clamp01(t), Point: contactPoint, Normal: n, Region: capsuleRegionAt(c, contactLead)}, true
}

// sweepCapsuleEdge finds the earliest contact between the moving capsule
// axis and a fixed triangle edge, by sweeping both capsule endpoints
// against the edge and the edge's own endpoints against the (reversed)
// moving axis, and keeping the minimum valid time.
func sweepCapsuleEdge(c Capsule, vel mathx.Vec3, ea, eb mathx.Vec3, tri Triangle) (SweepHit, bool) {
	best := SweepHit{}
	found := false
	keep := func(hit SweepHit) {
		if hit.T < -rootEpsilon || hit.T > 1+rootEpsilon {
			return
		}
		if hit.T < 0 {
			hit.T = 0
		}
		hit.T = clamp01(hit.T)
		if !found || hit.T < best.T {
			best, found = hit, true
		}
	}

	// capsule endpoint moving at the true vel, edge genuinely fixed: the
	// returned segment point is already the correct world contact.
	if t, onEdge, ok := sweepPointSegment(c.P0, vel, ea, eb, c.Radius); ok {
		axisAtT := c.P0.Add(vel.Scale(t))
		keep(SweepHit{T: t, Point: onEdge, Normal: separatingNormal(axisAtT, onEdge, tri), Region: capsuleRegionAt(c, axisAtT)})
	}
	if t, onEdge, ok := sweepPointSegment(c.P1, vel, ea, eb, c.Radius); ok {
		axisAtT := c.P1.Add(vel.Scale(t))
		keep(SweepHit{T: t, Point: onEdge, Normal: separatingNormal(axisAtT, onEdge, tri), Region: capsuleRegionAt(c, axisAtT)})
	}
	// edge endpoints against the moving capsule axis: by relativity, the
	// edge endpoint is fixed and the axis appears to move at -vel in its
	// own co-moving frame. The returned point on [c.P0,c.P1] is expressed
	// in that frame, i.e. the t=0 axis location — recover the true
	// world-space axis contact by adding back the capsule's own motion.
	if t, onAxisT0, ok := sweepPointSegment(ea, vel.Neg(), c.P0, c.P1, c.Radius); ok {
		axisAtT := onAxisT0.Add(vel.Scale(t))
		keep(SweepHit{T: t, Point: axisAtT, Normal: separatingNormal(axisAtT, ea, tri), Region: capsuleRegionAt(c, axisAtT)})
	}
	if t, onAxisT0, ok := sweepPointSegment(eb, vel.Neg(), c.P0, c.P1, c.Radius); ok {
		axisAtT := onAxisT0.Add(vel.Scale(t))
		keep(SweepHit{T: t, Point: axisAtT, Normal: separatingNormal(axisAtT, eb, tri), Region: capsuleRegionAt(c, axisAtT)})
	}
	return best, found
}

// sweepCapsuleVertex finds the earliest contact between the moving
// capsule axis and a fixed triangle vertex.
func sweepCapsuleVertex(c Capsule, vel mathx.Vec3, vert mathx.Vec3, tri Triangle) (SweepHit, bool) {
	t, onAxisT0, ok := sweepPointSegment(vert, vel.Neg(), c.P0, c.P1, c.Radius)
	if !ok || t < -rootEpsilon || t > 1+rootEpsilon {
		return SweepHit{}, false
	}
	if t < 0 {
		t = 0
	}
	axisAtT := onAxisT0.Add(vel.Scale(t))
	n := separatingNormal(axisAtT, vert, tri)
	return SweepHit{T: clamp01(t), Point: axisAtT, Normal: n, Region: capsuleRegionAt(c, axisAtT)}, true
}

// sweepPointSegment finds the smallest t ≥ 0 such that the moving point
// q0+t·vel comes within distance r of the fixed segment [a,b], returning
// the contact point on the segment. Solves the three parameter regimes
// (clamped at a, clamped at b, interior) and keeps whichever valid root
// is smallest, checking that the root actually lies in the regime it was
// derived for.
func sweepPointSegment(q0, vel, a, b mathx.Vec3, r float64) (t float64, contact mathx.Vec3, ok bool) {
	d := b.Sub(a)
	l2 := d.Dot(d)
	if l2 <= mathx.Epsilon {
		tt, hit, found := sweepPointPoint(q0, vel, a, r)
		return tt, hit, found
	}

	bestT := mathx.Large
	found := false
	consider := func(tt float64, param float64, validRegime bool) {
		if !validRegime {
			return
		}
		if tt < -rootEpsilon || tt > 1+rootEpsilon {
			return
		}
		if tt < 0 {
			tt = 0
		}
		if tt < bestT {
			bestT = tt
			param = clamp01(param)
			contact = a.Add(d.Scale(param))
			found = true
		}
	}

	// clamped at a (param == 0 region): |q(t) - a| = r.
	if t0, t1, okRoots := solveQuadratic(vel.Dot(vel), 2*q0.Sub(a).Dot(vel), q0.Sub(a).Dot(q0.Sub(a))-r*r); okRoots {
		for _, tt := range []float64{t0, t1} {
			s := paramOf(q0, vel, tt, a, d, l2)
			consider(tt, 0, s <= rootEpsilon)
		}
	}
	// clamped at b (param == 1 region): |q(t) - b| = r.
	if t0, t1, okRoots := solveQuadratic(vel.Dot(vel), 2*q0.Sub(b).Dot(vel), q0.Sub(b).Dot(q0.Sub(b))-r*r); okRoots {
		for _, tt := range []float64{t0, t1} {
			s := paramOf(q0, vel, tt, a, d, l2)
			consider(tt, 1, s >= 1-rootEpsilon)
		}
	}
	// interior region: perpendicular distance from q(t) to the line
	// through a,b equals r, with the projection parameter in [0,1].
	e := q0.Sub(a)
	p := e.Dot(d)
	rr := vel.Dot(d)
	A := vel.Dot(vel) - rr*rr/l2
	B := 2 * (e.Dot(vel) - p*rr/l2)
	C := e.Dot(e) - p*p/l2 - r*r
	if t0, t1, okRoots := solveQuadratic(A, B, C); okRoots {
		for _, tt := range []float64{t0, t1} {
			s := paramOf(q0, vel, tt, a, d, l2)
			consider(tt, s, s >= -rootEpsilon && s <= 1+rootEpsilon)
		}
	}

	if !found {
		return 0, mathx.Zero3, false
	}
	return bestT, contact, true
}

// sweepPointPoint is the zero-length-segment fallback: a pure moving
// sphere center vs fixed point sweep.
func sweepPointPoint(q0, vel, p mathx.Vec3, r float64) (float64, mathx.Vec3, bool) {
	d := q0.Sub(p)
	t0, t1, ok := solveQuadratic(vel.Dot(vel), 2*d.Dot(vel), d.Dot(d)-r*r)
	if !ok {
		return 0, mathx.Zero3, false
	}
	for _, tt := range []float64{t0, t1} {
		if tt >= -rootEpsilon && tt <= 1+rootEpsilon {
			if tt < 0 {
				tt = 0
			}
			return tt, p, true
		}
	}
	return 0, mathx.Zero3, false
}

func paramOf(q0, vel mathx.Vec3, t float64, a, d mathx.Vec3, l2 float64) float64 {
	q := q0.Add(vel.Scale(t))
	return q.Sub(a).Dot(d) / l2
}

// separatingNormal derives a contact normal for an edge/vertex feature
// contact: the direction from the triangle's closest point to the
// capsule's closest point at the moment of contact, falling back to the
// triangle's own plane normal when the two coincide.
func separatingNormal(axisPoint, featurePoint mathx.Vec3, tri Triangle) mathx.Vec3 {
	n := axisPoint.Sub(featurePoint).NormalizeOrZero()
	if n == mathx.Zero3 {
		return tri.Plane().Normal
	}
	return n
}

func sweepDegenerate(c Capsule, vel mathx.Vec3, tri Triangle) (SweepHit, bool) {
	ea, eb := longestTwoEdges(tri)
	best := SweepHit{}
	found := false
	if t, pt, ok := sweepPointSegment(c.P0, vel, ea[0], ea[1], c.Radius); ok {
		axisAtT := c.P0.Add(vel.Scale(t))
		best, found = SweepHit{T: t, Point: pt, Normal: separatingNormal(axisAtT, pt, tri), Region: capsuleRegionAt(c, axisAtT)}, true
	}
	if t, pt, ok := sweepPointSegment(c.P1, vel, eb[0], eb[1], c.Radius); ok {
		if !found || t < best.T {
			axisAtT := c.P1.Add(vel.Scale(t))
			best, found = SweepHit{T: t, Point: pt, Normal: separatingNormal(axisAtT, pt, tri), Region: capsuleRegionAt(c, axisAtT)}, true
		}
	}
	return best, found
}
