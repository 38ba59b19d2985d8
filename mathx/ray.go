// Copyright © 2024 Ardentcraft.

package mathx

// Ray is an origin point and a unit direction. Callers are responsible for
// normalizing Dir; routines in this module assume it already is.
type Ray struct {
	Origin, Dir Vec3
}

// NewRay builds a Ray from origin towards target, normalizing the
// direction. Returns a degenerate ray (zero Dir) when origin == target.
func NewRay(origin, target Vec3) Ray {
	return Ray{Origin: origin, Dir: target.Sub(origin).NormalizeOrZero()}
}

// At returns the point t units along the ray from its origin.
func (r Ray) At(t float64) Vec3 { return r.Origin.Add(r.Dir.Scale(t)) }

// IntersectAABox intersects r with box, returning the entry/exit
// parametric distances (tmin ≤ tmax) when they overlap. Uses the standard
// slab test; axis-aligned, so works directly in whatever frame box is
// expressed in (world or map-internal).
func (r Ray) IntersectAABox(box AABox) (tmin, tmax float64, hit bool) {
	tmin, tmax = -largeT, largeT
	for i := 0; i < 3; i++ {
		d := r.Dir[i]
		o := r.Origin[i]
		lo, hi := box.Low[i], box.High[i]
		if d == 0 {
			if o < lo || o > hi {
				return 0, 0, false
			}
			continue
		}
		inv := 1.0 / d
		t1 := (lo - o) * inv
		t2 := (hi - o) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tmin {
			tmin = t1
		}
		if t2 < tmax {
			tmax = t2
		}
		if tmin > tmax {
			return 0, 0, false
		}
	}
	return tmin, tmax, true
}

const largeT = 1e30
