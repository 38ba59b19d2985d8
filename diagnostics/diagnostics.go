// Copyright © 2024 Ardentcraft.
//
// Package diagnostics holds the pure, stateless contact-manifold utilities
// shared by the slide resolver and the physics step orchestrator: plane
// deduplication, primary-plane selection, slide-direction projection, and
// the step-aware Z clamp used to snap a grounded actor onto the plane it is
// standing on.
//
// Grounded on the teacher's physics/clipping.go (Sutherland-Hodgman style
// plane bookkeeping, one pure function per concern) and physics/contact.go
// (mergeContacts' "new point close enough to an existing one -> merge"
// dedup shape, generalized here from contact points to constraint planes).
package diagnostics

import (
	"math"

	"github.com/ardentcraft/worldphys/mathx"
)

// Plane is one contact plane gathered during a slide or a ground probe: an
// outward surface normal, a reference point on the surface, and the bits a
// caller needs to classify it.
type Plane struct {
	Normal      mathx.Vec3
	Point       mathx.Vec3
	Walkable    bool
	Penetrating bool
	Depth       float64
}

// DeduplicatePlanes merges planes whose normals agree within epsNormal and
// whose reference points agree within (epsXY, epsZ), OR-ing their walkable
// and penetrating bits and keeping the larger penetration depth. Order of
// the surviving planes follows first appearance.
func DeduplicatePlanes(planes []Plane, epsNormal, epsXY, epsZ float64) []Plane {
	out := make([]Plane, 0, len(planes))
	for _, p := range planes {
		merged := false
		for i := range out {
			if planesMatch(out[i], p, epsNormal, epsXY, epsZ) {
				out[i].Walkable = out[i].Walkable || p.Walkable
				out[i].Penetrating = out[i].Penetrating || p.Penetrating
				if p.Depth > out[i].Depth {
					out[i].Depth = p.Depth
				}
				merged = true
				break
			}
		}
		if !merged {
			out = append(out, p)
		}
	}
	return out
}

func planesMatch(a, b Plane, epsNormal, epsXY, epsZ float64) bool {
	if a.Normal.Sub(b.Normal).Len() > epsNormal {
		return false
	}
	d := a.Point.Sub(b.Point)
	if math.Abs(d.X()) > epsXY || math.Abs(d.Y()) > epsXY {
		return false
	}
	return math.Abs(d.Z()) <= epsZ
}

// ChoosePrimaryPlane picks the plane that should drive ground snapping and
// slide resolution this tick. Never returns a plane while startSwimming is
// true. Otherwise the priority is: (1) penetrating and walkable, (2)
// non-penetrating and walkable (only when moving), (3) any walkable plane,
// (4) the deepest penetrating plane.
func ChoosePrimaryPlane(planes []Plane, moving, startSwimming bool) (Plane, bool) {
	if startSwimming {
		return Plane{}, false
	}
	for _, p := range planes {
		if p.Penetrating && p.Walkable {
			return p, true
		}
	}
	if moving {
		for _, p := range planes {
			if !p.Penetrating && p.Walkable {
				return p, true
			}
		}
	}
	for _, p := range planes {
		if p.Walkable {
			return p, true
		}
	}
	deepest, ok := Plane{}, false
	for _, p := range planes {
		if !p.Penetrating {
			continue
		}
		if !ok || p.Depth > deepest.Depth {
			deepest, ok = p, true
		}
	}
	return deepest, ok
}

// ComputeSlideDir projects moveDir onto the surface primary describes. When
// walkablePlanes contains a second walkable plane whose normal is not
// parallel to primary's, the slide direction instead follows the two
// planes' intersection line, oriented along moveDir. Returns false when the
// projected direction is degenerate (near zero length).
func ComputeSlideDir(primary Plane, walkablePlanes []Plane, moveDir mathx.Vec3) (mathx.Vec3, bool) {
	for _, other := range walkablePlanes {
		if other.Normal.Sub(primary.Normal).Len() < mathx.Epsilon {
			continue
		}
		cross := primary.Normal.Cross(other.Normal)
		if cross.Len() < mathx.Epsilon {
			continue
		}
		line := cross.NormalizeOrZero()
		if line.Dot(moveDir) < 0 {
			line = line.Neg()
		}
		return line, true
	}
	tangent := moveDir.Sub(primary.Normal.Scale(moveDir.Dot(primary.Normal)))
	if tangent.Len() < mathx.Epsilon {
		return mathx.Vec3{}, false
	}
	return tangent.NormalizeOrZero(), true
}

// PlaneZAt solves the plane equation n·(P - p) = 0 for z at (x, y). Returns
// ok=false for a vertical plane (n.Z() == 0), which has no single z at a
// given (x, y).
func PlaneZAt(n, p mathx.Vec3, x, y float64) (float64, bool) {
	if n.Z() == 0 {
		return 0, false
	}
	return p.Z() - (n.X()*(x-p.X())+n.Y()*(y-p.Y()))/n.Z(), true
}

// ClampZToPlane evaluates primary's plane equation at (x, y) and returns the
// snapped z, unless the snap distance from currentZ exceeds stepUp (when
// the plane is above) or stepDown (when the plane is below) — in which case
// the original currentZ is returned unchanged and ok is false.
func ClampZToPlane(n, p mathx.Vec3, x, y, currentZ, stepUp, stepDown float64) (float64, bool) {
	z, ok := PlaneZAt(n, p, x, y)
	if !ok {
		return currentZ, false
	}
	delta := z - currentZ
	if delta > 0 && delta > stepUp {
		return currentZ, false
	}
	if delta < 0 && -delta > stepDown {
		return currentZ, false
	}
	return z, true
}
