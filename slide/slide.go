// Copyright © 2024 Ardentcraft.
//
// Package slide implements CollideAndSlide: an iterative resolver that
// advances a capsule toward a target position, stopping and redirecting at
// each obstruction it sweeps into, until the move is exhausted, the actor
// gets stuck in a corner, or the iteration cap is reached.
//
// Grounded on the teacher's physics/solver.go, whose solveIterations runs a
// fixed-count (numIterations, default 10) pass over the active constraints
// each tick rather than iterating to full convergence — CollideAndSlide
// uses the identical "iterate up to a hard cap, one constraint resolved per
// pass" shape, generalized from velocity constraints to position
// constraints (plane hits gathered from scenequery.SweepCapsule instead of
// solver constraints gathered from the narrowphase).
package slide

import (
	"math"

	"github.com/ardentcraft/worldphys/diagnostics"
	"github.com/ardentcraft/worldphys/geom"
	"github.com/ardentcraft/worldphys/mathx"
	"github.com/ardentcraft/worldphys/scenequery"
	"github.com/ardentcraft/worldphys/tolerance"
)

// Options tunes one CollideAndSlide call. The zero value uses the
// defaults friction 1 and bump 0.
type Options struct {
	Friction float64
	Bump     float64
	Mask     uint32
}

func (o Options) friction() float64 {
	if o.Friction != 0 {
		return o.Friction
	}
	return 1
}

// creaseBlockEpsilon is how far a candidate crease direction may violate a
// prior constraint's separating plane before it is rejected as "blocked".
const creaseBlockEpsilon = 1e-4

// Manifold tolerances for DeduplicatePlanes: contacts whose normals and
// reference points agree this closely are treated as the same surface.
const (
	manifoldDistEpsilon    = 1e-3
	manifoldNormalEpsilon  = 1e-2
	manifoldPlaneXYEpsilon = 0.05
	manifoldPlaneZEpsilon  = 0.05
)

// Result is the outcome of one CollideAndSlide call.
type Result struct {
	Position    mathx.Vec3 // the capsule's new P0 (base) position.
	Direction   mathx.Vec3 // the slide direction in effect when the call stopped.
	Distance    float64    // total distance actually moved.
	Iterations  int
	HitWall     bool
	HitCorner   bool
	HitCeiling  bool
	MinContactZ float64
	MaxContactZ float64
	HasContact  bool
}

func (r *Result) recordContact(z float64) {
	if !r.HasContact {
		r.MinContactZ, r.MaxContactZ, r.HasContact = z, z, true
		return
	}
	if z < r.MinContactZ {
		r.MinContactZ = z
	}
	if z > r.MaxContactZ {
		r.MaxContactZ = z
	}
}

// CollideAndSlide advances capsule (defined by its current P0/P1/Radius)
// along moveDir for distance world units against mapID's geometry,
// sliding along any obstruction it meets. horizontalOnly projects the
// per-iteration direction onto the XY plane before sweeping (used by the
// grounded movement branch); preventCeilingSlide stops immediately on the
// first ceiling hit instead of sliding along it.
func CollideAndSlide(q *scenequery.SceneQuery, policy tolerance.Policy, mapID uint32, capsule geom.Capsule, moveDir mathx.Vec3, distance float64, horizontalOnly, preventCeilingSlide bool, opts Options) Result {
	result := Result{Position: capsule.P0, Direction: moveDir}
	if distance <= 0 || moveDir.LenSqr() < mathx.Epsilon {
		return result
	}

	originalDir := moveDir.NormalizeOrZero()
	height := capsule.P1.Sub(capsule.P0)
	radius := capsule.Radius

	current := capsule.P0
	target := current.Add(originalDir.Scale(distance))

	var constraintNormals []mathx.Vec3
	sweepOpts := scenequery.SweepOptions{Mask: opts.Mask}

	for iter := 0; iter < policy.MaxIterations; iter++ {
		result.Iterations = iter + 1

		delta := target.Sub(current)
		remaining := delta.Len()
		if remaining < policy.MinMoveDistance {
			break
		}
		currentDir := delta.Scale(1 / remaining)
		if horizontalOnly {
			h := currentDir.Horizontal()
			if h.Len() < mathx.Epsilon {
				break
			}
			currentDir = h.NormalizeOrZero()
		}
		if currentDir.Dot(originalDir) <= 0 {
			break
		}

		sweep := geom.Capsule{P0: current, P1: current.Add(height), Radius: radius}
		hits := q.SweepCapsule(mapID, sweep, currentDir, remaining, sweepOpts)

		hit, hitDist := firstUsableHit(hits, remaining, policy.MinMoveDistance)
		if hit == nil {
			current = current.Add(currentDir.Scale(remaining))
			result.Distance = current.Sub(capsule.P0).Len()
			result.Direction = currentDir
			return finish(result, current)
		}

		advance := math.Max(0, hitDist-policy.ContactOffset(radius))
		current = current.Add(currentDir.Scale(advance))
		result.recordContact(hit.Point.Z())

		if preventCeilingSlide && isCeiling(hit.Normal, policy) {
			result.HitCeiling = true
			result.Direction = currentDir
			return finish(result, current)
		}

		result.HitWall = true
		newRemaining := remaining - advance
		constraintNormals = append(constraintNormals, horizontalComponent(hit.Normal))

		manifold := diagnostics.DeduplicatePlanes(
			contactManifold(hits, remaining, hitDist, policy),
			manifoldNormalEpsilon, manifoldPlaneXYEpsilon, manifoldPlaneZEpsilon,
		)
		if primary, ok := diagnostics.ChoosePrimaryPlane(manifold, true, false); ok && primary.Walkable {
			if dir, ok := diagnostics.ComputeSlideDir(primary, walkablePlanesOf(manifold), currentDir); ok {
				target = current.
					Add(dir.Scale(opts.friction() * newRemaining)).
					Add(primary.Normal.Scale(opts.Bump * newRemaining))
				continue
			}
		}

		if len(constraintNormals) >= 2 {
			n1 := constraintNormals[len(constraintNormals)-2]
			n2 := constraintNormals[len(constraintNormals)-1]
			crease := n1.Cross(n2)
			if crease.Len() > mathx.Epsilon {
				crease = crease.NormalizeOrZero()
				if crease.Dot(currentDir) < 0 {
					crease = crease.Neg()
				}
				if creaseBlocked(crease, constraintNormals) {
					result.HitCorner = true
					result.Direction = currentDir
					return finish(result, current)
				}
				target = current.Add(crease.Scale(newRemaining))
				continue
			}
		}

		reflected := currentDir.Sub(hit.Normal.Scale(2 * currentDir.Dot(hit.Normal)))
		tangent := reflected.Sub(hit.Normal.Scale(reflected.Dot(hit.Normal)))
		target = current.
			Add(tangent.Scale(opts.friction() * newRemaining)).
			Add(hit.Normal.Scale(opts.Bump * newRemaining))
	}

	result.Distance = current.Sub(capsule.P0).Len()
	return finish(result, current)
}

func finish(result Result, current mathx.Vec3) Result {
	result.Position = current
	return result
}

// contactManifold converts every sweep hit within manifoldDistEpsilon of
// hitDist into diagnostics.Plane form — the contact manifold
// ChoosePrimaryPlane/ComputeSlideDir drive primary-plane selection and
// slide-direction derivation from, rather than this package hand-rolling
// wall-corner geometry for every case.
func contactManifold(hits []scenequery.SceneHit, remaining, hitDist float64, policy tolerance.Policy) []diagnostics.Plane {
	planes := make([]diagnostics.Plane, 0, len(hits))
	for i := range hits {
		h := &hits[i]
		if h.StartPenetrating {
			continue
		}
		d := h.Time * remaining
		if math.Abs(d-hitDist) > manifoldDistEpsilon {
			continue
		}
		planes = append(planes, diagnostics.Plane{
			Normal:   h.Normal,
			Point:    h.Point,
			Walkable: IsWalkable(h.Normal, policy),
		})
	}
	return planes
}

func walkablePlanesOf(planes []diagnostics.Plane) []diagnostics.Plane {
	out := make([]diagnostics.Plane, 0, len(planes))
	for _, p := range planes {
		if p.Walkable {
			out = append(out, p)
		}
	}
	return out
}

// firstUsableHit returns the earliest non-start-penetrating hit whose
// travelled distance exceeds minMove, along with that distance. hits is
// assumed sorted start-penetrating-first then by ascending sweep time, so
// the first qualifying entry is also the earliest in time.
func firstUsableHit(hits []scenequery.SceneHit, remaining, minMove float64) (*scenequery.SceneHit, float64) {
	for i := range hits {
		h := &hits[i]
		if h.StartPenetrating {
			continue
		}
		d := h.Time * remaining
		if d > minMove {
			return h, d
		}
	}
	return nil, 0
}

// horizontalComponent returns n's horizontal projection, normalized, or n
// itself when that projection is degenerate (n is near-vertical).
func horizontalComponent(n mathx.Vec3) mathx.Vec3 {
	h := n.Horizontal()
	if h.Len() < mathx.Epsilon {
		return n
	}
	return h.NormalizeOrZero()
}

func creaseBlocked(crease mathx.Vec3, priors []mathx.Vec3) bool {
	for _, n := range priors {
		if crease.Dot(n) < -creaseBlockEpsilon {
			return true
		}
	}
	return false
}

func isCeiling(n mathx.Vec3, policy tolerance.Policy) bool {
	return n.Z() <= policy.CeilingNormalZThreshold
}

// IsWalkable reports whether a surface normal is shallow enough to walk on
// under policy's WalkableMinNormalZ.
func IsWalkable(n mathx.Vec3, policy tolerance.Policy) bool {
	return n.Z() >= policy.WalkableMinNormalZ
}
