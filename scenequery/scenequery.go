// Copyright © 2024 Ardentcraft.
//
// Package scenequery is the unified broad-and-narrow-phase query layer over
// a map's model instances (worldmap.StaticMapTree) and terrain
// (terrain.Grid). It answers capsule sweeps, capsule/sphere/box overlaps,
// line-of-sight checks, and liquid sampling against both sources at once,
// in mixed coordinate frames (world, map-internal, model-local).
//
// Grounded on the teacher's physics/collision.go (the collide-function
// table dispatching per shape pair, and its "return a list of contact
// points" contract, generalized here to "return a sorted list of
// SceneHit") and physics/caster.go (ray-vs-shape cast dispatch, the shape
// this package's IntersectRayTriangle/CapsuleTriangleSweep calls replace
// with a capsule/triangle-specific kernel).
package scenequery

import (
	"math"
	"sort"

	"github.com/ardentcraft/worldphys/eventlog"
	"github.com/ardentcraft/worldphys/geom"
	"github.com/ardentcraft/worldphys/mathx"
	"github.com/ardentcraft/worldphys/terrain"
	"github.com/ardentcraft/worldphys/tolerance"
	"github.com/ardentcraft/worldphys/worldmap"
)

// windowEpsilon is the slack added to a sweep's Z-window to absorb
// floating-point rounding at the window edges.
const windowEpsilon = 1e-3

// HitKind distinguishes which geometry source produced a SceneHit.
type HitKind uint8

const (
	HitModel HitKind = iota
	HitTerrain
)

// SceneHit is one candidate contact returned by a SceneQuery operation, in
// world space.
type SceneHit struct {
	Kind             HitKind
	InstanceID       uint32 // worldmap.InvalidInstanceID for terrain hits.
	TriangleIndex    int32  // index into the source model's triangle list, or the terrain tile's quad-pair index.
	Region           geom.Region
	Point            mathx.Vec3
	Normal           mathx.Vec3
	Time             float64 // sweep parameter in [0,1]; 0 for overlap/start-penetration hits.
	Distance         float64 // world units travelled at Time; 0 for overlap/start-penetration hits.
	Depth            float64 // penetration depth; 0 for pure sweep hits with no start penetration.
	StartPenetrating bool
	NormalFlipped    bool
	Mask             uint32
}

// LiquidInfo is the result of EvaluateLiquidAt.
type LiquidInfo struct {
	Level      float64
	Type       terrain.LiquidType
	FromVmap   bool
	HasLevel   bool
	IsSwimming bool
}

// mapSources bundles the two geometry sources backing one map id.
type mapSources struct {
	tree    *worldmap.StaticMapTree
	terrain *terrain.Grid
}

// SceneQuery is the per-server query root: a registry of maps, each with
// its own StaticMapTree and terrain.Grid.
type SceneQuery struct {
	maps   map[uint32]*mapSources
	sink   eventlog.Sink
	policy tolerance.Policy
}

// New builds an empty SceneQuery using tolerance.DefaultPolicy. sink
// receives CategoryQuery diagnostics; pass eventlog.Noop for none.
func New(sink eventlog.Sink) *SceneQuery {
	return NewWithPolicy(tolerance.DefaultPolicy(), sink)
}

// NewWithPolicy builds an empty SceneQuery using an explicit tolerance
// policy, so a server can share one Policy across SceneQuery, the slide
// resolver, and the physics step.
func NewWithPolicy(policy tolerance.Policy, sink eventlog.Sink) *SceneQuery {
	if sink == nil {
		sink = eventlog.Noop
	}
	return &SceneQuery{maps: make(map[uint32]*mapSources), sink: sink, policy: policy}
}

// ContactOffset returns the skin width this query's policy assigns a
// capsule of the given radius.
func (q *SceneQuery) ContactOffset(radius float64) float64 {
	return q.policy.ContactOffset(radius)
}

// AddMap registers the geometry sources for mapID. Replaces any existing
// registration for the same id.
func (q *SceneQuery) AddMap(mapID uint32, tree *worldmap.StaticMapTree, grid *terrain.Grid) {
	q.maps[mapID] = &mapSources{tree: tree, terrain: grid}
}

func toGeomTriangle(t terrain.TerrainTriangle) geom.Triangle {
	return geom.Triangle{A: t.A, B: t.B, C: t.C}
}

// SweepOptions overrides SweepCapsule's default step window. The zero
// value uses the SceneQuery's tolerance.Policy StepDownHeight/StepHeight.
type SweepOptions struct {
	StepDown float64
	StepUp   float64
	Mask     uint32 // 0 means "no mask filtering".
}

func (o SweepOptions) stepDown(policy tolerance.Policy) float64 {
	if o.StepDown > 0 {
		return o.StepDown
	}
	return policy.StepDownHeight
}

func (o SweepOptions) stepUp(policy tolerance.Policy) float64 {
	if o.StepUp > 0 {
		return o.StepUp
	}
	return policy.StepHeight
}

// SweepCapsule sweeps start along dir (a unit vector) for distance world
// units against mapID's model instances and terrain, returning every
// contact within the Z-window, sorted start-penetrating-first then by
// ascending time.
func (q *SceneQuery) SweepCapsule(mapID uint32, start geom.Capsule, dir mathx.Vec3, distance float64, opts SweepOptions) []SceneHit {
	src := q.maps[mapID]
	if src == nil || distance <= 0 {
		return nil
	}
	vel := dir.Scale(distance)
	end := start.Translate(vel)
	broad := start.Bounds().Merge(end.Bounds())
	terrainGateBox := broad.Inflate(q.ContactOffset(start.Radius))

	// a downward sweep lowers the window's floor by the distance it travels,
	// as an upward sweep raises its ceiling.
	feetZ := math.Min(start.P0.Z(), start.P1.Z()) - distance*math.Max(0, -dir.Z())
	headZ := math.Max(start.P0.Z(), start.P1.Z()) + distance*math.Max(0, dir.Z())
	zLow := feetZ - opts.stepDown(q.policy) - windowEpsilon
	zHigh := headZ + windowEpsilon

	var hits []SceneHit

	if src.tree != nil {
		candidates := src.tree.QueryAABB(broad, nil)
		for _, idx := range candidates {
			inst := src.tree.Instance(idx)
			if !inst.Loaded || inst.Model == nil {
				continue
			}
			if opts.Mask != 0 && inst.Mask&opts.Mask == 0 {
				continue
			}
			localStart := geom.Capsule{
				P0:     inst.Transform.ToLocal(start.P0),
				P1:     inst.Transform.ToLocal(start.P1),
				Radius: start.Radius * inst.Transform.ScaleInv,
			}
			localVel := inst.Transform.ToLocalDir(vel)
			localBox := localStart.Bounds().Merge(localStart.Translate(localVel).Bounds())
			gateBox := localBox.Inflate(q.ContactOffset(localStart.Radius))
			tris := inst.Model.GetMeshDataInBounds(localBox)
			triIdx := inst.Model.GetMeshIndicesInBounds(localBox)

			for ti, tri := range tris {
				if !gateBox.Intersects(tri.Bounds()) {
					continue
				}
				if hit, ok := geom.IntersectCapsuleTriangle(localStart, tri); ok {
					worldPoint := inst.Transform.ToWorld(hit.Point)
					if worldPoint.Z() < zLow || worldPoint.Z() > zHigh {
						continue
					}
					hits = append(hits, q.modelHit(inst, worldPoint, inst.Transform.NormalToWorld(hit.Normal), hit.Depth, true, 0, 0, triIdx[ti], hit.Region))
					continue
				}
				if swHit, ok := geom.CapsuleTriangleSweep(localStart, localVel, tri); ok {
					worldPoint := inst.Transform.ToWorld(swHit.Point)
					if worldPoint.Z() < zLow || worldPoint.Z() > zHigh {
						continue
					}
					worldNormal := inst.Transform.NormalToWorld(swHit.Normal)
					hits = append(hits, q.modelHit(inst, worldPoint, worldNormal, 0, false, swHit.T, swHit.T*distance, triIdx[ti], swHit.Region))
				}
			}
		}
	}

	if src.terrain != nil {
		xyBox := mathx.AABox{
			Low:  mathx.V3(broad.Low.X(), broad.Low.Y(), -mathx.Large),
			High: mathx.V3(broad.High.X(), broad.High.Y(), mathx.Large),
		}
		terrainTris := src.terrain.TrianglesIn(mapID, xyBox)
		for _, tt := range terrainTris {
			tri := toGeomTriangle(tt)
			if !terrainGateBox.Intersects(tri.Bounds()) {
				continue
			}
			if hit, ok := geom.IntersectCapsuleTriangle(start, tri); ok {
				if hit.Point.Z() < zLow || hit.Point.Z() > zHigh {
					continue
				}
				hits = append(hits, q.terrainHit(hit.Point, hit.Normal, hit.Depth, true, 0, 0, tt.Index, hit.Region))
				continue
			}
			if swHit, ok := geom.CapsuleTriangleSweep(start, vel, tri); ok {
				if swHit.Point.Z() < zLow || swHit.Point.Z() > zHigh {
					continue
				}
				hits = append(hits, q.terrainHit(swHit.Point, swHit.Normal, 0, false, swHit.T, swHit.T*distance, tt.Index, swHit.Region))
			}
		}
	}

	orientSweepNormals(hits, vel)
	sortSceneHits(hits)
	return hits
}

func (q *SceneQuery) modelHit(inst worldmap.ModelInstance, point, normal mathx.Vec3, depth float64, startPen bool, t, dist float64, triIdx int32, region geom.Region) SceneHit {
	return SceneHit{
		Kind:             HitModel,
		InstanceID:       inst.ID,
		TriangleIndex:    triIdx,
		Region:           region,
		Point:            point,
		Normal:           normal,
		Time:             t,
		Distance:         dist,
		Depth:            depth,
		StartPenetrating: startPen,
		Mask:             inst.Mask,
	}
}

func (q *SceneQuery) terrainHit(point, normal mathx.Vec3, depth float64, startPen bool, t, dist float64, triIdx int32, region geom.Region) SceneHit {
	return SceneHit{
		Kind:             HitTerrain,
		InstanceID:       worldmap.InvalidInstanceID,
		TriangleIndex:    triIdx,
		Region:           region,
		Point:            point,
		Normal:           normal,
		Time:             t,
		Distance:         dist,
		Depth:            depth,
		StartPenetrating: startPen,
	}
}

// orientSweepNormals flips every non-start-penetrating hit's normal so it
// opposes vel, per the sweep normal-orientation policy, recording the flip
// in NormalFlipped.
func orientSweepNormals(hits []SceneHit, vel mathx.Vec3) {
	for i := range hits {
		h := &hits[i]
		if h.StartPenetrating {
			continue
		}
		if h.Normal.Dot(vel) > 0 {
			h.Normal = h.Normal.Neg()
			h.NormalFlipped = true
		}
	}
}

// sortSceneHits orders start-penetrating hits first (by descending Point.Z,
// then descending Depth), followed by sweep hits (by ascending Time, ties
// broken by ascending triangle index — the documented, deterministic
// tie-break for contacts that land at the same instant).
func sortSceneHits(hits []SceneHit) {
	sort.SliceStable(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		if a.StartPenetrating != b.StartPenetrating {
			return a.StartPenetrating
		}
		if a.StartPenetrating {
			if a.Point.Z() != b.Point.Z() {
				return a.Point.Z() > b.Point.Z()
			}
			return a.Depth > b.Depth
		}
		if a.Time != b.Time {
			return a.Time < b.Time
		}
		return a.TriangleIndex < b.TriangleIndex
	})
}

// OverlapCapsule returns every model/terrain hit touching capsule c,
// filtered by includeMask (0 means no filtering).
func (q *SceneQuery) OverlapCapsule(mapID uint32, c geom.Capsule, includeMask uint32) []SceneHit {
	src := q.maps[mapID]
	if src == nil {
		return nil
	}
	mid := c.P0.Add(c.P1).Scale(0.5)
	var hits []SceneHit

	if src.tree != nil {
		candidates := src.tree.QueryAABB(c.Bounds(), nil)
		for _, idx := range candidates {
			inst := src.tree.Instance(idx)
			if !inst.Loaded || inst.Model == nil {
				continue
			}
			if includeMask != 0 && inst.Mask&includeMask == 0 {
				continue
			}
			localC := geom.Capsule{
				P0:     inst.Transform.ToLocal(c.P0),
				P1:     inst.Transform.ToLocal(c.P1),
				Radius: c.Radius * inst.Transform.ScaleInv,
			}
			localBox := localC.Bounds()
			tris := inst.Model.GetMeshDataInBounds(localBox)
			triIdx := inst.Model.GetMeshIndicesInBounds(localBox)
			for ti, tri := range tris {
				if hit, ok := geom.IntersectCapsuleTriangle(localC, tri); ok {
					worldPoint := inst.Transform.ToWorld(hit.Point)
					n := orientOverlapNormal(inst.Transform.NormalToWorld(hit.Normal), worldPoint, mid)
					hits = append(hits, SceneHit{
						Kind: HitModel, InstanceID: inst.ID, TriangleIndex: triIdx[ti], Region: hit.Region, Point: worldPoint,
						Normal: n.n, Depth: hit.Depth, Mask: inst.Mask, NormalFlipped: n.flipped,
					})
				}
			}
		}
	}

	if src.terrain != nil {
		tris := src.terrain.TrianglesIn(mapID, mathx.AABox{
			Low:  mathx.V3(c.Bounds().Low.X(), c.Bounds().Low.Y(), -mathx.Large),
			High: mathx.V3(c.Bounds().High.X(), c.Bounds().High.Y(), mathx.Large),
		})
		for _, tt := range tris {
			tri := toGeomTriangle(tt)
			if hit, ok := geom.IntersectCapsuleTriangle(c, tri); ok {
				n := orientOverlapNormal(hit.Normal, hit.Point, mid)
				hits = append(hits, SceneHit{
					Kind: HitTerrain, InstanceID: worldmap.InvalidInstanceID, TriangleIndex: tt.Index, Region: hit.Region,
					Point: hit.Point, Normal: n.n, Depth: hit.Depth, NormalFlipped: n.flipped,
				})
			}
		}
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Depth > hits[j].Depth })
	return hits
}

type orientedNormal struct {
	n       mathx.Vec3
	flipped bool
}

// orientOverlapNormal flips n so it points away from the triangle contact
// point, back toward capsuleMid (n·(contact−capsuleMid) ≤ 0: a stable
// separating direction that survives reflected transforms, per the overlap
// normal-orientation policy).
func orientOverlapNormal(n, contact, capsuleMid mathx.Vec3) orientedNormal {
	toContact := contact.Sub(capsuleMid)
	if n.Dot(toContact) > 0 {
		return orientedNormal{n: n.Neg(), flipped: true}
	}
	return orientedNormal{n: n, flipped: false}
}

// OverlapSphere is OverlapCapsule degenerated to a zero-length capsule.
func (q *SceneQuery) OverlapSphere(mapID uint32, center mathx.Vec3, radius float64, includeMask uint32) []SceneHit {
	return q.OverlapCapsule(mapID, geom.Capsule{P0: center, P1: center, Radius: radius}, includeMask)
}

// OverlapBox approximates box with a bounding sphere of radius equal to its
// half-diagonal, per the spec's box-query contract.
func (q *SceneQuery) OverlapBox(mapID uint32, box mathx.AABox, includeMask uint32) []SceneHit {
	return q.OverlapSphere(mapID, box.Center(), box.HalfDiagonal(), includeMask)
}

// LineOfSight reports whether a straight segment from a to b is
// unobstructed by any loaded model instance or terrain triangle,
// short-circuiting on the first hit from either source.
func (q *SceneQuery) LineOfSight(mapID uint32, a, b mathx.Vec3) bool {
	src := q.maps[mapID]
	if src == nil {
		return true
	}
	if src.tree != nil && !src.tree.IsInLineOfSight(a, b, false) {
		return false
	}
	delta := b.Sub(a)
	dist := delta.Len()
	if dist < mathx.Epsilon || src.terrain == nil {
		return true
	}
	lo, hi := a, b
	xyBox := mathx.AABox{
		Low:  mathx.V3(math.Min(lo.X(), hi.X()), math.Min(lo.Y(), hi.Y()), -mathx.Large),
		High: mathx.V3(math.Max(lo.X(), hi.X()), math.Max(lo.Y(), hi.Y()), mathx.Large),
	}
	dir := delta.Scale(1.0 / dist)
	ray := mathx.Ray{Origin: a, Dir: dir}
	for _, tt := range src.terrain.TrianglesIn(mapID, xyBox) {
		tri := toGeomTriangle(tt)
		if tt2, _, _, ok := geom.IntersectRayTriangle(ray.Origin, ray.Dir, tri); ok && tt2 <= dist {
			return false
		}
	}
	return true
}

// InstanceLocalPoint converts a world-space point into instanceID's local
// frame, for callers (the standing-on carry-through in physx) that need to
// re-express a contact relative to the instance it landed on rather than
// in world space. Returns ok=false when mapID or instanceID is unknown.
func (q *SceneQuery) InstanceLocalPoint(mapID, instanceID uint32, world mathx.Vec3) (mathx.Vec3, bool) {
	src := q.maps[mapID]
	if src == nil || src.tree == nil {
		return mathx.Vec3{}, false
	}
	inst, ok := src.tree.InstanceByID(instanceID)
	if !ok {
		return mathx.Vec3{}, false
	}
	return inst.Transform.ToLocal(world), true
}

// EvaluateLiquidAt merges mapID's ADT-side liquid sample (from terrain)
// with no separate "volume" liquid source in this module — volumes are
// out of scope since the spec's volume liquid is map-format-specific
// trigger geometry this module never decodes — so "volume wins when
// present" degenerates to "ADT liquid is the only source". isSwimming is
// set when the liquid level exceeds z and the type is water.
func (q *SceneQuery) EvaluateLiquidAt(mapID uint32, x, y, z float64) LiquidInfo {
	src := q.maps[mapID]
	if src == nil || src.terrain == nil {
		return LiquidInfo{}
	}
	sample, ok := src.terrain.LiquidAt(mapID, x, y)
	if !ok {
		return LiquidInfo{}
	}
	info := LiquidInfo{Level: sample.Level, Type: sample.Type, HasLevel: true}
	info.IsSwimming = sample.Level-z > 0 && sample.Type == terrain.LiquidWater
	return info
}
