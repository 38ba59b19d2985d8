// Copyright © 2024 Ardentcraft.

package worldmap

import (
	"math"

	"github.com/google/uuid"

	"github.com/ardentcraft/worldphys/eventlog"
	"github.com/ardentcraft/worldphys/geom"
	"github.com/ardentcraft/worldphys/mathx"

	"github.com/ardentcraft/worldphys/bih"
)

// GridSize is one terrain tile's side length in world units, matching the
// source map format's 533.333…-yard tiles.
const GridSize = 533.33333333

// gridTiles is the number of tiles on a side of the map; world coordinates
// run from -mid to +mid across the full grid.
const gridTiles = 64

const gridMid = (gridTiles / 2) * GridSize

// TileCoord identifies one terrain/model tile by its grid indices.
type TileCoord struct {
	X, Y int
}

// TileOf returns the tile containing world point p, using the map format's
// axis convention: tileX runs against world Y, tileY against world X.
func TileOf(p mathx.Vec3) TileCoord {
	return TileCoord{
		X: int(math.Floor((gridMid - p.Y()) / GridSize)),
		Y: int(math.Floor((gridMid - p.X()) / GridSize)),
	}
}

// StaticMapTree is the per-map root: the BIH over every model instance's
// world bounds (built once, immutable for the map's lifetime), the dense
// instance array the tree's leaves index into, the tile→instance-index
// membership used by LoadTile/UnloadTile, and the WorldModel registry those
// calls acquire/release against.
//
// Grounded on the teacher's land/tile.go (idempotent load/repurpose, tile
// keying) and physics/body.go (stable ids handed out once, never reused).
type StaticMapTree struct {
	instances []ModelInstance
	// modelKeys is instances' registry key, parallel by index. It is kept
	// out of the exported ModelInstance type since only LoadTile ever needs
	// it — a query never looks a model up by name, only by the pointer
	// already sitting on the instance.
	modelKeys []string
	byTile    map[TileCoord][]int32
	models    map[string]*WorldModel
	tree      *bih.Tree
	sink      eventlog.Sink
}

// NewStaticMapTree builds a StaticMapTree from spawns and the model registry
// models (keyed by SpawnRecord.ModelKey). The BIH is built once over every
// instance's world bounds regardless of load state, matching the spec's "BIH
// immutable after build" invariant (P-architecture) — load/unload only ever
// flips ModelInstance.Loaded and ModelInstance.Model, never the tree.
func NewStaticMapTree(spawns []SpawnRecord, models map[string]*WorldModel, sink eventlog.Sink) *StaticMapTree {
	if sink == nil {
		sink = eventlog.Noop
	}
	t := &StaticMapTree{
		byTile: make(map[TileCoord][]int32, len(spawns)),
		models: models,
		sink:   sink,
	}
	t.instances = make([]ModelInstance, len(spawns))
	keys := make([]string, len(spawns))
	bounds := make([]mathx.AABox, len(spawns))
	for i, s := range spawns {
		tr := s.transform()
		t.instances[i] = ModelInstance{
			ID:        s.ID,
			Transform: tr,
			Bounds:    s.worldBounds(tr),
			Mask:      s.Mask,
		}
		keys[i] = s.ModelKey
		bounds[i] = t.instances[i].Bounds
		tc := TileCoord{X: s.TileX, Y: s.TileY}
		t.byTile[tc] = append(t.byTile[tc], int32(i))
	}
	t.tree = bih.Build(bounds)
	t.modelKeys = keys
	return t
}

// InstanceCount returns the number of model instance slots, loaded or not.
func (t *StaticMapTree) InstanceCount() int { return len(t.instances) }

// Instance returns a copy of the instance at idx. Used by SceneQuery when
// turning a BIH candidate index into the data it needs for a narrow-phase
// test.
func (t *StaticMapTree) Instance(idx int32) ModelInstance { return t.instances[idx] }

// InstanceByID does a linear scan for the instance with the given stable
// id, returning it and true on a match. Used by the standing-on
// carry-through (§6), which only runs once per tick per actor and never
// on the broad-phase hot path, so a scan over the dense instance array
// (rather than a second id->index map) keeps the tile-load path free of
// extra bookkeeping.
func (t *StaticMapTree) InstanceByID(id uint32) (ModelInstance, bool) {
	for i := range t.instances {
		if t.instances[i].ID == id {
			return t.instances[i], true
		}
	}
	return ModelInstance{}, false
}

// QueryAABB appends every instance index whose world bounds may overlap box
// to dst and returns the extended slice, regardless of load state —
// SceneQuery filters unloaded instances itself so it can distinguish "no
// geometry here" from "geometry here but not resident".
func (t *StaticMapTree) QueryAABB(box mathx.AABox, dst []int32) []int32 {
	return t.tree.QueryAABB(box, dst)
}

// IntersectRay walks the BIH in near-to-far order; see bih.Tree.IntersectRay.
func (t *StaticMapTree) IntersectRay(ray mathx.Ray, maxDist float64, visit bih.RayVisitor) {
	t.tree.IntersectRay(ray, maxDist, visit)
}

// LoadTile loads every instance registered to tile (tx, ty), incrementing
// each one's reference count. Idempotent: calling it again while instances
// are already resident only bumps the count, never double-acquires the
// backing WorldModel. An instance touched by multiple tiles (one that
// straddles a tile boundary) stays resident until every owning tile has
// called UnloadTile.
func (t *StaticMapTree) LoadTile(tx, ty int) {
	id := uuid.New()
	indices := t.byTile[TileCoord{X: tx, Y: ty}]
	loaded := 0
	for _, idx := range indices {
		inst := &t.instances[idx]
		if inst.refCount == 0 {
			model := t.models[t.modelKeys[idx]]
			if model != nil {
				model.acquire()
			}
			inst.Model = model
			inst.Loaded = true
			loaded++
		}
		inst.refCount++
	}
	if eventlog.Enabled(t.sink, eventlog.CategoryTileLifecycle) {
		t.sink.Logf(eventlog.CategoryTileLifecycle, "load tile (%d,%d) instances=%d newly_loaded=%d corr=%s",
			tx, ty, len(indices), loaded, id)
	}
}

// UnloadTile decrements the reference count of every instance registered to
// tile (tx, ty). An instance reaching zero is marked unloaded and releases
// its WorldModel, but its slot (id, transform, bounds) is retained so the
// BIH and any stable id referencing it stay valid.
func (t *StaticMapTree) UnloadTile(tx, ty int) {
	id := uuid.New()
	indices := t.byTile[TileCoord{X: tx, Y: ty}]
	unloaded := 0
	for _, idx := range indices {
		inst := &t.instances[idx]
		if inst.refCount == 0 {
			continue
		}
		inst.refCount--
		if inst.refCount == 0 {
			if inst.Model != nil {
				inst.Model.release()
			}
			inst.Model = nil
			inst.Loaded = false
			unloaded++
		}
	}
	if eventlog.Enabled(t.sink, eventlog.CategoryTileLifecycle) {
		t.sink.Logf(eventlog.CategoryTileLifecycle, "unload tile (%d,%d) instances=%d newly_unloaded=%d corr=%s",
			tx, ty, len(indices), unloaded, id)
	}
}

// heightSearchUp is how far above point a GetHeight raycast starts, so
// instances whose geometry sits above the query point are still found.
const heightSearchUp = 50.0

// GetHeight casts a ray downward from point (offset upward by
// heightSearchUp so instances above the query point are still found) and
// returns the world Z of the highest resident triangle it crosses within
// maxSearchDist, along with true. Returns (-Inf, false) when nothing is hit.
func (t *StaticMapTree) GetHeight(point mathx.Vec3, maxSearchDist float64) (float64, bool) {
	origin := point.Add(mathx.V3(0, 0, heightSearchUp))
	ray := mathx.Ray{Origin: origin, Dir: mathx.V3(0, 0, -1)}
	limit := heightSearchUp + maxSearchDist

	bestZ := math.Inf(-1)
	found := false

	candidates := t.tree.QueryAABB(mathx.AABox{
		Low:  mathx.V3(origin.X()-1e-3, origin.Y()-1e-3, origin.Z()-limit),
		High: mathx.V3(origin.X()+1e-3, origin.Y()+1e-3, origin.Z()+1e-3),
	}, nil)

	for _, idx := range candidates {
		inst := &t.instances[idx]
		if !inst.Loaded || inst.Model == nil {
			continue
		}
		localOrigin := inst.Transform.ToLocal(origin)
		localDir := inst.Transform.ToLocalDir(mathx.V3(0, 0, -1)).NormalizeOrZero()
		localRay := mathx.Ray{Origin: localOrigin, Dir: localDir}
		for _, tri := range inst.Model.Triangles {
			tt, _, _, ok := geom.IntersectRayTriangle(localRay.Origin, localRay.Dir, tri)
			if !ok {
				continue
			}
			worldHit := inst.Transform.ToWorld(localRay.At(tt))
			if worldHit.Z() <= bestZ {
				continue
			}
			if origin.Z()-worldHit.Z() > limit {
				continue
			}
			bestZ = worldHit.Z()
			found = true
		}
	}
	if !found {
		return math.Inf(-1), false
	}
	return bestZ, true
}

// GetAreaInfo returns area metadata for the highest resident instance whose
// world bounds contain point, matching the spec's point-in-volume
// enumeration. Instances carry no flags/adt/root/group fields of their own
// in this module (those are map-format concerns out of scope for the
// in-memory model); GetAreaInfo reports the owning instance id and leaves
// the categorical fields zero for a caller that only has in-memory spawn
// data, while still returning groundZ from a co-located GetHeight probe.
func (t *StaticMapTree) GetAreaInfo(point mathx.Vec3) (AreaInfo, bool) {
	candidates := t.tree.IntersectPoint(point, nil)
	best := int32(-1)
	bestTop := math.Inf(-1)
	for _, idx := range candidates {
		inst := &t.instances[idx]
		if !inst.Loaded {
			continue
		}
		if !inst.Bounds.Contains(point) {
			continue
		}
		if inst.Bounds.High.Z() > bestTop {
			bestTop = inst.Bounds.High.Z()
			best = idx
		}
	}
	if best < 0 {
		return AreaInfo{}, false
	}
	groundZ, _ := t.GetHeight(point, GridSize)
	return AreaInfo{
		Instance: t.instances[best].ID,
		GroundZ:  groundZ,
	}, true
}

// IsInLineOfSight reports whether the segment a→b is unobstructed by any
// resident, loaded-instance triangle. ignoreSecondary skips instances whose
// Mask bit 0 marks them as "doodad" geometry that line-of-sight checks
// conventionally see through (foliage, debris) — the spec leaves the exact
// mask semantics to the caller's collision-mask convention; bit 0 is this
// module's chosen default for "secondary" geometry.
func (t *StaticMapTree) IsInLineOfSight(a, b mathx.Vec3, ignoreSecondary bool) bool {
	delta := b.Sub(a)
	dist := delta.Len()
	if dist < mathx.Epsilon {
		return true
	}
	ray := mathx.Ray{Origin: a, Dir: delta.Scale(1.0 / dist)}

	blocked := false
	t.tree.IntersectRay(ray, dist, func(idx int32, maxDist float64) float64 {
		inst := &t.instances[idx]
		if !inst.Loaded || inst.Model == nil {
			return maxDist
		}
		if ignoreSecondary && inst.Mask&1 != 0 {
			return maxDist
		}
		localOrigin := inst.Transform.ToLocal(a)
		localDir := inst.Transform.ToLocalDir(delta).NormalizeOrZero()
		for _, tri := range inst.Model.Triangles {
			tt, _, _, ok := geom.IntersectRayTriangle(localOrigin, localDir, tri)
			if !ok {
				continue
			}
			worldHit := inst.Transform.ToWorld(localOrigin.Add(localDir.Scale(tt)))
			if worldHit.Sub(a).Len() < maxDist-mathx.Epsilon {
				blocked = true
				return worldHit.Sub(a).Len()
			}
		}
		return maxDist
	})
	return !blocked
}
