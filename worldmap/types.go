// Copyright © 2024 Ardentcraft.
//
// Package worldmap holds the static (non-terrain) part of a loaded map: mesh
// model instances placed around the world, the bounding-interval hierarchy
// over their bounds, and the tile-granular load/unload lifecycle that keeps
// only nearby instances resident.
//
// Grounded on the teacher's land/tile.go (tile keying, idempotent
// load/repurpose semantics) and physics/body.go (stable integer ids handed
// out once and never reused, shared-handle lifetime).
package worldmap

import (
	"github.com/ardentcraft/worldphys/bih"
	"github.com/ardentcraft/worldphys/geom"
	"github.com/ardentcraft/worldphys/mathx"
)

// InvalidInstanceID is the reserved id meaning "terrain, not a model
// instance" — it is never assigned to a real ModelInstance.
const InvalidInstanceID uint32 = 0

// ModelInstance places one WorldModel in the world: a transform, the
// world-space bounds of that placement, a stable id, and a collision mask.
// Instances are value-typed and held in a dense array by StaticMapTree; the
// BIH's leaves reference them by array index, never by pointer, so a
// reload never invalidates an in-flight query's candidate list.
type ModelInstance struct {
	ID        uint32
	Transform mathx.Transform
	Bounds    mathx.AABox
	Model     *WorldModel
	Mask      uint32

	// Loaded reports whether Model is presently resident. A slot with
	// Loaded == false keeps its ID and Transform (so standing-on / contact
	// history referencing this id stays meaningful) but is skipped by
	// every query.
	Loaded bool

	refCount int32
}

// WorldModel is the indexed triangle mesh shared by every ModelInstance
// that places the same underlying model. It is reference-counted by
// StaticMapTree: the last UnloadTile dropping an instance's count to zero
// releases the model via release.
type WorldModel struct {
	Triangles []geom.Triangle // model-local space.
	localTree *bih.Tree       // nil for meshes too small to bother indexing.

	refCount int32
}

// localMeshIndexThreshold is the triangle count above which WorldModel
// builds its own bounding-interval hierarchy over local-space triangle
// bounds, rather than handing SceneQuery the entire triangle list on every
// GetMeshDataInBounds call.
const localMeshIndexThreshold = 64

// AreaInfo is the result of a point-in-volume enumeration against the
// model instances overlapping a point.
type AreaInfo struct {
	Flags    uint32
	AdtID    uint32
	RootID   uint32
	GroupID  uint32
	GroundZ  float64
	Instance uint32 // source ModelInstance.ID, or InvalidInstanceID for terrain-only.
}
