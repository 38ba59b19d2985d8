// Copyright © 2024 Ardentcraft.

package worldmap

import (
	"github.com/ardentcraft/worldphys/bih"
	"github.com/ardentcraft/worldphys/geom"
	"github.com/ardentcraft/worldphys/mathx"
)

// NewWorldModel builds a WorldModel over tris (model-local space). Meshes
// at or below localMeshIndexThreshold skip the per-model BIH — the linear
// scan GetMeshDataInBounds falls back to is cheaper than tree traversal at
// that size.
func NewWorldModel(tris []geom.Triangle) *WorldModel {
	m := &WorldModel{Triangles: tris}
	if len(tris) > localMeshIndexThreshold {
		bounds := make([]mathx.AABox, len(tris))
		for i, t := range tris {
			bounds[i] = t.Bounds()
		}
		m.localTree = bih.Build(bounds)
	}
	return m
}

// GetMeshDataInBounds returns the triangles of m whose bounds overlap
// localBox (a model-local-space query box). A model with no local index
// (one at or below localMeshIndexThreshold) returns its entire triangle
// list, matching the spec's "fall back to the full mesh
// when unavailable" contract.
func (m *WorldModel) GetMeshDataInBounds(localBox mathx.AABox) []geom.Triangle {
	tris, _ := m.meshInBounds(localBox)
	return tris
}

// GetMeshIndicesInBounds returns, parallel to GetMeshDataInBounds, each
// triangle's index into m.Triangles — the identity a SceneHit's triangle
// index is drawn from, and the sweep tie-break's ordering key.
func (m *WorldModel) GetMeshIndicesInBounds(localBox mathx.AABox) []int32 {
	_, idx := m.meshInBounds(localBox)
	return idx
}

func (m *WorldModel) meshInBounds(localBox mathx.AABox) ([]geom.Triangle, []int32) {
	if m == nil {
		return nil, nil
	}
	if m.localTree == nil {
		idx := make([]int32, len(m.Triangles))
		for i := range m.Triangles {
			idx[i] = int32(i)
		}
		return m.Triangles, idx
	}
	hit := m.localTree.QueryAABB(localBox, nil)
	tris := make([]geom.Triangle, len(hit))
	idx := make([]int32, len(hit))
	for i, ix := range hit {
		tris[i] = m.Triangles[ix]
		idx[i] = int32(ix)
	}
	return tris, idx
}

// acquire increments m's reference count. Called when a tile load brings a
// new instance of m into residency.
func (m *WorldModel) acquire() { m.refCount++ }

// release decrements m's reference count, reporting whether it reached
// zero (the caller should then drop its pointer to m — WorldModel carries
// no further behavior on release, the spec leaves the backing mesh's
// memory lifetime to the loader that decoded it).
func (m *WorldModel) release() bool {
	m.refCount--
	return m.refCount <= 0
}
