// Copyright © 2024 Ardentcraft.

package worldmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardentcraft/worldphys/eventlog"
	"github.com/ardentcraft/worldphys/geom"
	"github.com/ardentcraft/worldphys/mathx"
)

func flatQuadModel() *WorldModel {
	return NewWorldModel([]geom.Triangle{
		{A: mathx.V3(-10, -10, 0), B: mathx.V3(10, -10, 0), C: mathx.V3(10, 10, 0)},
		{A: mathx.V3(-10, -10, 0), B: mathx.V3(10, 10, 0), C: mathx.V3(-10, 10, 0)},
	})
}

func oneInstanceTree(t *testing.T) *StaticMapTree {
	t.Helper()
	spawns := []SpawnRecord{{
		ID:          1,
		ModelKey:    "floor",
		TileX:       3,
		TileY:       5,
		Position:    [3]float64{0, 0, 0},
		Scale:       1,
		LocalBounds: [2][3]float64{{-10, -10, -0.1}, {10, 10, 0.1}},
	}}
	models := map[string]*WorldModel{"floor": flatQuadModel()}
	return NewStaticMapTree(spawns, models, eventlog.Noop)
}

func TestTileOfMatchesGridFormula(t *testing.T) {
	tc := TileOf(mathx.V3(0, 0, 0))
	assert.Equal(t, TileCoord{X: 32, Y: 32}, tc)
}

func TestNewStaticMapTreeIndexesByTile(t *testing.T) {
	tree := oneInstanceTree(t)
	require.Equal(t, 1, tree.InstanceCount())
	inst := tree.Instance(0)
	assert.False(t, inst.Loaded)
	assert.Nil(t, inst.Model)
}

func TestLoadTileIsIdempotentAndRefcounted(t *testing.T) {
	tree := oneInstanceTree(t)
	tree.LoadTile(3, 5)
	inst := tree.Instance(0)
	assert.True(t, inst.Loaded)
	assert.NotNil(t, inst.Model)

	tree.LoadTile(3, 5)
	tree.UnloadTile(3, 5)
	inst = tree.Instance(0)
	assert.True(t, inst.Loaded, "still referenced by the first LoadTile")

	tree.UnloadTile(3, 5)
	inst = tree.Instance(0)
	assert.False(t, inst.Loaded)
	assert.Nil(t, inst.Model)
	assert.Equal(t, uint32(1), inst.ID, "slot id survives unload")
}

func TestUnloadTileOnNeverLoadedTileIsNoop(t *testing.T) {
	tree := oneInstanceTree(t)
	assert.NotPanics(t, func() { tree.UnloadTile(3, 5) })
}

func TestGetHeightFindsLoadedFloor(t *testing.T) {
	tree := oneInstanceTree(t)
	tree.LoadTile(3, 5)

	z, ok := tree.GetHeight(mathx.V3(1, 1, 5), 20)
	require.True(t, ok)
	assert.InDelta(t, 0.0, z, 1e-6)
}

func TestGetHeightIgnoresUnloadedInstances(t *testing.T) {
	tree := oneInstanceTree(t)
	_, ok := tree.GetHeight(mathx.V3(1, 1, 5), 20)
	assert.False(t, ok)
}

func TestGetAreaInfoReportsInstanceID(t *testing.T) {
	tree := oneInstanceTree(t)
	tree.LoadTile(3, 5)

	info, ok := tree.GetAreaInfo(mathx.V3(1, 1, 0))
	require.True(t, ok)
	assert.Equal(t, uint32(1), info.Instance)
}

func TestIsInLineOfSightBlockedByLoadedFloor(t *testing.T) {
	tree := oneInstanceTree(t)
	tree.LoadTile(3, 5)

	ok := tree.IsInLineOfSight(mathx.V3(0, 0, 5), mathx.V3(0, 0, -5), false)
	assert.False(t, ok)
}

func TestIsInLineOfSightClearWhenUnloaded(t *testing.T) {
	tree := oneInstanceTree(t)
	ok := tree.IsInLineOfSight(mathx.V3(0, 0, 5), mathx.V3(0, 0, -5), false)
	assert.True(t, ok)
}

func TestIsInLineOfSightClearAboveFloor(t *testing.T) {
	tree := oneInstanceTree(t)
	tree.LoadTile(3, 5)

	ok := tree.IsInLineOfSight(mathx.V3(-5, -5, 5), mathx.V3(5, 5, 5), false)
	assert.True(t, ok)
}
