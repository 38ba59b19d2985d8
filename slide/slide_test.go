// Copyright © 2024 Ardentcraft.

package slide

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardentcraft/worldphys/eventlog"
	"github.com/ardentcraft/worldphys/geom"
	"github.com/ardentcraft/worldphys/mathx"
	"github.com/ardentcraft/worldphys/scenequery"
	"github.com/ardentcraft/worldphys/tolerance"
	"github.com/ardentcraft/worldphys/worldmap"
)

func wallSceneQuery(t *testing.T) *scenequery.SceneQuery {
	t.Helper()
	model := worldmap.NewWorldModel([]geom.Triangle{
		{A: mathx.V3(1, -10, -10), B: mathx.V3(1, 10, 10), C: mathx.V3(1, 10, -10)},
		{A: mathx.V3(1, -10, -10), B: mathx.V3(1, -10, 10), C: mathx.V3(1, 10, 10)},
	})
	spawns := []worldmap.SpawnRecord{{
		ID: 1, ModelKey: "wall", TileX: 32, TileY: 32,
		Position: [3]float64{0, 0, 0}, Scale: 1,
		LocalBounds: [2][3]float64{{1, -10, -10}, {1, 10, 10}},
	}}
	tree := worldmap.NewStaticMapTree(spawns, map[string]*worldmap.WorldModel{"wall": model}, eventlog.Noop)
	tree.LoadTile(32, 32)
	q := scenequery.New(eventlog.Noop)
	q.AddMap(1, tree, nil)
	return q
}

func ceilingSceneQuery(t *testing.T) *scenequery.SceneQuery {
	t.Helper()
	model := worldmap.NewWorldModel([]geom.Triangle{
		{A: mathx.V3(-10, -10, 2), B: mathx.V3(10, 10, 2), C: mathx.V3(10, -10, 2)},
		{A: mathx.V3(-10, -10, 2), B: mathx.V3(-10, 10, 2), C: mathx.V3(10, 10, 2)},
	})
	spawns := []worldmap.SpawnRecord{{
		ID: 1, ModelKey: "ceiling", TileX: 32, TileY: 32,
		Position: [3]float64{0, 0, 0}, Scale: 1,
		LocalBounds: [2][3]float64{{-10, -10, 2}, {10, 10, 2}},
	}}
	tree := worldmap.NewStaticMapTree(spawns, map[string]*worldmap.WorldModel{"ceiling": model}, eventlog.Noop)
	tree.LoadTile(32, 32)
	q := scenequery.New(eventlog.Noop)
	q.AddMap(1, tree, nil)
	return q
}

func TestCollideAndSlideStopsAtWallWithContactOffset(t *testing.T) {
	q := wallSceneQuery(t)
	policy := tolerance.DefaultPolicy()
	capsule := geom.Capsule{P0: mathx.V3(0, 0, 0), P1: mathx.V3(0, 0, 2), Radius: 0.3}

	res := CollideAndSlide(q, policy, 1, capsule, mathx.V3(1, 0, 0), 2, true, false, Options{})

	require.True(t, res.HitWall)
	expectedX := 1 - capsule.Radius - policy.ContactOffset(capsule.Radius)
	assert.InDelta(t, expectedX, res.Position.X(), 1e-6)
	assert.InDelta(t, 0, res.Position.Y(), 1e-9)
	assert.LessOrEqual(t, res.Iterations, 3)
}

func TestCollideAndSlideAdvancesFullDistanceWhenUnobstructed(t *testing.T) {
	q := wallSceneQuery(t)
	policy := tolerance.DefaultPolicy()
	capsule := geom.Capsule{P0: mathx.V3(-5, 0, 0), P1: mathx.V3(-5, 0, 2), Radius: 0.3}

	res := CollideAndSlide(q, policy, 1, capsule, mathx.V3(0, 1, 0), 3, true, false, Options{})

	assert.False(t, res.HitWall)
	assert.InDelta(t, -5, res.Position.X(), 1e-9)
	assert.InDelta(t, 3, res.Position.Y(), 1e-9)
}

func TestCollideAndSlideStopsAtCeilingWhenPrevented(t *testing.T) {
	q := ceilingSceneQuery(t)
	policy := tolerance.DefaultPolicy()
	capsule := geom.Capsule{P0: mathx.V3(0, 0, 0), P1: mathx.V3(0, 0, 1), Radius: 0.3}

	res := CollideAndSlide(q, policy, 1, capsule, mathx.V3(0, 0, 1), 5, false, true, Options{})

	require.True(t, res.HitCeiling)
	expectedZ := 2 - 1 - capsule.Radius - policy.ContactOffset(capsule.Radius)
	assert.InDelta(t, expectedZ, res.Position.Z(), 1e-6)
}

func TestCollideAndSlideZeroDistanceIsNoop(t *testing.T) {
	q := wallSceneQuery(t)
	policy := tolerance.DefaultPolicy()
	capsule := geom.Capsule{P0: mathx.V3(0, 0, 0), P1: mathx.V3(0, 0, 2), Radius: 0.3}

	res := CollideAndSlide(q, policy, 1, capsule, mathx.V3(1, 0, 0), 0, true, false, Options{})

	assert.Equal(t, capsule.P0, res.Position)
	assert.Equal(t, 0, res.Iterations)
}
