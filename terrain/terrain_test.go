// Copyright © 2024 Ardentcraft.

package terrain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardentcraft/worldphys/mathx"
)

type fakeLoader struct {
	tiles map[TileCoord]*Tile
}

func (f *fakeLoader) LoadTerrainTile(mapID uint32, tx, ty int) (*Tile, error) {
	t, ok := f.tiles[TileCoord{X: tx, Y: ty}]
	if !ok {
		return nil, errors.New("no such tile")
	}
	return t, nil
}

func flatTile(tc TileCoord, z, liquidLevel float64, hasLiquid bool) *Tile {
	t := &Tile{X: tc.X, Y: tc.Y}
	for i := 0; i < tileVerts; i++ {
		for j := 0; j < tileVerts; j++ {
			t.Heights[i][j] = z
		}
	}
	if hasLiquid {
		l := &LiquidLayer{Type: LiquidWater}
		for i := 0; i < tileVerts; i++ {
			for j := 0; j < tileVerts; j++ {
				l.Levels[i][j] = liquidLevel
			}
		}
		t.Liquid = l
	}
	return t
}

func TestHeightAtFlatTileReturnsConstantHeight(t *testing.T) {
	tc := TileOf(mathx.V3(0, 0, 0))
	g := NewGrid(&fakeLoader{tiles: map[TileCoord]*Tile{tc: flatTile(tc, 12.5, 0, false)}})

	h := g.HeightAt(1, 0, 0)
	assert.InDelta(t, 12.5, h, 1e-9)
}

func TestHeightAtUnloadableTileReturnsInvalid(t *testing.T) {
	g := NewGrid(&fakeLoader{tiles: map[TileCoord]*Tile{}})
	h := g.HeightAt(1, 0, 0)
	assert.Equal(t, InvalidHeight, h)
}

func TestHeightAtInterpolatesAcrossSlope(t *testing.T) {
	tc := TileOf(mathx.V3(0, 0, 0))
	tile := &Tile{X: tc.X, Y: tc.Y}
	x0, _ := tile.origin()
	spacing := sampleSpacing()
	for i := 0; i < tileVerts; i++ {
		for j := 0; j < tileVerts; j++ {
			worldX := x0 - float64(i)*spacing
			tile.Heights[i][j] = worldX
		}
	}
	g := NewGrid(&fakeLoader{tiles: map[TileCoord]*Tile{tc: tile}})

	h := g.HeightAt(1, -100, -100)
	assert.InDelta(t, -100.0, h, 1e-6)
}

func TestLiquidAtReturnsLevelAndType(t *testing.T) {
	tc := TileOf(mathx.V3(0, 0, 0))
	g := NewGrid(&fakeLoader{tiles: map[TileCoord]*Tile{tc: flatTile(tc, 0, 3.0, true)}})

	sample, ok := g.LiquidAt(1, 0, 0)
	require.True(t, ok)
	assert.InDelta(t, 3.0, sample.Level, 1e-9)
	assert.Equal(t, LiquidWater, sample.Type)
}

func TestLiquidAtTileWithNoLiquidReturnsFalse(t *testing.T) {
	tc := TileOf(mathx.V3(0, 0, 0))
	g := NewGrid(&fakeLoader{tiles: map[TileCoord]*Tile{tc: flatTile(tc, 0, 0, false)}})

	_, ok := g.LiquidAt(1, 0, 0)
	assert.False(t, ok)
}

func TestTrianglesInReturnsTrianglesForQueriedBox(t *testing.T) {
	tc := TileOf(mathx.V3(0, 0, 0))
	g := NewGrid(&fakeLoader{tiles: map[TileCoord]*Tile{tc: flatTile(tc, 5, 0, false)}})

	tris := g.TrianglesIn(1, mathx.AABox{Low: mathx.V3(-10, -10, 0), High: mathx.V3(10, 10, 0)})
	require.NotEmpty(t, tris)
	for _, tri := range tris {
		assert.InDelta(t, 5.0, tri.A.Z(), 1e-9)
	}
}

func TestTrianglesInSkipsUnloadableTiles(t *testing.T) {
	g := NewGrid(&fakeLoader{tiles: map[TileCoord]*Tile{}})
	tris := g.TrianglesIn(1, mathx.AABox{Low: mathx.V3(-10, -10, 0), High: mathx.V3(10, 10, 0)})
	assert.Empty(t, tris)
}
