// Copyright © 2024 Ardentcraft.
//
// Package terrain models the per-map uniform grid of ground triangles and
// liquid samples that SceneQuery consults alongside the BIH-indexed model
// instances. A map is a fixed 64×64 array of tiles; each tile is a
// TileResolution×TileResolution height grid (16×16 quads, 2 triangles per
// quad) plus an optional liquid layer at the same resolution.
//
// Grounded on the teacher's land/topo.go (the Topo [][]float64 height-grid
// type and its per-section indexing) and land/tile.go (tile keying,
// idempotent load). Where the teacher generates heights procedurally with
// Perlin/fBm noise for a debug viewer, TerrainGrid instead treats height
// data as externally loaded (decoded by a MapLoader) since the on-disk ADT
// format is out of scope — the same "tile is whatever the loader hands
// back" shape as StaticMapTree's spawn records.
package terrain

import (
	"math"
	"sync"

	"github.com/ardentcraft/worldphys/mathx"
)

// GridSize is one tile's side length in world units, matching the map
// format's 533.333…-yard tiles (worldmap.GridSize carries the identical
// value for the model-instance grid; the two grids are laid out over the
// same world coordinates but are loaded independently).
const GridSize = 533.33333333

// gridTiles is the number of tiles on a side of the map.
const gridTiles = 64

const gridMid = (gridTiles / 2) * GridSize

// TileResolution is the number of quads on a side of a tile (16×16 quads,
// 2 triangles per quad, 17×17 height samples).
const TileResolution = 16

// tileVerts is the number of height samples on a side of a tile.
const tileVerts = TileResolution + 1

// InvalidHeight is returned by HeightAt when no tile covers the query
// point.
const InvalidHeight = math.MaxFloat64

// LiquidType identifies the kind of liquid a sample belongs to, unified
// from whatever source-specific identifier a MapLoader's ADT data uses.
type LiquidType uint32

const (
	LiquidNone LiquidType = iota
	LiquidWater
	LiquidOcean
	LiquidMagma
	LiquidSlime
)

// TileCoord identifies one terrain tile by its grid indices.
type TileCoord struct {
	X, Y int
}

// TileOf returns the tile containing world point p.
func TileOf(p mathx.Vec3) TileCoord {
	return TileCoord{
		X: int(math.Floor((gridMid - p.Y()) / GridSize)),
		Y: int(math.Floor((gridMid - p.X()) / GridSize)),
	}
}

// Tile is one loaded terrain tile: a regular height grid plus an optional
// liquid layer at the same resolution.
type Tile struct {
	X, Y    int
	Heights [tileVerts][tileVerts]float64
	Liquid  *LiquidLayer // nil when the tile carries no liquid.
}

// LiquidLayer is a tile's liquid surface: a height grid (liquid level, not
// ground height) plus the unified type every sample shares.
type LiquidLayer struct {
	Levels [tileVerts][tileVerts]float64
	Type   LiquidType
}

// origin returns the world XY of this tile's (0,0) height sample.
func (t *Tile) origin() (x0, y0 float64) {
	y0 = gridMid - float64(t.X)*GridSize
	x0 = gridMid - float64(t.Y)*GridSize
	return x0, y0
}

// sampleSpacing is the world distance between adjacent height samples.
func sampleSpacing() float64 { return GridSize / TileResolution }

// bilinearHeight samples t's height grid at world point (x, y) using
// bilinear interpolation between the four enclosing samples.
func (t *Tile) bilinearHeight(x, y float64) (float64, bool) {
	x0, y0 := t.origin()
	spacing := sampleSpacing()
	fx := (x0 - x) / spacing
	fy := (y0 - y) / spacing
	if fx < 0 || fy < 0 || fx > TileResolution || fy > TileResolution {
		return 0, false
	}
	ix := int(math.Floor(fx))
	iy := int(math.Floor(fy))
	if ix >= TileResolution {
		ix = TileResolution - 1
	}
	if iy >= TileResolution {
		iy = TileResolution - 1
	}
	tx := fx - float64(ix)
	ty := fy - float64(iy)

	h00 := t.Heights[ix][iy]
	h10 := t.Heights[ix+1][iy]
	h01 := t.Heights[ix][iy+1]
	h11 := t.Heights[ix+1][iy+1]

	h0 := h00*(1-tx) + h10*tx
	h1 := h01*(1-tx) + h11*tx
	return h0*(1-ty) + h1*ty, true
}

func (l *LiquidLayer) bilinear(t *Tile, x, y float64) (float64, bool) {
	x0, y0 := t.origin()
	spacing := sampleSpacing()
	fx := (x0 - x) / spacing
	fy := (y0 - y) / spacing
	if fx < 0 || fy < 0 || fx > TileResolution || fy > TileResolution {
		return 0, false
	}
	ix := int(math.Floor(fx))
	iy := int(math.Floor(fy))
	if ix >= TileResolution {
		ix = TileResolution - 1
	}
	if iy >= TileResolution {
		iy = TileResolution - 1
	}
	tx := fx - float64(ix)
	ty := fy - float64(iy)

	h00 := l.Levels[ix][iy]
	h10 := l.Levels[ix+1][iy]
	h01 := l.Levels[ix][iy+1]
	h11 := l.Levels[ix+1][iy+1]

	h0 := h00*(1-tx) + h10*tx
	h1 := h01*(1-tx) + h11*tx
	return h0*(1-ty) + h1*ty, true
}

// TerrainTriangle is one ground or liquid triangle, three world-space
// vertices, plus a stable per-tile Index a SceneHit's triangle index can
// carry and sort ties on.
type TerrainTriangle struct {
	A, B, C mathx.Vec3
	Index   int32
}

// trianglesIn appends t's ground triangles whose 2D projection overlaps
// box to dst. Index is derived from the quad's (ix,iy) position so it is
// stable across calls regardless of which quads the box query clips to.
func (t *Tile) trianglesIn(box mathx.AABox, dst []TerrainTriangle) []TerrainTriangle {
	x0, y0 := t.origin()
	spacing := sampleSpacing()
	for ix := 0; ix < TileResolution; ix++ {
		for iy := 0; iy < TileResolution; iy++ {
			x1 := x0 - float64(ix)*spacing
			x2 := x0 - float64(ix+1)*spacing
			y1 := y0 - float64(iy)*spacing
			y2 := y0 - float64(iy+1)*spacing
			lo, hi := minF(x1, x2), maxF(x1, x2)
			yloV, yhiV := minF(y1, y2), maxF(y1, y2)
			if hi < box.Low.X() || lo > box.High.X() || yhiV < box.Low.Y() || yloV > box.High.Y() {
				continue
			}
			v00 := mathx.V3(x1, y1, t.Heights[ix][iy])
			v10 := mathx.V3(x2, y1, t.Heights[ix+1][iy])
			v01 := mathx.V3(x1, y2, t.Heights[ix][iy+1])
			v11 := mathx.V3(x2, y2, t.Heights[ix+1][iy+1])
			quad := int32(ix*TileResolution + iy)
			dst = append(dst, TerrainTriangle{A: v00, B: v10, C: v11, Index: quad * 2})
			dst = append(dst, TerrainTriangle{A: v00, B: v11, C: v01, Index: quad*2 + 1})
		}
	}
	return dst
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// MapLoader decodes the on-disk tile format. The decode itself is out of
// scope here (as with StaticMapTree's spawn records); TerrainGrid only
// needs a tile once it is asked to cover a point or box it has not yet
// loaded.
type MapLoader interface {
	LoadTerrainTile(mapID uint32, tx, ty int) (*Tile, error)
}

// Grid is the per-map terrain store: a lazily-populated cache of tiles
// fetched from a MapLoader, keyed by map id and tile coordinate so one
// Grid can answer queries for every map a server has resident.
type Grid struct {
	loader MapLoader

	mu    sync.RWMutex
	tiles map[uint32]map[TileCoord]*Tile
}

// NewGrid builds a Grid backed by loader.
func NewGrid(loader MapLoader) *Grid {
	return &Grid{loader: loader, tiles: make(map[uint32]map[TileCoord]*Tile)}
}

func (g *Grid) tile(mapID uint32, tc TileCoord) (*Tile, bool) {
	g.mu.RLock()
	byTile := g.tiles[mapID]
	if byTile != nil {
		if t, ok := byTile[tc]; ok {
			g.mu.RUnlock()
			return t, t != nil
		}
	}
	g.mu.RUnlock()

	t, err := g.loader.LoadTerrainTile(mapID, tc.X, tc.Y)
	g.mu.Lock()
	if g.tiles[mapID] == nil {
		g.tiles[mapID] = make(map[TileCoord]*Tile)
	}
	if err != nil {
		g.tiles[mapID][tc] = nil
	} else {
		g.tiles[mapID][tc] = t
	}
	g.mu.Unlock()
	return t, err == nil
}

// HeightAt bilinearly samples the ground height of mapID at world (x, y),
// loading the covering tile on demand. Returns InvalidHeight when no tile
// covers the point (the loader reported an error or the point falls
// outside the 64×64 grid).
func (g *Grid) HeightAt(mapID uint32, x, y float64) float64 {
	tc := TileOf(mathx.V3(x, y, 0))
	t, ok := g.tile(mapID, tc)
	if !ok {
		return InvalidHeight
	}
	h, ok := t.bilinearHeight(x, y)
	if !ok {
		return InvalidHeight
	}
	return h
}

// LiquidSample is the result of LiquidAt: a liquid level and unified type.
type LiquidSample struct {
	Level float64
	Type  LiquidType
}

// LiquidAt samples mapID's ADT-side liquid layer at world (x, y). Returns
// false when the covering tile has no liquid layer or isn't loaded.
func (g *Grid) LiquidAt(mapID uint32, x, y float64) (LiquidSample, bool) {
	tc := TileOf(mathx.V3(x, y, 0))
	t, ok := g.tile(mapID, tc)
	if !ok || t.Liquid == nil {
		return LiquidSample{}, false
	}
	level, ok := t.Liquid.bilinear(t, x, y)
	if !ok {
		return LiquidSample{}, false
	}
	return LiquidSample{Level: level, Type: t.Liquid.Type}, true
}

// TrianglesIn returns every ground triangle of mapID whose 2D projection
// overlaps xyBox, spanning however many tiles xyBox touches. Tiles the
// loader cannot supply are silently skipped — SceneQuery treats missing
// terrain the same as terrain with no triangles there.
func (g *Grid) TrianglesIn(mapID uint32, xyBox mathx.AABox) []TerrainTriangle {
	minTile := TileOf(mathx.V3(xyBox.Low.X(), xyBox.Low.Y(), 0))
	maxTile := TileOf(mathx.V3(xyBox.High.X(), xyBox.High.Y(), 0))
	loX, hiX := minTile.X, maxTile.X
	if loX > hiX {
		loX, hiX = hiX, loX
	}
	loY, hiY := minTile.Y, maxTile.Y
	if loY > hiY {
		loY, hiY = hiY, loY
	}

	var out []TerrainTriangle
	for tx := loX; tx <= hiX; tx++ {
		for ty := loY; ty <= hiY; ty++ {
			t, ok := g.tile(mapID, TileCoord{X: tx, Y: ty})
			if !ok {
				continue
			}
			out = t.trianglesIn(xyBox, out)
		}
	}
	return out
}
