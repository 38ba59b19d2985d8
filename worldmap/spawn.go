// Copyright © 2024 Ardentcraft.

package worldmap

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/ardentcraft/worldphys/mathx"
)

// SpawnRecord is a stand-in for a decoded on-disk tile-spawn entry: where a
// model instance sits, which tile owns it, and the registry key used to
// look up its WorldModel. Decoding the real binary tile format is out of
// scope (spec §6); this YAML-backed index is what tests and any caller
// without a real map reader load instead.
type SpawnRecord struct {
	ID          uint32     `yaml:"id"`
	ModelKey    string     `yaml:"model"`
	TileX       int        `yaml:"tileX"`
	TileY       int        `yaml:"tileY"`
	Position    [3]float64 `yaml:"position"`
	YawRadians  float64    `yaml:"yaw"`
	Scale       float64    `yaml:"scale"`
	Mask        uint32     `yaml:"mask"`
	LocalBounds [2][3]float64 `yaml:"localBounds"`
}

// SpawnIndex is the full set of spawn records for one map.
type SpawnIndex struct {
	Spawns []SpawnRecord `yaml:"spawns"`
}

// LoadSpawnIndex decodes a SpawnIndex from r.
func LoadSpawnIndex(r io.Reader) (SpawnIndex, error) {
	var idx SpawnIndex
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&idx); err != nil {
		return SpawnIndex{}, err
	}
	return idx, nil
}

func (s SpawnRecord) transform() mathx.Transform {
	scale := s.Scale
	if scale == 0 {
		scale = 1
	}
	pos := mathx.V3(s.Position[0], s.Position[1], s.Position[2])
	return mathx.NewTransform(pos, mathx.QuatFromYaw(s.YawRadians), scale)
}

func (s SpawnRecord) worldBounds(tr mathx.Transform) mathx.AABox {
	lo := mathx.V3(s.LocalBounds[0][0], s.LocalBounds[0][1], s.LocalBounds[0][2])
	hi := mathx.V3(s.LocalBounds[1][0], s.LocalBounds[1][1], s.LocalBounds[1][2])
	corners := [8]mathx.Vec3{
		mathx.V3(lo.X(), lo.Y(), lo.Z()), mathx.V3(hi.X(), lo.Y(), lo.Z()),
		mathx.V3(lo.X(), hi.Y(), lo.Z()), mathx.V3(hi.X(), hi.Y(), lo.Z()),
		mathx.V3(lo.X(), lo.Y(), hi.Z()), mathx.V3(hi.X(), lo.Y(), hi.Z()),
		mathx.V3(lo.X(), hi.Y(), hi.Z()), mathx.V3(hi.X(), hi.Y(), hi.Z()),
	}
	box := mathx.FromPoint(tr.ToWorld(corners[0]))
	for _, c := range corners[1:] {
		box = box.Encompass(tr.ToWorld(c))
	}
	return box
}
