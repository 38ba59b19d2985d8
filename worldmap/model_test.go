// Copyright © 2024 Ardentcraft.

package worldmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardentcraft/worldphys/geom"
	"github.com/ardentcraft/worldphys/mathx"
)

func TestNewWorldModelSkipsIndexBelowThreshold(t *testing.T) {
	m := NewWorldModel([]geom.Triangle{{A: mathx.V3(0, 0, 0), B: mathx.V3(1, 0, 0), C: mathx.V3(0, 1, 0)}})
	assert.Nil(t, m.localTree)
	assert.Len(t, m.GetMeshDataInBounds(mathx.AABox{}), 1)
}

func TestNewWorldModelBuildsIndexAboveThreshold(t *testing.T) {
	tris := make([]geom.Triangle, localMeshIndexThreshold+1)
	for i := range tris {
		off := float64(i) * 10
		tris[i] = geom.Triangle{
			A: mathx.V3(off, 0, 0), B: mathx.V3(off+1, 0, 0), C: mathx.V3(off, 1, 0),
		}
	}
	m := NewWorldModel(tris)
	require.NotNil(t, m.localTree)

	found := m.GetMeshDataInBounds(mathx.AABox{Low: mathx.V3(-1, -1, -1), High: mathx.V3(2, 2, 1)})
	assert.Len(t, found, 1)
}

func TestGetMeshDataInBoundsOnNilModel(t *testing.T) {
	var m *WorldModel
	assert.Nil(t, m.GetMeshDataInBounds(mathx.AABox{}))
}

func TestWorldModelAcquireRelease(t *testing.T) {
	m := &WorldModel{}
	m.acquire()
	m.acquire()
	assert.False(t, m.release())
	assert.True(t, m.release())
}
