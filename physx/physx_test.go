// Copyright © 2024 Ardentcraft.

package physx

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardentcraft/worldphys/eventlog"
	"github.com/ardentcraft/worldphys/geom"
	"github.com/ardentcraft/worldphys/mathx"
	"github.com/ardentcraft/worldphys/movement"
	"github.com/ardentcraft/worldphys/scenequery"
	"github.com/ardentcraft/worldphys/tolerance"
	"github.com/ardentcraft/worldphys/worldmap"
)

func floorEngine(t *testing.T) *Engine {
	t.Helper()
	model := worldmap.NewWorldModel([]geom.Triangle{
		{A: mathx.V3(-50, -50, 0), B: mathx.V3(50, -50, 0), C: mathx.V3(50, 50, 0)},
		{A: mathx.V3(-50, -50, 0), B: mathx.V3(50, 50, 0), C: mathx.V3(-50, 50, 0)},
	})
	spawns := []worldmap.SpawnRecord{{
		ID: 1, ModelKey: "floor", TileX: 32, TileY: 32,
		Position: [3]float64{0, 0, 0}, Scale: 1,
		LocalBounds: [2][3]float64{{-50, -50, -0.1}, {50, 50, 0.1}},
	}}
	tree := worldmap.NewStaticMapTree(spawns, map[string]*worldmap.WorldModel{"floor": model}, eventlog.Noop)
	tree.LoadTile(32, 32)
	q := scenequery.New(eventlog.Noop)
	q.AddMap(1, tree, nil)
	return New(q, tolerance.DefaultPolicy())
}

func baseInput() PhysicsInput {
	return PhysicsInput{
		Radius: 0.3, Height: 2,
		MapID: 1, DeltaTime: 0.1,
		RunSpeed: 7, WalkSpeed: 2.5, RunBackSpeed: 4.5,
		SwimSpeed: 4.7, SwimBackSpeed: 2.5,
		FallStartZ: FallStartSentinel,
	}
}

func TestStepGroundedStandingStillSnapsToFloor(t *testing.T) {
	e := floorEngine(t)
	in := baseInput()
	in.X, in.Y, in.Z = 0, 0, 0.05

	out := e.Step(in)

	assert.InDelta(t, 0, out.Z, 1e-6)
	assert.InDelta(t, 0, out.Vx, 1e-9)
	assert.InDelta(t, 0, out.Vy, 1e-9)
	assert.InDelta(t, 1, out.GroundNz, 1e-6)
}

func TestStepGroundedWalksForwardUnobstructed(t *testing.T) {
	e := floorEngine(t)
	in := baseInput()
	in.X, in.Y, in.Z = 0, 0, 0
	in.Orientation = 0
	in.MoveFlags = movement.FlagForward

	out := e.Step(in)

	assert.InDelta(t, in.RunSpeed*in.DeltaTime, out.X, 1e-6)
	assert.InDelta(t, 0, out.Y, 1e-6)
	assert.InDelta(t, 0, out.Z, 1e-6)
	assert.Equal(t, uint32(0), out.MoveFlags&movement.FlagFallingFar)
}

func TestStepAirborneFallsWithoutLandingWhenFarFromGround(t *testing.T) {
	e := floorEngine(t)
	in := baseInput()
	in.X, in.Y, in.Z = 0, 0, 5

	out := e.Step(in)

	assert.True(t, out.Vz < 0)
	assert.True(t, out.Z < in.Z)
	assert.NotEqual(t, uint32(0), out.MoveFlags&movement.FlagFallingFar)
}

func TestStepAirborneLandsOnFloorWithinTick(t *testing.T) {
	e := floorEngine(t)
	in := baseInput()
	in.X, in.Y, in.Z = 0, 0, 2
	in.Vz = -20
	in.DeltaTime = 1.0

	out := e.Step(in)

	require.InDelta(t, 0, out.Z, 1e-6)
	assert.InDelta(t, 0, out.Vz, 1e-9)
	assert.Equal(t, uint32(0), out.MoveFlags&movement.FlagFallingFar)
}

func TestStepJumpSetsUpwardVelocityAndClearsGrounded(t *testing.T) {
	e := floorEngine(t)
	in := baseInput()
	in.X, in.Y, in.Z = 0, 0, 0
	in.MoveFlags = movement.FlagJumping

	out := e.Step(in)

	assert.True(t, out.Vz > 0)
}

func TestStepAirborneTrustsInputVelocityWhenFlagSet(t *testing.T) {
	e := floorEngine(t)
	in := baseInput()
	in.X, in.Y, in.Z = 0, 0, 5
	in.Vx, in.Vy = 3, 0
	in.PhysicsFlags = PhysicsFlagTrustInputVelocity

	out := e.Step(in)

	assert.InDelta(t, in.X+in.Vx*in.DeltaTime, out.X, 1e-6)
}

func TestStepAirborneStrafeIntentOverridesCarriedVelocity(t *testing.T) {
	e := floorEngine(t)
	in := baseInput()
	in.X, in.Y, in.Z = 0, 0, 5
	in.Vx, in.Vy = 3, 0
	in.FlightSpeed = 5
	in.MoveFlags = movement.FlagStrafeRight // a direction flag, but no trust flag

	out := e.Step(in)

	// Strafe-right without TrustInputVelocity drives horizontal velocity
	// from intent at flight speed, not from the carried-in vx/vy.
	assert.InDelta(t, in.X, out.X, 1e-6)
	assert.True(t, out.Y < 0)
}

func TestStepGroundedRecordsStandingOnInstance(t *testing.T) {
	e := floorEngine(t)
	in := baseInput()
	in.X, in.Y, in.Z = 0, 0, 0

	out := e.Step(in)

	assert.Equal(t, uint32(1), out.StandingOnInstanceID)
}

func TestStepPanicsOnNonFiniteInput(t *testing.T) {
	e := floorEngine(t)
	in := baseInput()
	in.X = math.NaN()

	assert.Panics(t, func() { e.Step(in) })
}

func TestStepDepenetratesOverlapWithinPerTickLimit(t *testing.T) {
	e := floorEngine(t)
	in := baseInput()
	// Feet sunk through the floor: capsule center sits inside the plane.
	in.X, in.Y, in.Z = 0, 0, -0.2

	out := e.Step(in)

	limit := in.Radius * e.Policy.DepenetrationMaxPerTick
	assert.True(t, out.PendingDepenZ > 0, "correction should push upward")
	assert.LessOrEqual(t, out.PendingDepenZ, limit+1e-9)
}
