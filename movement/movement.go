// Copyright © 2024 Ardentcraft.
//
// Package movement derives an actor's intended horizontal direction and
// speed from input movement flags, and classifies liquid immersion into
// swim state.
//
// Grounded on the teacher's move/move.go Mover.Step, which separates
// "apply forces to predict a location" from "resolve and commit" —
// movement mirrors that split by only ever producing an intent (direction
// + speed), leaving the actual displacement and collision resolution to
// the slide and physx packages.
package movement

import (
	"math"

	"github.com/ardentcraft/worldphys/mathx"
)

// Flag bits interpreted by Intent and Speed, per the ABI's moveFlags word.
const (
	FlagForward     uint32 = 0x1
	FlagBackward    uint32 = 0x2
	FlagStrafeLeft  uint32 = 0x4
	FlagStrafeRight uint32 = 0x8
	FlagWalkMode    uint32 = 0x100
	FlagJumping     uint32 = 0x2000
	FlagFallingFar  uint32 = 0x4000
	FlagSwimming    uint32 = 0x200000
	FlagFlying      uint32 = 0x1000000
	FlagOnTransport uint32 = 0x2000000
	FlagHover       uint32 = 0x40000000
)

// Intent is the horizontal movement direction and magnitude requested by
// one tick's input flags, before any collision resolution.
type Intent struct {
	Direction mathx.Vec3 // unit vector, horizontal (z=0); zero when no flags set.
	Active    bool        // true when any directional flag is set.
}

// BuildIntent derives Intent from moveFlags and the actor's current yaw
// orientation (radians, 0 = +X, per the engine's right-handed +Z-up
// convention). Forward/backward and strafe components combine additively
// then normalize, so diagonal movement (e.g. forward+strafeRight) points
// along the diagonal rather than running faster than an axis-aligned move.
func BuildIntent(moveFlags uint32, orientation float64) Intent {
	forward := mathx.V3(math.Cos(orientation), math.Sin(orientation), 0)
	right := mathx.V3(math.Sin(orientation), -math.Cos(orientation), 0)

	var dir mathx.Vec3
	if moveFlags&FlagForward != 0 {
		dir = dir.Add(forward)
	}
	if moveFlags&FlagBackward != 0 {
		dir = dir.Sub(forward)
	}
	if moveFlags&FlagStrafeRight != 0 {
		dir = dir.Add(right)
	}
	if moveFlags&FlagStrafeLeft != 0 {
		dir = dir.Sub(right)
	}

	if dir.LenSqr() < mathx.Epsilon {
		return Intent{}
	}
	return Intent{Direction: dir.NormalizeOrZero(), Active: true}
}

// Speeds bundles the per-mode speeds carried on PhysicsInput.
type Speeds struct {
	Walk, Run, RunBack, Swim, SwimBack, Flight float64
}

// GroundSpeed picks the walk/run/run-back speed for a grounded actor,
// based on whether movement is backward and whether FlagWalkMode is set.
// Backward movement always uses the run-back speed; any other movement,
// strafing included, uses the walk speed under FlagWalkMode and the run
// speed without it.
func GroundSpeed(moveFlags uint32, intent Intent, s Speeds) float64 {
	backward := moveFlags&FlagBackward != 0 && moveFlags&FlagForward == 0
	if backward {
		return s.RunBack
	}
	if moveFlags&FlagWalkMode != 0 {
		return s.Walk
	}
	return s.Run
}

// SwimSpeed picks the forward/back swim speed.
func SwimSpeed(moveFlags uint32, s Speeds) float64 {
	if moveFlags&FlagBackward != 0 && moveFlags&FlagForward == 0 {
		return s.SwimBack
	}
	return s.Swim
}

// Immersion classifies a liquid sample into swim state. grounded must
// reflect the tick's ground branch decision; per the state machine,
// swimming only enters when the actor is not already grounded. height and
// fraction require the actor's feet to sit fraction·height below the
// liquid surface before swim state engages — a capsule merely skimming the
// top of a puddle stays grounded/airborne rather than flipping to swim,
// matching the concrete immersion-threshold scenario (z < level -
// 0.75·height) rather than the simpler "any contact" reading.
func Immersion(hasLevel bool, level float64, z float64, isWater, grounded bool, height, fraction float64) bool {
	if grounded || !hasLevel || !isWater {
		return false
	}
	return z < level-fraction*height
}
