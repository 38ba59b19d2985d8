// Copyright © 2024 Ardentcraft.

package movement

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildIntentForwardAtZeroYaw(t *testing.T) {
	in := BuildIntent(FlagForward, 0)
	assert.True(t, in.Active)
	assert.InDelta(t, 1, in.Direction.X(), 1e-9)
	assert.InDelta(t, 0, in.Direction.Y(), 1e-9)
}

func TestBuildIntentNoFlagsIsInactive(t *testing.T) {
	in := BuildIntent(0, 1.23)
	assert.False(t, in.Active)
	assert.Equal(t, 0.0, in.Direction.LenSqr())
}

func TestBuildIntentDiagonalIsNormalized(t *testing.T) {
	in := BuildIntent(FlagForward|FlagStrafeRight, 0)
	assert.True(t, in.Active)
	assert.InDelta(t, 1, in.Direction.Len(), 1e-9)
}

func TestBuildIntentForwardAndBackwardCancel(t *testing.T) {
	in := BuildIntent(FlagForward|FlagBackward, 0)
	assert.False(t, in.Active)
}

func TestBuildIntentFacesOrientation(t *testing.T) {
	in := BuildIntent(FlagForward, math.Pi/2)
	assert.InDelta(t, 0, in.Direction.X(), 1e-9)
	assert.InDelta(t, 1, in.Direction.Y(), 1e-9)
}

func TestGroundSpeedPicksRunBackward(t *testing.T) {
	s := Speeds{Walk: 2.5, Run: 7, RunBack: 4.5}
	got := GroundSpeed(FlagBackward, Intent{Active: true}, s)
	assert.Equal(t, s.RunBack, got)
}

func TestGroundSpeedWalkMode(t *testing.T) {
	s := Speeds{Walk: 2.5, Run: 7, RunBack: 4.5}
	got := GroundSpeed(FlagForward|FlagWalkMode, Intent{Active: true}, s)
	assert.Equal(t, s.Walk, got)
}

func TestGroundSpeedDefaultsToRun(t *testing.T) {
	s := Speeds{Walk: 2.5, Run: 7, RunBack: 4.5}
	got := GroundSpeed(FlagStrafeRight, Intent{Active: true}, s)
	assert.Equal(t, s.Run, got)
}

func TestSwimSpeedBackward(t *testing.T) {
	s := Speeds{Swim: 4.7, SwimBack: 2.5}
	assert.Equal(t, s.SwimBack, SwimSpeed(FlagBackward, s))
	assert.Equal(t, s.Swim, SwimSpeed(FlagForward, s))
}

func TestImmersionRequiresWaterAndNotGrounded(t *testing.T) {
	assert.True(t, Immersion(true, 5, 2, true, false, 2, 0.75))
	assert.False(t, Immersion(true, 5, 2, true, true, 2, 0.75), "grounded takes priority over water")
	assert.False(t, Immersion(true, 5, 2, false, false, 2, 0.75), "non-water liquid is not swimmable")
	assert.False(t, Immersion(false, 0, 0, true, false, 2, 0.75), "no liquid sample")
	assert.False(t, Immersion(true, 1, 2, true, false, 2, 0.75), "level below feet is not immersion")
}

func TestImmersionRequiresSubmersionPastHeightFraction(t *testing.T) {
	// level=5, height=2, fraction=0.75 -> threshold z < 5 - 1.5 = 3.5.
	assert.False(t, Immersion(true, 5, 4, true, false, 2, 0.75), "feet merely under the surface isn't enough")
	assert.True(t, Immersion(true, 5, 3, true, false, 2, 0.75), "feet past the submersion threshold")
}
