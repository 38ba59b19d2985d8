// Copyright © 2024 Ardentcraft.
//
// Package physx is the per-tick physics orchestrator: given one actor's
// kinematic state and movement input, it selects a motion mode
// (grounded/airborne/swimming), advances the capsule through slide and
// collide resolves, and derives the surface context and movement flags
// for the next tick.
//
// Grounded on the teacher's move/move.go Mover.Step, whose
// predict-broadphase-narrowphase-solve-commit pipeline is the shape this
// package's Step follows (predict a displacement, query the scene,
// resolve contacts, commit position and flags), and on physics/physics.go
// Simulate's "apply forces once, then call into the contact solver"
// top-level structure.
package physx

import (
	"math"

	"github.com/ardentcraft/worldphys/diagnostics"
	"github.com/ardentcraft/worldphys/geom"
	"github.com/ardentcraft/worldphys/mathx"
	"github.com/ardentcraft/worldphys/movement"
	"github.com/ardentcraft/worldphys/scenequery"
	"github.com/ardentcraft/worldphys/slide"
	"github.com/ardentcraft/worldphys/tolerance"
	"github.com/ardentcraft/worldphys/worldmap"
)

// FallStartSentinel marks "not currently falling" in FallStartZ.
const FallStartSentinel = -200000

// DynamicObjectInfo describes one nearby moving-base object for the
// caller's standing-on bookkeeping. The engine does not simulate these
// objects; it only treats StandingOnInstanceID as a rigid-transform
// parent when one is reported.
type DynamicObjectInfo struct {
	GUID        uint64
	DisplayID   uint32
	X, Y, Z     float64
	Orientation float64
	Scale       float64
	GoState     uint32
}

// PhysicsInput is the actor-facing ABI boundary for one tick.
type PhysicsInput struct {
	X, Y, Z, Orientation, Pitch float64
	Vx, Vy, Vz                  float64

	Height, Radius float64

	MoveFlags                                                     uint32
	WalkSpeed, RunSpeed, RunBackSpeed, SwimSpeed, SwimBackSpeed    float64
	FlightSpeed, TurnSpeed                                        float64

	FallTime   uint32
	FallStartZ float64

	PrevGroundZ                     float64
	PrevGroundNx, PrevGroundNy, PrevGroundNz float64

	PendingDepenX, PendingDepenY, PendingDepenZ float64

	StandingOnInstanceID                       uint32
	StandingOnLocalX, StandingOnLocalY, StandingOnLocalZ float64

	// StepDownFrames carries framesSinceStepDown across ticks, the same
	// way PrevGroundZ carries back ground context; it is outside the
	// wire-level subset the spec enumerates but follows the same
	// carried-back-state idiom.
	StepDownFrames uint32

	HasSplinePath      bool
	SplineSpeed        float64
	SplinePoints       []mathx.Vec3
	CurrentSplineIndex int

	MapID        uint32
	DeltaTime    float64
	FrameCounter uint32

	PhysicsFlags uint32

	NearbyObjects []DynamicObjectInfo
}

// PhysicsFlagTrustInputVelocity is bit 0 of PhysicsFlags.
const PhysicsFlagTrustInputVelocity uint32 = 0x1

// PhysicsOutput is the result of one Step call.
type PhysicsOutput struct {
	X, Y, Z, Orientation, Pitch float64
	Vx, Vy, Vz                  float64
	MoveFlags                   uint32

	GroundZ, LiquidZ float64
	LiquidType       uint32
	GroundNx, GroundNy, GroundNz float64

	PendingDepenX, PendingDepenY, PendingDepenZ float64

	StandingOnInstanceID                                 uint32
	StandingOnLocalX, StandingOnLocalY, StandingOnLocalZ float64

	FallDistance, FallStartZ float64
	FallTime                 uint32

	StepDownFrames uint32

	CurrentSplineIndex int
	SplineProgress     float64
}

// Engine is the per-map physics step orchestrator. It is stateless across
// calls: all state that must persist between ticks travels in
// PhysicsInput/PhysicsOutput, so a server can shard actors across
// goroutines freely as long as they share one read-only SceneQuery.
type Engine struct {
	Query  *scenequery.SceneQuery
	Policy tolerance.Policy
}

// New builds an Engine over query, using policy for every tolerance.
func New(query *scenequery.SceneQuery, policy tolerance.Policy) *Engine {
	return &Engine{Query: query, Policy: policy}
}

func (e *Engine) capsule(pos mathx.Vec3, radius, height float64) geom.Capsule {
	return geom.FullHeightCapsule(pos, height, radius)
}

// groundSample is the result of a downward ground probe.
type groundSample struct {
	found    bool
	z        float64
	point    mathx.Vec3
	normal   mathx.Vec3
	instance uint32
}

// sampleGround sweeps straight down from slightly above feet, accepting
// the earliest non-start-penetrating walkable hit, per §4.8 step 2.
func (e *Engine) sampleGround(mapID uint32, feet mathx.Vec3, radius, searchDown, searchUp float64) groundSample {
	start := feet.Add(mathx.V3(0, 0, searchUp))
	capsule := geom.Capsule{P0: start, P1: start, Radius: radius}
	hits := e.Query.SweepCapsule(mapID, capsule, mathx.V3(0, 0, -1), searchUp+searchDown, scenequery.SweepOptions{
		StepDown: searchDown,
		StepUp:   searchUp,
	})

	best := groundSample{}
	bestStartPen := groundSample{}
	for _, h := range hits {
		if !slide.IsWalkable(h.Normal, e.Policy) {
			continue
		}
		if h.StartPenetrating {
			if !bestStartPen.found || h.Point.Z() > bestStartPen.z {
				bestStartPen = groundSample{true, h.Point.Z(), h.Point, h.Normal, h.InstanceID}
			}
			continue
		}
		if !best.found {
			best = groundSample{true, h.Point.Z(), h.Point, h.Normal, h.InstanceID}
			break // hits are sorted ascending by time; first walkable wins.
		}
	}
	if best.found {
		return best
	}
	return bestStartPen
}

// Step advances one actor by one tick. A non-finite kinematic input (NaN
// or ±Inf in position or velocity) is the one invariant breach the engine
// treats as fatal per spec §7: it panics rather than attempting to
// sanitize, since there is no sane default position to substitute.
func (e *Engine) Step(in PhysicsInput) PhysicsOutput {
	pos := mathx.V3(in.X, in.Y, in.Z)
	vel := mathx.V3(in.Vx, in.Vy, in.Vz)
	if !pos.IsFinite() || !vel.IsFinite() {
		panic("physx: non-finite kinematic input")
	}
	dt := in.DeltaTime

	pos, depen := e.depenetrate(in, pos)

	intent := movement.BuildIntent(in.MoveFlags, in.Orientation)
	speeds := movement.Speeds{
		Walk: in.WalkSpeed, Run: in.RunSpeed, RunBack: in.RunBackSpeed,
		Swim: in.SwimSpeed, SwimBack: in.SwimBackSpeed, Flight: in.FlightSpeed,
	}

	feet := pos
	widen := 0.0
	if in.StepDownFrames > 0 {
		widen = e.Policy.StepDownHysteresisExtra
	}
	ground := e.sampleGround(in.MapID, feet, in.Radius, e.Policy.StepDownHeight+widen, e.Policy.StepHeight)
	isGrounded := ground.found && (feet.Z()-ground.z) <= e.Policy.StepHeight && (feet.Z()-ground.z) >= -1e-3

	liquid := e.Query.EvaluateLiquidAt(in.MapID, pos.X(), pos.Y(), pos.Z())
	isWater := liquid.HasLevel && liquid.Type != 0
	isSwimming := movement.Immersion(liquid.HasLevel, liquid.Level, pos.Z(), isWater, isGrounded, in.Height, e.Policy.ImmersionFraction)

	out := PhysicsOutput{
		Orientation: in.Orientation, Pitch: in.Pitch,
		MoveFlags:             in.MoveFlags,
		StandingOnInstanceID:  in.StandingOnInstanceID,
		StandingOnLocalX:      in.StandingOnLocalX,
		StandingOnLocalY:      in.StandingOnLocalY,
		StandingOnLocalZ:      in.StandingOnLocalZ,
		CurrentSplineIndex:    in.CurrentSplineIndex,
		PendingDepenX:         depen.X(),
		PendingDepenY:         depen.Y(),
		PendingDepenZ:         depen.Z(),
	}

	stepDownFrames := in.StepDownFrames
	out.MoveFlags &^= movement.FlagSwimming

	switch {
	case isSwimming:
		pos, vel = e.stepSwimming(in, pos, intent, speeds, dt)
		out.MoveFlags |= movement.FlagSwimming
		stepDownFrames = 0

	case isGrounded:
		var landed groundSample
		pos, vel, landed, stepDownFrames = e.stepGrounded(in, pos, intent, speeds, ground, dt, stepDownFrames)
		out.MoveFlags &^= movement.FlagJumping | movement.FlagFallingFar
		if landed.found {
			ground = landed
		}

	default:
		pos, vel, ground = e.stepAirborne(in, pos, vel, dt)
		if vel.Z() < 0 {
			out.MoveFlags |= movement.FlagFallingFar
		}
		stepDownFrames = 0
	}

	// stepAirborne already integrates in.Vx/in.Vy into pos — directly,
	// when it trusts or preserves the caller's velocity, or by discarding
	// them in favor of flight intent — so applying them again here would
	// double-count the horizontal displacement. Grounded and swimming
	// motion never consult Vx/Vy (they derive horizontal motion from
	// MoveFlags/speeds instead), so knockback only needs applying there.
	if (isSwimming || isGrounded) && (in.Vx != 0 || in.Vy != 0) {
		knockback := mathx.V3(in.Vx, in.Vy, 0)
		res := slide.CollideAndSlide(e.Query, e.Policy, in.MapID, e.capsule(pos, in.Radius, in.Height), knockback.NormalizeOrZero(), knockback.Len()*dt, true, false, slide.Options{})
		pos = res.Position
	}

	pos = mathx.V3(pos.X(), pos.Y(), tolerance.Clamp(pos.Z(), -e.Policy.MaxHeight, e.Policy.MaxHeight))

	out.X, out.Y, out.Z = pos.X(), pos.Y(), pos.Z()
	out.Vx, out.Vy, out.Vz = vel.X(), vel.Y(), vel.Z()
	out.GroundZ = ground.z
	out.GroundNx, out.GroundNy, out.GroundNz = ground.normal.X(), ground.normal.Y(), ground.normal.Z()
	out.LiquidZ = liquid.Level
	out.LiquidType = uint32(liquid.Type)
	out.StepDownFrames = tolerance.Clamp(stepDownFrames, 0, uint32(e.Policy.StepDownHysteresisFrames))
	if !isSwimming && !isGrounded {
		out.FallStartZ = in.FallStartZ
		if in.FallStartZ <= FallStartSentinel {
			out.FallStartZ = feet.Z()
		}
		out.FallTime = in.FallTime + uint32(dt*1000)
		out.FallDistance = out.FallStartZ - pos.Z()
	} else {
		out.FallStartZ = FallStartSentinel
		out.FallTime = 0
	}

	if isGrounded && ground.found && ground.instance != worldmap.InvalidInstanceID {
		if local, ok := e.Query.InstanceLocalPoint(in.MapID, ground.instance, pos); ok {
			out.StandingOnInstanceID = ground.instance
			out.StandingOnLocalX, out.StandingOnLocalY, out.StandingOnLocalZ = local.X(), local.Y(), local.Z()
		}
	}

	return out
}

// depenetrate resolves §4.8's start-of-tick overlap test: every contact
// the capsule is already penetrating contributes depth·normal to a single
// correction vector, biased upward (a downward component would push the
// actor through the floor it just landed on) and clamped to
// DepenetrationMaxPerTick·radius so a deeply-stuck actor recovers over
// several ticks instead of popping visibly in one. The clamped correction
// both moves pos and is the value surfaced as PendingDepen* — carried back
// by the caller next tick the same way PrevGroundZ is, so a caller that
// wants to can fold it into client-side reconciliation.
func (e *Engine) depenetrate(in PhysicsInput, pos mathx.Vec3) (mathx.Vec3, mathx.Vec3) {
	capsule := e.capsule(pos, in.Radius, in.Height)
	hits := e.Query.OverlapCapsule(in.MapID, capsule, 0)
	if len(hits) == 0 {
		return pos, mathx.Vec3{}
	}

	var sum mathx.Vec3
	for _, h := range hits {
		sum = sum.Add(h.Normal.Scale(h.Depth))
	}
	if sum.Z() < 0 {
		sum = mathx.V3(sum.X(), sum.Y(), 0)
	}

	limit := in.Radius * e.Policy.DepenetrationMaxPerTick
	if length := sum.Len(); length > limit && length > mathx.Epsilon {
		sum = sum.Scale(limit / length)
	}
	return pos.Add(sum), sum
}

// stepSwimming applies swim-mode motion: horizontal velocity from intent
// at swim speed, vertical from pitch when moving forward, no gravity.
func (e *Engine) stepSwimming(in PhysicsInput, pos mathx.Vec3, intent movement.Intent, speeds movement.Speeds, dt float64) (mathx.Vec3, mathx.Vec3) {
	speed := movement.SwimSpeed(in.MoveFlags, speeds)
	vel := mathx.Vec3{}
	if intent.Active {
		vel = intent.Direction.Scale(speed)
		if in.MoveFlags&movement.FlagForward != 0 {
			vz := speed * math.Sin(in.Pitch)
			vel = mathx.V3(vel.X(), vel.Y(), vz)
		}
	}
	capsule := e.capsule(pos, in.Radius, in.Height)
	dir := vel
	dist := dir.Len() * dt
	if dist < 1e-9 {
		return pos, vel
	}
	res := slide.CollideAndSlide(e.Query, e.Policy, in.MapID, capsule, dir.NormalizeOrZero(), dist, false, true, slide.Options{})
	return res.Position, vel
}

// stepGrounded applies ground-mode motion: jump short-circuit, otherwise
// a horizontal-only slide followed by a ground resample that snaps z or
// freezes the XY displacement at an unresolvable edge.
func (e *Engine) stepGrounded(in PhysicsInput, pos mathx.Vec3, intent movement.Intent, speeds movement.Speeds, ground groundSample, dt float64, stepDownFrames uint32) (mathx.Vec3, mathx.Vec3, groundSample, uint32) {
	if in.MoveFlags&movement.FlagJumping != 0 {
		vel := mathx.V3(0, 0, jumpVelocity)
		return pos, vel, groundSample{}, 0
	}
	if !intent.Active {
		snapped := pos.WithZ(ground.z)
		return snapped, mathx.Vec3{}, ground, 0
	}

	speed := movement.GroundSpeed(in.MoveFlags, intent, speeds)
	distance := speed * dt
	capsule := e.capsule(pos, in.Radius, in.Height)
	res := slide.CollideAndSlide(e.Query, e.Policy, in.MapID, capsule, intent.Direction, distance, true, false, slide.Options{})
	moved := res.Position

	widen := 0.0
	if stepDownFrames > 0 {
		widen = e.Policy.StepDownHysteresisExtra
	}
	resample := e.sampleGround(in.MapID, moved, in.Radius, e.Policy.StepDownHeight+widen, e.Policy.StepHeight)
	if resample.found {
		z, ok := diagnostics.ClampZToPlane(resample.normal, resample.point, moved.X(), moved.Y(), moved.Z(), e.Policy.StepHeight, e.Policy.StepDownHeight+widen)
		if ok {
			snapped := moved.WithZ(z)
			nextFrames := uint32(0)
			if moved.Z()-z > 1e-3 {
				nextFrames = tolerance.Clamp(stepDownFrames+1, 0, uint32(e.Policy.StepDownHysteresisFrames))
			}
			return snapped, mathx.Vec3{}, resample, nextFrames
		}
	}

	if stepDownFrames > 0 {
		return moved, mathx.Vec3{}, ground, stepDownFrames
	}
	// Nothing walkable under the new XY and no recent step-down credit:
	// freeze at the edge rather than commit the displacement.
	return pos, mathx.Vec3{}, ground, 0
}

// stepAirborne integrates gravity and performs a tunnelling-safe downward
// sweep to catch the ground mid-fall. Horizontal velocity is preserved
// from the prior tick by default (no air control unless input); with
// PhysicsFlagTrustInputVelocity set, the caller's vx/vy are taken as
// authoritative every tick instead, bypassing intent-flag-derived air
// control entirely (spec §9 Open Question, airborne-only per the
// recommended reading).
func (e *Engine) stepAirborne(in PhysicsInput, pos, vel mathx.Vec3, dt float64) (mathx.Vec3, mathx.Vec3, groundSample) {
	if in.PhysicsFlags&PhysicsFlagTrustInputVelocity != 0 {
		vel = mathx.V3(in.Vx, in.Vy, vel.Z())
	} else if intent := movement.BuildIntent(in.MoveFlags, in.Orientation); intent.Active {
		horiz := intent.Direction.Scale(in.FlightSpeed)
		vel = mathx.V3(horiz.X(), horiz.Y(), vel.Z())
	}

	vz := tolerance.Clamp(vel.Z()-e.Policy.Gravity*dt, e.Policy.TerminalVelocity, 1e9)
	next := mathx.V3(
		pos.X()+vel.X()*dt,
		pos.Y()+vel.Y()*dt,
		pos.Z()+vz*dt-0.5*e.Policy.Gravity*dt*dt,
	)
	vel = mathx.V3(vel.X(), vel.Y(), vz)

	fallDist := pos.Z() - next.Z()
	if fallDist <= 0 {
		return next, vel, groundSample{}
	}

	capsule := e.capsule(pos, in.Radius, in.Height)
	searchDist := fallDist + e.Policy.StepDownHeight
	hits := e.Query.SweepCapsule(in.MapID, capsule, mathx.V3(0, 0, -1), searchDist, scenequery.SweepOptions{})

	var picked *scenequery.SceneHit
	var pickedStartPen *scenequery.SceneHit
	for i := range hits {
		h := &hits[i]
		if !slide.IsWalkable(h.Normal, e.Policy) {
			continue
		}
		if h.StartPenetrating {
			if pickedStartPen == nil || h.Point.Z() > pickedStartPen.Point.Z() {
				pickedStartPen = h
			}
			continue
		}
		switch {
		case picked == nil || h.Time < picked.Time-toiTieEpsilon:
			picked = h
		case h.Time <= picked.Time+toiTieEpsilon:
			// Equal time of impact: prefer terrain (InstanceID 0) over a
			// model instance, then the lower of the two landing heights.
			if h.InstanceID < picked.InstanceID || (h.InstanceID == picked.InstanceID && h.Point.Z() < picked.Point.Z()) {
				picked = h
			}
		}
	}
	if picked == nil {
		picked = pickedStartPen
	}
	if picked == nil {
		return next, vel, groundSample{}
	}

	groundZ := picked.Point.Z()
	if z, ok := diagnostics.PlaneZAt(picked.Normal, picked.Point, next.X(), next.Y()); ok {
		groundZ = z
	}
	landed := groundSample{true, groundZ, picked.Point, picked.Normal, picked.InstanceID}
	snapped := next.WithZ(groundZ)
	return snapped, mathx.V3(vel.X(), vel.Y(), 0), landed
}

// toiTieEpsilon is how close two sweep hits' Time must be to count as the
// same instant for stepAirborne's terrain-then-lower-z tie-break.
const toiTieEpsilon = 1e-4

// jumpVelocity is the initial upward speed applied on a jump flag,
// tuned so a character with default gravity reaches roughly a 2-yard
// hop apex (8.8² / (2·19.29) ≈ 2.0).
const jumpVelocity = 8.8
