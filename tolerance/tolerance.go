// Copyright © 2024 Ardentcraft.
//
// Package tolerance holds the scale-dependent epsilon policy every other
// package in worldphys reads from instead of hard-coding its own
// constants. This mirrors the teacher's math/lin.go, which centralizes
// Epsilon, Aeq, and Clamp for the whole engine — generalized here to a
// record of named thresholds a server operator can tune per map.
package tolerance

import (
	"gopkg.in/yaml.v3"
	"io"

	"golang.org/x/exp/constraints"
)

// Policy is the set of thresholds CollideAndSlide, SceneQuery, and
// PhysicsEngine.Step consult. All distances are in yards, matching the
// ABI's coordinate convention.
type Policy struct {
	// ContactOffsetScale sets the skin width as a fraction of capsule
	// radius: contactOffset(r) = r * ContactOffsetScale.
	ContactOffsetScale float64 `yaml:"contact_offset_scale"`

	// WalkableMinNormalZ is the cosine of the maximum walkable slope.
	// Default ≈ 0.5 (60°).
	WalkableMinNormalZ float64 `yaml:"walkable_min_normal_z"`

	// CeilingNormalZThreshold: surfaces with normal.z at or below this are
	// treated as ceilings. Default -0.5.
	CeilingNormalZThreshold float64 `yaml:"ceiling_normal_z_threshold"`

	// StepHeight is the maximum upward step a grounded actor snaps onto
	// without leaving the grounded state.
	StepHeight float64 `yaml:"step_height"`

	// StepDownHeight is the maximum downward step the grounded branch
	// will snap onto (the lower bound of the step window).
	StepDownHeight float64 `yaml:"step_down_height"`

	// MaxIterations bounds CollideAndSlide's per-call iteration count.
	// The spec notes values ≤4 are known to stick in concave geometry;
	// default 10.
	MaxIterations int `yaml:"max_iterations"`

	// MinMoveDistance is the smallest remaining-distance CollideAndSlide
	// will bother advancing; below this it stops.
	MinMoveDistance float64 `yaml:"min_move_distance"`

	// Gravity is the downward acceleration applied while airborne,
	// yards/s².
	Gravity float64 `yaml:"gravity"`

	// TerminalVelocity clamps airborne vz, yards/s (negative).
	TerminalVelocity float64 `yaml:"terminal_velocity"`

	// MaxHeight clamps the final z each tick, yards.
	MaxHeight float64 `yaml:"max_height"`

	// StepDownHysteresisFrames is the number of ticks after a committed
	// step-down during which the grounded ground-search window widens.
	StepDownHysteresisFrames int `yaml:"step_down_hysteresis_frames"`

	// StepDownHysteresisExtra is how much the search window widens
	// during the hysteresis period, yards.
	StepDownHysteresisExtra float64 `yaml:"step_down_hysteresis_extra"`

	// ImmersionFraction is the fraction of capsule height used to judge
	// swim-entry immersion: swimming when z < liquidLevel - height*frac.
	ImmersionFraction float64 `yaml:"immersion_fraction"`

	// DepenetrationMaxPerTick bounds how much of a penetration depth is
	// corrected in a single tick, as a fraction of capsule radius.
	DepenetrationMaxPerTick float64 `yaml:"depenetration_max_per_tick"`
}

// ContactOffset returns the skin width for a capsule of the given radius.
func (p Policy) ContactOffset(radius float64) float64 {
	return radius * p.ContactOffsetScale
}

// DefaultPolicy returns the literal constants named in the specification.
func DefaultPolicy() Policy {
	return Policy{
		ContactOffsetScale:       0.08,
		WalkableMinNormalZ:       0.5,
		CeilingNormalZThreshold:  -0.5,
		StepHeight:               0.6,
		StepDownHeight:           0.6,
		MaxIterations:            10,
		MinMoveDistance:          1e-3,
		Gravity:                  19.29,
		TerminalVelocity:         -54.0,
		MaxHeight:                100000.0,
		StepDownHysteresisFrames: 10,
		StepDownHysteresisExtra:  1.0,
		ImmersionFraction:        0.75,
		DepenetrationMaxPerTick:  0.25,
	}
}

// LoadPolicy decodes a YAML tolerance override document, starting from
// DefaultPolicy so a partial document only overrides the fields it names.
func LoadPolicy(r io.Reader) (Policy, error) {
	p := DefaultPolicy()
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&p); err != nil && err != io.EOF {
		return Policy{}, err
	}
	return p, nil
}

// Clamp generalizes the teacher's lin.Clamp(s, lb, ub float64) to any
// ordered scalar — used for float64 tolerance clamps as well as the
// integer frame counters in the step hysteresis.
func Clamp[T constraints.Ordered](s, lb, ub T) T {
	switch {
	case s < lb:
		return lb
	case s > ub:
		return ub
	}
	return s
}

// Aeq reports whether a and b differ by no more than eps.
func Aeq(a, b, eps float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= eps
}
