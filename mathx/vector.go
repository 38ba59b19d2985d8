// Copyright © 2024 Ardentcraft.
//
// Package mathx provides the 3D primitives (Vec3, AABox, Ray, Quat, planes,
// barycentrics) shared by every collision and movement package in
// worldphys. World axes are right-handed, +Z up, matching the ABI
// convention in physx.
package mathx

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Epsilon is the default tolerance for "close enough to zero" comparisons
// in this package. Scale-dependent policy (contact offsets, step heights,
// walkable cosines) lives in package tolerance, not here.
const Epsilon = 1e-6

// Large is a sentinel "effectively infinite" distance, used to seed
// nearest-candidate searches. Mirrors the teacher's lin.Large.
const Large = 1e30

// Vec3 is a point or direction in world, map-internal, or model-local
// space, depending on context. It is a value type; every method returns a
// new Vec3 rather than mutating the receiver.
type Vec3 mgl64.Vec3

// V3 builds a Vec3 from components.
func V3(x, y, z float64) Vec3 { return Vec3{x, y, z} }

// Zero3 is the zero vector.
var Zero3 = Vec3{0, 0, 0}

// Up is +Z, the world up direction.
var Up = Vec3{0, 0, 1}

func (v Vec3) mgl() mgl64.Vec3 { return mgl64.Vec3(v) }

// X, Y, Z return the individual components.
func (v Vec3) X() float64 { return v[0] }
func (v Vec3) Y() float64 { return v[1] }
func (v Vec3) Z() float64 { return v[2] }

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 { return Vec3(v.mgl().Add(o.mgl())) }

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3(v.mgl().Sub(o.mgl())) }

// Scale returns v scaled by s.
func (v Vec3) Scale(s float64) Vec3 { return Vec3(v.mgl().Mul(s)) }

// Neg returns -v.
func (v Vec3) Neg() Vec3 { return v.Scale(-1) }

// Dot returns the dot product of v and o.
func (v Vec3) Dot(o Vec3) float64 { return v.mgl().Dot(o.mgl()) }

// Cross returns the cross product v × o.
func (v Vec3) Cross(o Vec3) Vec3 { return Vec3(v.mgl().Cross(o.mgl())) }

// LenSqr returns the squared magnitude of v. Prefer this over Len when only
// comparing magnitudes, to avoid the sqrt.
func (v Vec3) LenSqr() float64 { return v.Dot(v) }

// Len returns the magnitude of v.
func (v Vec3) Len() float64 { return v.mgl().Len() }

// NormalizeOrZero returns v scaled to unit length, or the zero vector when
// v's magnitude is at or below Epsilon. Per the spec's Vec3 invariant, this
// is the only normalize entry point in the package — there is no variant
// that panics or returns an error on a degenerate input.
func (v Vec3) NormalizeOrZero() Vec3 {
	l := v.Len()
	if l <= Epsilon {
		return Zero3
	}
	return v.Scale(1.0 / l)
}

// Lerp linearly interpolates between v and o by t ∈ [0,1].
func (v Vec3) Lerp(o Vec3, t float64) Vec3 {
	return v.Add(o.Sub(v).Scale(t))
}

// Min returns the component-wise minimum of v and o.
func (v Vec3) Min(o Vec3) Vec3 {
	return V3(minF(v.X(), o.X()), minF(v.Y(), o.Y()), minF(v.Z(), o.Z()))
}

// Max returns the component-wise maximum of v and o.
func (v Vec3) Max(o Vec3) Vec3 {
	return V3(maxF(v.X(), o.X()), maxF(v.Y(), o.Y()), maxF(v.Z(), o.Z()))
}

// WithZ returns v with its Z component replaced.
func (v Vec3) WithZ(z float64) Vec3 { return V3(v.X(), v.Y(), z) }

// Horizontal zeroes out the Z component, useful for XY-only distance and
// direction checks used throughout SceneQuery and CollideAndSlide.
func (v Vec3) Horizontal() Vec3 { return V3(v.X(), v.Y(), 0) }

// ApproxEqual reports whether v and o agree within Epsilon per component.
func (v Vec3) ApproxEqual(o Vec3) bool {
	d := v.Sub(o)
	return d.LenSqr() <= Epsilon*Epsilon
}

// IsFinite reports whether every component is a finite float (not NaN or
// ±Inf). PhysicsEngine.Step treats a non-finite input as a fatal
// invariant violation per spec §7.
func (v Vec3) IsFinite() bool {
	return isFinite(v.X()) && isFinite(v.Y()) && isFinite(v.Z())
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

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
