// Copyright © 2024 Ardentcraft.

package mathx

import "github.com/go-gl/mathgl/mgl64"

// Quat is a rotation, built on mgl64.Quat. ModelInstance stores one of
// these for its world rotation; coordinate transforms use it (and its
// inverse) to move points and directions between world and model-local
// space.
type Quat mgl64.Quat

// QuatIdent returns the identity rotation.
func QuatIdent() Quat { return Quat(mgl64.QuatIdent()) }

// QuatFromAxisAngle builds a rotation of angle radians about axis.
func QuatFromAxisAngle(axis Vec3, angle float64) Quat {
	return Quat(mgl64.QuatRotate(angle, mgl64.Vec3(axis)))
}

// QuatFromYaw builds a rotation of yaw radians about +Z, matching the
// PhysicsInput orientation convention (0 = +X, yaw about +Z).
func QuatFromYaw(yaw float64) Quat { return QuatFromAxisAngle(Up, yaw) }

func (q Quat) mgl() mgl64.Quat { return mgl64.Quat(q) }

// RotatePoint applies q to a point, same as RotateDir — quaternion
// rotation has no notion of translation, points and directions rotate
// identically; the method pair exists so call sites document intent.
func (q Quat) RotatePoint(v Vec3) Vec3 { return Vec3(q.mgl().Rotate(mgl64.Vec3(v))) }

// RotateDir applies q to a direction vector.
func (q Quat) RotateDir(v Vec3) Vec3 { return q.RotatePoint(v) }

// Inverse returns the inverse rotation. For the unit quaternions this
// package produces, this is the conjugate.
func (q Quat) Inverse() Quat { return Quat(q.mgl().Inverse()) }

// Mul composes q then o (applies o first, then q), matching mgl64's
// convention.
func (q Quat) Mul(o Quat) Quat { return Quat(q.mgl().Mul(o.mgl())) }

// Transform is a rigid-plus-uniform-scale placement: world position,
// rotation, a uniform scale factor, and its precomputed inverse. This is
// the transform every ModelInstance carries; ScaleInv is cached because
// it is applied once per candidate triangle in the SceneQuery hot path.
type Transform struct {
	Position Vec3
	Rotation Quat
	Scale    float64
	ScaleInv float64
}

// NewTransform builds a Transform, deriving ScaleInv. Scale of 0 is
// treated as 1 (degenerate instances should be filtered by the loader,
// not divide by zero here).
func NewTransform(pos Vec3, rot Quat, scale float64) Transform {
	t := Transform{Position: pos, Rotation: rot, Scale: scale}
	if scale == 0 {
		t.Scale = 1
	}
	t.ScaleInv = 1.0 / t.Scale
	return t
}

// ToLocal converts a world-space point into this transform's local space:
// translate, then inverse-rotate, then inverse-scale.
func (t Transform) ToLocal(world Vec3) Vec3 {
	p := world.Sub(t.Position)
	p = t.Rotation.Inverse().RotatePoint(p)
	return p.Scale(t.ScaleInv)
}

// ToWorld converts a local-space point into world space: scale, rotate,
// translate. ToWorld(ToLocal(p)) == p within 1e-4, satisfying the
// round-trip transform invariant (spec P10).
func (t Transform) ToWorld(local Vec3) Vec3 {
	p := local.Scale(t.Scale)
	p = t.Rotation.RotatePoint(p)
	return p.Add(t.Position)
}

// ToLocalDir converts a world-space direction (e.g. a sweep velocity or a
// surface normal) into local space, omitting the translation component.
func (t Transform) ToLocalDir(world Vec3) Vec3 {
	p := t.Rotation.Inverse().RotatePoint(world)
	return p.Scale(t.ScaleInv)
}

// ToWorldDir converts a local-space direction into world space, omitting
// translation. Used for velocities and other displacement vectors.
func (t Transform) ToWorldDir(local Vec3) Vec3 {
	p := local.Scale(t.Scale)
	return t.Rotation.RotatePoint(p)
}

// NormalToWorld converts a local-space surface normal into world space.
// Surface normals transform by the inverse of what ordinary direction
// vectors do under scale (so the scale factor here is ScaleInv, the
// opposite of ToWorldDir) — for a uniform-scale-only transform this is
// just rotation plus the reciprocal scale, with no shear to correct for.
// The result is renormalized since non-uniform callers (there are none
// today, scale is always uniform) would otherwise distort length.
func (t Transform) NormalToWorld(localNormal Vec3) Vec3 {
	p := localNormal.Scale(t.ScaleInv)
	return t.Rotation.RotatePoint(p).NormalizeOrZero()
}

// NormalToLocal converts a world-space surface normal into model-local
// space, the inverse of NormalToWorld.
func (t Transform) NormalToLocal(worldNormal Vec3) Vec3 {
	p := t.Rotation.Inverse().RotatePoint(worldNormal)
	return p.Scale(t.Scale).NormalizeOrZero()
}
