package xrmath

import "github.com/go-gl/mathgl/mgl64"

// RigidTransform is a position/orientation pair. It is immutable once
// constructed; pose updates build a new transform rather than mutating one
// in place, which makes the lazy matrix cache safe to keep forever.
//
// All queries run on the session tick goroutine, so the cache fields need
// no locking.
type RigidTransform struct {
	Position    mgl64.Vec3
	Orientation mgl64.Quat

	matrix  *mgl64.Mat4
	inverse *RigidTransform
}

// NewRigidTransform builds a transform from a position and a unit
// orientation quaternion. The orientation is normalized on entry so a
// slightly drifted input cannot poison every derived matrix.
func NewRigidTransform(position mgl64.Vec3, orientation mgl64.Quat) *RigidTransform {
	return &RigidTransform{
		Position:    position,
		Orientation: orientation.Normalize(),
	}
}

// IdentityTransform returns the identity rigid transform.
func IdentityTransform() *RigidTransform {
	return NewRigidTransform(mgl64.Vec3{}, mgl64.QuatIdent())
}

// Matrix returns the column-major 4x4 matrix for this transform, computing
// it on first access and caching it afterwards.
func (t *RigidTransform) Matrix() mgl64.Mat4 {
	if t.matrix == nil {
		m := t.Orientation.Mat4()
		m.SetCol(3, mgl64.Vec4{t.Position.X(), t.Position.Y(), t.Position.Z(), 1})
		t.matrix = &m
	}
	return *t.matrix
}

// Inverse returns the transform that composes with t to the identity.
// The result is cached on first access.
func (t *RigidTransform) Inverse() *RigidTransform {
	if t.inverse == nil {
		invRot := t.Orientation.Conjugate().Normalize()
		invPos := invRot.Rotate(t.Position.Mul(-1))
		t.inverse = NewRigidTransform(invPos, invRot)
	}
	return t.inverse
}

// Mul composes two transforms: the result maps a point through o first,
// then through t.
func (t *RigidTransform) Mul(o *RigidTransform) *RigidTransform {
	return NewRigidTransform(
		t.Position.Add(t.Orientation.Rotate(o.Position)),
		t.Orientation.Mul(o.Orientation),
	)
}

// TransformPoint applies the transform to a point.
func (t *RigidTransform) TransformPoint(p mgl64.Vec3) mgl64.Vec3 {
	return t.Position.Add(t.Orientation.Rotate(p))
}
