// Package xrmath provides the pose math used by the tracking and session
// layers: quaternion extraction from rotation matrices, rigid transforms
// with lazily derived matrices, and small vector helpers.
package xrmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// QuatFromRotationMatrix extracts a unit quaternion from a 3x3 rotation
// matrix using the trace method. The branch order (trace, then the largest
// diagonal term) is load-bearing: it decides the sign of the result, and
// downstream smoothing assumes identical input yields identical output.
func QuatFromRotationMatrix(m mgl64.Mat3) mgl64.Quat {
	m00, m01, m02 := m.At(0, 0), m.At(0, 1), m.At(0, 2)
	m10, m11, m12 := m.At(1, 0), m.At(1, 1), m.At(1, 2)
	m20, m21, m22 := m.At(2, 0), m.At(2, 1), m.At(2, 2)

	var w, x, y, z float64
	tr := m00 + m11 + m22

	switch {
	case tr > 0:
		s := math.Sqrt(tr+1.0) * 2
		w = 0.25 * s
		x = (m21 - m12) / s
		y = (m02 - m20) / s
		z = (m10 - m01) / s
	case m00 > m11 && m00 > m22:
		s := math.Sqrt(1.0+m00-m11-m22) * 2
		w = (m21 - m12) / s
		x = 0.25 * s
		y = (m01 + m10) / s
		z = (m02 + m20) / s
	case m11 > m22:
		s := math.Sqrt(1.0+m11-m00-m22) * 2
		w = (m02 - m20) / s
		x = (m01 + m10) / s
		y = 0.25 * s
		z = (m12 + m21) / s
	default:
		s := math.Sqrt(1.0+m22-m00-m11) * 2
		w = (m10 - m01) / s
		x = (m02 + m20) / s
		y = (m12 + m21) / s
		z = (m20 + m02) / s
	}

	return mgl64.Quat{W: w, V: mgl64.Vec3{x, y, z}}.Normalize()
}

// QuatFromBasis builds a quaternion from three orthonormal basis vectors
// treated as the columns of a rotation matrix.
func QuatFromBasis(x, y, z mgl64.Vec3) mgl64.Quat {
	m := mgl64.Mat3FromCols(x, y, z)
	return QuatFromRotationMatrix(m)
}

// LerpQuat linearly interpolates two quaternions component-wise and
// renormalizes. Before mixing, b is flipped into a's hemisphere so the
// interpolation never takes the long way around.
func LerpQuat(a, b mgl64.Quat, t float64) mgl64.Quat {
	if a.Dot(b) < 0 {
		b = mgl64.Quat{W: -b.W, V: b.V.Mul(-1)}
	}
	return mgl64.Quat{
		W: a.W + t*(b.W-a.W),
		V: mgl64.Vec3{
			a.V.X() + t*(b.V.X()-a.V.X()),
			a.V.Y() + t*(b.V.Y()-a.V.Y()),
			a.V.Z() + t*(b.V.Z()-a.V.Z()),
		},
	}.Normalize()
}

// Lerp performs linear interpolation between two values.
func Lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

// Clamp restricts a value to a range.
func Clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// SafeNormalize normalizes v, falling back to fallback when v is too short
// to carry a direction.
func SafeNormalize(v, fallback mgl64.Vec3) mgl64.Vec3 {
	if v.Len() < 1e-9 {
		return fallback
	}
	return v.Normalize()
}
