package geom

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// Orientation is a unit quaternion rotation.
type Orientation = quat.Number

// IdentityOrientation returns the identity rotation.
func IdentityOrientation() Orientation {
	return quat.Number{Real: 1}
}

// QuatFromBasis returns the orientation whose rotation matrix has columns
// x, y and z. The basis must be right-handed and orthonormal; Shepperd's
// branch selection keeps the conversion stable for all rotations.
func QuatFromBasis(x, y, z Vec) Orientation {
	m00, m01, m02 := x.X, y.X, z.X
	m10, m11, m12 := x.Y, y.Y, z.Y
	m20, m21, m22 := x.Z, y.Z, z.Z

	var q quat.Number
	trace := m00 + m11 + m22
	switch {
	case trace > 0:
		s := 0.5 / math.Sqrt(trace+1)
		q.Real = 0.25 / s
		q.Imag = (m21 - m12) * s
		q.Jmag = (m02 - m20) * s
		q.Kmag = (m10 - m01) * s
	case m00 > m11 && m00 > m22:
		s := 2 * math.Sqrt(1+m00-m11-m22)
		q.Real = (m21 - m12) / s
		q.Imag = 0.25 * s
		q.Jmag = (m01 + m10) / s
		q.Kmag = (m02 + m20) / s
	case m11 > m22:
		s := 2 * math.Sqrt(1+m11-m00-m22)
		q.Real = (m02 - m20) / s
		q.Imag = (m01 + m10) / s
		q.Jmag = 0.25 * s
		q.Kmag = (m12 + m21) / s
	default:
		s := 2 * math.Sqrt(1+m22-m00-m11)
		q.Real = (m10 - m01) / s
		q.Imag = (m02 + m20) / s
		q.Jmag = (m12 + m21) / s
		q.Kmag = 0.25 * s
	}
	return UnitQuat(q)
}

// Slerp spherically interpolates from a to b at fraction t along the
// shorter arc. Inputs are assumed unit; the result is renormalized to
// absorb accumulated drift.
func Slerp(a, b Orientation, t float64) Orientation {
	dot := a.Real*b.Real + a.Imag*b.Imag + a.Jmag*b.Jmag + a.Kmag*b.Kmag
	if dot < 0 {
		b = quat.Scale(-1, b)
		dot = -dot
	}
	if dot > 0.9995 {
		// Nearly parallel: normalized linear interpolation avoids the
		// vanishing sine denominator.
		return UnitQuat(quat.Add(a, quat.Scale(t, quat.Sub(b, a))))
	}
	theta := math.Acos(dot)
	sin := math.Sin(theta)
	wa := math.Sin((1-t)*theta) / sin
	wb := math.Sin(t*theta) / sin
	return UnitQuat(quat.Add(quat.Scale(wa, a), quat.Scale(wb, b)))
}

// RotateVec rotates v by the orientation q.
func RotateVec(q Orientation, v Vec) Vec {
	p := quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	r := quat.Mul(quat.Mul(q, p), quat.Conj(q))
	return Vec{X: r.Imag, Y: r.Jmag, Z: r.Kmag}
}

// UnitQuat returns q scaled to unit magnitude, or the identity for a
// zero quaternion.
func UnitQuat(q Orientation) Orientation {
	n := quat.Abs(q)
	if n == 0 {
		return quat.Number{Real: 1}
	}
	return quat.Scale(1/n, q)
}
