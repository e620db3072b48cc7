// Package geom provides the 3D vector and orientation math shared by the
// track geometry and ride simulation packages.
//
// Vectors are gonum spatial/r3 values and every operation is value
// semantics: helpers return new vectors and never write through shared
// storage. Degenerate inputs (near-zero magnitudes) resolve to explicit
// fallbacks rather than NaN vectors.
package geom

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Vec is the 3D vector type used across the engine.
type Vec = r3.Vec

// degenerateNorm is the magnitude below which a vector cannot be
// normalized safely.
const degenerateNorm = 1e-8

// V constructs a vector from components.
func V(x, y, z float64) Vec {
	return Vec{X: x, Y: y, Z: z}
}

// Up returns the world up vector (0, 1, 0).
func Up() Vec {
	return Vec{Y: 1}
}

// UnitX returns the world x axis (1, 0, 0), the fallback direction used
// when a computed direction degenerates.
func UnitX() Vec {
	return Vec{X: 1}
}

// NearZero reports whether v is too short to carry a direction.
func NearZero(v Vec) bool {
	return r3.Norm(v) < degenerateNorm
}

// UnitOr returns v normalized, or fallback when v is near zero.
func UnitOr(v, fallback Vec) Vec {
	if NearZero(v) {
		return fallback
	}
	return r3.Unit(v)
}

// Lerp returns the linear interpolation between a and b at fraction t.
func Lerp(a, b Vec, t float64) Vec {
	return r3.Add(a, r3.Scale(t, r3.Sub(b, a)))
}

// FlattenY returns v with its vertical component removed.
func FlattenY(v Vec) Vec {
	return Vec{X: v.X, Z: v.Z}
}

// ProjectOut removes from v its component along the unit vector n. This
// is the Gram-Schmidt step used to keep frame vectors orthogonal.
func ProjectOut(v, n Vec) Vec {
	return r3.Sub(v, r3.Scale(r3.Dot(v, n), n))
}
