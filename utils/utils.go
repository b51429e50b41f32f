package utils

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vector2 is the 2D vector used for positions, velocities, normals and impulses.
type Vector2 = mgl64.Vec2

// Epsilon absorbs accumulated floating point error in length and timer comparisons.
const Epsilon = 1e-9

// Vec builds a Vector2 from its components.
func Vec(x, y float64) Vector2 {
	return Vector2{x, y}
}

// Normalize returns the unit vector pointing along v. The zero vector (or anything
// shorter than Epsilon) normalizes to the zero vector instead of NaN.
func Normalize(v Vector2) Vector2 {
	length := v.Len()
	if length < Epsilon || !IsFiniteFloat(length) {
		return Vector2{}
	}
	return v.Mul(1 / length)
}

// WithLength rescales v to the given length while keeping its direction.
func WithLength(v Vector2, length float64) Vector2 {
	return Normalize(v).Mul(length)
}

func Distance(a, b Vector2) float64 {
	return a.Sub(b).Len()
}

func IsFiniteFloat(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// IsFinite reports whether both components of v are neither NaN nor Inf.
func IsFinite(v Vector2) bool {
	return IsFiniteFloat(v[0]) && IsFiniteFloat(v[1])
}

func Clamp(value, lower, upper float64) float64 {
	return math.Max(lower, math.Min(upper, value))
}

// ClosestPointOnRect returns the point of the axis-aligned rectangle [min, max]
// closest to p. Points inside the rectangle are returned unchanged.
func ClosestPointOnRect(p, min, max Vector2) Vector2 {
	return Vector2{
		Clamp(p[0], min[0], max[0]),
		Clamp(p[1], min[1], max[1]),
	}
}

// ReflectAlong mirrors v across a surface with the given normal. The normal does not
// need to be unit length.
func ReflectAlong(v, normal Vector2) Vector2 {
	n := Normalize(normal)
	if n.Len() == 0 {
		return v
	}
	return v.Sub(n.Mul(2 * v.Dot(n)))
}
