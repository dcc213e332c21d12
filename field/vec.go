package field

import (
	"math"

	"github.com/golang/geo/r3"
)

// Vec3 is a float64 3D vector. Normalize returns the zero vector for zero
// input.
type Vec3 = r3.Vector

// NoHit is the sentinel pointer hit: far outside any point's influence.
var NoHit = Vec3{X: 999, Y: 999}

// hitThreshold separates real hits from the NoHit sentinel.
const hitThreshold = 900

// HitActive reports whether h is a real pointer hit.
func HitActive(h Vec3) bool { return h.X < hitThreshold }

// Euler is a rotation in radians applied in X, Y, Z order.
type Euler struct {
	X, Y, Z float64
}

// mat3 is a row-major 3x3 matrix.
type mat3 [9]float64

// matrix builds Rx * Ry * Rz.
func (e Euler) matrix() mat3 {
	a, b := math.Cos(e.X), math.Sin(e.X)
	c, d := math.Cos(e.Y), math.Sin(e.Y)
	ee, f := math.Cos(e.Z), math.Sin(e.Z)
	ae, af := a*ee, a*f
	be, bf := b*ee, b*f
	return mat3{
		c * ee, -c * f, d,
		af + be*d, ae - bf*d, -b * c,
		bf - ae*d, be + af*d, a * c,
	}
}

func (m mat3) mul(v Vec3) Vec3 {
	return Vec3{
		X: m[0]*v.X + m[1]*v.Y + m[2]*v.Z,
		Y: m[3]*v.X + m[4]*v.Y + m[5]*v.Z,
		Z: m[6]*v.X + m[7]*v.Y + m[8]*v.Z,
	}
}

// mulT multiplies by the transpose, which inverts a pure rotation.
func (m mat3) mulT(v Vec3) Vec3 {
	return Vec3{
		X: m[0]*v.X + m[3]*v.Y + m[6]*v.Z,
		Y: m[1]*v.X + m[4]*v.Y + m[7]*v.Z,
		Z: m[2]*v.X + m[5]*v.Y + m[8]*v.Z,
	}
}

// Transform places the grid group in world space: uniform scale, then
// rotation, then translation.
type Transform struct {
	Position Vec3
	Rotation Euler
	Scale    float64

	rot    mat3
	cached Euler
	valid  bool
}

func (t *Transform) rotation() mat3 {
	if !t.valid || t.cached != t.Rotation {
		t.rot = t.Rotation.matrix()
		t.cached = t.Rotation
		t.valid = true
	}
	return t.rot
}

// ToWorld maps a grid-local point into world space.
func (t *Transform) ToWorld(p Vec3) Vec3 {
	return t.rotation().mul(p.Mul(t.Scale)).Add(t.Position)
}

// ToLocal maps a world point into the grid's local frame.
func (t *Transform) ToLocal(p Vec3) Vec3 {
	if t.Scale == 0 {
		return NoHit
	}
	return t.rotation().mulT(p.Sub(t.Position)).Mul(1 / t.Scale)
}

// dirToLocal maps a world direction into the local frame (no translation).
func (t *Transform) dirToLocal(d Vec3) Vec3 {
	return t.rotation().mulT(d).Mul(1 / t.Scale)
}
