package field

import "math"

// HitMargin enlarges the hit plane past the lattice so pointer moves near
// the edges still register.
const HitMargin = 1.05

// HitPlane is an invisible rectangle coplanar with the grid, centred on the
// local origin and facing local +Z.
type HitPlane struct {
	Width, Height float64
}

// NewHitPlane sizes a hit plane for g.
func NewHitPlane(g *Grid) HitPlane {
	return HitPlane{Width: g.Width * HitMargin, Height: g.Height * HitMargin}
}

// Intersect casts r (world space) against the plane placed by t and returns
// the hit in grid-local coordinates, or NoHit. Only the front face counts.
func (p HitPlane) Intersect(r Ray, t *Transform) Vec3 {
	if t.Scale == 0 {
		return NoHit
	}
	o := t.ToLocal(r.Origin)
	d := t.dirToLocal(r.Dir)
	if d.Z >= 0 {
		return NoHit
	}
	s := -o.Z / d.Z
	if s < 0 || math.IsInf(s, 0) || math.IsNaN(s) {
		return NoHit
	}
	hit := o.Add(d.Mul(s))
	if math.Abs(hit.X) > p.Width/2 || math.Abs(hit.Y) > p.Height/2 {
		return NoHit
	}
	hit.Z = 0
	return hit
}

// PointerHit maps viewport pointer coordinates inside container bounds to a
// grid-local hit.
func PointerHit(px, py float64, bounds Rect, cam *Camera, plane HitPlane, t *Transform) Vec3 {
	if bounds.Empty() {
		return NoHit
	}
	nx, ny := NDC(px, py, bounds)
	return plane.Intersect(cam.Ray(nx, ny), t)
}
