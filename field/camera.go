package field

import "math"

// Camera is a perspective camera at Position looking down -Z.
type Camera struct {
	FOV      float64 // vertical field of view in degrees
	Aspect   float64
	Near     float64
	Far      float64
	Position Vec3
}

// DefaultCamera matches the sculpture's framing.
func DefaultCamera() Camera {
	return Camera{FOV: 50, Aspect: 1, Near: 0.1, Far: 100, Position: Vec3{Z: 6}}
}

func (c *Camera) tanHalf() float64 {
	return math.Tan(c.FOV * math.Pi / 360)
}

// Ray is a half-line from Origin along unit Dir.
type Ray struct {
	Origin, Dir Vec3
}

// Ray casts from the camera through normalized device coordinates.
func (c *Camera) Ray(ndcX, ndcY float64) Ray {
	th := c.tanHalf()
	dir := Vec3{X: ndcX * th * c.Aspect, Y: ndcY * th, Z: -1}
	return Ray{Origin: c.Position, Dir: dir.Normalize()}
}

// Project maps a world point to normalized device coordinates. depth is the
// distance along the view axis; ok is false outside the near/far range.
func (c *Camera) Project(p Vec3) (ndcX, ndcY, depth float64, ok bool) {
	v := p.Sub(c.Position)
	depth = -v.Z
	if depth < c.Near || depth > c.Far {
		return 0, 0, depth, false
	}
	th := c.tanHalf()
	ndcX = v.X / (depth * th * c.Aspect)
	ndcY = v.Y / (depth * th)
	return ndcX, ndcY, depth, true
}

// Rect is a container rectangle in viewport coordinates.
type Rect struct {
	Left, Top, Width, Height float64
}

// Empty reports whether r has no drawable area.
func (r Rect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// NDC converts viewport coordinates to normalized device coordinates
// relative to r, with Y pointing up.
func NDC(px, py float64, r Rect) (x, y float64) {
	x = (px-r.Left)/r.Width*2 - 1
	y = -(py-r.Top)/r.Height*2 + 1
	return x, y
}

// ToViewport is the inverse of NDC for a surface of w x h pixels.
func ToViewport(ndcX, ndcY, w, h float64) (px, py float64) {
	return (ndcX + 1) / 2 * w, (1 - ndcY) / 2 * h
}
