package field

// Sprite is one projected point in surface pixels.
type Sprite struct {
	X, Y  float32
	Size  float32 // diameter in pixels
	Depth float32 // distance along the camera axis
}

// ProjectPoints writes the screen-space sprites for every visible point of f
// into dst, reusing its backing array, and returns the filled slice.
// pointSize is the world-space diameter; points shrink with depth the way
// size-attenuated point sprites do.
func ProjectPoints(dst []Sprite, f *Field, t *Transform, cam *Camera, w, h int, pointSize float64) []Sprite {
	dst = dst[:0]
	if w <= 0 || h <= 0 {
		return dst
	}
	fw, fh := float64(w), float64(h)
	scale := fh * 0.5
	for idx := 0; idx < f.Len(); idx++ {
		x, y, z := f.Position(idx)
		world := t.ToWorld(Vec3{X: float64(x), Y: float64(y), Z: float64(z)})
		nx, ny, depth, ok := cam.Project(world)
		if !ok || nx < -1.1 || nx > 1.1 || ny < -1.1 || ny > 1.1 {
			continue
		}
		px, py := ToViewport(nx, ny, fw, fh)
		dst = append(dst, Sprite{
			X:     float32(px),
			Y:     float32(py),
			Size:  float32(pointSize * scale / depth),
			Depth: float32(depth),
		})
	}
	return dst
}
