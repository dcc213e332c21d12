package field

// Orbit turns pointer drags into group rotation.
type Orbit struct {
	KY, KX float64 // radians per pixel for horizontal and vertical drags

	dragging     bool
	lastX, lastY float64
}

// NewOrbit returns an orbit controller with the sculpture's drag rates.
func NewOrbit() *Orbit {
	return &Orbit{KY: 0.005, KX: 0.003}
}

// Dragging reports whether a drag is in progress.
func (o *Orbit) Dragging() bool { return o.dragging }

// Begin starts a drag at (x, y).
func (o *Orbit) Begin(x, y float64) {
	o.dragging = true
	o.lastX, o.lastY = x, y
}

// Move applies the drag delta since the last call to rot. It does nothing
// unless a drag is in progress.
func (o *Orbit) Move(x, y float64, rot *Euler) {
	if !o.dragging {
		return
	}
	dx := x - o.lastX
	dy := y - o.lastY
	o.lastX, o.lastY = x, y
	rot.Y += dx * o.KY
	rot.X += dy * o.KX
}

// End stops accumulating rotation.
func (o *Orbit) End() { o.dragging = false }
