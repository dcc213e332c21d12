package field

import "math"

// Field stores the per-point dynamic state for one grid. All buffers are
// allocated once in NewField and reused every frame.
type Field struct {
	grid *Grid

	DispX, DispY []float32
	VelX, VelY   []float32

	// Positions holds x,y,z triples ready for upload to a render surface.
	Positions []float32

	dirty bool
}

// NewField allocates zeroed displacement and velocity buffers for g and seeds
// the position buffer with the base lattice.
func NewField(g *Grid) *Field {
	n := g.Len()
	f := &Field{
		grid:      g,
		DispX:     make([]float32, n),
		DispY:     make([]float32, n),
		VelX:      make([]float32, n),
		VelY:      make([]float32, n),
		Positions: make([]float32, n*3),
	}
	for idx := 0; idx < n; idx++ {
		bx, by := g.Base(idx)
		f.Positions[idx*3] = bx
		f.Positions[idx*3+1] = by
	}
	f.dirty = true
	return f
}

// Grid returns the lattice this field was built for.
func (f *Field) Grid() *Grid { return f.grid }

// Len returns the number of points.
func (f *Field) Len() int { return len(f.DispX) }

// Position returns the rendered position of point idx.
func (f *Field) Position(idx int) (x, y, z float32) {
	return f.Positions[idx*3], f.Positions[idx*3+1], f.Positions[idx*3+2]
}

// Dirty reports whether Positions changed since the last ClearDirty.
func (f *Field) Dirty() bool { return f.dirty }

// MarkDirty flags Positions for re-upload.
func (f *Field) MarkDirty() { f.dirty = true }

// ClearDirty acknowledges an upload of Positions.
func (f *Field) ClearDirty() { f.dirty = false }

// Energy returns the mean planar speed of all points.
func (f *Field) Energy() float32 {
	n := len(f.VelX)
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		vx := float64(f.VelX[i])
		vy := float64(f.VelY[i])
		sum += math.Sqrt(vx*vx + vy*vy)
	}
	return float32(sum / float64(n))
}

// Release drops every buffer. The field must not be stepped afterwards.
func (f *Field) Release() {
	f.DispX, f.DispY = nil, nil
	f.VelX, f.VelY = nil, nil
	f.Positions = nil
	f.dirty = false
}
