package field

import (
	"errors"
	"fmt"
)

// ErrGridTooSmall reports a lattice with fewer than two columns or rows;
// spacing is undefined below that.
var ErrGridTooSmall = errors.New("grid needs at least 2 columns and 2 rows")

// Grid is the immutable lattice of base positions centred on the origin of
// the grid plane (z = 0).
type Grid struct {
	Cols, Rows    int
	Width, Height float64
	DX, DY        float64

	base []float32 // x,y pairs indexed by row*Cols+col
}

// NewGrid lays out cols*rows points spanning width x height.
func NewGrid(cols, rows int, width, height float64) (*Grid, error) {
	if cols < 2 || rows < 2 {
		return nil, fmt.Errorf("%w: got %dx%d", ErrGridTooSmall, cols, rows)
	}
	g := &Grid{
		Cols:   cols,
		Rows:   rows,
		Width:  width,
		Height: height,
		DX:     width / float64(cols-1),
		DY:     height / float64(rows-1),
		base:   make([]float32, cols*rows*2),
	}
	p := 0
	for j := 0; j < rows; j++ {
		y := -height/2 + float64(j)*g.DY
		if j == rows-1 {
			y = height / 2
		}
		for i := 0; i < cols; i++ {
			x := -width/2 + float64(i)*g.DX
			if i == cols-1 {
				x = width / 2
			}
			g.base[p] = float32(x)
			g.base[p+1] = float32(y)
			p += 2
		}
	}
	return g, nil
}

// Len returns the number of lattice points.
func (g *Grid) Len() int { return g.Cols * g.Rows }

// Index maps a column/row pair to the flat point index.
func (g *Grid) Index(col, row int) int { return row*g.Cols + col }

// Base returns the rest position of point idx.
func (g *Grid) Base(idx int) (x, y float32) {
	return g.base[idx*2], g.base[idx*2+1]
}

// Nearest returns the index of the lattice point closest to (x, y). Ties
// resolve to the lowest index.
func (g *Grid) Nearest(x, y float64) int {
	best, bestD := 0, -1.0
	for idx := 0; idx < g.Len(); idx++ {
		bx, by := g.Base(idx)
		dx := float64(bx) - x
		dy := float64(by) - y
		d := dx*dx + dy*dy
		if bestD < 0 || d < bestD {
			best, bestD = idx, d
		}
	}
	return best
}
