package termview

import (
	"github.com/gdamore/tcell/v2"

	"github.com/aklo360/mcliv/sculpture"
)

// ramp orders glyphs from sparse to dense.
var ramp = []rune(" .:-=+*#%@")

type cell struct {
	count int
	depth float32
}

// surface rasterises projected sprites into terminal cells. Cell density is
// the number of points landing in it; nearer points add weight.
type surface struct {
	host  *Host
	w, h  int
	cells []cell
}

func (s *surface) SetSize(w, h int) {
	s.w, s.h = w, h
}

func (s *surface) Draw(fr *sculpture.Frame) {
	screen := s.host.screen
	cols, rows := screen.Size()
	screen.Clear()
	if cols <= 0 || rows <= 0 || s.w <= 0 || s.h <= 0 {
		screen.Show()
		return
	}
	if cap(s.cells) < cols*rows {
		s.cells = make([]cell, cols*rows)
	}
	s.cells = s.cells[:cols*rows]
	clear(s.cells)

	sx := float32(cols) / float32(s.w)
	sy := float32(rows) / float32(s.h)
	for _, sp := range fr.Sprites {
		cx, cy := int(sp.X*sx), int(sp.Y*sy)
		if cx < 0 || cx >= cols || cy < 0 || cy >= rows {
			continue
		}
		c := &s.cells[cy*cols+cx]
		c.count++
		if c.depth == 0 || sp.Depth < c.depth {
			c.depth = sp.Depth
		}
	}

	fg := s.host.fg
	if fg == tcell.ColorDefault {
		fg = tcell.NewHexColor(int32(fr.Color))
	}
	style := tcell.StyleDefault.Foreground(fg)
	for idx, c := range s.cells {
		if c.count == 0 {
			continue
		}
		screen.SetContent(idx%cols, idx/cols, glyph(c), nil, style)
	}
	screen.Show()
}

func glyph(c cell) rune {
	level := c.count
	if c.depth > 0 && c.depth < 5 {
		level++
	}
	if level >= len(ramp) {
		level = len(ramp) - 1
	}
	return ramp[level]
}

func (s *surface) Dispose() {
	s.host.screen.Clear()
	s.host.screen.Show()
	s.cells = nil
	if s.host.surface == s {
		s.host.surface = nil
	}
}
