package main

import (
	"fmt"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"

	"github.com/aklo360/mcliv/field"
	"github.com/aklo360/mcliv/sculpture"
)

// spriteSurface keeps a copy of the last presented frame for Draw. Sprites
// are drawn from one cached circle texture.
type spriteSurface struct {
	game    *Game
	circle  *ebiten.Image
	w, h    int
	frame   sculpture.Frame
	sprites []field.Sprite
	tint    color.RGBA
	opts    ebiten.DrawImageOptions
	frames  uint64
}

func newSpriteSurface(g *Game) (*spriteSurface, error) {
	circle := ebiten.NewImage(circleTextureSize, circleTextureSize)
	circle.WritePixels(circlePixels(circleTextureSize))
	return &spriteSurface{game: g, circle: circle}, nil
}

// circlePixels rasterises a filled disc with a one pixel soft edge into
// premultiplied RGBA.
func circlePixels(size int) []byte {
	pix := make([]byte, size*size*4)
	r := float64(size) / 2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx := float64(x) + 0.5 - r
			dy := float64(y) + 0.5 - r
			a := math.Max(0, math.Min(1, r-math.Hypot(dx, dy)))
			v := byte(a * 255)
			base := (y*size + x) * 4
			pix[base] = v
			pix[base+1] = v
			pix[base+2] = v
			pix[base+3] = v
		}
	}
	return pix
}

func (s *spriteSurface) SetSize(w, h int) { s.w, s.h = w, h }

// Draw copies fr so Ebiten's Draw can present it after the frame callback
// returns.
func (s *spriteSurface) Draw(fr *sculpture.Frame) {
	s.sprites = append(s.sprites[:0], fr.Sprites...)
	s.frame = *fr
	s.frame.Sprites = s.sprites
	s.tint = color.RGBA{
		R: uint8(fr.Color >> 16),
		G: uint8(fr.Color >> 8),
		B: uint8(fr.Color),
		A: 0xff,
	}
	s.frames++
}

func (s *spriteSurface) Dispose() {
	if s.circle != nil {
		s.circle.Deallocate()
		s.circle = nil
	}
	s.sprites = nil
	s.frame = sculpture.Frame{}
	if s.game.surface == s {
		s.game.surface = nil
	}
}

// Draw renders the current sculpture frame and the optional debug overlay.
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(backgroundColor)
	if s := g.surface; s != nil && s.circle != nil {
		s.render(screen)
	}
	if g.debug {
		ebitenutil.DebugPrint(screen, g.debugText())
	}
}

func (s *spriteSurface) render(screen *ebiten.Image) {
	inv := 1 / float64(circleTextureSize)
	for _, sp := range s.sprites {
		d := float64(sp.Size)
		if d <= 0 {
			continue
		}
		s.opts.GeoM.Reset()
		s.opts.GeoM.Scale(d*inv, d*inv)
		s.opts.GeoM.Translate(float64(sp.X)-d/2, float64(sp.Y)-d/2)
		s.opts.ColorScale.Reset()
		s.opts.ColorScale.ScaleWithColor(s.tint)
		s.opts.Filter = ebiten.FilterLinear
		screen.DrawImage(s.circle, &s.opts)
	}
}

func (g *Game) debugText() string {
	msg := fmt.Sprintf("FPS: %.1f\nTPS: %.1f\nScale: %.2f",
		ebiten.ActualFPS(), ebiten.ActualTPS(), g.scale)
	s := g.surface
	if s == nil {
		return msg + "\nloading"
	}
	fr := &s.frame
	hit := "none"
	if field.HitActive(fr.Hit) {
		hit = fmt.Sprintf("%.2f, %.2f", fr.Hit.X, fr.Hit.Y)
	}
	return msg + fmt.Sprintf("\nPoints: %d drawn\nEnergy: %.4f\nHit: %s\nRotation: %.3f, %.3f\nFrames: %d @ %.1fs",
		len(fr.Sprites), fr.Energy, hit, fr.Rotation.X, fr.Rotation.Y, s.frames, g.lastFrame.Seconds())
}
