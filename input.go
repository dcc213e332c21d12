package main

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/aklo360/mcliv/sculpture"
)

// mousePointer is the pointer id of the mouse; touch n is n+1.
const mousePointer = 0

type pointerPos struct{ x, y float64 }

// pointerInput tracks what the sculpture has been told about each pointer
// so polled state can be turned into move, down, up and leave events.
type pointerInput struct {
	inside   bool
	last     pointerPos
	haveLast bool
	down     map[int]bool
	captured map[int]bool

	touchIDs []ebiten.TouchID
}

func newPointerInput() pointerInput {
	return pointerInput{
		down:     make(map[int]bool),
		captured: make(map[int]bool),
	}
}

func (p *pointerInput) isDown(id int) bool { return p.down[id] }

func touchPointer(id ebiten.TouchID) int { return int(id) + 1 }

// toViewport converts backing store pixels into window coordinates.
func (g *Game) toViewport(x, y int) pointerPos {
	return pointerPos{x: float64(x) / g.scale, y: float64(y) / g.scale}
}

func (g *Game) insideWindow(p pointerPos) bool {
	return p.x >= 0 && p.y >= 0 && p.x < float64(g.outsideW) && p.y < float64(g.outsideH)
}

// pollInput samples the mouse and touches once per Update.
func (g *Game) pollInput() {
	g.pollMouse()
	g.pollTouches()
}

func (g *Game) pollMouse() {
	in := &g.input
	pos := g.toViewport(ebiten.CursorPosition())
	inside := ebiten.IsFocused() && g.insideWindow(pos)
	held := in.captured[mousePointer]

	if inside || held {
		if !in.haveLast || pos != in.last {
			g.pointerMove(mousePointer, pos)
		}
		in.last, in.haveLast = pos, true
	}
	if inside && inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		in.down[mousePointer] = true
		g.pointerDown(mousePointer, pos)
	}
	if in.down[mousePointer] && !ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		delete(in.down, mousePointer)
		g.pointerUp(mousePointer, pos)
	}

	if in.inside && !inside && !in.captured[mousePointer] {
		in.haveLast = false
		g.pointerLeave()
	}
	in.inside = inside
}

func (g *Game) pollTouches() {
	in := &g.input
	in.touchIDs = inpututil.AppendJustPressedTouchIDs(in.touchIDs[:0])
	for _, id := range in.touchIDs {
		pos := g.toViewport(ebiten.TouchPosition(id))
		pid := touchPointer(id)
		in.down[pid] = true
		g.pointerMove(pid, pos)
		g.pointerDown(pid, pos)
	}

	in.touchIDs = ebiten.AppendTouchIDs(in.touchIDs[:0])
	for _, id := range in.touchIDs {
		if inpututil.TouchPressDuration(id) <= 1 {
			continue
		}
		x, y := ebiten.TouchPosition(id)
		px, py := inpututil.TouchPositionInPreviousTick(id)
		if x != px || y != py {
			g.pointerMove(touchPointer(id), g.toViewport(x, y))
		}
	}

	in.touchIDs = inpututil.AppendJustReleasedTouchIDs(in.touchIDs[:0])
	for _, id := range in.touchIDs {
		pid := touchPointer(id)
		if !in.down[pid] {
			continue
		}
		delete(in.down, pid)
		pos := g.toViewport(inpututil.TouchPositionInPreviousTick(id))
		g.pointerUp(pid, pos)
		// A lifted finger leaves the surface.
		g.pointerLeave()
	}
}

func (g *Game) pointerMove(id int, p pointerPos) {
	ev := sculpture.PointerEvent{ID: id, X: p.x, Y: p.y}
	g.each(func(l sculpture.Listener) {
		if l.Move != nil {
			l.Move(ev)
		}
	})
}

func (g *Game) pointerDown(id int, p pointerPos) {
	ev := sculpture.PointerEvent{ID: id, X: p.x, Y: p.y}
	g.each(func(l sculpture.Listener) {
		if l.Down != nil {
			l.Down(ev)
		}
	})
}

func (g *Game) pointerUp(id int, p pointerPos) {
	ev := sculpture.PointerEvent{ID: id, X: p.x, Y: p.y}
	g.each(func(l sculpture.Listener) {
		if l.Up != nil {
			l.Up(ev)
		}
	})
	delete(g.input.captured, id)
}

func (g *Game) pointerLeave() {
	g.each(func(l sculpture.Listener) {
		if l.Leave != nil {
			l.Leave()
		}
	})
}
