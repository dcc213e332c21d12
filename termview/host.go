// Package termview hosts the sculpture in a terminal. Each cell stands in for
// a 1x2 block of surface pixels, mouse events become pointer events and
// frames are paced by a ticker since terminals have no display refresh
// signal.
package termview

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/aklo360/mcliv/field"
	"github.com/aklo360/mcliv/sculpture"
)

// cellAspect is the height of a terminal cell in units of its width.
const cellAspect = 2

const defaultInterval = 33 * time.Millisecond

// Host implements sculpture.Host on a tcell screen. All callbacks run on the
// goroutine executing Run.
type Host struct {
	screen   tcell.Screen
	log      *zap.SugaredLogger
	interval time.Duration
	reduced  bool
	fg       tcell.Color
	started  time.Time

	mu     sync.Mutex
	posted []func()
	wake   chan struct{}

	nextID    sculpture.FrameID
	frames    map[sculpture.FrameID]sculpture.FrameFunc
	listeners map[int]sculpture.Listener
	nextKey   int
	buttons   tcell.ButtonMask

	surface *surface
}

// Option configures a Host.
type Option func(*Host)

// WithLogger routes diagnostics to l.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(h *Host) {
		if l != nil {
			h.log = l
		}
	}
}

// WithFrameInterval sets the frame pacing. Non-positive values are ignored.
func WithFrameInterval(d time.Duration) Option {
	return func(h *Host) {
		if d > 0 {
			h.interval = d
		}
	}
}

// WithReducedMotion reports a reduced-motion preference to mounted sculptures.
func WithReducedMotion(on bool) Option {
	return func(h *Host) { h.reduced = on }
}

// WithForeground overrides the sculpture's point colour, which is usually too
// dark for a terminal with a dark background.
func WithForeground(c tcell.Color) Option {
	return func(h *Host) { h.fg = c }
}

// New wraps an initialised screen and enables mouse and focus reporting.
func New(screen tcell.Screen, opts ...Option) *Host {
	h := &Host{
		screen:    screen,
		log:       zap.NewNop().Sugar(),
		interval:  defaultInterval,
		fg:        tcell.ColorDefault,
		started:   time.Now(),
		wake:      make(chan struct{}, 1),
		frames:    map[sculpture.FrameID]sculpture.FrameFunc{},
		listeners: map[int]sculpture.Listener{},
	}
	for _, opt := range opts {
		opt(h)
	}
	screen.EnableMouse(tcell.MouseMotionEvents)
	screen.EnableFocus()
	screen.HideCursor()
	return h
}

// Run pumps screen events, posted functions and frame ticks until ctx is done
// or the user presses Esc, Ctrl-C or q.
func (h *Host) Run(ctx context.Context) error {
	events := make(chan tcell.Event, 64)
	quit := make(chan struct{})
	defer close(quit)
	go h.screen.ChannelEvents(events, quit)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if !h.handle(ev) {
				h.log.Debug("quit requested")
				return nil
			}
		case <-h.wake:
			h.drain()
		case <-ticker.C:
			h.tick(time.Since(h.started))
		}
	}
}

// handle dispatches one screen event and reports whether to keep running.
func (h *Host) handle(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch {
		case ev.Key() == tcell.KeyEscape, ev.Key() == tcell.KeyCtrlC:
			return false
		case ev.Key() == tcell.KeyRune && ev.Rune() == 'q':
			return false
		}
	case *tcell.EventResize:
		h.screen.Sync()
		h.each(func(l sculpture.Listener) {
			if l.Resize != nil {
				l.Resize()
			}
		})
	case *tcell.EventFocus:
		if !ev.Focused {
			h.each(func(l sculpture.Listener) {
				if l.Leave != nil {
					l.Leave()
				}
			})
		}
	case *tcell.EventMouse:
		h.mouse(ev)
	}
	return true
}

func (h *Host) mouse(ev *tcell.EventMouse) {
	x, y := ev.Position()
	pe := sculpture.PointerEvent{
		X: float64(x) + 0.5,
		Y: (float64(y) + 0.5) * cellAspect,
	}
	btn := ev.Buttons() & tcell.Button1
	pressed := btn != 0 && h.buttons == 0
	released := btn == 0 && h.buttons != 0
	h.buttons = btn

	h.each(func(l sculpture.Listener) {
		if pressed && l.Down != nil {
			l.Down(pe)
		}
		if l.Move != nil {
			l.Move(pe)
		}
		if released && l.Up != nil {
			l.Up(pe)
		}
	})
}

func (h *Host) each(fn func(sculpture.Listener)) {
	for _, l := range h.listeners {
		fn(l)
	}
}

func (h *Host) drain() {
	h.mu.Lock()
	posted := h.posted
	h.posted = nil
	h.mu.Unlock()
	for _, fn := range posted {
		fn()
	}
}

// tick fires every frame callback pending at the start of the tick.
// Callbacks requested during the tick wait for the next one.
func (h *Host) tick(now time.Duration) {
	if len(h.frames) == 0 {
		return
	}
	frames := h.frames
	h.frames = map[sculpture.FrameID]sculpture.FrameFunc{}
	for _, fn := range frames {
		fn(now)
	}
}

func (h *Host) Bounds() field.Rect {
	w, ht := h.screen.Size()
	return field.Rect{Width: float64(w), Height: float64(ht) * cellAspect}
}

func (h *Host) DevicePixelRatio() float64  { return 1 }
func (h *Host) PrefersReducedMotion() bool { return h.reduced }

func (h *Host) RequestFrame(fn sculpture.FrameFunc) sculpture.FrameID {
	h.nextID++
	h.frames[h.nextID] = fn
	return h.nextID
}

func (h *Host) CancelFrame(id sculpture.FrameID) {
	delete(h.frames, id)
}

// Post may be called from any goroutine.
func (h *Host) Post(fn func()) {
	h.mu.Lock()
	h.posted = append(h.posted, fn)
	h.mu.Unlock()
	select {
	case h.wake <- struct{}{}:
	default:
	}
}

func (h *Host) Listen(l sculpture.Listener) func() {
	h.nextKey++
	key := h.nextKey
	h.listeners[key] = l
	return func() { delete(h.listeners, key) }
}

// The terminal owns a single pointer which is always captured.
func (h *Host) SetPointerCapture(id int) error {
	if id != 0 {
		return fmt.Errorf("termview: unknown pointer %d", id)
	}
	return nil
}

func (h *Host) ReleasePointerCapture(id int) error {
	return h.SetPointerCapture(id)
}

// NewSurface allocates the cell raster. Only one surface is live at a time.
func (h *Host) NewSurface() (sculpture.Surface, error) {
	if h.surface != nil {
		return nil, fmt.Errorf("termview: surface already allocated")
	}
	h.surface = &surface{host: h}
	return h.surface, nil
}
