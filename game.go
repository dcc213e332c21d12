package main

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"go.uber.org/zap"

	"github.com/aklo360/mcliv/field"
	"github.com/aklo360/mcliv/sculpture"
)

// Game hosts one sculpture in an Ebiten window. Ebiten calls Update, Draw
// and Layout on the same goroutine, which is the sculpture's render thread.
type Game struct {
	sculpt  *sculpture.Sculpture
	log     *zap.SugaredLogger
	reduced bool
	debug   bool

	// outsideW and outsideH are the window size in device-independent pixels.
	outsideW, outsideH int
	sizeDirty          bool
	scale              float64
	maxScale           float64
	start              time.Time

	mu     sync.Mutex
	posted []func()

	nextID    sculpture.FrameID
	frames    map[sculpture.FrameID]sculpture.FrameFunc
	listeners map[int]sculpture.Listener
	nextKey   int

	input   pointerInput
	surface *spriteSurface

	audioStream *energyStream
	audioPlayer *audio.Player

	lastFrame time.Duration
}

// newGame builds a window host for s. maxScale caps the device scale factor
// used for the backing store.
func newGame(s *sculpture.Sculpture, log *zap.SugaredLogger, maxScale float64) *Game {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Game{
		sculpt:    s,
		log:       log,
		reduced:   reducedMotionFlag,
		debug:     debugFlag,
		scale:     1,
		maxScale:  maxScale,
		start:     time.Now(),
		frames:    make(map[sculpture.FrameID]sculpture.FrameFunc),
		listeners: make(map[int]sculpture.Listener),
		input:     newPointerInput(),
	}
}

// enableAudio starts the drone player. Failures leave the window silent.
func (g *Game) enableAudio() {
	ctx := audio.NewContext(audioSampleRate)
	stream := newEnergyStream(audioSampleRate)
	player, err := ctx.NewPlayer(stream)
	if err != nil {
		g.log.Warnw("audio player creation failed", "error", err)
		return
	}
	player.SetBufferSize(audioBufferDuration)
	player.Play()
	g.audioStream = stream
	g.audioPlayer = player
}

// Update runs posted work, mounts the sculpture once the window has a size,
// dispatches input and fires pending frame callbacks.
func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		g.shutdown()
		return ebiten.Termination
	}
	g.drain()

	if !g.sculpt.Mounted() {
		if err := g.sculpt.Mount(g); err != nil && !errors.Is(err, sculpture.ErrNotReady) {
			return fmt.Errorf("mounting sculpture: %w", err)
		}
	}
	if g.sizeDirty {
		g.sizeDirty = false
		g.each(func(l sculpture.Listener) {
			if l.Resize != nil {
				l.Resize()
			}
		})
	}

	g.pollInput()
	g.fireFrames(time.Since(g.start))

	if g.audioStream != nil && g.surface != nil {
		g.audioStream.SetEnergy(g.surface.frame.Energy)
	}
	return nil
}

// shutdown unmounts the sculpture and silences audio.
func (g *Game) shutdown() {
	g.sculpt.Unmount()
	if g.audioPlayer != nil {
		_ = g.audioPlayer.Close()
		g.audioPlayer = nil
	}
}

// Layout records the outside size and returns the backing store size: the
// outside size times the device scale factor, capped at maxScale.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	scale := ebiten.Monitor().DeviceScaleFactor()
	return g.layout(outsideWidth, outsideHeight, scale)
}

func (g *Game) layout(outsideWidth, outsideHeight int, scale float64) (int, int) {
	if scale <= 0 {
		scale = 1
	}
	if g.maxScale > 0 && scale > g.maxScale {
		scale = g.maxScale
	}
	if outsideWidth != g.outsideW || outsideHeight != g.outsideH || scale != g.scale {
		g.outsideW, g.outsideH, g.scale = outsideWidth, outsideHeight, scale
		g.sizeDirty = true
	}
	return int(math.Max(1, math.Round(float64(outsideWidth)*scale))),
		int(math.Max(1, math.Round(float64(outsideHeight)*scale)))
}

func (g *Game) fireFrames(now time.Duration) {
	if len(g.frames) == 0 {
		return
	}
	ids := make([]sculpture.FrameID, 0, len(g.frames))
	for id := range g.frames {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		fn, ok := g.frames[id]
		if !ok {
			continue
		}
		delete(g.frames, id)
		fn(now)
	}
	g.lastFrame = now
}

func (g *Game) drain() {
	g.mu.Lock()
	work := g.posted
	g.posted = nil
	g.mu.Unlock()
	for _, fn := range work {
		fn()
	}
}

// each calls fn for every listener in registration order. Listeners removed
// by an earlier callback are skipped.
func (g *Game) each(fn func(sculpture.Listener)) {
	keys := make([]int, 0, len(g.listeners))
	for k := range g.listeners {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	for _, k := range keys {
		if l, ok := g.listeners[k]; ok {
			fn(l)
		}
	}
}

// Bounds reports the window in device-independent pixels.
func (g *Game) Bounds() field.Rect {
	return field.Rect{Width: float64(g.outsideW), Height: float64(g.outsideH)}
}

func (g *Game) DevicePixelRatio() float64 { return g.scale }

func (g *Game) PrefersReducedMotion() bool { return g.reduced }

func (g *Game) RequestFrame(fn sculpture.FrameFunc) sculpture.FrameID {
	g.nextID++
	g.frames[g.nextID] = fn
	return g.nextID
}

func (g *Game) CancelFrame(id sculpture.FrameID) { delete(g.frames, id) }

// Post queues fn for the next Update. It never blocks.
func (g *Game) Post(fn func()) {
	g.mu.Lock()
	g.posted = append(g.posted, fn)
	g.mu.Unlock()
}

func (g *Game) Listen(l sculpture.Listener) func() {
	key := g.nextKey
	g.nextKey++
	g.listeners[key] = l
	return func() { delete(g.listeners, key) }
}

// SetPointerCapture keeps a pressed pointer's moves flowing while it is
// outside the window. Only pointers currently down can be captured.
func (g *Game) SetPointerCapture(id int) error {
	if !g.input.isDown(id) {
		return fmt.Errorf("pointer %d is not down", id)
	}
	g.input.captured[id] = true
	return nil
}

func (g *Game) ReleasePointerCapture(id int) error {
	if !g.input.captured[id] {
		return fmt.Errorf("pointer %d is not captured", id)
	}
	delete(g.input.captured, id)
	return nil
}

// NewSurface allocates the sprite surface drawn by Draw. A window carries
// one live surface at a time.
func (g *Game) NewSurface() (sculpture.Surface, error) {
	if g.surface != nil {
		return nil, errors.New("window surface already in use")
	}
	s, err := newSpriteSurface(g)
	if err != nil {
		return nil, err
	}
	g.surface = s
	return s, nil
}
