// Package sculpture mounts the interactive point-field into a host surface
// and drives it once per display frame until unmounted.
package sculpture

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/aklo360/mcliv/field"
)

// ErrNotReady is returned by Mount when the host has no usable container.
// The host may retry on its next mount attempt.
var ErrNotReady = errors.New("sculpture: container not ready")

// Sculpture is the mount contract exposed to a host: Mount and Unmount,
// nothing else. Configuration is fixed at construction.
type Sculpture struct {
	cfg    Config
	log    *zap.SugaredLogger
	loader Loader

	cur *mount
}

// Option configures a Sculpture.
type Option func(*Sculpture)

// WithLogger routes diagnostics to l.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(s *Sculpture) {
		if l != nil {
			s.log = l
		}
	}
}

// WithLoader replaces the resource loader run at mount.
func WithLoader(l Loader) Option {
	return func(s *Sculpture) {
		if l != nil {
			s.loader = l
		}
	}
}

// New creates an unmounted sculpture.
func New(cfg Config, opts ...Option) *Sculpture {
	s := &Sculpture{
		cfg:    cfg,
		log:    zap.NewNop().Sugar(),
		loader: CPULoader,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Mounted reports whether a mount is active (loading or animating). A mount
// whose start failed is not active.
func (s *Sculpture) Mounted() bool { return s.cur != nil && !s.cur.failed }

// Mount attaches the sculpture to h and begins loading; animation starts
// once resources arrive. Mounting an already mounted sculpture is a no-op.
func (s *Sculpture) Mount(h Host) error {
	if s.Mounted() {
		return nil
	}
	s.cur = nil
	if h == nil || h.Bounds().Empty() {
		s.log.Debug("mount skipped: container not ready")
		return ErrNotReady
	}
	if err := s.cfg.Validate(); err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(context.Background())
	m := &mount{
		cfg:    s.cfg,
		host:   h,
		log:    s.log,
		ctx:    ctx,
		cancel: cancel,
	}
	s.cur = m
	m.load(s.loader)
	return nil
}

// Unmount cancels any pending frame or load, removes listeners and frees
// the surface and field buffers. It is safe to call when not mounted.
func (s *Sculpture) Unmount() {
	m := s.cur
	if m == nil {
		return
	}
	s.cur = nil
	m.teardown()
}

// mount is the state owned by one Mount/Unmount lifetime.
type mount struct {
	cfg  Config
	host Host
	log  *zap.SugaredLogger

	ctx       context.Context
	cancel    context.CancelFunc
	cancelled bool
	started   bool
	failed    bool

	grid    *field.Grid
	field   *field.Field
	stepper field.Stepper
	surface Surface
	unlisten func()

	camera field.Camera
	group  field.Transform
	plane  field.HitPlane
	orbit  *field.Orbit
	hit    field.Vec3

	captured  int
	capturing bool

	frameID   FrameID
	scheduled bool
	frame     Frame
	sprites   []field.Sprite
	reduced   bool
}

func (m *mount) start(res Resources) {
	grid, err := field.NewGrid(m.cfg.Cols, m.cfg.Rows, m.cfg.Width, m.cfg.Height)
	if err != nil {
		m.fail(res, "grid construction failed", err)
		return
	}
	surface, err := m.host.NewSurface()
	if err != nil {
		m.fail(res, "surface allocation failed", err)
		return
	}

	m.grid = grid
	m.field = field.NewField(grid)
	m.stepper = res.Stepper
	m.surface = surface
	m.camera = m.cfg.Camera
	m.group = field.Transform{
		Position: m.cfg.GroupPosition,
		Rotation: m.cfg.GroupRotation,
		Scale:    m.cfg.GroupScale,
	}
	m.plane = field.NewHitPlane(grid)
	m.orbit = &field.Orbit{KY: m.cfg.OrbitKY, KX: m.cfg.OrbitKX}
	m.hit = field.NoHit
	m.sprites = make([]field.Sprite, 0, grid.Len())
	m.frame.Color = m.cfg.Color
	m.reduced = m.cfg.ReducedMotion || m.host.PrefersReducedMotion()

	m.unlisten = m.host.Listen(Listener{
		Move:   m.onPointerMove,
		Down:   m.onPointerDown,
		Up:     m.onPointerUp,
		Leave:  m.onPointerLeave,
		Resize: m.resize,
	})
	m.resize()
	m.started = true
	m.log.Infow("sculpture mounted",
		"points", grid.Len(), "reducedMotion", m.reduced)
	m.schedule()
}

// fail releases whatever start acquired and marks the mount inactive so the
// host's next Mount starts over.
func (m *mount) fail(res Resources, msg string, err error) {
	res.Stepper.Close()
	m.log.Errorw(msg, "error", err)
	m.failed = true
	m.teardown()
}

func (m *mount) teardown() {
	m.cancelled = true
	m.cancel()
	if m.scheduled {
		m.host.CancelFrame(m.frameID)
		m.scheduled = false
	}
	if m.unlisten != nil {
		m.unlisten()
		m.unlisten = nil
	}
	if m.capturing {
		m.releaseCapture(m.captured)
	}
	if m.surface != nil {
		m.surface.Dispose()
		m.surface = nil
	}
	if m.stepper != nil {
		m.stepper.Close()
		m.stepper = nil
	}
	if m.field != nil {
		m.field.Release()
		m.field = nil
	}
	m.sprites = nil
	m.frame = Frame{}
	if m.started {
		m.log.Info("sculpture unmounted")
	}
}
