package sculpture

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/gcfg.v1"

	"github.com/aklo360/mcliv/field"
)

// Config fixes the sculpture's lattice, physics and framing for the lifetime
// of a mount. Nothing here can change while mounted.
type Config struct {
	Cols, Rows    int
	Width, Height float64

	Physics field.Physics
	Camera  field.Camera

	GroupPosition field.Vec3
	GroupRotation field.Euler
	GroupScale    float64
	CompactScale  float64 // used when the container is CompactWidth wide or less
	CompactWidth  float64

	OrbitKY, OrbitKX float64

	PointSize     float64
	Color         uint32
	MaxPixelRatio float64
	ReducedMotion bool
}

// DefaultConfig returns the studio sculpture: a 100x60 lattice tilted back
// toward the viewer.
func DefaultConfig() Config {
	return Config{
		Cols:          100,
		Rows:          60,
		Width:         7.5,
		Height:        4.6,
		Physics:       field.DefaultPhysics(),
		Camera:        field.DefaultCamera(),
		GroupRotation: field.Euler{X: -math.Pi/2 + 0.3, Y: -0.3},
		GroupScale:    1.02,
		CompactScale:  0.9,
		CompactWidth:  640,
		OrbitKY:       0.005,
		OrbitKX:       0.003,
		PointSize:     0.06,
		Color:         0x2a2a2a,
		MaxPixelRatio: 2,
	}
}

// tuningFile mirrors the INI sections accepted by LoadTuning.
type tuningFile struct {
	Grid struct {
		Cols, Rows    int
		Width, Height float64
	}
	Physics struct {
		Damping, Spring  float64
		Radius, Strength float64
		Swirl            float64
	}
	Camera struct {
		Fov      float64
		Distance float64
	}
	Group struct {
		Tilt         float64
		Yaw          float64
		Roll         float64
		Scale        float64
		CompactScale float64 `gcfg:"compact-scale"`
	}
	Orbit struct {
		Ky, Kx float64
	}
	Render struct {
		PointSize     float64 `gcfg:"point-size"`
		Color         string
		MaxPixelRatio float64 `gcfg:"max-pixel-ratio"`
		ReducedMotion bool    `gcfg:"reduced-motion"`
	}
}

func (c Config) toFile() *tuningFile {
	tf := &tuningFile{}
	tf.Grid.Cols, tf.Grid.Rows = c.Cols, c.Rows
	tf.Grid.Width, tf.Grid.Height = c.Width, c.Height
	tf.Physics.Damping = c.Physics.Damping
	tf.Physics.Spring = c.Physics.Spring
	tf.Physics.Radius = c.Physics.Radius
	tf.Physics.Strength = c.Physics.Strength
	tf.Physics.Swirl = c.Physics.Swirl
	tf.Camera.Fov = c.Camera.FOV
	tf.Camera.Distance = c.Camera.Position.Z
	tf.Group.Tilt = c.GroupRotation.X
	tf.Group.Yaw = c.GroupRotation.Y
	tf.Group.Roll = c.GroupRotation.Z
	tf.Group.Scale = c.GroupScale
	tf.Group.CompactScale = c.CompactScale
	tf.Orbit.Ky, tf.Orbit.Kx = c.OrbitKY, c.OrbitKX
	tf.Render.PointSize = c.PointSize
	tf.Render.Color = fmt.Sprintf("#%06x", c.Color)
	tf.Render.MaxPixelRatio = c.MaxPixelRatio
	tf.Render.ReducedMotion = c.ReducedMotion
	return tf
}

func (c *Config) fromFile(tf *tuningFile) error {
	color, err := parseColor(tf.Render.Color)
	if err != nil {
		return err
	}
	c.Cols, c.Rows = tf.Grid.Cols, tf.Grid.Rows
	c.Width, c.Height = tf.Grid.Width, tf.Grid.Height
	c.Physics = field.Physics{
		Damping:  tf.Physics.Damping,
		Spring:   tf.Physics.Spring,
		Radius:   tf.Physics.Radius,
		Strength: tf.Physics.Strength,
		Swirl:    tf.Physics.Swirl,
	}
	c.Camera.FOV = tf.Camera.Fov
	c.Camera.Position.Z = tf.Camera.Distance
	c.GroupRotation = field.Euler{X: tf.Group.Tilt, Y: tf.Group.Yaw, Z: tf.Group.Roll}
	c.GroupScale = tf.Group.Scale
	c.CompactScale = tf.Group.CompactScale
	c.OrbitKY, c.OrbitKX = tf.Orbit.Ky, tf.Orbit.Kx
	c.PointSize = tf.Render.PointSize
	c.Color = color
	c.MaxPixelRatio = tf.Render.MaxPixelRatio
	c.ReducedMotion = tf.Render.ReducedMotion
	return c.Validate()
}

// LoadTuning overlays the INI tuning file at path onto c. Keys absent from
// the file keep their current values.
func LoadTuning(path string, c *Config) error {
	tf := c.toFile()
	if err := gcfg.ReadFileInto(tf, path); err != nil {
		return fmt.Errorf("reading tuning %q: %w", path, err)
	}
	return c.fromFile(tf)
}

// ParseTuning is LoadTuning for in-memory content.
func ParseTuning(src string, c *Config) error {
	tf := c.toFile()
	if err := gcfg.ReadStringInto(tf, src); err != nil {
		return fmt.Errorf("parsing tuning: %w", err)
	}
	return c.fromFile(tf)
}

// Validate rejects configurations the renderer cannot run.
func (c Config) Validate() error {
	if c.Cols < 2 || c.Rows < 2 {
		return fmt.Errorf("%w: got %dx%d", field.ErrGridTooSmall, c.Cols, c.Rows)
	}
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("grid extent must be positive, got %gx%g", c.Width, c.Height)
	}
	if c.Physics.Damping <= 0 || c.Physics.Damping >= 1 {
		return fmt.Errorf("damping must be in (0,1), got %g", c.Physics.Damping)
	}
	if c.Physics.Spring <= 0 {
		return fmt.Errorf("spring must be positive, got %g", c.Physics.Spring)
	}
	if c.Physics.Radius <= 0 {
		return fmt.Errorf("influence radius must be positive, got %g", c.Physics.Radius)
	}
	if c.GroupScale <= 0 || c.CompactScale <= 0 {
		return fmt.Errorf("group scale must be positive")
	}
	if c.Camera.FOV <= 0 || c.Camera.FOV >= 180 {
		return fmt.Errorf("camera fov must be in (0,180), got %g", c.Camera.FOV)
	}
	return nil
}

func parseColor(s string) (uint32, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil || len(s) != 6 {
		return 0, fmt.Errorf("color %q: want #rrggbb", s)
	}
	return uint32(v), nil
}
