package sculpture

import (
	"time"

	"github.com/aklo360/mcliv/field"
)

// FrameID identifies a pending frame request.
type FrameID uint64

// FrameFunc receives the host's monotonic time when a display frame fires.
type FrameFunc func(now time.Duration)

// PointerEvent carries viewport coordinates for a mouse or touch pointer.
type PointerEvent struct {
	ID   int
	X, Y float64
}

// Listener is the set of callbacks a mounted sculpture registers with its
// host. Nil callbacks are skipped.
type Listener struct {
	Move   func(PointerEvent)
	Down   func(PointerEvent)
	Up     func(PointerEvent)
	Leave  func()
	Resize func()
}

// Host is the container a sculpture mounts into. Every method except Post is
// called on the host's render thread, and the host invokes frame callbacks,
// listeners and posted functions on that same thread.
type Host interface {
	// Bounds returns the container rectangle in viewport coordinates.
	Bounds() field.Rect
	DevicePixelRatio() float64
	PrefersReducedMotion() bool

	// RequestFrame schedules fn for the next display frame.
	RequestFrame(fn FrameFunc) FrameID
	CancelFrame(id FrameID)

	// Post queues fn to run on the render thread. It may be called from any
	// goroutine and must not block.
	Post(fn func())

	// Listen registers pointer and resize callbacks until remove is called.
	Listen(l Listener) (remove func())

	SetPointerCapture(id int) error
	ReleasePointerCapture(id int) error

	NewSurface() (Surface, error)
}

// Surface is the drawing target allocated for one mount.
type Surface interface {
	// SetSize resizes the backing store in device pixels.
	SetSize(w, h int)
	// Draw uploads and presents one frame. The frame is reused by the caller
	// after Draw returns.
	Draw(fr *Frame)
	Dispose()
}

// Frame is everything a surface needs to present one animation frame.
type Frame struct {
	Sprites  []field.Sprite
	Color    uint32 // 0xRRGGBB
	Energy   float32
	Hit      field.Vec3
	Rotation field.Euler
	Width    int
	Height   int
}
