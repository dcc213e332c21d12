package sculpture

import (
	"math"
	"time"

	"github.com/aklo360/mcliv/field"
)

// schedule requests the next frame unless one is already pending or the
// mount has been torn down.
func (m *mount) schedule() {
	if m.scheduled || m.cancelled {
		return
	}
	m.frameID = m.host.RequestFrame(m.onFrame)
	m.scheduled = true
}

// onFrame steps every point once, projects the result and presents it.
func (m *mount) onFrame(now time.Duration) {
	m.scheduled = false
	if m.cancelled {
		return
	}
	in := field.StepInput{T: now.Seconds(), Hit: m.hit, Reduced: m.reduced}
	if err := m.stepper.Step(m.field, in); err != nil {
		m.log.Warnw("stepper failed; switching to CPU", "error", err)
		m.stepper.Close()
		m.stepper = field.NewCPUStepper(m.cfg.Physics)
		if err := m.stepper.Step(m.field, in); err != nil {
			m.log.Errorw("CPU step failed", "error", err)
			return
		}
	}
	m.present()
	m.schedule()
}

func (m *mount) present() {
	m.sprites = field.ProjectPoints(m.sprites, m.field, &m.group, &m.camera,
		m.frame.Width, m.frame.Height, m.cfg.PointSize)
	m.frame.Sprites = m.sprites
	m.frame.Energy = m.field.Energy()
	m.frame.Hit = m.hit
	m.frame.Rotation = m.group.Rotation
	m.surface.Draw(&m.frame)
	m.field.ClearDirty()
}

// resize syncs the surface size, camera aspect and group scale with the
// container. The lattice itself never changes.
func (m *mount) resize() {
	b := m.host.Bounds()
	if b.Empty() {
		return
	}
	ratio := m.host.DevicePixelRatio()
	if ratio <= 0 {
		ratio = 1
	}
	if m.cfg.MaxPixelRatio > 0 && ratio > m.cfg.MaxPixelRatio {
		ratio = m.cfg.MaxPixelRatio
	}
	w := int(math.Max(1, math.Round(b.Width*ratio)))
	h := int(math.Max(1, math.Round(b.Height*ratio)))
	m.surface.SetSize(w, h)
	m.frame.Width, m.frame.Height = w, h
	m.camera.Aspect = b.Width / b.Height
	if b.Width <= m.cfg.CompactWidth {
		m.group.Scale = m.cfg.CompactScale
	} else {
		m.group.Scale = m.cfg.GroupScale
	}
}

func (m *mount) onPointerMove(ev PointerEvent) {
	if m.cancelled {
		return
	}
	m.orbit.Move(ev.X, ev.Y, &m.group.Rotation)
	m.hit = field.PointerHit(ev.X, ev.Y, m.host.Bounds(), &m.camera, m.plane, &m.group)
}

func (m *mount) onPointerDown(ev PointerEvent) {
	if m.cancelled {
		return
	}
	m.orbit.Begin(ev.X, ev.Y)
	if err := m.host.SetPointerCapture(ev.ID); err != nil {
		m.log.Debugw("pointer capture failed", "pointer", ev.ID, "error", err)
		return
	}
	m.captured, m.capturing = ev.ID, true
}

func (m *mount) onPointerUp(ev PointerEvent) {
	if m.cancelled {
		return
	}
	m.orbit.End()
	m.releaseCapture(ev.ID)
}

func (m *mount) onPointerLeave() {
	m.hit = field.NoHit
}

func (m *mount) releaseCapture(id int) {
	if err := m.host.ReleasePointerCapture(id); err != nil {
		m.log.Debugw("pointer release failed", "pointer", id, "error", err)
	}
	if id == m.captured {
		m.capturing = false
	}
}
