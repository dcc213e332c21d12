package field

import (
	"errors"
	"math"
)

// Physics holds the spring-damper and pointer influence tuning.
type Physics struct {
	Damping  float64
	Spring   float64
	Radius   float64 // influence radius; the Gaussian sigma is Radius*SigmaScale
	Strength float64 // impulse at the centre of influence
	Swirl    float64 // perpendicular share of the impulse
}

// SigmaScale converts an influence radius into the Gaussian sigma.
const SigmaScale = 0.42

// DefaultPhysics returns the tuning the sculpture ships with.
func DefaultPhysics() Physics {
	return Physics{
		Damping:  0.92,
		Spring:   0.07,
		Radius:   0.8,
		Strength: 0.02,
		Swirl:    0.15,
	}
}

// StepInput is the per-frame snapshot shared by every point update.
type StepInput struct {
	T       float64 // seconds on a monotonic clock
	Hit     Vec3    // grid-local pointer hit, NoHit when inactive
	Reduced bool    // hold the ambient wave at zero
}

// Stepper advances a field by one frame.
type Stepper interface {
	Step(f *Field, in StepInput) error
	Close()
}

var errReleased = errors.New("field buffers released")

// CPUStepper runs the frame update on the calling goroutine.
type CPUStepper struct {
	Physics Physics
}

// NewCPUStepper returns a stepper using p.
func NewCPUStepper(p Physics) *CPUStepper {
	return &CPUStepper{Physics: p}
}

// Step applies one frame: ambient wave to depth, pointer impulse and
// spring-damper integration to the planar displacement.
func (s *CPUStepper) Step(f *Field, in StepInput) error {
	if f.DispX == nil {
		return errReleased
	}
	stepSpan(s.Physics, f, in, 0, f.Len())
	f.MarkDirty()
	return nil
}

// stepSpan updates points [start, end). Points are independent within a
// frame, so disjoint spans may run concurrently.
func stepSpan(p Physics, f *Field, in StepInput, start, end int) {
	g := f.grid
	active := HitActive(in.Hit)
	hx, hy := in.Hit.X, in.Hit.Y
	sigma := p.Radius * SigmaScale
	inv2s2 := 1 / (2 * sigma * sigma)
	damping := float32(p.Damping)
	spring := float32(p.Spring)

	for idx := start; idx < end; idx++ {
		bx32, by32 := g.Base(idx)
		bx, by := float64(bx32), float64(by32)

		wave := 0.0
		if !in.Reduced {
			wave = Wave(bx, by, in.T)
		}

		if active {
			dxp := bx - hx
			dyp := by - hy
			dist2 := dxp*dxp + dyp*dyp
			influence := math.Exp(-dist2 * inv2s2)
			l := math.Sqrt(dist2) + 1e-6
			ux := dxp / l
			uy := dyp / l
			sx := -uy * p.Swirl
			sy := ux * p.Swirl
			impulse := p.Strength * influence
			f.VelX[idx] += float32((ux + sx) * impulse)
			f.VelY[idx] += float32((uy + sy) * impulse)
		}

		f.VelX[idx] += -spring * f.DispX[idx]
		f.VelY[idx] += -spring * f.DispY[idx]
		f.VelX[idx] *= damping
		f.VelY[idx] *= damping
		f.DispX[idx] += f.VelX[idx]
		f.DispY[idx] += f.VelY[idx]

		f.Positions[idx*3] = bx32 + f.DispX[idx]
		f.Positions[idx*3+1] = by32 + f.DispY[idx]
		f.Positions[idx*3+2] = float32(wave)
	}
}

// Close is a no-op for the CPU path.
func (s *CPUStepper) Close() {}
