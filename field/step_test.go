package field

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSculptureField(t *testing.T) *Field {
	t.Helper()
	g, err := NewGrid(100, 60, 7.5, 4.6)
	require.NoError(t, err)
	return NewField(g)
}

func depths(f *Field) []float32 {
	out := make([]float32, f.Len())
	for idx := range out {
		_, _, out[idx] = f.Position(idx)
	}
	return out
}

func TestGoldenDepthNearOrigin(t *testing.T) {
	f := newSculptureField(t)
	s := NewCPUStepper(DefaultPhysics())
	require.NoError(t, s.Step(f, StepInput{T: 0, Hit: NoHit}))

	idx := f.Grid().Nearest(0, 0)
	bx, by := f.Grid().Base(idx)
	_, _, z := f.Position(idx)

	assert.InDelta(t, 0.07831427, z, 1e-7)
	assert.InDelta(t, Wave(float64(bx), float64(by), 0), z, 1e-7)
}

func TestWaveBoundedAndPeriodic(t *testing.T) {
	g, err := NewGrid(9, 7, 7.5, 4.6)
	require.NoError(t, err)
	for idx := 0; idx < g.Len(); idx++ {
		bx32, by32 := g.Base(idx)
		bx, by := float64(bx32), float64(by32)
		for step := 0; step < 400; step++ {
			ts := float64(step) * 0.173
			v := Wave(bx, by, ts)
			assert.LessOrEqual(t, math.Abs(v), WaveBound)
			assert.InDelta(t, v, Wave(bx, by, ts+WavePeriod), 1e-9)
		}
	}
	assert.InDelta(t, 0.32, WaveBound, 1e-12)
}

func TestReducedMotionWithoutHitIsStatic(t *testing.T) {
	f := newSculptureField(t)
	s := NewCPUStepper(DefaultPhysics())
	require.NoError(t, s.Step(f, StepInput{T: 0.5, Hit: NoHit, Reduced: true}))
	first := depths(f)

	for frame := 1; frame < 120; frame++ {
		require.NoError(t, s.Step(f, StepInput{T: 0.5 + float64(frame)/60, Hit: NoHit, Reduced: true}))
		assert.InDeltaSlice(t, first, depths(f), 1e-9)
	}
	for _, z := range first {
		assert.Zero(t, z)
	}
}

func TestDepthFollowsWaveWithoutHit(t *testing.T) {
	f := newSculptureField(t)
	s := NewCPUStepper(DefaultPhysics())
	g := f.Grid()
	idx := g.Index(12, 40)
	bx, by := g.Base(idx)

	for frame := 0; frame < 300; frame++ {
		ts := float64(frame) / 60
		require.NoError(t, s.Step(f, StepInput{T: ts, Hit: NoHit}))
		_, _, z := f.Position(idx)
		assert.InDelta(t, Wave(float64(bx), float64(by), ts), z, 1e-6)
		assert.LessOrEqual(t, math.Abs(float64(z)), WaveBound+1e-6)
	}

	s2 := NewCPUStepper(DefaultPhysics())
	f2 := newSculptureField(t)
	require.NoError(t, s2.Step(f2, StepInput{T: 1.25 + WavePeriod, Hit: NoHit}))
	require.NoError(t, s.Step(f, StepInput{T: 1.25, Hit: NoHit}))
	_, _, za := f.Position(idx)
	_, _, zb := f2.Position(idx)
	assert.InDelta(t, za, zb, 1e-5)
}

func TestBasePositionsNeverChange(t *testing.T) {
	f := newSculptureField(t)
	g := f.Grid()
	before := make([]float32, 0, g.Len()*2)
	for idx := 0; idx < g.Len(); idx++ {
		x, y := g.Base(idx)
		before = append(before, x, y)
	}

	s := NewCPUStepper(DefaultPhysics())
	for frame := 0; frame < 90; frame++ {
		hit := Vec3{X: math.Sin(float64(frame) * 0.1), Y: 0.3}
		require.NoError(t, s.Step(f, StepInput{T: float64(frame) / 60, Hit: hit}))
	}

	for idx := 0; idx < g.Len(); idx++ {
		x, y := g.Base(idx)
		assert.Equal(t, before[idx*2], x)
		assert.Equal(t, before[idx*2+1], y)
	}
}

func TestHitAtPointIncreasesVelocity(t *testing.T) {
	g, err := NewGrid(100, 60, 7.5, 4.6)
	require.NoError(t, err)
	idx := g.Index(30, 20)
	bx, by := g.Base(idx)
	// The radial direction is undefined at zero distance, so the pointer
	// sits just beside the point, well inside the influence core.
	hit := Vec3{X: float64(bx) - 0.01, Y: float64(by)}

	quiet := NewField(g)
	pushed := NewField(g)
	s := NewCPUStepper(DefaultPhysics())
	require.NoError(t, s.Step(quiet, StepInput{T: 2, Hit: NoHit}))
	require.NoError(t, s.Step(pushed, StepInput{T: 2, Hit: hit}))

	speed := func(f *Field) float64 {
		return math.Hypot(float64(f.VelX[idx]), float64(f.VelY[idx]))
	}
	assert.Zero(t, speed(quiet))
	assert.Greater(t, speed(pushed), speed(quiet))
	// Pushed away from the pointer, with a small swirl.
	assert.Greater(t, pushed.VelX[idx], float32(0))
	assert.Greater(t, pushed.VelY[idx], float32(0))
}

func TestHitExactlyAtBaseGivesNoImpulse(t *testing.T) {
	g, err := NewGrid(100, 60, 7.5, 4.6)
	require.NoError(t, err)
	idx := g.Index(30, 20)
	next := g.Index(31, 20)
	bx, by := g.Base(idx)

	f := NewField(g)
	s := NewCPUStepper(DefaultPhysics())
	require.NoError(t, s.Step(f, StepInput{T: 2, Hit: Vec3{X: float64(bx), Y: float64(by)}}))

	assert.Zero(t, f.VelX[idx])
	assert.Zero(t, f.VelY[idx])
	assert.Greater(t, f.VelX[next], float32(0))
}

func TestDisplacementDecaysAfterHitRemoved(t *testing.T) {
	f := newSculptureField(t)
	g := f.Grid()
	s := NewCPUStepper(DefaultPhysics())
	hit := Vec3{X: 0.4, Y: -0.2}
	for frame := 0; frame < 30; frame++ {
		require.NoError(t, s.Step(f, StepInput{T: float64(frame) / 60, Hit: hit}))
	}

	maxDisp := func() float64 {
		m := 0.0
		for idx := 0; idx < g.Len(); idx++ {
			m = math.Max(m, math.Hypot(float64(f.DispX[idx]), float64(f.DispY[idx])))
		}
		return m
	}
	require.Greater(t, maxDisp(), 1e-3)

	// The spring is underdamped, so per-frame magnitude rings; the envelope
	// over each 50-frame window must shrink.
	prev := math.Inf(1)
	for window := 0; window < 8; window++ {
		peak := 0.0
		for frame := 0; frame < 50; frame++ {
			require.NoError(t, s.Step(f, StepInput{T: 1, Hit: NoHit}))
			peak = math.Max(peak, maxDisp())
		}
		assert.Less(t, peak, prev)
		prev = peak
	}
	assert.Less(t, maxDisp(), 1e-4)
}

func TestEnergyTracksDisturbance(t *testing.T) {
	f := newSculptureField(t)
	s := NewCPUStepper(DefaultPhysics())
	require.NoError(t, s.Step(f, StepInput{T: 0, Hit: NoHit}))
	assert.Zero(t, f.Energy())
	require.NoError(t, s.Step(f, StepInput{T: 0, Hit: Vec3{}}))
	assert.Greater(t, f.Energy(), float32(0))
}
