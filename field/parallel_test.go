package field

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestSplitSpansCoversEveryPointOnce(t *testing.T) {
	for _, tc := range []struct{ n, workers int }{{6000, 8}, {7, 3}, {2, 5}, {0, 2}} {
		spans := splitSpans(tc.n, tc.workers)
		require.Len(t, spans, tc.workers)
		next := 0
		for _, sp := range spans {
			assert.Equal(t, next, sp.start)
			assert.GreaterOrEqual(t, sp.end, sp.start)
			assert.LessOrEqual(t, sp.end-sp.start, tc.n/tc.workers+1)
			next = sp.end
		}
		assert.Equal(t, tc.n, next)
	}
}

func TestParallelStepperMatchesCPU(t *testing.T) {
	defer goleak.VerifyNone(t)

	serial := newSculptureField(t)
	parallel := newSculptureField(t)
	cpu := NewCPUStepper(DefaultPhysics())
	par := NewParallelStepper(DefaultPhysics(), 4)
	defer par.Close()

	hit := Vec3{X: 0.4, Y: -0.2}
	for frame := 0; frame < 30; frame++ {
		in := StepInput{T: float64(frame) / 60, Hit: hit}
		if frame > 20 {
			in.Hit = NoHit
		}
		require.NoError(t, cpu.Step(serial, in))
		require.NoError(t, par.Step(parallel, in))
	}
	if diff := cmp.Diff(serial.Positions, parallel.Positions); diff != "" {
		t.Fatalf("positions differ (-cpu +parallel):\n%s", diff)
	}
	assert.Equal(t, serial.VelX, parallel.VelX)
	assert.Equal(t, serial.DispY, parallel.DispY)
	assert.True(t, parallel.Dirty())
}

func TestParallelStepperClose(t *testing.T) {
	defer goleak.VerifyNone(t)

	par := NewParallelStepper(DefaultPhysics(), 0)
	assert.Positive(t, par.Workers())
	f := newSculptureField(t)
	require.NoError(t, par.Step(f, StepInput{Hit: NoHit}))

	par.Close()
	par.Close()
	assert.ErrorIs(t, par.Step(f, StepInput{Hit: NoHit}), errStepperClosed)

	f.Release()
	other := NewParallelStepper(DefaultPhysics(), 2)
	defer other.Close()
	assert.ErrorIs(t, other.Step(f, StepInput{Hit: NoHit}), errReleased)
}
