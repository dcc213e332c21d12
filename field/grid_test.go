package field

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGridSpansExtent(t *testing.T) {
	cases := []struct {
		cols, rows    int
		width, height float64
	}{
		{2, 2, 1, 1},
		{3, 7, 2.5, 0.3},
		{100, 60, 7.5, 4.6},
		{17, 33, 9.1, 3.3},
	}
	for _, tc := range cases {
		g, err := NewGrid(tc.cols, tc.rows, tc.width, tc.height)
		require.NoError(t, err)
		assert.Equal(t, tc.cols*tc.rows, g.Len())

		x0, y0 := g.Base(g.Index(0, 0))
		x1, y1 := g.Base(g.Index(tc.cols-1, tc.rows-1))
		assert.Equal(t, float32(-tc.width/2), x0)
		assert.Equal(t, float32(-tc.height/2), y0)
		assert.Equal(t, float32(tc.width/2), x1)
		assert.Equal(t, float32(tc.height/2), y1)

		for idx := 0; idx < g.Len(); idx++ {
			x, y := g.Base(idx)
			assert.GreaterOrEqual(t, x, float32(-tc.width/2))
			assert.LessOrEqual(t, x, float32(tc.width/2))
			assert.GreaterOrEqual(t, y, float32(-tc.height/2))
			assert.LessOrEqual(t, y, float32(tc.height/2))
		}
	}
}

func TestNewGridRowMajorSpacing(t *testing.T) {
	g, err := NewGrid(5, 4, 4, 3)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, g.DX, 1e-12)
	assert.InDelta(t, 1.0, g.DY, 1e-12)

	x, y := g.Base(g.Index(1, 2))
	assert.InDelta(t, -1.0, x, 1e-6)
	assert.InDelta(t, 0.5, y, 1e-6)
	assert.Equal(t, 2*5+1, g.Index(1, 2))
}

func TestNewGridRejectsDegenerate(t *testing.T) {
	for _, dims := range [][2]int{{1, 5}, {5, 1}, {0, 0}} {
		_, err := NewGrid(dims[0], dims[1], 1, 1)
		assert.ErrorIs(t, err, ErrGridTooSmall)
	}
}

func TestNearestPrefersLowestIndexOnTie(t *testing.T) {
	g, err := NewGrid(100, 60, 7.5, 4.6)
	require.NoError(t, err)
	assert.Equal(t, g.Index(49, 29), g.Nearest(0, 0))
}

func TestNewFieldSeedsPositions(t *testing.T) {
	g, err := NewGrid(4, 3, 3, 2)
	require.NoError(t, err)
	f := NewField(g)
	assert.True(t, f.Dirty())
	for idx := 0; idx < g.Len(); idx++ {
		bx, by := g.Base(idx)
		x, y, z := f.Position(idx)
		assert.Equal(t, bx, x)
		assert.Equal(t, by, y)
		assert.Zero(t, z)
		assert.Zero(t, f.DispX[idx])
		assert.Zero(t, f.VelY[idx])
	}

	f.Release()
	assert.Nil(t, f.Positions)
	assert.ErrorIs(t, NewCPUStepper(DefaultPhysics()).Step(f, StepInput{Hit: NoHit}), errReleased)
}
