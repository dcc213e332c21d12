package main

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aklo360/mcliv/sculpture"
	"github.com/aklo360/mcliv/site"
)

func newTestGame() *Game {
	return newGame(sculpture.New(sculpture.DefaultConfig()), nil, 2)
}

func TestLayoutCapsScaleAndFlagsResize(t *testing.T) {
	g := newTestGame()
	w, h := g.layout(800, 500, 3)
	assert.Equal(t, 1600, w)
	assert.Equal(t, 1000, h)
	assert.Equal(t, 2.0, g.DevicePixelRatio())
	assert.True(t, g.sizeDirty)
	assert.Equal(t, 800.0, g.Bounds().Width)

	g.sizeDirty = false
	g.layout(800, 500, 3)
	assert.False(t, g.sizeDirty, "unchanged size is not a resize")

	w, h = g.layout(0, 0, 0)
	assert.Equal(t, 1, w)
	assert.Equal(t, 1, h)
	assert.True(t, g.Bounds().Empty())
}

func TestFramesFireOnceInRequestOrder(t *testing.T) {
	g := newTestGame()
	var got []int
	g.RequestFrame(func(time.Duration) { got = append(got, 1) })
	cancelled := g.RequestFrame(func(time.Duration) { got = append(got, 2) })
	g.RequestFrame(func(time.Duration) {
		got = append(got, 3)
		g.RequestFrame(func(time.Duration) { got = append(got, 4) })
	})
	g.CancelFrame(cancelled)

	g.fireFrames(time.Second)
	assert.Equal(t, []int{1, 3}, got)
	g.fireFrames(2 * time.Second)
	assert.Equal(t, []int{1, 3, 4}, got)
	assert.Empty(t, g.frames)
}

func TestPostRunsOnDrain(t *testing.T) {
	g := newTestGame()
	done := make(chan struct{})
	ran := false
	go func() {
		g.Post(func() { ran = true })
		close(done)
	}()
	<-done
	assert.False(t, ran)
	g.drain()
	assert.True(t, ran)
}

func TestListenersAndPointerCapture(t *testing.T) {
	g := newTestGame()
	var moves []sculpture.PointerEvent
	leaves := 0
	remove := g.Listen(sculpture.Listener{
		Move:  func(ev sculpture.PointerEvent) { moves = append(moves, ev) },
		Leave: func() { leaves++ },
	})
	g.scale = 2
	g.pointerMove(mousePointer, g.toViewport(100, 60))
	g.pointerLeave()
	require.Len(t, moves, 1)
	assert.Equal(t, sculpture.PointerEvent{ID: 0, X: 50, Y: 30}, moves[0])
	assert.Equal(t, 1, leaves)

	assert.Error(t, g.SetPointerCapture(touchPointer(3)), "pointer not down")
	g.input.down[4] = true
	require.NoError(t, g.SetPointerCapture(4))
	require.NoError(t, g.ReleasePointerCapture(4))
	assert.Error(t, g.ReleasePointerCapture(4))

	remove()
	g.pointerLeave()
	assert.Equal(t, 1, leaves)
}

func TestEnergyStreamFollowsDisturbance(t *testing.T) {
	s := newEnergyStream(audioSampleRate)
	buf := make([]byte, 4096+3)
	n, err := s.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 4096, n, "only whole stereo frames")
	assert.Equal(t, 0.0, peak(buf[:n]), "silent without energy")

	s.SetEnergy(0.01)
	for i := 0; i < 20; i++ {
		_, _ = s.Read(buf)
	}
	assert.Greater(t, peak(buf[:4096]), 0.05)
	assert.LessOrEqual(t, peak(buf[:4096]), maxDroneLevel+0.01)

	// A steady disturbance decays away.
	for i := 0; i < 500; i++ {
		s.SetEnergy(0.01)
	}
	s.mu.Lock()
	level := s.level
	s.mu.Unlock()
	assert.Less(t, level, float32(0.01))
	assert.NoError(t, s.Close())
}

func peak(pcm []byte) float64 {
	var m float64
	for i := 0; i+1 < len(pcm); i += audioBytesPerSample {
		v := float64(int16(binary.LittleEndian.Uint16(pcm[i:]))) / pcm16MaxValue
		if v < 0 {
			v = -v
		}
		if v > m {
			m = v
		}
	}
	return m
}

func TestCirclePixels(t *testing.T) {
	pix := circlePixels(8)
	centre := (4*8 + 4) * 4
	assert.Equal(t, byte(255), pix[centre+3])
	assert.Equal(t, byte(0), pix[3], "corner is transparent")
}

func TestCommerceConfigPrefersEnvironment(t *testing.T) {
	sc := site.Default()
	sc.Commerce.StoreDomain = "mcliv.myshopify.com"

	t.Setenv("SHOPIFY_STORE_DOMAIN", "")
	t.Setenv("SHOPIFY_API_VERSION", "")
	cfg := commerceConfig(sc)
	assert.Equal(t, "mcliv.myshopify.com", cfg.StoreDomain)
	assert.Equal(t, sc.Commerce.APIVersion, cfg.APIVersion)

	t.Setenv("SHOPIFY_STORE_DOMAIN", "other.myshopify.com")
	t.Setenv("SHOPIFY_API_VERSION", "2025-10")
	cfg = commerceConfig(sc)
	assert.Equal(t, "other.myshopify.com", cfg.StoreDomain)
	assert.Equal(t, "2025-10", cfg.APIVersion)
}

func TestSculptureConfigAppliesTuningAndFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.ini")
	require.NoError(t, os.WriteFile(path, []byte("[render]\ncolor = \"#ff8800\"\n"), 0o644))

	tuningFlag, reducedMotionFlag = path, true
	t.Cleanup(func() { tuningFlag, reducedMotionFlag = "", false })

	cfg, err := sculptureConfig()
	require.NoError(t, err)
	assert.Equal(t, uint32(0xff8800), cfg.Color)
	assert.True(t, cfg.ReducedMotion)

	tuningFlag = filepath.Join(t.TempDir(), "missing.ini")
	_, err = sculptureConfig()
	assert.Error(t, err)
}

func TestRootCommandWiring(t *testing.T) {
	root := newRootCmd()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"window", "term", "serve", "product"} {
		assert.True(t, names[want], want)
	}
	for _, flag := range []string{"debug", "reduced-motion", "gpu", "enable-audio", "window-scale", "tuning", "workers"} {
		assert.NotNil(t, root.Flags().Lookup(flag), flag)
	}
	assert.NotNil(t, root.PersistentFlags().Lookup("cpuprofile"))

	serve, _, err := root.Find([]string{"serve"})
	require.NoError(t, err)
	assert.Equal(t, defaultAddr, serve.Flags().Lookup("addr").DefValue)
}
