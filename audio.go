package main

import (
	"math"
	"sync"
)

// energyStream is an endless 16-bit stereo PCM source playing a sine drone
// whose level follows the field's mean point speed. The level is AC coupled
// so a steady disturbance fades and only changes are heard.
type energyStream struct {
	mu    sync.Mutex
	level float32
	dc    float32

	rate  float64
	phase float64
	amp   float64
}

func newEnergyStream(sampleRate int) *energyStream {
	return &energyStream{rate: float64(sampleRate)}
}

// SetEnergy feeds one frame's mean point speed.
func (s *energyStream) SetEnergy(e float32) {
	v := e * energyGain
	s.mu.Lock()
	const alpha = 0.02
	s.dc += alpha * (v - s.dc)
	level := v - s.dc
	if level < 0 {
		level = 0
	} else if level > maxDroneLevel {
		level = maxDroneLevel
	}
	s.level = level
	s.mu.Unlock()
}

// Read fills p with whole stereo frames. The amplitude glides toward the
// current level so frame-rate steps never click.
func (s *energyStream) Read(p []byte) (int, error) {
	n := len(p) - len(p)%audioFrameBytes
	if n == 0 {
		return 0, nil
	}
	s.mu.Lock()
	target := float64(s.level)
	s.mu.Unlock()

	step := 2 * math.Pi * droneFrequency / s.rate
	const glide = 0.0005
	for i := 0; i < n; i += audioFrameBytes {
		s.amp += (target - s.amp) * glide
		v := int16(math.Sin(s.phase) * s.amp * pcm16MaxValue)
		s.phase += step
		if s.phase >= 2*math.Pi {
			s.phase -= 2 * math.Pi
		}
		for ch := 0; ch < audioChannels; ch++ {
			base := i + ch*audioBytesPerSample
			p[base] = byte(v)
			p[base+1] = byte(v >> 8)
		}
	}
	return n, nil
}

func (s *energyStream) Close() error { return nil }
