package field

import "math"

// Ambient wave constants. The four layers use distinct spatial and temporal
// frequencies; the fourth runs along an axis rotated by waveAngle so the
// surface has no axis-aligned symmetry.
const (
	waveAmp1  = 0.12
	waveAmp2  = 0.09
	waveAmp3  = 0.06
	waveAmp4  = 0.05
	waveAngle = 0.4

	// WaveBound is the largest magnitude Wave can return.
	WaveBound = waveAmp1 + waveAmp2 + waveAmp3 + waveAmp4

	// WavePeriod is the common period in seconds of all four layers
	// (temporal frequencies 0.6, 0.5, 0.9 and 0.8 rad/s share 0.1 rad/s).
	WavePeriod = 2 * math.Pi / 0.1
)

var (
	cosWaveAngle = math.Cos(waveAngle)
	sinWaveAngle = math.Sin(waveAngle)
)

// Wave returns the ambient height of base position (bx, by) at time t
// seconds. It holds no state.
func Wave(bx, by, t float64) float64 {
	w1 := waveAmp1 * math.Sin(bx*1.2+t*0.6)
	w2 := waveAmp2 * math.Cos(by*1.3-t*0.5)
	w3 := waveAmp3 * math.Sin((bx+by)*0.9+t*0.9)
	rx := bx*cosWaveAngle - by*sinWaveAngle
	w4 := waveAmp4 * math.Sin(rx*2.0+t*0.8)
	return w1 + w2 + w3 + w4
}
