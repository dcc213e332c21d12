package main

import (
	"image/color"
	"time"
)

// Window, audio and serving constants for the command-line hosts. Sculpture
// geometry and physics live in sculpture.DefaultConfig and the optional
// tuning file.
const (
	windowWidth, windowHeight = 960, 600
	defaultWindowScale        = 1.0
	windowTitle               = "mcliv"

	// circleTextureSize is the edge of the cached point texture in pixels.
	circleTextureSize = 64

	audioSampleRate     = 48000
	audioBufferDuration = 80 * time.Millisecond
	audioChannels       = 2
	audioBytesPerSample = 2
	audioFrameBytes     = audioChannels * audioBytesPerSample
	pcm16MaxValue       = 32767

	// droneFrequency is the pitch of the energy drone in Hz.
	droneFrequency = 110.0
	// energyGain maps mean point speed onto drone amplitude.
	energyGain = 40.0
	// maxDroneLevel keeps the drone well below full scale.
	maxDroneLevel = 0.35

	termFrameInterval = 33 * time.Millisecond

	defaultAddr     = ":8080"
	upstreamTimeout = 20 * time.Second
)

// backgroundColor is painted behind the sculpture in the window host.
var backgroundColor = color.RGBA{0xf4, 0xf3, 0xef, 0xff}
