package audio

import (
	"math"
	"sync"
	"time"
)

// Meter computes an aggregate RMS level over fixed windows of a linear16
// sample stream. It is fed from the playback path and reports through a
// callback; it never feeds back into scheduling.
type Meter struct {
	mu sync.Mutex

	windowSamples int
	sumSquares    float64
	count         int

	onLevel func(level float64)
}

// NewMeter creates a meter reporting once per window. A non-positive window
// falls back to 50ms.
func NewMeter(encodingInfo EncodingInfo, window time.Duration, onLevel func(level float64)) *Meter {
	if window <= 0 {
		window = 50 * time.Millisecond
	}
	windowSamples := int(Frames(window, encodingInfo.SampleRate))
	if windowSamples <= 0 {
		windowSamples = 1
	}

	return &Meter{
		windowSamples: windowSamples,
		onLevel:       onLevel,
	}
}

// Observe accumulates little-endian 16-bit samples. Whenever a window fills
// up, the RMS level normalized to [0, 1] is reported and the window resets.
// A trailing odd byte is ignored.
func (m *Meter) Observe(pcm []byte) {
	if m == nil || len(pcm) < 2 {
		return
	}

	var levels []float64

	m.mu.Lock()
	for i := 0; i+1 < len(pcm); i += 2 {
		sample := float64(int16(uint16(pcm[i]) | uint16(pcm[i+1])<<8))
		m.sumSquares += sample * sample
		m.count++

		if m.count >= m.windowSamples {
			levels = append(levels, math.Sqrt(m.sumSquares/float64(m.count))/math.MaxInt16)
			m.sumSquares = 0
			m.count = 0
		}
	}
	onLevel := m.onLevel
	m.mu.Unlock()

	if onLevel == nil {
		return
	}
	for _, level := range levels {
		onLevel(level)
	}
}

// Reset drops the partially accumulated window, e.g. after a flush.
func (m *Meter) Reset() {
	if m == nil {
		return
	}

	m.mu.Lock()
	m.sumSquares = 0
	m.count = 0
	m.mu.Unlock()
}
