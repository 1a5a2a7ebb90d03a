package core

import (
	"github.com/spaghettifunk/vktriangle/engine/containers"
)

const AVG_COUNT = 30

// HISTORY_COUNT is the number of frame times kept for the HUD graph.
const HISTORY_COUNT = 120

// FrameMetrics keeps a rolling frame time average and an FPS counter.
type FrameMetrics struct {
	frameAVGCounter    int
	msTimes            [AVG_COUNT]float64
	msAvg              float64
	frames             int32
	accumulatedFrameMS float64
	fps                float64

	history *containers.RingQueue[float64]
}

func NewFrameMetrics() *FrameMetrics {
	return &FrameMetrics{
		history: containers.NewRingQueue[float64](HISTORY_COUNT),
	}
}

// Update records one frame that took frameElapsedTime seconds.
func (m *FrameMetrics) Update(frameElapsedTime float64) {
	// Calculate frame ms average
	frameMS := frameElapsedTime * 1000.0
	m.msTimes[m.frameAVGCounter] = frameMS
	if m.frameAVGCounter == AVG_COUNT-1 {
		m.msAvg = 0
		for i := 0; i < AVG_COUNT; i++ {
			m.msAvg += m.msTimes[i]
		}
		m.msAvg /= float64(AVG_COUNT)
	}
	m.frameAVGCounter++
	m.frameAVGCounter %= AVG_COUNT

	// Count this frame, then roll the FPS window once a second has passed.
	m.frames++
	m.accumulatedFrameMS += frameMS
	if m.accumulatedFrameMS > 1000 {
		m.fps = float64(m.frames)
		m.accumulatedFrameMS -= 1000
		m.frames = 0
	}

	m.history.Push(frameMS)
}

func (m *FrameMetrics) FPS() float64 {
	return m.fps
}

// FrameTime is the average frame time in milliseconds over the last AVG_COUNT frames.
func (m *FrameMetrics) FrameTime() float64 {
	return m.msAvg
}

// History returns the recent frame times in milliseconds, oldest first.
func (m *FrameMetrics) History() []float64 {
	return m.history.Values()
}
