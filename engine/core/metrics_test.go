package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrameMetricsAverage(t *testing.T) {
	m := NewFrameMetrics()
	for i := 0; i < AVG_COUNT-1; i++ {
		m.Update(0.016)
	}
	// the average is only computed once the window is full
	assert.Zero(t, m.FrameTime())

	m.Update(0.016)
	assert.InDelta(t, 16.0, m.FrameTime(), 1e-9)

	for i := 0; i < AVG_COUNT; i++ {
		m.Update(0.032)
	}
	assert.InDelta(t, 32.0, m.FrameTime(), 1e-9)
}

func TestFrameMetricsFPS(t *testing.T) {
	m := NewFrameMetrics()
	for i := 0; i < 100; i++ {
		m.Update(0.010)
	}
	assert.Zero(t, m.FPS())

	// 101st frame pushes the accumulated time past one second
	m.Update(0.010)
	assert.Equal(t, 101.0, m.FPS())
}

func TestFrameMetricsHistory(t *testing.T) {
	m := NewFrameMetrics()
	for i := 0; i < HISTORY_COUNT+10; i++ {
		m.Update(float64(i) / 1000.0)
	}
	h := m.History()
	assert.Len(t, h, HISTORY_COUNT)
	assert.InDelta(t, 10.0, h[0], 1e-9)
	assert.InDelta(t, float64(HISTORY_COUNT+9), h[len(h)-1], 1e-9)
}
