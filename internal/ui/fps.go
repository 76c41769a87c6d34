package ui

import "time"

// fpsMeter counts frames and publishes a rate once per second
type fpsMeter struct {
	start  time.Time
	frames int
	fps    float64
}

// frame records one frame shown at now and returns the current rate
func (m *fpsMeter) frame(now time.Time) float64 {
	if m.start.IsZero() {
		m.start = now
		return m.fps
	}
	m.frames++
	if elapsed := now.Sub(m.start); elapsed >= time.Second {
		m.fps = float64(m.frames) / elapsed.Seconds()
		m.frames = 0
		m.start = now
	}
	return m.fps
}
