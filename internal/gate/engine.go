package gate

import (
	"time"

	"github.com/sgardoll/Elevenlabs-Presto-Agent/internal/audio"
)

// Default RMS thresholds on the int16 sample scale.
const (
	DefaultIdleThreshold  = 500.0
	DefaultBargeThreshold = 4000.0
)

// Engine decides per captured chunk whether it should be forwarded to the
// agent. While the agent is silent a low bar captures normal speech onset;
// while the agent is speaking its own voice leaks into the microphone, so
// only audio loud enough to be a genuine interruption (barge-in) passes.
type Engine struct {
	tracker        *Tracker
	idleThreshold  float64
	bargeThreshold float64
}

// NewEngine creates a gate engine reading speech presence from tracker.
// Non-positive thresholds fall back to the defaults.
func NewEngine(tracker *Tracker, idleThreshold, bargeThreshold float64) *Engine {
	if idleThreshold <= 0 {
		idleThreshold = DefaultIdleThreshold
	}
	if bargeThreshold <= 0 {
		bargeThreshold = DefaultBargeThreshold
	}
	return &Engine{tracker: tracker, idleThreshold: idleThreshold, bargeThreshold: bargeThreshold}
}

// ShouldForward evaluates one chunk. The decision is independent per chunk;
// the only state consulted is the tracker's speech presence at now.
func (e *Engine) ShouldForward(chunk []byte, now time.Time) bool {
	threshold := e.idleThreshold
	if e.tracker.IsAgentSpeaking(now) {
		threshold = e.bargeThreshold
	}
	return audio.RMS(chunk) > threshold
}
