package gate

import (
	"sync"
	"time"

	"github.com/sgardoll/Elevenlabs-Presto-Agent/internal/audio"
)

// Tracker maintains whether the remote agent is believed to be speaking.
//
// Every chunk of agent audio handed to playback extends a speech deadline by
// the chunk's duration; until now passes that deadline the agent counts as
// speaking. Expiry is evaluated lazily on read from the gate path, so no
// timer is needed and behavior is a pure function of (deadline, now).
type Tracker struct {
	format audio.Format

	mu       sync.Mutex
	speaking bool
	deadline time.Time
}

// NewTracker creates a tracker for agent audio in the given format.
func NewTracker(format audio.Format) *Tracker {
	return &Tracker{format: format}
}

// OnAgentAudio records that byteLen bytes of agent audio are about to be
// played. The deadline extends from max(now, deadline) so it never moves
// backward, and back-to-back chunks queue their durations end to end.
func (t *Tracker) OnAgentAudio(byteLen int, now time.Time) {
	dur := t.format.Duration(byteLen)
	t.mu.Lock()
	base := t.deadline
	if now.After(base) {
		base = now
	}
	t.deadline = base.Add(dur)
	t.speaking = true
	t.mu.Unlock()
}

// IsAgentSpeaking reports whether the agent is still speaking at now,
// clearing the flag once the deadline has strictly passed.
func (t *Tracker) IsAgentSpeaking(now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if now.After(t.deadline) {
		t.speaking = false
	}
	return t.speaking
}

// Reset clears the speaking flag and deadline for a new session.
func (t *Tracker) Reset() {
	t.mu.Lock()
	t.speaking = false
	t.deadline = time.Time{}
	t.mu.Unlock()
}
