package gate

import (
	"testing"
	"time"

	"github.com/sgardoll/Elevenlabs-Presto-Agent/internal/audio"
)

func TestTracker_SpeakingUntilDeadline(t *testing.T) {
	tr := NewTracker(audio.DefaultFormat())
	t0 := time.Unix(1000, 0)

	if tr.IsAgentSpeaking(t0) {
		t.Fatalf("fresh tracker must not report speaking")
	}

	// 16000 bytes at 16kHz 16-bit mono is 500ms of audio.
	tr.OnAgentAudio(16000, t0)
	if !tr.IsAgentSpeaking(t0) {
		t.Fatalf("expected speaking immediately after agent audio")
	}
	if !tr.IsAgentSpeaking(t0.Add(499 * time.Millisecond)) {
		t.Fatalf("expected speaking before deadline")
	}
	if !tr.IsAgentSpeaking(t0.Add(500 * time.Millisecond)) {
		t.Fatalf("expected speaking at the deadline (expiry is strictly after)")
	}
	if tr.IsAgentSpeaking(t0.Add(500*time.Millisecond + time.Nanosecond)) {
		t.Fatalf("expected silence past deadline")
	}
	// Monotonic decay: once false it stays false without new audio.
	if tr.IsAgentSpeaking(t0.Add(400 * time.Millisecond)) {
		t.Fatalf("flag must not flicker back to true without new agent audio")
	}
}

func TestTracker_DeadlinesExtendEndToEnd(t *testing.T) {
	tr := NewTracker(audio.DefaultFormat())
	t1 := time.Unix(2000, 0)

	// Two 500ms chunks arriving 100ms apart: the second extends from the
	// first deadline, not from its own arrival time.
	tr.OnAgentAudio(16000, t1)
	t2 := t1.Add(100 * time.Millisecond)
	tr.OnAgentAudio(16000, t2)

	// deadline = (t1 + 500ms) + 500ms = t1 + 1000ms
	if !tr.IsAgentSpeaking(t1.Add(1000 * time.Millisecond)) {
		t.Fatalf("expected speaking through the queued second chunk")
	}
	if tr.IsAgentSpeaking(t1.Add(1001 * time.Millisecond)) {
		t.Fatalf("expected silence after both chunks drained")
	}
}

func TestTracker_DeadlineNeverMovesBackward(t *testing.T) {
	tr := NewTracker(audio.DefaultFormat())
	t1 := time.Unix(3000, 0)

	tr.OnAgentAudio(16000, t1)

	// Audio arriving after the deadline already lapsed extends from now, so a
	// stale deadline can never pull the new one into the past.
	late := t1.Add(2 * time.Second)
	tr.OnAgentAudio(1600, late) // 50ms
	if !tr.IsAgentSpeaking(late.Add(50 * time.Millisecond)) {
		t.Fatalf("expected speaking for the late chunk's duration")
	}
	if tr.IsAgentSpeaking(late.Add(51 * time.Millisecond)) {
		t.Fatalf("expected silence after the late chunk drained")
	}
}

func TestTracker_Reset(t *testing.T) {
	tr := NewTracker(audio.DefaultFormat())
	t1 := time.Unix(4000, 0)
	tr.OnAgentAudio(16000, t1)
	tr.Reset()
	if tr.IsAgentSpeaking(t1) {
		t.Fatalf("expected reset tracker to report silence")
	}
}
