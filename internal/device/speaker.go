package device

import (
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/sgardoll/Elevenlabs-Presto-Agent/internal/audio"
)

// Speaker plays agent audio through oto. Writes append to an internal buffer
// that the oto player drains via io.Reader; the player is created lazily on
// the first write so a session that never receives agent audio never opens
// the output device.
type Speaker struct {
	format audio.Format

	mu      sync.Mutex
	cond    *sync.Cond
	otoCtx  *oto.Context
	player  *oto.Player
	buf     []byte
	playing bool
	stopped bool
}

// NewSpeaker opens the playback context for the given format.
func NewSpeaker(format audio.Format) (*Speaker, error) {
	opts := &oto.NewContextOptions{
		SampleRate:   format.SampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
		// ~100ms of buffered output keeps latency low without glitching.
		BufferSize: 100 * time.Millisecond,
	}
	ctx, ready, err := oto.NewContext(opts)
	if err != nil {
		return nil, fmt.Errorf("speaker: init context: %w", err)
	}
	<-ready

	s := &Speaker{format: format, otoCtx: ctx}
	s.cond = sync.NewCond(&s.mu)
	return s, nil
}

// Write queues PCM for playback, starting the player on the first chunk.
func (s *Speaker) Write(pcm []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return fmt.Errorf("speaker: stopped")
	}

	s.buf = append(s.buf, pcm...)
	if !s.playing {
		s.playing = true
		s.player = s.otoCtx.NewPlayer(s)
		s.player.Play()
	}
	s.cond.Signal()
	return nil
}

// Read implements io.Reader for the oto player. It blocks until audio is
// queued; after Stop it feeds silence so oto drains without underruns.
func (s *Speaker) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for len(s.buf) == 0 && !s.stopped {
		s.cond.Wait()
	}
	if s.stopped && len(s.buf) == 0 {
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}

	n := copy(p, s.buf)
	s.buf = s.buf[n:]
	return n, nil
}

// Stop discards queued audio and closes the player.
func (s *Speaker) Stop() error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	s.buf = nil
	player := s.player
	s.player = nil
	s.cond.Broadcast()
	s.mu.Unlock()

	if player != nil {
		player.Pause()
		_ = player.Close()
	}
	return nil
}
