// Package session owns the lifecycle of the one conversation the bridge can
// run at a time: it opens the remote agent channel, acquires the microphone
// and speaker, pipes gated capture audio upstream and agent audio downstream,
// and funnels every way a session can end into a single teardown routine.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/sgardoll/Elevenlabs-Presto-Agent/internal/audio"
	"github.com/sgardoll/Elevenlabs-Presto-Agent/internal/convai"
	"github.com/sgardoll/Elevenlabs-Presto-Agent/internal/device"
	"github.com/sgardoll/Elevenlabs-Presto-Agent/internal/gate"
)

// Status is the externally visible session state.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusListening Status = "listening"
	// StatusError is only ever observed transiently, while a faulted session
	// is being torn down. It is not a resting state: teardown always ends at
	// StatusIdle and a new start is valid from there.
	StatusError Status = "error"
)

var (
	// ErrAlreadyRunning rejects a start while a session is active.
	ErrAlreadyRunning = errors.New("session already running")
	// ErrMissingCredentials rejects a start before any connection attempt.
	ErrMissingCredentials = errors.New("missing agent credentials")
)

// Channel is the controller's view of the duplex agent connection.
// *convai.Client satisfies it.
type Channel interface {
	SendAudio(pcm []byte) error
	Events() <-chan convai.Event
	Close() error
	Err() error
}

// Options wires the controller's collaborators. Dial and the device
// factories are invoked once per session so a failed session never reuses a
// half-dead resource.
type Options struct {
	AgentID string
	APIKey  string

	Dial        func(ctx context.Context) (Channel, error)
	NewCapture  func() (device.Capture, error)
	NewPlayback func() (device.Playback, error)

	Format         audio.Format
	IdleThreshold  float64
	BargeThreshold float64

	// Now is the clock used for gate decisions; nil means time.Now.
	Now func() time.Time
}

// Controller is the single-session state machine. All public operations are
// safe for concurrent use; mutations are serialized on one mutex because the
// gate decisions and deadline updates they guard are order-sensitive.
type Controller struct {
	opts Options
	now  func() time.Time

	mu      sync.Mutex
	status  Status
	current *session
}

// NewController creates an idle controller.
func NewController(opts Options) *Controller {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	if opts.Format.SampleRate == 0 {
		opts.Format = audio.DefaultFormat()
	}
	return &Controller{opts: opts, now: now, status: StatusIdle}
}

// Status reports the current session state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Start opens a new session. It returns the resulting status exactly once:
// a session already running is rejected outright, missing credentials fail
// before any connection attempt, and a device failure after the channel
// opened tears everything straight back down to idle.
func (c *Controller) Start(ctx context.Context) (Status, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status != StatusIdle {
		return c.status, ErrAlreadyRunning
	}
	if c.opts.AgentID == "" || c.opts.APIKey == "" {
		return c.status, ErrMissingCredentials
	}

	channel, err := c.opts.Dial(ctx)
	if err != nil {
		return StatusIdle, fmt.Errorf("open remote channel: %w", err)
	}
	capture, err := c.opts.NewCapture()
	if err != nil {
		_ = channel.Close()
		return StatusIdle, fmt.Errorf("acquire capture device: %w", err)
	}
	playback, err := c.opts.NewPlayback()
	if err != nil {
		_ = capture.Stop()
		_ = channel.Close()
		return StatusIdle, fmt.Errorf("acquire playback device: %w", err)
	}
	chunks, err := capture.Start()
	if err != nil {
		_ = capture.Stop()
		_ = playback.Stop()
		_ = channel.Close()
		return StatusIdle, fmt.Errorf("start capture device: %w", err)
	}

	tracker := gate.NewTracker(c.opts.Format)
	s := &session{
		id:       uuid.NewString(),
		ctrl:     c,
		channel:  channel,
		capture:  capture,
		playback: playback,
		tracker:  tracker,
		engine:   gate.NewEngine(tracker, c.opts.IdleThreshold, c.opts.BargeThreshold),
		done:     make(chan struct{}),
	}
	c.current = s
	c.status = StatusListening
	log.Printf("session %s: listening", s.id)

	go s.pumpOutbound(chunks)
	go s.pumpInbound()
	return StatusListening, nil
}

// Stop ends the current session, if any. Stopping an idle controller is a
// no-op; in every case the controller is idle when Stop returns.
func (c *Controller) Stop() Status {
	c.mu.Lock()
	s := c.current
	if s == nil {
		c.status = StatusIdle
		c.mu.Unlock()
		return StatusIdle
	}
	c.mu.Unlock()

	s.teardown(nil)
	return StatusIdle
}

// session is one active conversation and the resources it exclusively owns.
type session struct {
	id       string
	ctrl     *Controller
	channel  Channel
	capture  device.Capture
	playback device.Playback
	tracker  *gate.Tracker
	engine   *gate.Engine

	// stopping makes late chunk/event callbacks no-ops once teardown begins.
	stopping     atomic.Bool
	teardownOnce sync.Once
	done         chan struct{}
}

// pumpOutbound forwards gate-passing capture chunks to the agent. Send
// failures are dropped chunks, not session faults: real-time audio has no
// value if delayed, so there is no retry or buffering.
func (s *session) pumpOutbound(chunks <-chan []byte) {
	for chunk := range chunks {
		if s.stopping.Load() {
			continue
		}
		if !s.engine.ShouldForward(chunk, s.ctrl.now()) {
			continue
		}
		_ = s.channel.SendAudio(chunk)
	}
	// The chunk stream only ends on Stop or on a capture fault.
	if !s.stopping.Load() {
		s.teardown(errors.New("capture device ended unexpectedly"))
	}
}

// pumpInbound plays agent audio and feeds the speech-presence tracker.
func (s *session) pumpInbound() {
	for ev := range s.channel.Events() {
		if s.stopping.Load() {
			continue
		}
		if len(ev.Audio) == 0 {
			continue
		}
		s.tracker.OnAgentAudio(len(ev.Audio), s.ctrl.now())
		if err := s.playback.Write(ev.Audio); err != nil {
			s.teardown(fmt.Errorf("playback write: %w", err))
			return
		}
	}
	if !s.stopping.Load() {
		// Events closed underneath us: remote hangup or transport fault.
		s.teardown(s.channel.Err())
	}
}

// teardown releases everything the session owns, exactly once. Every release
// is best-effort so one failing resource cannot strand another, and a fault
// cause surfaces as a transient error status while teardown runs.
func (s *session) teardown(cause error) {
	s.teardownOnce.Do(func() {
		s.stopping.Store(true)
		c := s.ctrl

		if cause != nil {
			c.mu.Lock()
			c.status = StatusError
			c.mu.Unlock()
			log.Printf("session %s: fatal: %v", s.id, cause)
		}

		_ = s.capture.Stop()
		_ = s.playback.Stop()
		_ = s.channel.Close()
		s.tracker.Reset()

		c.mu.Lock()
		if c.current == s {
			c.current = nil
		}
		c.status = StatusIdle
		c.mu.Unlock()
		close(s.done)
		log.Printf("session %s: idle", s.id)
	})
}
