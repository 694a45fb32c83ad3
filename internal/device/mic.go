package device

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"

	"github.com/sgardoll/Elevenlabs-Presto-Agent/internal/audio"
)

// micPeriodMs is the capture period; 20ms at 16kHz is 640 bytes per chunk.
const micPeriodMs = 20

// Mic captures microphone audio through miniaudio (malgo) and emits PCM
// chunks on a channel. The capture callback never blocks: if the consumer
// falls behind, chunks are dropped, since stale real-time audio is worthless.
type Mic struct {
	format audio.Format

	mu      sync.Mutex
	ctx     *malgo.AllocatedContext
	device  *malgo.Device
	chunks  chan []byte
	stopped bool

	// closing gates the data callback so a chunk arriving mid-teardown is a
	// no-op instead of a send on a closed channel.
	closing atomic.Bool
}

// NewMic creates an unstarted microphone for the given format.
func NewMic(format audio.Format) *Mic {
	return &Mic{format: format}
}

// Start initializes the audio backend and begins capture.
func (m *Mic) Start() (<-chan []byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return nil, fmt.Errorf("mic: already stopped")
	}
	if m.device != nil {
		return nil, fmt.Errorf("mic: already started")
	}

	ctxConfig := malgo.ContextConfig{}
	ctxConfig.ThreadPriority = malgo.ThreadPriorityRealtime
	mctx, err := malgo.InitContext(nil, ctxConfig, nil)
	if err != nil {
		return nil, fmt.Errorf("mic: init context: %w", err)
	}

	chunks := make(chan []byte, 32)

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = 1
	deviceConfig.SampleRate = uint32(m.format.SampleRate)
	deviceConfig.PeriodSizeInMilliseconds = micPeriodMs

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, input []byte, _ uint32) {
			if m.closing.Load() {
				return
			}
			chunk := make([]byte, len(input))
			copy(chunk, input)
			select {
			case chunks <- chunk:
			default:
			}
		},
	}

	dev, err := malgo.InitDevice(mctx.Context, deviceConfig, callbacks)
	if err != nil {
		_ = mctx.Uninit()
		return nil, fmt.Errorf("mic: init device: %w", err)
	}
	if err := dev.Start(); err != nil {
		dev.Uninit()
		_ = mctx.Uninit()
		return nil, fmt.Errorf("mic: start device: %w", err)
	}

	m.ctx = mctx
	m.device = dev
	m.chunks = chunks
	return chunks, nil
}

// Stop halts capture and closes the chunk channel.
func (m *Mic) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return nil
	}
	m.stopped = true
	m.closing.Store(true)

	if m.device != nil {
		_ = m.device.Stop()
		m.device.Uninit()
		m.device = nil
	}
	if m.ctx != nil {
		_ = m.ctx.Uninit()
		m.ctx = nil
	}
	if m.chunks != nil {
		close(m.chunks)
		m.chunks = nil
	}
	return nil
}
