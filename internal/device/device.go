// Package device provides the local audio endpoints of the bridge: a
// microphone capture source and a speaker playback sink, both speaking
// 16-bit signed little-endian mono PCM.
package device

// Capture is a source of raw PCM chunks. Start returns a channel that emits
// chunks until Stop is called or the device fails fatally; in both cases the
// channel closes. Stop is idempotent and safe after a failed Start.
type Capture interface {
	Start() (<-chan []byte, error)
	Stop() error
}

// Playback is a sink for raw PCM chunks. A Write error is fatal to the
// device. Stop is idempotent.
type Playback interface {
	Write(pcm []byte) error
	Stop() error
}
