package audio

import "time"

// Format describes the PCM layout used on both legs of the bridge:
// 16-bit signed little-endian mono at a fixed sample rate.
type Format struct {
	SampleRate     int
	BytesPerSample int
}

// DefaultFormat is the agent protocol format: 16kHz 16-bit mono.
func DefaultFormat() Format {
	return Format{SampleRate: 16000, BytesPerSample: 2}
}

// BytesPerSecond returns the byte rate of the format.
func (f Format) BytesPerSecond() int {
	return f.SampleRate * f.BytesPerSample
}

// Duration returns the playback duration of byteLen bytes of PCM.
func (f Format) Duration(byteLen int) time.Duration {
	bps := f.BytesPerSecond()
	if bps <= 0 {
		return 0
	}
	return time.Duration(byteLen) * time.Second / time.Duration(bps)
}

// BytesFor returns the byte count covering d of audio.
func (f Format) BytesFor(d time.Duration) int {
	return int(d * time.Duration(f.BytesPerSecond()) / time.Second)
}
