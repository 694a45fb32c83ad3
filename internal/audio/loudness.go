package audio

import (
	"encoding/binary"
	"math"
)

// RMS computes the root-mean-square loudness of a PCM buffer interpreted as
// 16-bit signed little-endian mono samples. The result is on the raw int16
// scale (silence ~0, full-scale sine ~23170). A trailing odd byte is ignored
// rather than read as a partial sample; an empty buffer yields 0.
func RMS(pcm []byte) float64 {
	n := len(pcm) / 2
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i+1 < len(pcm); i += 2 {
		s := float64(int16(binary.LittleEndian.Uint16(pcm[i : i+2])))
		sum += s * s
	}
	return math.Sqrt(sum / float64(n))
}
