// ABOUTME: PCM sample conversion for capture
// ABOUTME: Converts mixed host buffers of any supported width to 16-bit samples
package encode

import (
	"fmt"

	"github.com/Resonate-Protocol/adaptive-go/pkg/audio"
)

// AppendInt16 appends the samples of a mixed host buffer to dst as 16-bit values.
// It never grows dst beyond its capacity: samples that do not fit are dropped
// and the number of samples written is returned alongside the slice.
func AppendInt16(dst []int16, buf []byte, format audio.Format) ([]int16, int) {
	if !format.Supported() {
		return dst, 0
	}

	numSamples := len(buf) / format.BytesPerSample
	if room := cap(dst) - len(dst); numSamples > room {
		numSamples = room
	}

	for i := 0; i < numSamples; i++ {
		var s int16
		if format.Float {
			s = audio.SampleToInt16(audio.ReadFloat(buf, i))
		} else {
			s = int16(audio.ReadSample(buf, i, format.BytesPerSample) >> 16)
		}
		dst = append(dst, s)
	}
	return dst, numSamples
}

// CheckWAVFormat validates the parameters of a 16-bit WAV capture
func CheckWAVFormat(channels, sampleRate int) error {
	if channels < 1 || channels > 2 {
		return fmt.Errorf("unsupported channel count for wav: %d", channels)
	}
	if sampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %d", sampleRate)
	}
	return nil
}
