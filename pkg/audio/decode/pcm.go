// ABOUTME: Raw PCM audio decoder
// ABOUTME: Decodes little-endian 8/16/24/32-bit and float PCM to float samples
package decode

import (
	"fmt"

	"github.com/Resonate-Protocol/adaptive-go/pkg/audio"
)

// DecodeRaw converts interleaved little-endian PCM bytes laid out as format
func DecodeRaw(data []byte, format audio.Format) (*audio.PCM, error) {
	if !format.Supported() {
		return nil, fmt.Errorf("unsupported raw format: %s", format)
	}

	numSamples := len(data) / format.BytesPerSample
	numSamples -= numSamples % format.Channels
	samples := make([]float32, numSamples)

	for i := 0; i < numSamples; i++ {
		if format.Float {
			samples[i] = audio.ReadFloat(data, i)
			continue
		}
		// Left-justified int32 to [-1, 1)
		samples[i] = float32(audio.ReadSample(data, i, format.BytesPerSample)) / (1 << 31)
	}

	return &audio.PCM{
		SampleRate: format.SampleRate,
		Channels:   format.Channels,
		Samples:    samples,
	}, nil
}
