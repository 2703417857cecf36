// ABOUTME: WAV audio decoder
// ABOUTME: Decodes RIFF WAVE files to float samples using go-wav
package decode

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/Resonate-Protocol/adaptive-go/pkg/audio"
	"github.com/youpy/go-wav"
)

// DecodeWAV decodes a complete WAV file
func DecodeWAV(data []byte) (*audio.PCM, error) {
	reader := wav.NewReader(bytes.NewReader(data))
	format, err := reader.Format()
	if err != nil {
		return nil, fmt.Errorf("failed to read wav header: %w", err)
	}

	if format.AudioFormat != wav.AudioFormatPCM && format.AudioFormat != wav.AudioFormatIEEEFloat {
		return nil, fmt.Errorf("unsupported wav encoding: %d", format.AudioFormat)
	}

	channels := int(format.NumChannels)
	if channels < 1 || channels > 2 {
		return nil, fmt.Errorf("unsupported wav channel count: %d", channels)
	}

	var samples []float32
	for {
		chunk, err := reader.ReadSamples(4096)
		for _, s := range chunk {
			for ch := 0; ch < channels; ch++ {
				samples = append(samples, wavToFloat(s.Values[ch], format))
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("wav decode error: %w", err)
		}
	}

	return &audio.PCM{
		SampleRate: int(format.SampleRate),
		Channels:   channels,
		Samples:    samples,
	}, nil
}

// wavToFloat scales a go-wav sample value to [-1, 1)
func wavToFloat(v int, format *wav.WavFormat) float32 {
	if format.AudioFormat == wav.AudioFormatIEEEFloat {
		return float32(float64(v) / math.MaxInt32)
	}

	switch format.BitsPerSample {
	case 8:
		// Unsigned, 128 is silence
		return float32(v-128) / 128
	default:
		return float32(float64(v) / float64(int64(1)<<(format.BitsPerSample-1)))
	}
}
