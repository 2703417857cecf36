// ABOUTME: Ogg Opus audio decoder
// ABOUTME: Decodes Opus files to float samples
package decode

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/Resonate-Protocol/adaptive-go/pkg/audio"
	"gopkg.in/hraban/opus.v2"
)

// Opus always decodes at 48kHz
const opusSampleRate = 48000

// DecodeOpus decodes a complete Ogg Opus file
func DecodeOpus(data []byte) (*audio.PCM, error) {
	channels, err := opusChannels(data)
	if err != nil {
		return nil, err
	}

	stream, err := opus.NewStream(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create opus stream: %w", err)
	}
	defer stream.Close()

	// Max frame size is 120ms
	pcm16 := make([]int16, 5760*channels)
	var samples []float32
	for {
		n, err := stream.Read(pcm16)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("opus decode failed: %w", err)
		}

		for i := 0; i < n*channels; i++ {
			samples = append(samples, audio.SampleFromInt16(pcm16[i]))
		}
	}

	samples, channels = keepStereo(samples, channels)
	return &audio.PCM{
		SampleRate: opusSampleRate,
		Channels:   channels,
		Samples:    samples,
	}, nil
}

// opusChannels reads the channel count from the OpusHead identification header
func opusChannels(data []byte) (int, error) {
	idx := bytes.Index(data, []byte("OpusHead"))
	if idx < 0 || idx+9 >= len(data) {
		return 0, fmt.Errorf("missing OpusHead header")
	}

	channels := int(data[idx+9])
	if channels < 1 {
		return 0, fmt.Errorf("invalid opus channel count: %d", channels)
	}
	return channels, nil
}
