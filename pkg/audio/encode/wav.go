// ABOUTME: WAV file encoder
// ABOUTME: Writes captured 16-bit PCM as a RIFF WAVE file using go-wav
package encode

import (
	"fmt"
	"io"
	"os"

	"github.com/youpy/go-wav"
)

// WriteWAV writes interleaved 16-bit samples as a PCM WAV stream
func WriteWAV(w io.Writer, samples []int16, channels, sampleRate int) error {
	if err := CheckWAVFormat(channels, sampleRate); err != nil {
		return err
	}

	frames := len(samples) / channels
	writer := wav.NewWriter(w, uint32(frames), uint16(channels), uint32(sampleRate), 16)

	out := make([]wav.Sample, frames)
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			out[i].Values[ch] = int(samples[i*channels+ch])
		}
	}

	if err := writer.WriteSamples(out); err != nil {
		return fmt.Errorf("failed to write wav samples: %w", err)
	}
	return nil
}

// WriteWAVFile creates path and writes the samples into it
func WriteWAVFile(path string, samples []int16, channels, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := WriteWAV(f, samples, channels, sampleRate); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
