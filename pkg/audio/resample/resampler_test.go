// ABOUTME: Tests for the linear resampler
// ABOUTME: Tests converted lengths, interpolation and channel separation
package resample

import (
	"math"
	"testing"

	"github.com/Resonate-Protocol/adaptive-go/pkg/audio"
)

func TestConvertUpsampleInterpolates(t *testing.T) {
	pcm := &audio.PCM{SampleRate: 1000, Channels: 1, Samples: []float32{0, 1, 0}}

	out := Convert(pcm, 2000)
	expected := []float32{0, 0.5, 1, 0.5, 0, 0}
	if len(out.Samples) != len(expected) {
		t.Fatalf("expected %d samples, got %d", len(expected), len(out.Samples))
	}
	for i, want := range expected {
		if math.Abs(float64(out.Samples[i]-want)) > 1e-6 {
			t.Errorf("sample %d: expected %f, got %f", i, want, out.Samples[i])
		}
	}
}

func TestConvertStereoKeepsChannels(t *testing.T) {
	pcm := &audio.PCM{SampleRate: 2000, Channels: 2, Samples: []float32{1, -1, 1, -1, 1, -1, 1, -1}}

	out := Convert(pcm, 1000)
	if out.Frames() != 2 {
		t.Fatalf("expected 2 frames, got %d", out.Frames())
	}
	for i := 0; i < len(out.Samples); i += 2 {
		if out.Samples[i] != 1 || out.Samples[i+1] != -1 {
			t.Errorf("channels mixed at frame %d: %v", i/2, out.Samples[i:i+2])
		}
	}
}

func TestConvertLength(t *testing.T) {
	pcm := &audio.PCM{SampleRate: 24000, Channels: 1, Samples: make([]float32, 2400)}

	out := Convert(pcm, 48000)
	if out.SampleRate != 48000 || out.Channels != 1 {
		t.Errorf("format = %dHz %dch", out.SampleRate, out.Channels)
	}
	if out.Frames() != 4800 {
		t.Errorf("expected 4800 frames, got %d", out.Frames())
	}
}

func TestConvertPassThrough(t *testing.T) {
	pcm := &audio.PCM{SampleRate: 24000, Channels: 1, Samples: []float32{0.1}}

	if same := Convert(pcm, 24000); same != pcm {
		t.Error("expected the same buffer when rates match")
	}
	if same := Convert(pcm, 0); same != pcm {
		t.Error("expected the same buffer for an invalid rate")
	}
	if Convert(nil, 48000) != nil {
		t.Error("expected nil for nil input")
	}
}

func TestFrames(t *testing.T) {
	tests := []struct {
		in, from, to, want int
	}{
		{24000, 24000, 48000, 48000},
		{44100, 44100, 48000, 48000},
		{48000, 48000, 44100, 44100},
		{1, 48000, 8000, 0},
		{100, 0, 48000, 0},
	}
	for _, tt := range tests {
		if got := Frames(tt.in, tt.from, tt.to); got != tt.want {
			t.Errorf("Frames(%d, %d, %d) = %d, want %d", tt.in, tt.from, tt.to, got, tt.want)
		}
	}
}
