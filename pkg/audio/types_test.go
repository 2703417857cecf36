// ABOUTME: Tests for audio types
// ABOUTME: Tests format validation and sample conversion functions
package audio

import (
	"math"
	"testing"
)

func TestFormatSupported(t *testing.T) {
	tests := []struct {
		name     string
		format   Format
		expected bool
	}{
		{"16-bit stereo", Format{SampleRate: 48000, Channels: 2, BytesPerSample: 2}, true},
		{"8-bit mono", Format{SampleRate: 22050, Channels: 1, BytesPerSample: 1}, true},
		{"24-bit", Format{SampleRate: 44100, Channels: 2, BytesPerSample: 3}, true},
		{"float", Format{SampleRate: 44100, Channels: 2, BytesPerSample: 4, Float: true}, true},
		{"zero rate", Format{SampleRate: 0, Channels: 2, BytesPerSample: 2}, false},
		{"no channels", Format{SampleRate: 44100, Channels: 0, BytesPerSample: 2}, false},
		{"surround", Format{SampleRate: 44100, Channels: 6, BytesPerSample: 2}, false},
		{"zero width", Format{SampleRate: 44100, Channels: 2, BytesPerSample: 0}, false},
		{"wide", Format{SampleRate: 44100, Channels: 2, BytesPerSample: 5}, false},
		{"16-bit float", Format{SampleRate: 44100, Channels: 2, BytesPerSample: 2, Float: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.format.Supported(); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestFloatToInteger24(t *testing.T) {
	tests := []struct {
		name     string
		input    float32
		expected int32
	}{
		{"zero", 0, 0},
		{"full scale", 1, Max24Bit},
		{"negative full scale", -1, -Max24Bit},
		{"over", 2.5, Max24Bit},
		{"under", -3, -Max24Bit},
		{"half", 0.5, 4194303},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FloatToInteger24(tt.input)
			if result != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, result)
			}
		})
	}
}

func TestSafeAdd(t *testing.T) {
	tests := []struct {
		name        string
		a, b        int32
		expected    int32
		wantClipped bool
	}{
		{"small", 100, 200, 300, false},
		{"mixed signs", math.MaxInt32, math.MinInt32, -1, false},
		{"positive overflow", math.MaxInt32, 1, math.MaxInt32, true},
		{"both near max", Max24Bit << 8, Max24Bit << 8, math.MaxInt32, true},
		{"negative overflow", math.MinInt32, -1, math.MinInt32, true},
		{"exact max", math.MaxInt32 - 5, 5, math.MaxInt32, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sum, clipped := SafeAdd(tt.a, tt.b)
			if sum != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, sum)
			}
			if clipped != tt.wantClipped {
				t.Errorf("expected clipped=%v, got %v", tt.wantClipped, clipped)
			}
		})
	}
}

func TestReadSample(t *testing.T) {
	tests := []struct {
		name     string
		buf      []byte
		width    int
		expected int32
	}{
		{"8-bit silence", []byte{0x80}, 1, 0},
		{"8-bit max", []byte{0xFF}, 1, 127 << 24},
		{"8-bit min", []byte{0x00}, 1, math.MinInt32},
		{"16-bit positive", []byte{0x00, 0x01}, 2, 256 << 16},
		{"16-bit negative", []byte{0xFF, 0xFF}, 2, -1 << 16},
		{"24-bit positive", []byte{0x56, 0x34, 0x12}, 3, 0x123456 << 8},
		{"24-bit negative", []byte{0x00, 0xFF, 0xFF}, 3, -256 << 8},
		{"32-bit", []byte{0x01, 0x00, 0x00, 0x80}, 4, math.MinInt32 + 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ReadSample(tt.buf, 0, tt.width)
			if result != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, result)
			}
		})
	}
}

func TestWriteSample(t *testing.T) {
	tests := []struct {
		name     string
		sample   int32
		width    int
		expected []byte
	}{
		{"8-bit silence", 0, 1, []byte{0x80}},
		{"8-bit max", math.MaxInt32, 1, []byte{0xFF}},
		{"16-bit", 0x1234 << 16, 2, []byte{0x34, 0x12}},
		{"24-bit", 0x123456 << 8, 3, []byte{0x56, 0x34, 0x12}},
		{"32-bit", -2, 4, []byte{0xFE, 0xFF, 0xFF, 0xFF}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := make([]byte, len(tt.expected))
			WriteSample(buf, 0, tt.width, tt.sample)
			for i := range buf {
				if buf[i] != tt.expected[i] {
					t.Fatalf("expected %v, got %v", tt.expected, buf)
				}
			}
		})
	}
}

func TestSampleIndexing(t *testing.T) {
	buf := make([]byte, 3*4)
	WriteSample(buf, 2, 3, 0x7FFFFF<<8)
	if got := ReadSample(buf, 2, 3); got != 0x7FFFFF<<8 {
		t.Errorf("expected %d, got %d", 0x7FFFFF<<8, got)
	}
	if got := ReadSample(buf, 0, 3); got != 0 {
		t.Errorf("neighbouring sample changed: %d", got)
	}
}

func TestFloatSamples(t *testing.T) {
	buf := make([]byte, 8)
	WriteFloat(buf, 1, -0.25)
	if got := ReadFloat(buf, 1); got != -0.25 {
		t.Errorf("expected -0.25, got %f", got)
	}
}

func TestSilence(t *testing.T) {
	buf := []byte{1, 2, 3}
	Silence(buf, Format{SampleRate: 8000, Channels: 1, BytesPerSample: 1})
	for _, b := range buf {
		if b != 0x80 {
			t.Fatalf("expected 0x80 fill, got %v", buf)
		}
	}

	Silence(buf, Format{SampleRate: 8000, Channels: 1, BytesPerSample: 3})
	for _, b := range buf {
		if b != 0 {
			t.Fatalf("expected zero fill, got %v", buf)
		}
	}
}

func TestInt16Conversion(t *testing.T) {
	tests := []struct {
		name     string
		input    float32
		expected int16
	}{
		{"zero", 0, 0},
		{"max", 1, 32767},
		{"min", -1, -32768},
		{"half", 0.5, 16384},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SampleToInt16(tt.input); got != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, got)
			}
		})
	}

	if got := SampleFromInt16(-32768); got != -1 {
		t.Errorf("expected -1, got %f", got)
	}
}

func TestPCMFrames(t *testing.T) {
	p := &PCM{SampleRate: 1000, Channels: 2, Samples: make([]float32, 4000)}
	if p.Frames() != 2000 {
		t.Errorf("expected 2000 frames, got %d", p.Frames())
	}
	if p.Duration().Seconds() != 2 {
		t.Errorf("expected 2s, got %v", p.Duration())
	}

	var empty *PCM
	if empty.Frames() != 0 {
		t.Error("nil PCM should have no frames")
	}
}
