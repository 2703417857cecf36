// ABOUTME: Unit tests for PCM capture conversion
// ABOUTME: Tests 8, 16, 24-bit and float buffers reduced to 16-bit
package encode

import (
	"testing"

	"github.com/Resonate-Protocol/adaptive-go/pkg/audio"
)

func TestAppendInt16(t *testing.T) {
	tests := []struct {
		name     string
		format   audio.Format
		fill     func(buf []byte)
		expected int16
	}{
		{
			name:   "16-bit",
			format: audio.Format{SampleRate: 8000, Channels: 1, BytesPerSample: 2},
			fill: func(buf []byte) {
				audio.WriteSample(buf, 0, 2, 1234<<16)
			},
			expected: 1234,
		},
		{
			name:   "8-bit",
			format: audio.Format{SampleRate: 8000, Channels: 1, BytesPerSample: 1},
			fill: func(buf []byte) {
				buf[0] = 0xC0
			},
			expected: 64 << 8,
		},
		{
			name:   "24-bit",
			format: audio.Format{SampleRate: 8000, Channels: 1, BytesPerSample: 3},
			fill: func(buf []byte) {
				audio.WriteSample(buf, 0, 3, -2<<16)
			},
			expected: -2,
		},
		{
			name:   "float",
			format: audio.Format{SampleRate: 8000, Channels: 1, BytesPerSample: 4, Float: true},
			fill: func(buf []byte) {
				audio.WriteFloat(buf, 0, 0.5)
			},
			expected: 16384,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := make([]byte, tt.format.BytesPerSample)
			tt.fill(buf)

			out, n := AppendInt16(make([]int16, 0, 4), buf, tt.format)
			if n != 1 || len(out) != 1 {
				t.Fatalf("expected one sample, got %d", len(out))
			}
			if out[0] != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, out[0])
			}
		})
	}
}

func TestAppendInt16RespectsCapacity(t *testing.T) {
	format := audio.Format{SampleRate: 8000, Channels: 2, BytesPerSample: 2}
	dst := make([]int16, 0, 3)

	dst, n := AppendInt16(dst, make([]byte, 8), format)
	if n != 3 || len(dst) != 3 {
		t.Fatalf("expected 3 samples, got n=%d len=%d", n, len(dst))
	}

	dst, n = AppendInt16(dst, make([]byte, 8), format)
	if n != 0 || cap(dst) != 3 {
		t.Errorf("expected full buffer to stay put, got n=%d cap=%d", n, cap(dst))
	}
}
