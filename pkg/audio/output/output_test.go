// ABOUTME: Audio output tests
// ABOUTME: Verifies format mapping and the pull reader without opening a device
package output

import (
	"testing"

	"github.com/Resonate-Protocol/adaptive-go/pkg/audio"
	"github.com/ebitengine/oto/v3"
)

func TestOtoImplementsOutput(t *testing.T) {
	var _ Output = (*Oto)(nil)
}

func TestNewOto(t *testing.T) {
	out := NewOto(0)
	if out == nil {
		t.Fatal("NewOto returned nil")
	}
}

func TestOtoFormat(t *testing.T) {
	tests := []struct {
		name     string
		format   audio.Format
		expected oto.Format
		wantErr  bool
	}{
		{"16-bit", audio.Format{SampleRate: 48000, Channels: 2, BytesPerSample: 2}, oto.FormatSignedInt16LE, false},
		{"8-bit", audio.Format{SampleRate: 22050, Channels: 1, BytesPerSample: 1}, oto.FormatUnsignedInt8, false},
		{"float", audio.Format{SampleRate: 48000, Channels: 2, BytesPerSample: 4, Float: true}, oto.FormatFloat32LE, false},
		{"24-bit", audio.Format{SampleRate: 48000, Channels: 2, BytesPerSample: 3}, 0, true},
		{"32-bit int", audio.Format{SampleRate: 48000, Channels: 2, BytesPerSample: 4}, 0, true},
		{"invalid", audio.Format{}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := otoFormat(tt.format)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

type recordingMixer struct {
	calls  int
	frames int
	first  byte
}

func (m *recordingMixer) MixToBuffer(buf []byte, frames int) {
	m.calls++
	m.frames = frames
	m.first = buf[0]
}

func TestMixReaderWholeFrames(t *testing.T) {
	mixer := &recordingMixer{}
	r := &mixReader{mixer: mixer, format: audio.Format{SampleRate: 8000, Channels: 2, BytesPerSample: 2}}

	p := make([]byte, 18)
	n, err := r.Read(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 16 {
		t.Errorf("expected 16 bytes, got %d", n)
	}
	if mixer.frames != 4 {
		t.Errorf("expected 4 frames, got %d", mixer.frames)
	}
}

func TestMixReaderSilencesUnsigned(t *testing.T) {
	mixer := &recordingMixer{}
	r := &mixReader{mixer: mixer, format: audio.Format{SampleRate: 8000, Channels: 1, BytesPerSample: 1}}

	p := []byte{0, 0, 0}
	if _, err := r.Read(p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mixer.first != 0x80 {
		t.Errorf("expected mixer to see 0x80 silence, got %#x", mixer.first)
	}
}

func TestMixReaderShortBuffer(t *testing.T) {
	mixer := &recordingMixer{}
	r := &mixReader{mixer: mixer, format: audio.Format{SampleRate: 8000, Channels: 2, BytesPerSample: 2}}

	n, err := r.Read(make([]byte, 3))
	if n != 0 || err != nil {
		t.Errorf("expected (0, nil), got (%d, %v)", n, err)
	}
	if mixer.calls != 0 {
		t.Error("mixer should not run for a partial frame")
	}
}
