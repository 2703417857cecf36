// ABOUTME: Audio type definitions
// ABOUTME: Output formats, decoded PCM and the 24-bit mixing domain helpers
package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

const (
	// 24-bit audio range constants
	Max24Bit = 8388607  // 2^23 - 1
	Min24Bit = -8388608 // -2^23
)

// Format describes the layout of a host output buffer
type Format struct {
	SampleRate     int
	Channels       int
	BytesPerSample int
	Float          bool // 32-bit float samples, BytesPerSample must be 4
}

// Supported reports whether the mixer can write into buffers of this format
func (f Format) Supported() bool {
	if f.SampleRate <= 0 {
		return false
	}

	// Only mono or stereo
	if f.Channels < 1 || f.Channels > 2 {
		return false
	}

	if f.BytesPerSample < 1 || f.BytesPerSample > 4 {
		return false
	}

	if f.Float && f.BytesPerSample != 4 {
		return false
	}

	return true
}

// FrameSize returns the number of bytes in one interleaved frame
func (f Format) FrameSize() int {
	return f.Channels * f.BytesPerSample
}

func (f Format) String() string {
	if f.Float {
		return fmt.Sprintf("%dHz %dch float", f.SampleRate, f.Channels)
	}
	return fmt.Sprintf("%dHz %dch %d-bit", f.SampleRate, f.Channels, f.BytesPerSample*8)
}

// PCM holds decoded audio as interleaved float32 samples in [-1, 1]
type PCM struct {
	SampleRate int
	Channels   int
	Samples    []float32
}

// Frames returns the number of interleaved frames
func (p *PCM) Frames() int {
	if p == nil || p.Channels <= 0 {
		return 0
	}
	return len(p.Samples) / p.Channels
}

// Duration returns the playing time of the buffer
func (p *PCM) Duration() time.Duration {
	if p == nil || p.SampleRate <= 0 {
		return 0
	}
	return time.Duration(p.Frames()) * time.Second / time.Duration(p.SampleRate)
}

// FloatToInteger24 converts a float sample to the signed 24-bit range, clamping at full scale
func FloatToInteger24(f float32) int32 {
	if f > 1 {
		f = 1
	} else if f < -1 {
		f = -1
	}
	return int32(f * Max24Bit)
}

// SampleFromInt16 converts a 16-bit sample to float
func SampleFromInt16(sample int16) float32 {
	return float32(sample) / 32768
}

// SampleToInt16 converts a float sample to 16-bit, clamping at full scale
func SampleToInt16(f float32) int16 {
	if f >= 1 {
		return math.MaxInt16
	}
	if f <= -1 {
		return math.MinInt16
	}
	return int16(f * 32768)
}

// SafeAdd sums two samples of the int32 mixing domain.
// On overflow the result sticks to the extreme value and clipped is true.
func SafeAdd(a, b int32) (sum int32, clipped bool) {
	s := int64(a) + int64(b)
	if s > math.MaxInt32 {
		return math.MaxInt32, true
	}
	if s < math.MinInt32 {
		return math.MinInt32, true
	}
	return int32(s), false
}

// ReadSample reads sample index i from an integer buffer of the given width and
// returns it left-justified in int32. 8-bit buffers are unsigned offset-binary.
func ReadSample(buf []byte, i, bytesPerSample int) int32 {
	switch bytesPerSample {
	case 1:
		return int32(int8(buf[i]^0x80)) << 24
	case 2:
		return int32(int16(binary.LittleEndian.Uint16(buf[i*2:]))) << 16
	case 3:
		o := i * 3
		return int32(uint32(buf[o])<<8 | uint32(buf[o+1])<<16 | uint32(buf[o+2])<<24)
	case 4:
		return int32(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return 0
}

// WriteSample stores a left-justified int32 sample at index i, truncating to the buffer width
func WriteSample(buf []byte, i, bytesPerSample int, sample int32) {
	switch bytesPerSample {
	case 1:
		buf[i] = byte(sample>>24) ^ 0x80
	case 2:
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(sample>>16))
	case 3:
		o := i * 3
		buf[o] = byte(sample >> 8)
		buf[o+1] = byte(sample >> 16)
		buf[o+2] = byte(sample >> 24)
	case 4:
		binary.LittleEndian.PutUint32(buf[i*4:], uint32(sample))
	}
}

// ReadFloat reads float32 sample index i from a little-endian float buffer
func ReadFloat(buf []byte, i int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
}

// WriteFloat stores float32 sample index i into a little-endian float buffer
func WriteFloat(buf []byte, i int, f float32) {
	binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
}

// Silence fills buf with the zero level of the format
func Silence(buf []byte, f Format) {
	var fill byte
	if !f.Float && f.BytesPerSample == 1 {
		fill = 0x80
	}
	for i := range buf {
		buf[i] = fill
	}
}
