// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format, PCM and the integer mixing domain conversions
// Package audio provides the audio types shared by the engine and its collaborators.
//
//   - Format: the host buffer layout (sample rate, channels, bytes per sample, float flag)
//   - PCM: decoded clip audio as interleaved float32
//
// Integer buffers are mixed in an int32 domain that carries 24 bits of
// precision left-justified. ReadSample and WriteSample move samples between
// that domain and 8, 16, 24 and 32-bit buffers; SafeAdd combines two samples
// without wrapping.
//
// Example:
//
//	format := audio.Format{
//	    SampleRate:     48000,
//	    Channels:       2,
//	    BytesPerSample: 2,
//	}
//
//	s := audio.FloatToInteger24(0.5) << 8
//	sum, clipped := audio.SafeAdd(s, audio.ReadSample(buf, i, format.BytesPerSample))
//	audio.WriteSample(buf, i, format.BytesPerSample, sum)
package audio
