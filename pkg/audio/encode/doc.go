// ABOUTME: Audio encoder package for captured output
// ABOUTME: Converts mixed buffers to 16-bit and writes WAV files
// Package encode captures mixed output for debugging and offline rendering.
//
// Mixed host buffers of any supported width are reduced to 16-bit samples
// with AppendInt16, which never grows its destination past capacity so it can
// run on the audio thread. WriteWAV stores the result as a PCM WAV file.
//
// Example:
//
//	capture := make([]int16, 0, seconds*rate*channels)
//	capture, _ = encode.AppendInt16(capture, buf, format)
//	err := encode.WriteWAVFile("out.wav", capture, channels, rate)
package encode
