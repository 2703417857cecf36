// ABOUTME: Audio output package for playing audio
// ABOUTME: Provides Output interface and an oto implementation
// Package output provides audio playback backends.
//
// Outputs are pull based: the device callback asks a Mixer to render the
// next block of frames into a buffer pre-filled with silence.
//
// Example:
//
//	out := output.NewOto(50 * time.Millisecond)
//	err := out.Open(engine.Format(), engine)
//	defer out.Close()
package output
