// ABOUTME: Audio output interface definition
// ABOUTME: Common interface for pull-based playback backends
package output

import "github.com/Resonate-Protocol/adaptive-go/pkg/audio"

// Mixer renders frames into a host buffer that the caller has filled with silence
type Mixer interface {
	MixToBuffer(buf []byte, frames int)
}

// Output represents an audio output device
type Output interface {
	// Open initializes the device and starts pulling audio from mixer
	Open(format audio.Format, mixer Mixer) error

	// Close stops playback and releases output resources
	Close() error
}
