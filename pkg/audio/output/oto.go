// ABOUTME: Oto-based audio output implementation
// ABOUTME: Pulls mixed frames from the engine inside oto's player callback
package output

import (
	"errors"
	"fmt"
	"time"

	"github.com/Resonate-Protocol/adaptive-go/pkg/audio"
	"github.com/charmbracelet/log"
	"github.com/ebitengine/oto/v3"
)

// Oto output implementation using oto library
type Oto struct {
	otoCtx     *oto.Context
	player     *oto.Player
	format     audio.Format
	bufferSize time.Duration
	ready      bool
}

// NewOto creates a new Oto output. A zero bufferSize keeps oto's default.
func NewOto(bufferSize time.Duration) Output {
	return &Oto{
		bufferSize: bufferSize,
	}
}

// Open initializes the output device
func (o *Oto) Open(format audio.Format, mixer Mixer) error {
	if o.ready {
		return errors.New("output already open")
	}

	sampleFormat, err := otoFormat(format)
	if err != nil {
		return err
	}

	op := &oto.NewContextOptions{
		SampleRate:   format.SampleRate,
		ChannelCount: format.Channels,
		Format:       sampleFormat,
		BufferSize:   o.bufferSize,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return fmt.Errorf("failed to create oto context: %w", err)
	}

	<-readyChan

	o.otoCtx = ctx
	o.format = format

	// Persistent player pulling from the mixer
	o.player = o.otoCtx.NewPlayer(&mixReader{mixer: mixer, format: format})
	o.player.Play()

	o.ready = true

	log.Info("Audio output initialized", "format", format.String())

	return nil
}

// Close releases output resources
func (o *Oto) Close() error {
	var err error
	if o.player != nil {
		err = o.player.Close()
		o.player = nil
	}
	if o.otoCtx != nil {
		if suspendErr := o.otoCtx.Suspend(); suspendErr != nil && err == nil {
			err = suspendErr
		}
	}
	o.ready = false
	return err
}

// otoFormat maps a host format to the sample formats oto can play
func otoFormat(format audio.Format) (oto.Format, error) {
	if !format.Supported() {
		return 0, fmt.Errorf("unsupported output format: %s", format)
	}

	switch {
	case format.Float:
		return oto.FormatFloat32LE, nil
	case format.BytesPerSample == 1:
		return oto.FormatUnsignedInt8, nil
	case format.BytesPerSample == 2:
		return oto.FormatSignedInt16LE, nil
	}
	return 0, fmt.Errorf("oto cannot play %d-byte integer samples", format.BytesPerSample)
}

// mixReader adapts a Mixer to the io.Reader oto pulls from
type mixReader struct {
	mixer  Mixer
	format audio.Format
}

// Read fills whole frames of p with silence and mixes into them
func (r *mixReader) Read(p []byte) (int, error) {
	frameSize := r.format.FrameSize()
	n := len(p) - len(p)%frameSize
	if n == 0 {
		return 0, nil
	}

	audio.Silence(p[:n], r.format)
	r.mixer.MixToBuffer(p[:n], n/frameSize)
	return n, nil
}
