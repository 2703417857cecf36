// ABOUTME: Decoder registry and file-system loader
// ABOUTME: Picks a clip decoder from the file extension
package decode

import (
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/Resonate-Protocol/adaptive-go/pkg/audio"
)

// Decoder converts a complete encoded file to PCM
type Decoder func(data []byte) (*audio.PCM, error)

var decoders = map[string]Decoder{
	".wav":  DecodeWAV,
	".wave": DecodeWAV,
	".mp3":  DecodeMP3,
	".flac": DecodeFLAC,
	".opus": DecodeOpus,
	".ogg":  DecodeOpus,
}

// ForName returns the decoder registered for the extension of name
func ForName(name string) (Decoder, error) {
	ext := strings.ToLower(path.Ext(name))
	dec, ok := decoders[ext]
	if !ok {
		return nil, fmt.Errorf("unsupported audio file extension: %q", ext)
	}
	return dec, nil
}

// Open reads and decodes name from fsys
func Open(fsys fs.FS, name string) (*audio.PCM, error) {
	dec, err := ForName(name)
	if err != nil {
		return nil, err
	}

	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}

	pcm, err := dec(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return pcm, nil
}

// FSLoader loads clip files relative to the root of FS
type FSLoader struct {
	FS fs.FS
}

// Load decodes the named file
func (l FSLoader) Load(name string) (*audio.PCM, error) {
	return Open(l.FS, name)
}

// keepStereo drops channels beyond the second, the mixer only renders mono and stereo
func keepStereo(samples []float32, channels int) ([]float32, int) {
	if channels <= 2 {
		return samples, channels
	}

	frames := len(samples) / channels
	out := make([]float32, frames*2)
	for i := 0; i < frames; i++ {
		out[i*2] = samples[i*channels]
		out[i*2+1] = samples[i*channels+1]
	}
	return out, 2
}
