// ABOUTME: Engine configuration and collaborator interfaces
// ABOUTME: File loading and dynamics processing are supplied by the host
package adaptive

import (
	"io/fs"
	"time"

	"github.com/Resonate-Protocol/adaptive-go/pkg/audio"
	"github.com/Resonate-Protocol/adaptive-go/pkg/audio/decode"
	"github.com/Resonate-Protocol/adaptive-go/pkg/audio/dynamics"
	"github.com/Resonate-Protocol/adaptive-go/pkg/defs"
	"github.com/charmbracelet/log"
)

const (
	DefaultVolume       = 50
	DefaultDumpSeconds  = 120
	DefaultCommandQueue = 64
)

// FileLoader decodes the audio file behind a clip file name
type FileLoader interface {
	Load(name string) (*audio.PCM, error)
}

// Compressor is a dynamics processor run over every mixed frame
type Compressor interface {
	SetAudioFormat(channels, sampleRate int)
	SetThreshold(db float64)
	SetRatio(ratio float64)
	Process(frame []float32)
}

// Config holds engine configuration
type Config struct {
	// Format is the initial output format, optional
	Format audio.Format

	// FS resolves definition files, and clip files when Files is nil
	FS fs.FS

	// Files loads clip audio (default: decode.FSLoader over FS)
	Files FileLoader

	// Loader parses definition documents (default: defs.XMLLoader)
	Loader defs.Loader

	// Logger receives engine logs (default: log.Default())
	Logger *log.Logger

	// Seed makes clip selection reproducible. Zero seeds from the clock.
	Seed uint64

	// Now is the wall clock for Update (default: time.Now)
	Now func() time.Time

	// Volume is the initial master volume 1-100 (default: 50)
	Volume int

	// Muted starts the engine at volume 0, overriding Volume
	Muted bool

	// NewCompressor builds the dynamics processor (default: dynamics.New)
	NewCompressor func() Compressor

	// CommandQueue is the number of pending playback commands (default: 64)
	CommandQueue int

	DebugClipping        bool
	WriteAudioAtShutdown bool
	Verbose              bool

	// DumpDir is where the shutdown capture is written (default: working directory)
	DumpDir string

	// DumpSeconds caps the shutdown capture length (default: 120)
	DumpSeconds int
}

func (c *Config) applyDefaults() {
	if c.Logger == nil {
		c.Logger = log.Default()
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Loader == nil {
		c.Loader = defs.XMLLoader{Logger: c.Logger}
	}
	if c.Files == nil && c.FS != nil {
		c.Files = decode.FSLoader{FS: c.FS}
	}
	if c.Volume == 0 {
		c.Volume = DefaultVolume
	}
	if c.NewCompressor == nil {
		c.NewCompressor = func() Compressor { return dynamics.New() }
	}
	if c.CommandQueue <= 0 {
		c.CommandQueue = DefaultCommandQueue
	}
	if c.DumpSeconds <= 0 {
		c.DumpSeconds = DefaultDumpSeconds
	}
	if c.Seed == 0 {
		c.Seed = uint64(c.Now().UnixNano())
	}
}
