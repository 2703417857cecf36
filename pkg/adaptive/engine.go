// ABOUTME: Adaptive music engine: lifecycle, definition loading and output format
// ABOUTME: Host-side calls publish state that the mixing goroutine picks up lock-free
package adaptive

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"math/rand/v2"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Resonate-Protocol/adaptive-go/pkg/audio"
	"github.com/Resonate-Protocol/adaptive-go/pkg/audio/encode"
	"github.com/Resonate-Protocol/adaptive-go/pkg/defs"
	"github.com/charmbracelet/log"
)

type compressorBox struct {
	c Compressor
}

type dumpBuffer struct {
	samples  []int16
	channels int
	rate     int
}

// Engine plays adaptive music. Host methods may be called from any goroutine;
// MixToBuffer must only be called from one goroutine at a time.
type Engine struct {
	config Config
	logger *log.Logger
	conds  *Conditions
	layers *Layers

	// mu serializes loads, edits and Update
	mu           sync.Mutex
	rng          *rand.Rand
	defsFile     string
	preparedRate int
	lastUpdate   time.Time
	lastClipLog  int64
	comp         struct {
		enabled   bool
		threshold float64
		ratio     float64
	}

	tension       tension
	tracks        atomic.Pointer[trackSet]
	project       atomic.Pointer[projectInfo]
	format        atomic.Pointer[audio.Format]
	volume        atomic.Int32
	paused        atomic.Bool
	debugClipping atomic.Bool
	writeAudio    atomic.Bool
	verbose       atomic.Bool
	compressor    atomic.Pointer[compressorBox]
	clipping      atomic.Int64
	clipPending   atomic.Int64
	dump          atomic.Pointer[dumpBuffer]
	cmds          chan command
	status        playStatus

	mix mixState
}

// New creates an engine with no tracks loaded
func New(config Config) (*Engine, error) {
	config.applyDefaults()

	e := &Engine{
		config: config,
		logger: config.Logger,
		conds:  NewConditions(),
		layers: NewLayers(),
		rng:    rand.New(rand.NewPCG(config.Seed, config.Seed^0x9e3779b97f4a7c15)),
		cmds:   make(chan command, config.CommandQueue),
	}
	e.comp.threshold = -3
	e.comp.ratio = 4
	e.tracks.Store(&trackSet{})
	e.project.Store(&projectInfo{})
	if config.Muted {
		e.SetVolume(0)
	} else {
		e.SetVolume(config.Volume)
	}
	e.debugClipping.Store(config.DebugClipping)
	e.verbose.Store(config.Verbose)
	e.writeAudio.Store(config.WriteAudioAtShutdown)

	mixRand := rand.New(rand.NewPCG(config.Seed+1, config.Seed^0x2545f4914f6cdd1d))
	e.mix = mixState{
		set:   e.tracks.Load(),
		music: newPlayer(e.conds, mixRand),
		rng:   mixRand,
	}
	e.mix.sfx.reset()

	if config.Format != (audio.Format{}) {
		f := config.Format
		if err := e.SetAudioFormat(f.SampleRate, f.Channels, f.BytesPerSample, f.Float); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// Init loads the definition file at path from the configured file system
func (e *Engine) Init(path string) error {
	if e.config.FS == nil {
		return &DefinitionLoadError{Source: path, Err: fmt.Errorf("no file system configured")}
	}

	data, err := fs.ReadFile(e.config.FS, path)
	if err != nil {
		return &DefinitionLoadError{Source: path, Err: err}
	}

	if err := e.loadData(data, path); err != nil {
		return err
	}

	e.logger.Info("Loaded definitions", "file", path, "tracks", e.trackCount())
	return nil
}

// InitString loads definitions from an in-memory document
func (e *Engine) InitString(doc string) error {
	return e.loadData([]byte(doc), "")
}

func (e *Engine) loadData(data []byte, source string) error {
	project, err := e.config.Loader.Load(data)
	if err != nil {
		return &DefinitionLoadError{Source: source, Err: err}
	}
	if err := e.Load(project); err != nil {
		var lerr *DefinitionLoadError
		if errors.As(err, &lerr) {
			lerr.Source = source
		}
		return err
	}

	e.mu.Lock()
	e.defsFile = source
	e.mu.Unlock()
	return nil
}

// Load replaces all tracks with those of project. On error nothing changes.
func (e *Engine) Load(project *defs.Project) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	b := e.builder()
	set := &trackSet{}
	for _, cfg := range project.Tracks {
		if set.find(cfg.Name, cfg.Sfx) != nil {
			return &DefinitionLoadError{Err: fmt.Errorf("duplicate track %q", cfg.Name)}
		}

		t, err := b.track(cfg)
		if err != nil {
			return &DefinitionLoadError{Err: err}
		}
		if cfg.Sfx {
			set.sfx = append(set.sfx, t)
		} else {
			set.music = append(set.music, t)
		}
	}

	e.project.Store(&projectInfo{bpm: project.BPM, beatsPerBar: project.BeatsPerBar})
	e.replaceTracks(set)
	return nil
}

// replaceTracks publishes a new track set. The mixer stops a playing track
// that is not part of it.
func (e *Engine) replaceTracks(set *trackSet) {
	old := e.tracks.Swap(set)
	for _, t := range old.music {
		if !set.contains(t) {
			t.active.Store(false)
		}
	}
}

// Clear stops playback and removes every track
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.replaceTracks(&trackSet{})
	e.project.Store(&projectInfo{})
	e.defsFile = ""
	e.conds.Reset()
	e.tension.reset()
}

// ProjectNew starts an empty project
func (e *Engine) ProjectNew() {
	e.Clear()
}

// DefsFile returns the path of the last loaded definition file
func (e *Engine) DefsFile() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.defsFile
}

// ProjectSetBPM sets the project tempo used by tracks without their own
func (e *Engine) ProjectSetBPM(bpm float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p := *e.project.Load()
	p.bpm = bpm
	e.project.Store(&p)
}

// ProjectSetBeatsPerBar sets the project meter
func (e *Engine) ProjectSetBeatsPerBar(beats int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p := *e.project.Load()
	p.beatsPerBar = beats
	e.project.Store(&p)
}

func (e *Engine) ProjectBPM() float64 { return e.project.Load().bpm }

func (e *Engine) ProjectBeatsPerBar() int { return e.project.Load().beatsPerBar }

// SetAudioFormat sets the host buffer format and prepares clip audio at its
// sample rate. An unsupported format is kept, but mixing does nothing until
// a valid one is set. Changing the format stops playback.
func (e *Engine) SetAudioFormat(sampleRate, channels, bytesPerSample int, float bool) error {
	f := audio.Format{
		SampleRate:     sampleRate,
		Channels:       channels,
		BytesPerSample: bytesPerSample,
		Float:          float,
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if !f.Supported() {
		e.format.Store(&f)
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
	}

	if f.SampleRate != e.preparedRate {
		e.preparedRate = f.SampleRate
		e.prepare()
	}
	if e.comp.enabled {
		e.compressor.Store(e.newCompressor(f))
	}
	if e.writeAudio.Load() {
		e.dump.Store(e.newDump(f))
	}
	e.format.Store(&f)

	e.logger.Debug("Audio format set", "format", f.String())
	return nil
}

// Format returns the current output format
func (e *Engine) Format() audio.Format {
	if f := e.format.Load(); f != nil {
		return *f
	}
	return audio.Format{}
}

// FormatSupported reports whether the current format can be mixed into
func (e *Engine) FormatSupported() bool {
	f := e.format.Load()
	return f != nil && f.Supported()
}

// prepare resamples every clip to the prepared rate. Callers hold mu.
func (e *Engine) prepare() {
	b := e.builder()

	set := e.tracks.Load()
	for _, list := range [][]*Track{set.music, set.sfx} {
		for _, t := range list {
			def := t.def.Load()
			clips := make([]*clipDef, 0, len(def.clips))
			for _, c := range def.clips {
				b.remember(c)
				nc, err := b.clip(c.cfg)
				if err != nil {
					e.logger.Error("Failed to prepare audio", "track", def.cfg.Name, "audio", c.cfg.Name, "err", err)
					nc = c
				}
				clips = append(clips, nc)
			}
			nd, err := newTrackDef(def.cfg, clips)
			if err != nil {
				e.logger.Error("Failed to prepare track", "track", def.cfg.Name, "err", err)
				continue
			}
			t.def.Store(nd)
		}
	}
}

func (e *Engine) builder() *clipBuilder {
	return &clipBuilder{
		files:  e.config.Files,
		layers: e.layers,
		rate:   e.preparedRate,
		cache:  make(map[string]*audio.PCM),
	}
}

// track builds a Track from its parsed definition
func (b *clipBuilder) track(cfg defs.Track) (*Track, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("track without a name")
	}

	clips := make([]*clipDef, 0, len(cfg.Audios))
	for _, a := range cfg.Audios {
		c, err := b.clip(a)
		if err != nil {
			return nil, fmt.Errorf("track %q: %w", cfg.Name, err)
		}
		clips = append(clips, c)
	}

	def, err := newTrackDef(cfg, clips)
	if err != nil {
		return nil, err
	}
	t := &Track{}
	t.def.Store(def)
	return t, nil
}

func (e *Engine) newCompressor(f audio.Format) *compressorBox {
	c := e.config.NewCompressor()
	c.SetAudioFormat(f.Channels, f.SampleRate)
	c.SetThreshold(e.comp.threshold)
	c.SetRatio(e.comp.ratio)
	return &compressorBox{c: c}
}

func (e *Engine) newDump(f audio.Format) *dumpBuffer {
	return &dumpBuffer{
		samples:  make([]int16, 0, e.config.DumpSeconds*f.SampleRate*f.Channels),
		channels: f.Channels,
		rate:     f.SampleRate,
	}
}

// EnableDynamicCompressor turns the output compressor on or off
func (e *Engine) EnableDynamicCompressor(enable bool, thresholdDB, ratio float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.comp.enabled = enable
	if !enable {
		e.compressor.Store(nil)
		return
	}

	e.comp.threshold = thresholdDB
	e.comp.ratio = ratio
	if f := e.format.Load(); f != nil && f.Supported() {
		e.compressor.Store(e.newCompressor(*f))
	}
}

// SetDebugClipping enables counting of clipped samples
func (e *Engine) SetDebugClipping(enable bool) {
	e.debugClipping.Store(enable)
}

// SetWriteAudioAtShutdown enables capturing the mixed output for a WAV dump
func (e *Engine) SetWriteAudioAtShutdown(enable bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.writeAudio.Store(enable)
	if !enable {
		e.dump.Store(nil)
		return
	}
	if f := e.format.Load(); f != nil && f.Supported() && e.dump.Load() == nil {
		e.dump.Store(e.newDump(*f))
	}
}

// SetVerbose logs the playing tracks on every Update
func (e *Engine) SetVerbose(enable bool) {
	e.verbose.Store(enable)
}

// ApplySettings applies the internal debug settings document
func (e *Engine) ApplySettings(s defs.Internal) {
	e.SetDebugClipping(s.DebugClipping)
	e.SetVerbose(s.Verbose)
	e.SetWriteAudioAtShutdown(s.WriteAudioAtShutdown)
}

// Shutdown writes the captured output when enabled and clears the engine.
// The output device must be closed before calling it.
func (e *Engine) Shutdown() error {
	var err error
	if d := e.dump.Swap(nil); d != nil && len(d.samples) > 0 {
		name := fmt.Sprintf("adaptive-%d.wav", e.config.Now().Unix())
		path := filepath.Join(e.config.DumpDir, name)
		if err = encode.WriteWAVFile(path, d.samples, d.channels, d.rate); err != nil {
			err = fmt.Errorf("failed to write audio dump: %w", err)
		} else {
			e.logger.Info("Wrote audio dump", "file", path, "duration", time.Duration(len(d.samples)/d.channels)*time.Second/time.Duration(d.rate))
		}
	}

	e.Clear()
	return err
}

// Project returns the loaded tracks as a definition tree
func (e *Engine) Project() *defs.Project {
	p := e.project.Load()
	set := e.tracks.Load()

	out := &defs.Project{BPM: p.bpm, BeatsPerBar: p.beatsPerBar}
	for _, list := range [][]*Track{set.music, set.sfx} {
		for _, t := range list {
			out.Tracks = append(out.Tracks, t.def.Load().defsTrack())
		}
	}
	return out
}

// SaveDefs encodes the loaded project as an XML definition document
func (e *Engine) SaveDefs() ([]byte, error) {
	var buf bytes.Buffer
	if err := defs.Encode(&buf, e.Project()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *Engine) trackCount() int {
	set := e.tracks.Load()
	return len(set.music) + len(set.sfx)
}
