// ABOUTME: Immutable clip and track definitions used by the mixer
// ABOUTME: Built from the parsed definition tree plus decoded file data
package adaptive

import (
	"fmt"
	"sync/atomic"

	"github.com/Resonate-Protocol/adaptive-go/pkg/audio"
	"github.com/Resonate-Protocol/adaptive-go/pkg/audio/resample"
	"github.com/Resonate-Protocol/adaptive-go/pkg/defs"
)

// ClipKind is the role of a clip within its track
type ClipKind int

const (
	ClipIntro ClipKind = defs.AudioIntro
	ClipLoop  ClipKind = defs.AudioLoop
	ClipCond  ClipKind = defs.AudioCond
	ClipEnd   ClipKind = defs.AudioEnd
)

func (k ClipKind) String() string {
	switch k {
	case ClipIntro:
		return "intro"
	case ClipLoop:
		return "loop"
	case ClipCond:
		return "cond"
	case ClipEnd:
		return "end"
	}
	return "unknown"
}

// maxClipsPerKind caps loop and conditional clips per track
const maxClipsPerKind = 256

// maxFilesPerClip bounds the per-voice file enable mask
const maxFilesPerClip = 64

type fileDef struct {
	cfg   defs.File
	layer *Layer
	src   *audio.PCM // as decoded
	pcm   *audio.PCM // at the output rate
}

// chance returns the inclusion chance, inheriting from the layer
func (f *fileDef) chance() int {
	if f.cfg.RandomChance != defs.InheritChance {
		return f.cfg.RandomChance
	}
	if f.layer != nil {
		return f.layer.RandomChance()
	}
	return 100
}

func (f *fileDef) gain() float32 {
	if f.layer != nil {
		return f.layer.Gain()
	}
	return 1
}

type clipDef struct {
	cfg     defs.Audio
	kind    ClipKind
	trigger *Trigger
	files   []*fileDef
	volume  float32
	frames  int // longest prepared file
}

type trackDef struct {
	cfg    defs.Track // Audios is always nil, see clips
	clips  []*clipDef
	intro  *clipDef
	end    *clipDef
	loops  []*clipDef
	conds  []*clipDef
	volume float32
}

func (t *trackDef) clip(name string) *clipDef {
	for _, c := range t.clips {
		if c.cfg.Name == name {
			return c
		}
	}
	return nil
}

// loop returns the named loop clip, or nil once it has been removed
func (t *trackDef) loop(name string) *clipDef {
	for _, c := range t.loops {
		if c.cfg.Name == name {
			return c
		}
	}
	return nil
}

func (t *trackDef) cond(name string) *clipDef {
	for _, c := range t.conds {
		if c.cfg.Name == name {
			return c
		}
	}
	return nil
}

// Track is a music or sfx track. Its definition is replaced as a whole on edits.
type Track struct {
	def    atomic.Pointer[trackDef]
	active atomic.Bool
}

// Name returns the track name
func (t *Track) Name() string { return t.def.Load().cfg.Name }

// IsSfx reports whether the track holds sound effects
func (t *Track) IsSfx() bool { return t.def.Load().cfg.Sfx }

type trackSet struct {
	music []*Track
	sfx   []*Track
}

func (s *trackSet) find(name string, sfx bool) *Track {
	list := s.music
	if sfx {
		list = s.sfx
	}
	for _, t := range list {
		if t.Name() == name {
			return t
		}
	}
	return nil
}

func (s *trackSet) contains(t *Track) bool {
	for _, m := range s.music {
		if m == t {
			return true
		}
	}
	for _, m := range s.sfx {
		if m == t {
			return true
		}
	}
	return false
}

// sfxClip looks a clip up by name across all sfx tracks
func (s *trackSet) sfxClip(name string) (*Track, *clipDef) {
	for _, t := range s.sfx {
		if c := t.def.Load().clip(name); c != nil {
			return t, c
		}
	}
	return nil, nil
}

func (s *trackSet) clone() *trackSet {
	return &trackSet{
		music: append([]*Track(nil), s.music...),
		sfx:   append([]*Track(nil), s.sfx...),
	}
}

// clipBuilder resolves files for clips, decoding each file name once
type clipBuilder struct {
	files  FileLoader
	layers *Layers
	rate   int
	cache  map[string]*audio.PCM
}

func (b *clipBuilder) remember(c *clipDef) {
	if c == nil {
		return
	}
	for _, f := range c.files {
		if f.src != nil {
			b.cache[f.cfg.Filename] = f.src
		}
	}
}

func (b *clipBuilder) source(name string) (*audio.PCM, error) {
	if pcm, ok := b.cache[name]; ok {
		return pcm, nil
	}
	if b.files == nil {
		return nil, fmt.Errorf("no file loader configured for %q", name)
	}
	pcm, err := b.files.Load(name)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", name, err)
	}
	if pcm.Channels < 1 || pcm.Channels > 2 {
		return nil, fmt.Errorf("%s: unsupported channel count %d", name, pcm.Channels)
	}
	b.cache[name] = pcm
	return pcm, nil
}

func (b *clipBuilder) clip(cfg defs.Audio) (*clipDef, error) {
	kind := ClipKind(cfg.Type)
	if kind < ClipIntro || kind > ClipEnd {
		return nil, fmt.Errorf("audio %q: invalid type %d", cfg.Name, cfg.Type)
	}
	if len(cfg.Files) > maxFilesPerClip {
		return nil, fmt.Errorf("audio %q: too many files (%d, max %d)", cfg.Name, len(cfg.Files), maxFilesPerClip)
	}

	c := &clipDef{
		cfg:    cfg,
		kind:   kind,
		volume: float32(cfg.Volume),
	}
	c.cfg.Files = append([]defs.File(nil), cfg.Files...)

	if cfg.Cond != nil {
		c.trigger = &Trigger{
			ID:     cfg.Cond.ID,
			Type:   CondType(cfg.Cond.Type),
			Value:  cfg.Cond.Value,
			Value2: cfg.Cond.Value2,
		}
		cond := *cfg.Cond
		c.cfg.Cond = &cond
	}

	for _, fc := range c.cfg.Files {
		src, err := b.source(fc.Filename)
		if err != nil {
			return nil, fmt.Errorf("audio %q: %w", cfg.Name, err)
		}

		f := &fileDef{cfg: fc, src: src, pcm: src}
		if fc.Layer != "" {
			f.layer = b.layers.Get(fc.Layer)
		}
		if b.rate > 0 {
			f.pcm = resample.Convert(src, b.rate)
		}
		if n := f.pcm.Frames(); n > c.frames {
			c.frames = n
		}
		c.files = append(c.files, f)
	}
	return c, nil
}

// newTrackDef assembles a track definition from already built clips
func newTrackDef(cfg defs.Track, clips []*clipDef) (*trackDef, error) {
	t := &trackDef{cfg: cfg, clips: clips, volume: float32(cfg.Volume)}
	t.cfg.Audios = nil
	t.cfg.Groups = append([]string(nil), cfg.Groups...)
	t.cfg.Subgroups = append([]string(nil), cfg.Subgroups...)

	seen := make(map[string]bool, len(clips))
	for _, c := range clips {
		if seen[c.cfg.Name] {
			return nil, fmt.Errorf("track %q: duplicate audio %q", cfg.Name, c.cfg.Name)
		}
		seen[c.cfg.Name] = true

		if cfg.Sfx {
			continue
		}
		switch c.kind {
		case ClipIntro:
			t.intro = c
		case ClipEnd:
			t.end = c
		case ClipLoop:
			t.loops = append(t.loops, c)
		case ClipCond:
			t.conds = append(t.conds, c)
		}
	}

	if len(t.loops) > maxClipsPerKind || len(t.conds) > maxClipsPerKind {
		return nil, fmt.Errorf("track %q: more than %d loop or conditional audios", cfg.Name, maxClipsPerKind)
	}
	return t, nil
}

// defsTrack converts a track definition back to the parsed form
func (t *trackDef) defsTrack() defs.Track {
	out := t.cfg
	out.Groups = append([]string(nil), t.cfg.Groups...)
	out.Subgroups = append([]string(nil), t.cfg.Subgroups...)
	out.Audios = make([]defs.Audio, len(t.clips))
	for i, c := range t.clips {
		out.Audios[i] = c.cfg
		out.Audios[i].Files = append([]defs.File(nil), c.cfg.Files...)
		if c.cfg.Cond != nil {
			cond := *c.cfg.Cond
			out.Audios[i].Cond = &cond
		}
	}
	return out
}
