// ABOUTME: Editing API for tracks, audios and their files
// ABOUTME: Every edit rebuilds the affected definition and republishes it for the mixer
package adaptive

import (
	"fmt"
	"slices"

	"github.com/Resonate-Protocol/adaptive-go/pkg/defs"
)

// lookup finds a track by name, music tracks first
func (e *Engine) lookup(name string) *Track {
	set := e.tracks.Load()
	if t := set.find(name, false); t != nil {
		return t
	}
	return set.find(name, true)
}

func (e *Engine) findClip(track, audio string) *clipDef {
	t := e.lookup(track)
	if t == nil {
		return nil
	}
	return t.def.Load().clip(audio)
}

// TrackNew adds an empty track
func (e *Engine) TrackNew(name string, sfx bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	set := e.tracks.Load()
	if name == "" || set.find(name, sfx) != nil {
		return fmt.Errorf("track %q already exists or has no name", name)
	}

	def, err := newTrackDef(defs.NewTrack(name, sfx), nil)
	if err != nil {
		return err
	}
	t := &Track{}
	t.def.Store(def)

	next := set.clone()
	if sfx {
		next.sfx = append(next.sfx, t)
	} else {
		next.music = append(next.music, t)
	}
	e.replaceTracks(next)
	return nil
}

// TrackRemove deletes a track, stopping it if it is playing
func (e *Engine) TrackRemove(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	t := e.lookup(name)
	if t == nil {
		return fmt.Errorf("track %q: %w", name, ErrNotFound)
	}

	next := e.tracks.Load().clone()
	next.music = slices.DeleteFunc(next.music, func(o *Track) bool { return o == t })
	next.sfx = slices.DeleteFunc(next.sfx, func(o *Track) bool { return o == t })
	e.replaceTracks(next)
	t.active.Store(false)
	return nil
}

// TrackRename changes a track's name
func (e *Engine) TrackRename(name, newName string) error {
	if t := e.lookup(name); t != nil && newName != name && e.tracks.Load().find(newName, t.IsSfx()) != nil {
		return fmt.Errorf("track %q already exists", newName)
	}
	return e.editTrack(name, func(cfg *defs.Track) { cfg.Name = newName })
}

func (e *Engine) TrackExists(name string) bool { return e.lookup(name) != nil }

func (e *Engine) TrackIsSfx(name string) bool {
	t := e.lookup(name)
	return t != nil && t.IsSfx()
}

func (e *Engine) TrackIsMusic(name string) bool {
	t := e.lookup(name)
	return t != nil && !t.IsSfx()
}

// TrackList returns the music track names followed by the sfx track names
func (e *Engine) TrackList() []string {
	set := e.tracks.Load()
	names := make([]string, 0, len(set.music)+len(set.sfx))
	for _, t := range set.music {
		names = append(names, t.Name())
	}
	for _, t := range set.sfx {
		names = append(names, t.Name())
	}
	return names
}

// TrackAudioList returns the audio names of a track in declaration order
func (e *Engine) TrackAudioList(name string) []string {
	t := e.lookup(name)
	if t == nil {
		return nil
	}
	def := t.def.Load()
	names := make([]string, len(def.clips))
	for i, c := range def.clips {
		names[i] = c.cfg.Name
	}
	return names
}

func (e *Engine) editTrack(name string, fn func(cfg *defs.Track)) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	t := e.lookup(name)
	if t == nil {
		return fmt.Errorf("track %q: %w", name, ErrNotFound)
	}

	def := t.def.Load()
	cfg := def.cfg
	cfg.Groups = slices.Clone(def.cfg.Groups)
	cfg.Subgroups = slices.Clone(def.cfg.Subgroups)
	fn(&cfg)

	nd, err := newTrackDef(cfg, def.clips)
	if err != nil {
		return err
	}
	t.def.Store(nd)
	return nil
}

func trackGet[T any](e *Engine, name string, get func(*defs.Track) T) T {
	var zero T
	t := e.lookup(name)
	if t == nil {
		return zero
	}
	return get(&t.def.Load().cfg)
}

func (e *Engine) TrackSetVolume(name string, vol float64) error {
	return e.editTrack(name, func(cfg *defs.Track) { cfg.Volume = vol })
}

func (e *Engine) TrackSetFadeIn(name string, ms int) error {
	return e.editTrack(name, func(cfg *defs.Track) { cfg.FadeIn = ms })
}

func (e *Engine) TrackSetFadeOut(name string, ms int) error {
	return e.editTrack(name, func(cfg *defs.Track) { cfg.FadeOut = ms })
}

func (e *Engine) TrackSetXFadeIn(name string, ms int) error {
	return e.editTrack(name, func(cfg *defs.Track) { cfg.XFadeIn = ms })
}

func (e *Engine) TrackSetXFadeOut(name string, ms int) error {
	return e.editTrack(name, func(cfg *defs.Track) { cfg.XFadeOut = ms })
}

func (e *Engine) TrackSetBPM(name string, bpm float64) error {
	return e.editTrack(name, func(cfg *defs.Track) { cfg.BPM = bpm })
}

func (e *Engine) TrackSetBeatsPerBar(name string, beats int) error {
	return e.editTrack(name, func(cfg *defs.Track) { cfg.BeatsPerBar = beats })
}

// TrackAddGroup tags a track with a group and optional subgroup
func (e *Engine) TrackAddGroup(name, group, subgroup string) error {
	return e.editTrack(name, func(cfg *defs.Track) {
		if group != "" && !slices.Contains(cfg.Groups, group) {
			cfg.Groups = append(cfg.Groups, group)
		}
		if subgroup != "" && !slices.Contains(cfg.Subgroups, subgroup) {
			cfg.Subgroups = append(cfg.Subgroups, subgroup)
		}
	})
}

func (e *Engine) TrackVolume(name string) float64 {
	return trackGet(e, name, func(c *defs.Track) float64 { return c.Volume })
}

func (e *Engine) TrackFadeIn(name string) int {
	return trackGet(e, name, func(c *defs.Track) int { return c.FadeIn })
}

func (e *Engine) TrackFadeOut(name string) int {
	return trackGet(e, name, func(c *defs.Track) int { return c.FadeOut })
}

func (e *Engine) TrackXFadeIn(name string) int {
	return trackGet(e, name, func(c *defs.Track) int { return c.XFadeIn })
}

func (e *Engine) TrackXFadeOut(name string) int {
	return trackGet(e, name, func(c *defs.Track) int { return c.XFadeOut })
}

// AudioNew adds an audio without files to a track. An empty name is replaced
// by a generated one.
func (e *Engine) AudioNew(track, name string, kind ClipKind) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	t := e.lookup(track)
	if t == nil {
		return fmt.Errorf("track %q: %w", track, ErrNotFound)
	}
	def := t.def.Load()
	if name == "" || def.clip(name) != nil {
		name = fmt.Sprintf("audio%d", len(def.clips))
	}

	c, err := e.builder().clip(defs.NewAudio(name, int(kind)))
	if err != nil {
		return err
	}
	nd, err := newTrackDef(def.cfg, append(slices.Clone(def.clips), c))
	if err != nil {
		return err
	}
	t.def.Store(nd)
	return nil
}

// AudioRemove deletes an audio from a track
func (e *Engine) AudioRemove(track, audio string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	t := e.lookup(track)
	if t == nil {
		return fmt.Errorf("track %q: %w", track, ErrNotFound)
	}
	def := t.def.Load()
	if def.clip(audio) == nil {
		return fmt.Errorf("audio %q: %w", audio, ErrNotFound)
	}

	clips := slices.DeleteFunc(slices.Clone(def.clips), func(c *clipDef) bool { return c.cfg.Name == audio })
	nd, err := newTrackDef(def.cfg, clips)
	if err != nil {
		return err
	}
	t.def.Store(nd)
	return nil
}

func (e *Engine) AudioExists(track, audio string) bool {
	return e.findClip(track, audio) != nil
}

// editAudio rebuilds one clip after fn changes its definition
func (e *Engine) editAudio(track, audio string, fn func(a *defs.Audio) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	t := e.lookup(track)
	if t == nil {
		return fmt.Errorf("track %q: %w", track, ErrNotFound)
	}
	def := t.def.Load()
	i := slices.IndexFunc(def.clips, func(c *clipDef) bool { return c.cfg.Name == audio })
	if i < 0 {
		return fmt.Errorf("audio %q: %w", audio, ErrNotFound)
	}

	old := def.clips[i]
	cfg := old.cfg
	cfg.Files = slices.Clone(old.cfg.Files)
	if old.cfg.Cond != nil {
		cond := *old.cfg.Cond
		cfg.Cond = &cond
	}
	if err := fn(&cfg); err != nil {
		return err
	}

	b := e.builder()
	b.remember(old)
	c, err := b.clip(cfg)
	if err != nil {
		return err
	}

	clips := slices.Clone(def.clips)
	clips[i] = c
	nd, err := newTrackDef(def.cfg, clips)
	if err != nil {
		return err
	}
	t.def.Store(nd)
	return nil
}

func audioGet[T any](e *Engine, track, audio string, get func(*defs.Audio) T) T {
	var zero T
	c := e.findClip(track, audio)
	if c == nil {
		return zero
	}
	return get(&c.cfg)
}

func condField(a *defs.Audio) *defs.Cond {
	if a.Cond == nil {
		a.Cond = &defs.Cond{}
	}
	return a.Cond
}

func (e *Engine) AudioSetName(track, audio, name string) error {
	return e.editAudio(track, audio, func(a *defs.Audio) error {
		if name == "" {
			return fmt.Errorf("audio name cannot be empty")
		}
		a.Name = name
		return nil
	})
}

func (e *Engine) setAudio(track, audio string, fn func(a *defs.Audio)) error {
	return e.editAudio(track, audio, func(a *defs.Audio) error {
		fn(a)
		return nil
	})
}

func (e *Engine) AudioSetVolume(track, audio string, vol float64) error {
	return e.setAudio(track, audio, func(a *defs.Audio) { a.Volume = vol })
}

func (e *Engine) AudioSetBPM(track, audio string, bpm float64) error {
	return e.setAudio(track, audio, func(a *defs.Audio) { a.BPM = bpm })
}

func (e *Engine) AudioSetBeatsPerBar(track, audio string, beats int) error {
	return e.setAudio(track, audio, func(a *defs.Audio) { a.BeatsPerBar = beats })
}

func (e *Engine) AudioSetBars(track, audio string, bars int) error {
	return e.setAudio(track, audio, func(a *defs.Audio) { a.Bars = bars })
}

func (e *Engine) AudioSetMinMovementBars(track, audio string, bars int) error {
	return e.setAudio(track, audio, func(a *defs.Audio) { a.MinMovementBars = bars })
}

func (e *Engine) AudioSetRandomChance(track, audio string, chance int) error {
	return e.setAudio(track, audio, func(a *defs.Audio) { a.RandomChance = chance })
}

func (e *Engine) AudioSetPlayOrder(track, audio string, order int) error {
	return e.setAudio(track, audio, func(a *defs.Audio) { a.PlayOrder = order })
}

func (e *Engine) AudioSetFadeIn(track, audio string, ms int) error {
	return e.setAudio(track, audio, func(a *defs.Audio) { a.FadeIn = ms })
}

func (e *Engine) AudioSetFadeOut(track, audio string, ms int) error {
	return e.setAudio(track, audio, func(a *defs.Audio) { a.FadeOut = ms })
}

func (e *Engine) AudioSetXFadeIn(track, audio string, ms int) error {
	return e.setAudio(track, audio, func(a *defs.Audio) { a.XFadeIn = ms })
}

func (e *Engine) AudioSetXFadeOut(track, audio string, ms int) error {
	return e.setAudio(track, audio, func(a *defs.Audio) { a.XFadeOut = ms })
}

func (e *Engine) AudioSetCondID(track, audio string, id int) error {
	return e.setAudio(track, audio, func(a *defs.Audio) { condField(a).ID = id })
}

func (e *Engine) AudioSetCondType(track, audio string, typ CondType) error {
	return e.setAudio(track, audio, func(a *defs.Audio) { condField(a).Type = int(typ) })
}

func (e *Engine) AudioSetCondValue(track, audio string, value int) error {
	return e.setAudio(track, audio, func(a *defs.Audio) { condField(a).Value = value })
}

func (e *Engine) AudioSetCondValue2(track, audio string, value int) error {
	return e.setAudio(track, audio, func(a *defs.Audio) { condField(a).Value2 = value })
}

// AudioClearCondition removes the trigger so the audio is always eligible
func (e *Engine) AudioClearCondition(track, audio string) error {
	return e.setAudio(track, audio, func(a *defs.Audio) { a.Cond = nil })
}

func (e *Engine) AudioKind(track, audio string) ClipKind {
	return audioGet(e, track, audio, func(a *defs.Audio) ClipKind { return ClipKind(a.Type) })
}

func (e *Engine) AudioVolume(track, audio string) float64 {
	return audioGet(e, track, audio, func(a *defs.Audio) float64 { return a.Volume })
}

func (e *Engine) AudioBPM(track, audio string) float64 {
	return audioGet(e, track, audio, func(a *defs.Audio) float64 { return a.BPM })
}

func (e *Engine) AudioBeatsPerBar(track, audio string) int {
	return audioGet(e, track, audio, func(a *defs.Audio) int { return a.BeatsPerBar })
}

func (e *Engine) AudioBars(track, audio string) int {
	return audioGet(e, track, audio, func(a *defs.Audio) int { return a.Bars })
}

func (e *Engine) AudioMinMovementBars(track, audio string) int {
	return audioGet(e, track, audio, func(a *defs.Audio) int { return a.MinMovementBars })
}

func (e *Engine) AudioRandomChance(track, audio string) int {
	return audioGet(e, track, audio, func(a *defs.Audio) int { return a.RandomChance })
}

func (e *Engine) AudioPlayOrder(track, audio string) int {
	return audioGet(e, track, audio, func(a *defs.Audio) int { return a.PlayOrder })
}

func (e *Engine) AudioFadeIn(track, audio string) int {
	return audioGet(e, track, audio, func(a *defs.Audio) int { return a.FadeIn })
}

func (e *Engine) AudioFadeOut(track, audio string) int {
	return audioGet(e, track, audio, func(a *defs.Audio) int { return a.FadeOut })
}

func (e *Engine) AudioXFadeIn(track, audio string) int {
	return audioGet(e, track, audio, func(a *defs.Audio) int { return a.XFadeIn })
}

func (e *Engine) AudioXFadeOut(track, audio string) int {
	return audioGet(e, track, audio, func(a *defs.Audio) int { return a.XFadeOut })
}

// AudioCondition returns the audio trigger, or nil when it has none
func (e *Engine) AudioCondition(track, audio string) *Trigger {
	c := e.findClip(track, audio)
	if c == nil || c.trigger == nil {
		return nil
	}
	t := *c.trigger
	return &t
}

func (e *Engine) AudioCondID(track, audio string) int {
	return audioGet(e, track, audio, func(a *defs.Audio) int {
		if a.Cond == nil {
			return 0
		}
		return a.Cond.ID
	})
}

func (e *Engine) AudioCondType(track, audio string) CondType {
	return audioGet(e, track, audio, func(a *defs.Audio) CondType {
		if a.Cond == nil {
			return 0
		}
		return CondType(a.Cond.Type)
	})
}

func (e *Engine) AudioCondValue(track, audio string) int {
	return audioGet(e, track, audio, func(a *defs.Audio) int {
		if a.Cond == nil {
			return 0
		}
		return a.Cond.Value
	})
}

func (e *Engine) AudioCondValue2(track, audio string) int {
	return audioGet(e, track, audio, func(a *defs.Audio) int {
		if a.Cond == nil {
			return 0
		}
		return a.Cond.Value2
	})
}

// AudioAddFile appends a file to an audio, decoding it through the file loader
func (e *Engine) AudioAddFile(track, audio, filename, layer string) error {
	return e.editAudio(track, audio, func(a *defs.Audio) error {
		if slices.ContainsFunc(a.Files, func(f defs.File) bool { return f.Filename == filename }) {
			return fmt.Errorf("file %q already in audio %q", filename, audio)
		}
		a.Files = append(a.Files, defs.File{Filename: filename, Layer: layer, RandomChance: defs.InheritChance})
		return nil
	})
}

// AudioFileList returns the file names of an audio
func (e *Engine) AudioFileList(track, audio string) []string {
	return audioGet(e, track, audio, func(a *defs.Audio) []string {
		names := make([]string, len(a.Files))
		for i, f := range a.Files {
			names[i] = f.Filename
		}
		return names
	})
}

func (e *Engine) editFile(track, audio, filename string, fn func(f *defs.File)) error {
	return e.editAudio(track, audio, func(a *defs.Audio) error {
		i := slices.IndexFunc(a.Files, func(f defs.File) bool { return f.Filename == filename })
		if i < 0 {
			return fmt.Errorf("file %q: %w", filename, ErrNotFound)
		}
		fn(&a.Files[i])
		return nil
	})
}

func (e *Engine) AudioFileRemove(track, audio, filename string) error {
	return e.editAudio(track, audio, func(a *defs.Audio) error {
		n := len(a.Files)
		a.Files = slices.DeleteFunc(a.Files, func(f defs.File) bool { return f.Filename == filename })
		if len(a.Files) == n {
			return fmt.Errorf("file %q: %w", filename, ErrNotFound)
		}
		return nil
	})
}

func (e *Engine) AudioFileSetLayer(track, audio, filename, layer string) error {
	return e.editFile(track, audio, filename, func(f *defs.File) { f.Layer = layer })
}

// AudioFileSetRandomChance sets a per-file chance; -1 uses the layer's
func (e *Engine) AudioFileSetRandomChance(track, audio, filename string, chance int) error {
	return e.editFile(track, audio, filename, func(f *defs.File) { f.RandomChance = chance })
}

func (e *Engine) fileGet(track, audio, filename string) (defs.File, bool) {
	c := e.findClip(track, audio)
	if c == nil {
		return defs.File{}, false
	}
	for _, f := range c.cfg.Files {
		if f.Filename == filename {
			return f, true
		}
	}
	return defs.File{}, false
}

func (e *Engine) AudioFileLayer(track, audio, filename string) string {
	f, _ := e.fileGet(track, audio, filename)
	return f.Layer
}

// AudioFileRandomChance returns the file's own chance, -1 when it inherits
// from its layer, or 0 when the file is unknown
func (e *Engine) AudioFileRandomChance(track, audio, filename string) int {
	f, ok := e.fileGet(track, audio, filename)
	if !ok {
		return 0
	}
	return f.RandomChance
}
