// ABOUTME: Host playback controls: tracks, sound effects, conditions and volume
// ABOUTME: Track changes are queued for the mixer; scalar state is stored atomically
package adaptive

import (
	"fmt"
	"math"
	"slices"
	"strings"
)

// PlayTrack starts the named music track, replacing the one playing
func (e *Engine) PlayTrack(name string) error {
	t := e.tracks.Load().find(name, false)
	if t == nil {
		return fmt.Errorf("track %q: %w", name, ErrNotFound)
	}
	return e.playTrack(t)
}

// PlayTrackID starts the music track at index id
func (e *Engine) PlayTrackID(id int) error {
	set := e.tracks.Load()
	if id < 0 || id >= len(set.music) {
		return fmt.Errorf("track id %d: %w", id, ErrNotFound)
	}
	return e.playTrack(set.music[id])
}

// PlayTrackWithStringRandom starts a random music track whose name contains s
func (e *Engine) PlayTrackWithStringRandom(s string) error {
	return e.playRandom(fmt.Sprintf("name containing %q", s), func(def *trackDef) bool {
		return strings.Contains(def.cfg.Name, s)
	})
}

// PlayTrackByGroupRandom starts a random music track in group
func (e *Engine) PlayTrackByGroupRandom(group string) error {
	return e.playRandom(fmt.Sprintf("group %q", group), func(def *trackDef) bool {
		return slices.Contains(def.cfg.Groups, group)
	})
}

// PlayTrackByGroupAndSubgroupRandom starts a random music track in group and subgroup
func (e *Engine) PlayTrackByGroupAndSubgroupRandom(group, subgroup string) error {
	return e.playRandom(fmt.Sprintf("group %q subgroup %q", group, subgroup), func(def *trackDef) bool {
		return slices.Contains(def.cfg.Groups, group) && slices.Contains(def.cfg.Subgroups, subgroup)
	})
}

func (e *Engine) playRandom(what string, match func(*trackDef) bool) error {
	var list []*Track
	for _, t := range e.tracks.Load().music {
		if match(t.def.Load()) {
			list = append(list, t)
		}
	}
	if len(list) == 0 {
		return fmt.Errorf("track with %s: %w", what, ErrNotFound)
	}

	e.mu.Lock()
	t := list[e.rng.IntN(len(list))]
	e.mu.Unlock()
	return e.playTrack(t)
}

func (e *Engine) playTrack(t *Track) error {
	if err := e.send(command{kind: cmdPlay, track: t}); err != nil {
		return err
	}

	for _, o := range e.tracks.Load().music {
		if o != t {
			o.active.Store(false)
		}
	}
	t.active.Store(true)

	if e.verbose.Load() {
		e.logger.Info("Play track", "track", t.Name())
	}
	return nil
}

// StopPlaying stops the music track immediately
func (e *Engine) StopPlaying() error {
	if err := e.send(command{kind: cmdStop}); err != nil {
		return err
	}
	for _, t := range e.tracks.Load().music {
		t.active.Store(false)
	}
	return nil
}

// FinishTrack plays the end clip at the next bar boundary, then stops
func (e *Engine) FinishTrack() error {
	return e.send(command{kind: cmdFinish})
}

// StopSfx silences every playing sound effect
func (e *Engine) StopSfx() error {
	return e.send(command{kind: cmdStopSfx})
}

// IsTrackPlaying reports whether the named music track is playing
func (e *Engine) IsTrackPlaying(name string) bool {
	t := e.tracks.Load().find(name, false)
	return t != nil && t.active.Load()
}

// IsTrackPlayingID reports whether the music track at index id is playing
func (e *Engine) IsTrackPlayingID(id int) bool {
	set := e.tracks.Load()
	if id < 0 || id >= len(set.music) {
		return false
	}
	return set.music[id].active.Load()
}

// IsPlaying reports whether any music track is playing
func (e *Engine) IsPlaying() bool {
	for _, t := range e.tracks.Load().music {
		if t.active.Load() {
			return true
		}
	}
	return false
}

// Pause stops mixing until Resume
func (e *Engine) Pause() { e.paused.Store(true) }

// Resume continues mixing after Pause
func (e *Engine) Resume() { e.paused.Store(false) }

// PauseToggle flips the paused state
func (e *Engine) PauseToggle() {
	for {
		old := e.paused.Load()
		if e.paused.CompareAndSwap(old, !old) {
			return
		}
	}
}

func (e *Engine) IsPaused() bool { return e.paused.Load() }

// PlaySfx plays the named sound effect at full volume, centered
func (e *Engine) PlaySfx(name string) error {
	return e.PlaySfxEx(name, 1, 0)
}

// PlaySfxEx plays the named sound effect with volume 0-1 and pan -1 (left) to 1 (right)
func (e *Engine) PlaySfxEx(name string, vol, pan float32) error {
	t, c := e.tracks.Load().sfxClip(name)
	if c == nil {
		return fmt.Errorf("sfx %q: %w", name, ErrNotFound)
	}

	if e.verbose.Load() {
		e.logger.Info("Play sfx", "sfx", name, "vol", vol, "pan", pan)
	}
	return e.send(command{kind: cmdSfx, clip: c, vol: vol * t.def.Load().volume, pan: pan})
}

// PlaySfx2D plays the named sound effect positioned at x,y on a width x height
// plane. Volume falls with the distance from the center and pan follows x.
func (e *Engine) PlaySfx2D(name string, x, y, width, height int) error {
	vol, pan := sfx2D(x, y, width, height)
	return e.PlaySfxEx(name, vol, pan)
}

func sfx2D(x, y, width, height int) (vol, pan float32) {
	posx := 0.0
	if width > 0 {
		posx = math.Min(math.Max(float64(x)/float64(width), 0), 1)
	}

	d1 := math.Hypot(float64(width+width/2), float64(height+height/2))
	d2 := math.Hypot(float64(x-width/2), float64(y-height/2))

	v := 0.0
	if d1 > 0 {
		v = 1 - d2/d1
	}
	v = math.Min(math.Max(v, 0), 1)
	return float32(v), float32(posx*2 - 1)
}

// SetCondition sets condition id to value
func (e *Engine) SetCondition(id, value int) {
	e.conds.Set(id, value)
}

// Condition returns the value of condition id
func (e *Engine) Condition(id int) int {
	return e.conds.Get(id)
}

// Conditions returns a copy of every set condition
func (e *Engine) Conditions() map[int]int {
	return e.conds.Snapshot()
}

// SetMainLoopCondition sets the reserved main loop condition
func (e *Engine) SetMainLoopCondition(value int) {
	e.conds.Set(CondMainLoop, value)
}

// AddTension raises tension, saturating at 100, and restarts its decay
func (e *Engine) AddTension(value int) {
	e.tension.add(value)
}

// SetTension sets tension directly and stops its decay
func (e *Engine) SetTension(value int) {
	e.conds.Set(CondTension, e.tension.set(value))
}

func (e *Engine) Tension() int { return e.tension.get() }

// SetVolume sets the master volume, clamped to 0-100
func (e *Engine) SetVolume(vol int) {
	e.volume.Store(int32(clamp(vol, 0, 100)))
}

// Volume returns the master volume 0-100
func (e *Engine) Volume() int {
	return int(e.volume.Load())
}

// SetLayerGain sets the gain of the named layer
func (e *Engine) SetLayerGain(name string, gain float32) error {
	l, ok := e.layers.Lookup(name)
	if !ok {
		return fmt.Errorf("layer %q: %w", name, ErrNotFound)
	}
	l.SetGain(gain)
	return nil
}

// SetLayerRandomChance sets the inclusion chance of the named layer
func (e *Engine) SetLayerRandomChance(name string, chance int) error {
	l, ok := e.layers.Lookup(name)
	if !ok {
		return fmt.Errorf("layer %q: %w", name, ErrNotFound)
	}
	l.SetRandomChance(chance)
	return nil
}

// LayerNew registers a layer, returning its id
func (e *Engine) LayerNew(name string) int {
	return e.layers.Get(name).ID()
}

// LayerList returns every layer name in registration order
func (e *Engine) LayerList() []string {
	return e.layers.Names()
}

// LayerRename renames a layer
func (e *Engine) LayerRename(name, newName string) error {
	return e.layers.Rename(name, newName)
}

// LayerID returns the id of the named layer, or -1
func (e *Engine) LayerID(name string) int {
	if l, ok := e.layers.Lookup(name); ok {
		return l.ID()
	}
	return -1
}

// LayerGain returns the gain of the named layer, or 0
func (e *Engine) LayerGain(name string) float32 {
	if l, ok := e.layers.Lookup(name); ok {
		return l.Gain()
	}
	return 0
}

// LayerRandomChance returns the inclusion chance of the named layer, or 0
func (e *Engine) LayerRandomChance(name string) int {
	if l, ok := e.layers.Lookup(name); ok {
		return l.RandomChance()
	}
	return 0
}
