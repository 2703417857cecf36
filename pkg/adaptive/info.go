// ABOUTME: Diagnostics and the periodic host update
// ABOUTME: Playing info, track listings, engine status and tension ticks
package adaptive

import (
	"fmt"
	"strings"
	"time"

	"github.com/Resonate-Protocol/adaptive-go/pkg/audio"
)

// Status is a snapshot of the engine for displays and remote clients
type Status struct {
	State    State
	Track    string
	Clip     string
	Tail     string
	Bars     int
	Sfx      int
	Tension  int
	Volume   int
	Paused   bool
	Format   audio.Format
	Clipping int64
}

// TracksInfo describes the loaded project
type TracksInfo struct {
	BPM         float64
	BeatsPerBar int
	Tracks      []TrackInfo
}

// TrackInfo describes one track
type TrackInfo struct {
	ID        int // index among music tracks, -1 for sfx
	Name      string
	Sfx       bool
	Playing   bool
	Volume    float64
	Groups    []string
	Subgroups []string
	Audios    []AudioInfo
}

// AudioInfo describes one clip
type AudioInfo struct {
	Name     string
	Kind     ClipKind
	Bars     int
	Duration time.Duration
	Files    []string
	Layers   []string
	Trigger  *Trigger
}

// Status returns the current engine state as last published by the mixer
func (e *Engine) Status() Status {
	s := Status{
		State:    State(e.status.state.Load()),
		Bars:     int(e.status.bars.Load()),
		Sfx:      int(e.status.sfx.Load()),
		Tension:  e.Tension(),
		Volume:   e.Volume(),
		Paused:   e.IsPaused(),
		Format:   e.Format(),
		Clipping: e.ClippingEvents(),
	}
	if p := e.status.track.Load(); p != nil {
		s.Track = *p
	}
	if p := e.status.main.Load(); p != nil {
		s.Clip = *p
	}
	if p := e.status.tail.Load(); p != nil {
		s.Tail = *p
	}
	return s
}

// BarsElapsed returns the bar boundaries passed since the body of the
// playing track started
func (e *Engine) BarsElapsed() int {
	return int(e.status.bars.Load())
}

// PlayingInfo describes what is playing, for logs and debug overlays
func (e *Engine) PlayingInfo() string {
	s := e.Status()

	var b strings.Builder
	if s.State != Stopped && s.Track != "" {
		fmt.Fprintf(&b, "%s: %s", s.Track, s.State)
		if s.Clip != "" {
			fmt.Fprintf(&b, " audio=%s", s.Clip)
		}
		if s.Tail != "" {
			fmt.Fprintf(&b, " tail=%s", s.Tail)
		}
		fmt.Fprintf(&b, " bar=%d", s.Bars)
	}
	if s.Tension > 0 {
		fmt.Fprintf(&b, " tension=%d", s.Tension)
	}
	return b.String()
}

// TracksInfo lists the loaded tracks and their clips
func (e *Engine) TracksInfo() TracksInfo {
	p := e.project.Load()
	set := e.tracks.Load()

	info := TracksInfo{BPM: p.bpm, BeatsPerBar: p.beatsPerBar}
	for i, t := range set.music {
		info.Tracks = append(info.Tracks, trackInfo(t, i))
	}
	for _, t := range set.sfx {
		info.Tracks = append(info.Tracks, trackInfo(t, -1))
	}
	return info
}

func trackInfo(t *Track, id int) TrackInfo {
	def := t.def.Load()
	ti := TrackInfo{
		ID:        id,
		Name:      def.cfg.Name,
		Sfx:       def.cfg.Sfx,
		Playing:   t.active.Load(),
		Volume:    def.cfg.Volume,
		Groups:    append([]string(nil), def.cfg.Groups...),
		Subgroups: append([]string(nil), def.cfg.Subgroups...),
	}

	for _, c := range def.clips {
		ai := AudioInfo{
			Name: c.cfg.Name,
			Kind: c.kind,
			Bars: c.cfg.Bars,
		}
		for _, f := range c.files {
			ai.Files = append(ai.Files, f.cfg.Filename)
			ai.Layers = append(ai.Layers, f.cfg.Layer)
			if d := f.pcm.Duration(); d > ai.Duration {
				ai.Duration = d
			}
		}
		if c.trigger != nil {
			tr := *c.trigger
			ai.Trigger = &tr
		}
		ti.Audios = append(ti.Audios, ai)
	}
	return ti
}

// Update runs the once-per-second housekeeping: tension decay, clipping
// reports and verbose logging. Call it often from the host loop; extra calls
// within the same second return immediately.
func (e *Engine) Update() {
	now := e.config.Now()

	e.mu.Lock()
	if !e.lastUpdate.IsZero() && now.Sub(e.lastUpdate) < time.Second {
		e.mu.Unlock()
		return
	}
	e.lastUpdate = now

	total := e.clipping.Load()
	newClips := total - e.lastClipLog
	e.lastClipLog = total
	e.mu.Unlock()

	if e.verbose.Load() {
		if info := e.PlayingInfo(); info != "" {
			e.logger.Info("Playing", "info", info)
		}
	}
	if newClips > 0 {
		e.logger.Warn("Clipping detected", "samples", newClips, "total", total)
	}

	e.tension.tick(now, e.conds)
}
