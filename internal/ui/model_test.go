// ABOUTME: Tests for the player TUI model
// ABOUTME: Key handling, track selection and rendering against a fake engine
package ui

import (
	"errors"
	"strings"
	"testing"

	"github.com/Resonate-Protocol/adaptive-go/pkg/adaptive"
	tea "github.com/charmbracelet/bubbletea"
)

type fakeEngine struct {
	status  adaptive.Status
	played  []string
	stopped int
	finish  int
	mainCnd []int
	playErr error
}

func (f *fakeEngine) Status() adaptive.Status { return f.status }
func (f *fakeEngine) PlayingInfo() string { return "" }
func (f *fakeEngine) TracksInfo() adaptive.TracksInfo {
	return adaptive.TracksInfo{
		BPM:         120,
		BeatsPerBar: 4,
		Tracks: []adaptive.TrackInfo{
			{ID: 0, Name: "forest"},
			{ID: 1, Name: "cave"},
			{ID: -1, Name: "click", Sfx: true},
		},
	}
}
func (f *fakeEngine) PlayTrack(name string) error {
	if f.playErr != nil {
		return f.playErr
	}
	f.played = append(f.played, name)
	f.status.Track = name
	return nil
}
func (f *fakeEngine) StopPlaying() error { f.stopped++; return nil }
func (f *fakeEngine) FinishTrack() error { f.finish++; return nil }
func (f *fakeEngine) PauseToggle() { f.status.Paused = !f.status.Paused }
func (f *fakeEngine) SetVolume(vol int) { f.status.Volume = vol }
func (f *fakeEngine) AddTension(value int) { f.status.Tension += value }
func (f *fakeEngine) SetMainLoopCondition(v int) { f.mainCnd = append(f.mainCnd, v) }

func key(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m Model, keys ...string) Model {
	for _, k := range keys {
		next, _ := m.Update(key(k))
		m = next.(Model)
	}
	return m
}

func TestNewModelListsMusicTracks(t *testing.T) {
	m := NewModel(&fakeEngine{}, "den", 8930, nil)
	if len(m.tracks) != 2 || m.tracks[0] != "forest" || m.tracks[1] != "cave" {
		t.Errorf("tracks = %v, want [forest cave]", m.tracks)
	}
	if m.bpm != 120 || m.beats != 4 {
		t.Errorf("tempo = %v/%d", m.bpm, m.beats)
	}
}

func TestVolumeKeysClamp(t *testing.T) {
	tests := []struct {
		start int
		keys  []string
		want  int
	}{
		{50, []string{"up"}, 55},
		{98, []string{"up"}, 100},
		{100, []string{"up", "up"}, 100},
		{50, []string{"down", "down"}, 40},
		{3, []string{"down"}, 0},
	}

	for _, tt := range tests {
		f := &fakeEngine{status: adaptive.Status{Volume: tt.start}}
		press(NewModel(f, "den", 0, nil), tt.keys...)
		if f.status.Volume != tt.want {
			t.Errorf("volume %d after %v = %d, want %d", tt.start, tt.keys, f.status.Volume, tt.want)
		}
	}
}

func TestSelectionAndPlayback(t *testing.T) {
	f := &fakeEngine{}
	m := NewModel(f, "den", 0, nil)

	m = press(m, "right", "enter")
	if len(f.played) != 1 || f.played[0] != "cave" {
		t.Fatalf("played = %v, want [cave]", f.played)
	}
	if m.status.Track != "cave" {
		t.Errorf("status not refreshed after play: %+v", m.status)
	}

	// Wraps in both directions
	m = press(m, "right", "enter", "left", "left", "left", "enter")
	if got := strings.Join(f.played, ","); got != "cave,forest,cave" {
		t.Errorf("played = %s", got)
	}

	press(m, "f", "s")
	if f.finish != 1 || f.stopped != 1 {
		t.Errorf("finish=%d stopped=%d", f.finish, f.stopped)
	}
}

func TestPlayErrorIsShown(t *testing.T) {
	f := &fakeEngine{playErr: errors.New("track \"forest\": not found")}
	m := press(NewModel(f, "den", 0, nil), "enter")
	if !strings.Contains(m.View(), "not found") {
		t.Error("error not rendered")
	}

	f.playErr = nil
	m = press(m, "enter")
	if m.lastErr != "" {
		t.Errorf("error not cleared: %q", m.lastErr)
	}
}

func TestPauseTensionAndMainLoop(t *testing.T) {
	f := &fakeEngine{}
	m := press(NewModel(f, "den", 0, nil), " ", "t", "t", "m", "m")

	if !f.status.Paused {
		t.Error("space should toggle pause")
	}
	if f.status.Tension != 2*tensionStep {
		t.Errorf("tension = %d", f.status.Tension)
	}
	if len(f.mainCnd) != 2 || f.mainCnd[0] != 1 || f.mainCnd[1] != 0 {
		t.Errorf("main loop condition = %v, want [1 0]", f.mainCnd)
	}
	if !strings.Contains(m.View(), "paused") {
		t.Error("paused state not rendered")
	}
}

func TestQuitSignals(t *testing.T) {
	quit := make(chan struct{}, 1)
	m := NewModel(&fakeEngine{}, "den", 0, quit)

	next, cmd := m.Update(key("q"))
	if cmd == nil {
		t.Fatal("expected tea.Quit command")
	}
	select {
	case <-quit:
	default:
		t.Error("quit channel not signalled")
	}
	if !next.(Model).quitting {
		t.Error("model should be quitting")
	}
}

func TestTickRefreshesStatus(t *testing.T) {
	f := &fakeEngine{}
	m := NewModel(f, "den", 0, nil)

	f.status = adaptive.Status{State: adaptive.PlayingBody, Track: "forest", Clip: "main", Bars: 3}
	next, cmd := m.Update(tickMsg{})
	if cmd == nil {
		t.Error("tick should schedule the next tick")
	}
	view := next.(Model).View()
	for _, want := range []string{"forest", "main", "playing"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestRenderBar(t *testing.T) {
	tests := []struct {
		value int
		want  string
	}{
		{0, "░░░░"},
		{50, "██░░"},
		{100, "████"},
		{150, "████"},
		{-10, "░░░░"},
	}
	for _, tt := range tests {
		if got := renderBar(tt.value, 100, 4); got != tt.want {
			t.Errorf("renderBar(%d) = %q, want %q", tt.value, got, tt.want)
		}
	}
}
