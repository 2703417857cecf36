// ABOUTME: Bubbletea model for the adaptive player TUI
// ABOUTME: Polls engine status and maps keys to playback commands
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/Resonate-Protocol/adaptive-go/pkg/adaptive"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Engine is what the TUI needs from the music engine
type Engine interface {
	Status() adaptive.Status
	PlayingInfo() string
	TracksInfo() adaptive.TracksInfo
	PlayTrack(name string) error
	StopPlaying() error
	FinishTrack() error
	PauseToggle()
	SetVolume(vol int)
	AddTension(value int)
	SetMainLoopCondition(value int)
}

const (
	volumeStep  = 5
	tensionStep = 10
	refresh     = 250 * time.Millisecond
)

// Model represents the TUI state
type Model struct {
	engine Engine
	name   string
	port   int

	status  adaptive.Status
	info    string
	tracks  []string
	bpm     float64
	beats   int
	cursor  int
	mainOn  bool
	lastErr string

	quitting bool
	quitChan chan struct{}
	width    int
}

type tickMsg time.Time

// NewModel creates a model bound to engine
func NewModel(engine Engine, name string, port int, quitChan chan struct{}) Model {
	m := Model{
		engine:   engine,
		name:     name,
		port:     port,
		quitChan: quitChan,
	}
	m.refresh()
	m.reloadTracks()
	return m
}

// Init starts the refresh ticker
func (m Model) Init() tea.Cmd {
	return tickEvery()
}

func tickEvery() tea.Cmd {
	return tea.Tick(refresh, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tickMsg:
		m.refresh()
		return m, tickEvery()
	}
	return m, nil
}

func (m *Model) refresh() {
	m.status = m.engine.Status()
	m.info = m.engine.PlayingInfo()
}

// reloadTracks lists the music tracks; sfx are not selectable
func (m *Model) reloadTracks() {
	info := m.engine.TracksInfo()
	m.bpm = info.BPM
	m.beats = info.BeatsPerBar
	m.tracks = m.tracks[:0]
	for _, t := range info.Tracks {
		if !t.Sfx {
			m.tracks = append(m.tracks, t.Name)
		}
	}
	if m.cursor >= len(m.tracks) {
		m.cursor = 0
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var err error

	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		select {
		case m.quitChan <- struct{}{}:
		default:
		}
		return m, tea.Quit
	case "up", "+":
		m.engine.SetVolume(min(m.status.Volume+volumeStep, 100))
	case "down", "-":
		m.engine.SetVolume(max(m.status.Volume-volumeStep, 0))
	case " ", "space":
		m.engine.PauseToggle()
	case "t":
		m.engine.AddTension(tensionStep)
	case "m":
		m.mainOn = !m.mainOn
		value := 0
		if m.mainOn {
			value = 1
		}
		m.engine.SetMainLoopCondition(value)
	case "left", "k":
		if len(m.tracks) > 0 {
			m.cursor = (m.cursor + len(m.tracks) - 1) % len(m.tracks)
		}
	case "right", "j", "tab":
		if len(m.tracks) > 0 {
			m.cursor = (m.cursor + 1) % len(m.tracks)
		}
	case "enter":
		if len(m.tracks) > 0 {
			err = m.engine.PlayTrack(m.tracks[m.cursor])
		}
	case "s":
		err = m.engine.StopPlaying()
	case "f":
		err = m.engine.FinishTrack()
	case "r":
		m.reloadTracks()
	}

	m.lastErr = ""
	if err != nil {
		m.lastErr = err.Error()
	}
	m.refresh()
	return m, nil
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("220"))

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)

// View renders the TUI
func (m Model) View() string {
	if m.quitting {
		return "Stopping player...\n"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Adaptive Music Player"))
	b.WriteString("\n\n")

	field := func(label, value string) {
		b.WriteString(headerStyle.Render(label + ": "))
		b.WriteString(valueStyle.Render(value))
		b.WriteString("\n")
	}

	field("Player", fmt.Sprintf("%s (port %d)", m.name, m.port))
	field("Output", m.status.Format.String())
	field("Tempo", fmt.Sprintf("%.0f bpm, %d beats per bar", m.bpm, m.beats))
	b.WriteString("\n")

	state := m.status.State.String()
	if m.status.Paused {
		state += " (paused)"
	}
	field("State", state)
	field("Track", orDash(m.status.Track))
	field("Audio", orDash(m.status.Clip))
	if m.status.Tail != "" {
		field("Tail", m.status.Tail)
	}
	field("Bar", fmt.Sprintf("%d", m.status.Bars))
	field("Volume", fmt.Sprintf("[%s] %d%%", renderBar(m.status.Volume, 100, 20), m.status.Volume))
	field("Tension", fmt.Sprintf("[%s] %d", renderBar(m.status.Tension, 100, 20), m.status.Tension))
	field("Main loop", onOff(m.mainOn))
	field("Sfx voices", fmt.Sprintf("%d", m.status.Sfx))
	if m.status.Clipping > 0 {
		field("Clipping", fmt.Sprintf("%d events", m.status.Clipping))
	}
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render(fmt.Sprintf("Tracks (%d)", len(m.tracks))))
	b.WriteString("\n")
	if len(m.tracks) == 0 {
		b.WriteString(valueStyle.Render("  No music tracks loaded"))
		b.WriteString("\n")
	}
	for i, name := range m.tracks {
		line := "  " + name
		if name == m.status.Track {
			line += " ♪"
		}
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> " + line[2:]))
		} else {
			b.WriteString(valueStyle.Render(line))
		}
		b.WriteString("\n")
	}

	if m.lastErr != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(m.lastErr))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Faint(true).Render(
		"←/→ select  enter play  f finish  s stop  space pause  ↑/↓ volume  t tension  m main loop  q quit"))
	return b.String()
}

func renderBar(value, maxValue, width int) string {
	filled := 0
	if maxValue > 0 {
		filled = value * width / maxValue
	}
	filled = max(0, min(filled, width))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
