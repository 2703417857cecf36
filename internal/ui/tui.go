// ABOUTME: TUI lifecycle for the adaptive player
// ABOUTME: Wraps the bubbletea program and reports when the user quits
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// TUI runs the player display
type TUI struct {
	program  *tea.Program
	quitChan chan struct{}
}

// New creates a TUI for engine
func New(engine Engine, name string, port int) *TUI {
	t := &TUI{quitChan: make(chan struct{}, 1)}
	t.program = tea.NewProgram(NewModel(engine, name, port, t.quitChan), tea.WithAltScreen())
	return t
}

// Run blocks until the program exits
func (t *TUI) Run() error {
	_, err := t.program.Run()
	return err
}

// Stop quits the program
func (t *TUI) Stop() {
	t.program.Quit()
}

// QuitChan signals when the user asked to quit
func (t *TUI) QuitChan() <-chan struct{} {
	return t.quitChan
}
