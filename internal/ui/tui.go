// ABOUTME: TUI initialization and control
// ABOUTME: Wraps bubbletea program for the playback UI
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// NewModel creates a TUI model seeded with the initial playback status. The
// seed carries the stream description so the first render is complete without
// any message delivery; Program.Send blocks until the event loop runs, so
// nothing may be sent before Run.
func NewModel(initial StatusMsg) Model {
	m := Model{state: "playing"}
	m.applyStatus(initial)
	return m
}

// Run starts the TUI
func Run(initial StatusMsg) (*tea.Program, error) {
	p := tea.NewProgram(NewModel(initial), tea.WithAltScreen())
	return p, nil
}
