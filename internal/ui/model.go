// ABOUTME: Bubbletea model for the playback TUI
// ABOUTME: Defines application state and update logic
package ui

import (
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
)

// Model represents the TUI state
type Model struct {
	// Source
	path       string
	codec      string
	sampleRate int
	channels   int
	format     string
	backend    string

	// Playback
	state string

	// Stats
	framesPlayed   int64
	packetsRead    int64
	packetsSkipped int64
	queueDepth     int64

	// Dimensions
	width  int
	height int
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	case DoneMsg:
		if msg.Err != nil {
			m.state = "error: " + msg.Err.Error()
		} else {
			m.state = "complete"
		}
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	s := ""
	s += m.renderHeader()
	s += m.renderStreamInfo()
	s += m.renderStats()
	s += m.renderHelp()

	return s
}

// renderHeader renders the title bar and playback state
func (m Model) renderHeader() string {
	return fmt.Sprintf(`┌─ siren ──────────────────────────────────────────────┐
│ File:   %-45s │
│ State:  %-45s │
├──────────────────────────────────────────────────────┤
`, truncate(filepath.Base(m.path), 45), truncate(m.state, 45))
}

// renderStreamInfo renders the decoded stream description
func (m Model) renderStreamInfo() string {
	if m.codec == "" {
		return "│ No stream                                            │\n"
	}

	line := fmt.Sprintf("%s %dHz %s %s via %s",
		m.codec, m.sampleRate, channelName(m.channels), m.format, m.backend)
	return fmt.Sprintf("│ Format: %-45s │\n", truncate(line, 45))
}

// renderStats renders playback statistics
func (m Model) renderStats() string {
	return fmt.Sprintf(`├──────────────────────────────────────────────────────┤
│ Frames: %-10d Packets: %-8d Skipped: %-6d │
│ Queue:  %-10d frames buffered%-19s │
`, m.framesPlayed, m.packetsRead, m.packetsSkipped, m.queueDepth, "")
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	return `│ q/enter:Quit                                         │
└──────────────────────────────────────────────────────┘
`
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "enter":
		return m, tea.Quit
	}

	return m, nil
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.Path != "" {
		m.path = msg.Path
	}
	if msg.Codec != "" {
		m.codec = msg.Codec
		m.sampleRate = msg.SampleRate
		m.channels = msg.Channels
		m.format = msg.Format
		m.backend = msg.Backend
	}
	if msg.State != "" {
		m.state = msg.State
	}
	m.framesPlayed = msg.FramesPlayed
	m.packetsRead = msg.PacketsRead
	m.packetsSkipped = msg.PacketsSkipped
	m.queueDepth = msg.QueueDepth
}

// StatusMsg updates TUI state
type StatusMsg struct {
	Path           string
	Codec          string
	SampleRate     int
	Channels       int
	Format         string
	Backend        string
	State          string
	FramesPlayed   int64
	PacketsRead    int64
	PacketsSkipped int64
	QueueDepth     int64
}

// DoneMsg reports that playback reached a terminal state
type DoneMsg struct {
	Err error
}

// Utility functions
func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}

func channelName(channels int) string {
	if channels == 1 {
		return "Mono"
	}
	return "Stereo"
}
