package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// handleKeypress processes keyboard input.
func (m Model) handleKeypress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// The feedback composer captures all keys while open.
	if m.composing {
		return m.handleComposerKey(msg)
	}

	// Normal mode - clear the info message on most actions
	m.infoMessage = ""

	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "?":
		m.showHelp = !m.showHelp
		return m, nil

	case "left", "h":
		m.coord.Splitter().Previous()
		m.syncSelection()
		return m, nil

	case "right", "l":
		m.coord.Splitter().Next()
		m.syncSelection()
		return m, nil

	case "g":
		m.coord.Splitter().JumpToLive()
		m.syncSelection()
		return m, nil

	case "a":
		if reason := m.actionBlockedReason(); reason != "" {
			m.infoMessage = reason
			return m, nil
		}
		return m, approveCmd(m.coord, "", m.selection)

	case "r":
		if reason := m.actionBlockedReason(); reason != "" {
			m.infoMessage = reason
			return m, nil
		}
		return m, regenerateCmd(m.coord, "", m.selection)

	case "enter", "i":
		if m.session() == nil {
			m.infoMessage = "No active session."
			return m, nil
		}
		m.composing = true
		m.input.Focus()
		return m, textinput.Blink

	case "R":
		return m, reconnectCmd(m.coord)

	case "d", "esc":
		m.coord.DismissError()
		return m, nil

	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		n := int(msg.String()[0] - '0')
		m.toggleItem(n)
		return m, nil
	}

	return m, nil
}

// handleComposerKey processes keyboard input while the feedback
// composer is open.
func (m Model) handleComposerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.composing = false
		m.input.Blur()
		m.input.SetValue("")
		return m, nil

	case tea.KeyEnter:
		text := strings.TrimSpace(m.input.Value())
		m.composing = false
		m.input.Blur()
		m.input.SetValue("")
		if text == "" {
			return m, nil
		}
		m.syncSelection()
		return m, sendFeedbackCmd(m.coord, text, m.selection)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}
