package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// View renders the full frame.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}

	sections := []string{
		m.renderHeader(),
		m.renderStageBar(),
		m.renderContent(),
	}
	if conv := m.renderConversation(); conv != "" {
		sections = append(sections, conv)
	}
	sections = append(sections, m.renderFooter())

	var nonEmpty []string
	for _, s := range sections {
		if strings.TrimSpace(s) != "" {
			nonEmpty = append(nonEmpty, s)
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, nonEmpty...) + "\n"
}
