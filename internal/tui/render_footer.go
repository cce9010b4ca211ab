package tui

import (
	"strings"

	"github.com/adforge/adforge/internal/tui/styles"
	"github.com/adforge/adforge/internal/util"
)

// renderFooter renders banners, the feedback composer, and the help
// line, stacked under the content pane.
func (m Model) renderFooter() string {
	var parts []string

	if banner := m.renderBanner(); banner != "" {
		parts = append(parts, banner)
	}
	if m.composing {
		parts = append(parts, m.renderComposer())
	}
	if m.showHelp {
		parts = append(parts, m.renderFullHelp())
	} else {
		parts = append(parts, m.renderHelpBar())
	}

	return strings.Join(parts, "\n")
}

func (m Model) renderBanner() string {
	if lastErr := m.coord.LastError(); lastErr != "" {
		return util.TruncateANSI(styles.ErrorBanner.Render("✗ "+lastErr)+styles.Muted.Render("  (d to dismiss)"), m.width)
	}
	if m.infoMessage != "" {
		return util.TruncateANSI(styles.InfoBanner.Render(m.infoMessage), m.width)
	}
	return ""
}

func (m Model) renderComposer() string {
	return styles.HelpKey.Render("feedback> ") + m.input.View()
}

func (m Model) renderHelpBar() string {
	entries := []string{
		"a approve",
		"r regenerate",
		"enter feedback",
		"←/→ stages",
		"? help",
		"q quit",
	}
	return styles.HelpBar.Render(util.TruncateANSI(strings.Join(entries, "  "), m.width))
}

func (m Model) renderFullHelp() string {
	rows := []struct {
		key  string
		desc string
	}{
		{"a", "approve the current stage output"},
		{"r", "regenerate the current stage output"},
		{"enter / i", "compose feedback for the current stage"},
		{"1-9", "pick or unpick an item on screen"},
		{"← / h", "view the previous stage"},
		{"→ / l", "view the next stage"},
		{"g", "jump back to the live stage"},
		{"R", "reconnect the realtime channel"},
		{"d / esc", "dismiss the error banner"},
		{"?", "close this help"},
		{"q / ctrl+c", "quit (the session keeps running)"},
	}

	var b strings.Builder
	b.WriteString(styles.Subtitle.Render("Keys"))
	b.WriteString("\n")
	for _, row := range rows {
		b.WriteString(styles.HelpKey.Render(padRight(row.key, 12)))
		b.WriteString(styles.HelpBar.Render(row.desc))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s + " "
	}
	return s + strings.Repeat(" ", width-len(s))
}
