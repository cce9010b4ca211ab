package tui

import (
	"fmt"
	"strings"

	"github.com/adforge/adforge/internal/pipeline"
	"github.com/adforge/adforge/internal/realtime"
	"github.com/adforge/adforge/internal/stageview"
	"github.com/adforge/adforge/internal/tui/styles"
	"github.com/adforge/adforge/internal/util"
)

// renderHeader renders the title bar with the session id and the
// realtime connection badge.
func (m Model) renderHeader() string {
	title := styles.Title.Render("AdForge")

	var parts []string
	parts = append(parts, title)

	if sess := m.session(); sess != nil {
		parts = append(parts, styles.Subtitle.Render("session "+util.ShortID(sess.ID)))
	}

	parts = append(parts, m.renderConnBadge())

	if m.coord.Unconfirmed() {
		parts = append(parts, styles.Warning.Render("~syncing"))
	}
	if m.coord.Polling() {
		parts = append(parts, styles.Muted.Render(m.spin.View()+"refreshing"))
	}

	line := strings.Join(parts, "  ")
	return styles.Header.Width(m.width).Render(line)
}

func (m Model) renderConnBadge() string {
	switch m.coord.ConnState() {
	case realtime.StateConnected:
		return styles.ConnBadgeUp.Render("● live")
	case realtime.StateConnecting:
		return styles.Warning.Render("◌ connecting")
	default:
		return styles.ConnBadgeDown.Render("○ offline")
	}
}

// renderStageBar renders the fixed stage progression with the live and
// displayed stages marked. A pinned view shows which stage the user has
// navigated to while the pipeline is elsewhere.
func (m Model) renderStageBar() string {
	sess := m.session()
	view := m.coord.View()

	var b strings.Builder
	for i, d := range pipeline.Progress(sess) {
		if i > 0 {
			b.WriteString(styles.Muted.Render(" - "))
		}
		b.WriteString(m.renderStageEntry(d, view))
	}

	if sess != nil && sess.Status == pipeline.StageError {
		b.WriteString(styles.Error.Render("  ✗ " + pipeline.StageError.Label()))
	}

	return b.String()
}

func (m Model) renderStageEntry(d pipeline.StageDescriptor, view stageview.View) string {
	glyph := "○"
	style := styles.StagePending
	switch {
	case d.Active:
		glyph = "●"
		style = styles.StageActive
	case d.Completed:
		glyph = "✓"
		style = styles.StageDone
	}

	label := fmt.Sprintf("%s %s", glyph, d.Label)

	// Mark the stage the user is looking at when it differs from live.
	if view.Pinned && d.Stage == view.Display {
		return styles.StageViewed.Render("[" + label + "]")
	}
	return style.Render(label)
}
