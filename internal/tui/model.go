package tui

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"

	"github.com/adforge/adforge/internal/config"
	"github.com/adforge/adforge/internal/coordinator"
	"github.com/adforge/adforge/internal/pipeline"
	"github.com/adforge/adforge/internal/tui/styles"
)

// Model holds the TUI application state. All session state lives in the
// coordinator; the model keeps only presentation state on top of it.
type Model struct {
	coord *coordinator.Coordinator

	// UI state
	width    int
	height   int
	ready    bool
	quitting bool
	showHelp bool

	// Feedback composer
	composing bool
	input     textinput.Model

	// Generation indicator
	spin spinner.Model

	// Per-stage item picks, reset whenever the displayed stage changes
	selection      pipeline.Selection
	selectionStage pipeline.Stage

	infoMessage string

	maxConversationLines int
}

// NewModel creates a new TUI model.
func NewModel(coord *coordinator.Coordinator, cfg config.TUIConfig) Model {
	ti := textinput.New()
	ti.Placeholder = "describe what you want changed..."
	ti.CharLimit = 500
	ti.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Primary

	maxLines := cfg.MaxConversationLines
	if maxLines <= 0 {
		maxLines = 200
	}

	return Model{
		coord:                coord,
		input:                ti,
		spin:                 sp,
		maxConversationLines: maxLines,
	}
}

// session returns the active session snapshot, or nil.
func (m Model) session() *pipeline.Session {
	return m.coord.Session()
}

// displayStage returns the stage the UI is currently showing.
func (m Model) displayStage() pipeline.Stage {
	return m.coord.View().Display
}

// syncSelection drops the local item picks when the displayed stage
// changes, so a pick made on one stage never leaks into another.
func (m *Model) syncSelection() {
	ds := m.displayStage()
	if ds != m.selectionStage {
		m.selection = nil
		m.selectionStage = ds
	}
}

// toggleItem flips the pick state of the n-th listed output item
// (1-based screen position) on the displayed stage.
func (m *Model) toggleItem(n int) {
	m.syncSelection()

	sess := m.session()
	stage := m.displayStage()
	if sess == nil {
		return
	}

	switch stage {
	case pipeline.StageReferenceImage:
		images := sess.Outputs.ReferenceImage
		if images == nil || n < 1 || n > len(images.Images) {
			return
		}
		m.selection = m.selection.Toggle(images.Images[n-1].Index)
	case pipeline.StageStoryboard:
		board := sess.Outputs.Storyboard
		if board == nil || n < 1 || n > len(board.Clips) {
			return
		}
		m.selection = m.selection.Toggle(board.Clips[n-1].Index)
	}
}

// generating reports whether the displayed stage is the live stage and
// is still waiting for its output.
func (m Model) generating() bool {
	sess := m.session()
	if sess == nil || sess.Status.Terminal() {
		return false
	}
	view := m.coord.View()
	if view.Display != view.Live {
		return false
	}
	return !sess.Outputs.ForStage(sess.Status)
}

// actionBlockedReason explains why stage actions are unavailable right
// now, or returns empty when they are allowed.
func (m Model) actionBlockedReason() string {
	if m.session() == nil {
		return "No active session."
	}
	if m.coord.InFlight() {
		return "An action is already in flight."
	}
	if !m.coord.Connected() {
		return "Realtime channel is down. Press R to reconnect."
	}
	view := m.coord.View()
	if view.Display != view.Live {
		return "Viewing " + view.Display.Label() + ". Press g to jump to the live stage."
	}
	if m.coord.ActionsDisabled() {
		return "Stage actions are unavailable right now."
	}
	return ""
}
