// Package tui provides the interactive terminal client for AdForge
// pipeline sessions: a stage indicator, per-stage output panels, the
// conversation pane, and keyboard-driven approve, regenerate, and
// feedback actions.
package tui

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/adforge/adforge/internal/config"
	"github.com/adforge/adforge/internal/coordinator"
	"github.com/adforge/adforge/internal/event"
	"github.com/adforge/adforge/internal/tui/styles"
)

// App wraps the Bubbletea program.
type App struct {
	program *tea.Program
	model   Model
	coord   *coordinator.Coordinator
}

// New creates a new TUI application bound to a coordinator.
func New(coord *coordinator.Coordinator, cfg config.TUIConfig) *App {
	styles.SetActiveTheme(styles.ThemeName(cfg.Theme))
	return &App{
		model: NewModel(coord, cfg),
		coord: coord,
	}
}

// Run starts the TUI application and blocks until it exits.
func (a *App) Run() error {
	a.program = tea.NewProgram(
		a.model,
		tea.WithAltScreen(),
	)

	// Forward coordinator events into the Bubble Tea loop so pushes,
	// poll results, and action completions re-render the UI.
	sub := a.coord.Bus().SubscribeAll(func(ev event.Event) {
		a.program.Send(busMsg{event: ev})
	})
	defer a.coord.Bus().Unsubscribe(sub)

	// Preserve session state when the process is terminated.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	go func() {
		<-sigChan
		if a.program != nil {
			a.program.Send(tea.Quit())
		}
	}()

	_, err := a.program.Run()

	signal.Stop(sigChan)

	return err
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return m.spin.Tick
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeypress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.input.Width = inputWidth(m.width)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case busMsg:
		return m.handleBusEvent(msg.event)

	case actionResultMsg:
		return m.handleActionResult(msg)
	}

	return m, nil
}

// handleBusEvent refreshes presentation state after a coordinator event.
// The session itself is read back from the coordinator at render time.
func (m Model) handleBusEvent(ev event.Event) (tea.Model, tea.Cmd) {
	switch ev.(type) {
	case event.SessionUpdatedEvent, event.SessionClearedEvent, event.StageCompletedEvent:
		m.syncSelection()
	}
	return m, nil
}

func (m Model) handleActionResult(msg actionResultMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		// The coordinator already surfaced the failure in the error
		// banner; nothing to add here.
		return m, nil
	}

	switch msg.action {
	case "approve":
		m.infoMessage = "Approved " + msg.stage.Label()
		m.selection = nil
	case "regenerate":
		m.infoMessage = "Regenerating " + msg.stage.Label() + "..."
		m.selection = nil
	case "feedback":
		m.infoMessage = "Feedback sent"
	case "reconnect":
		m.infoMessage = "Reconnected"
	}
	return m, nil
}

// inputWidth sizes the feedback composer to the terminal, leaving room
// for the prompt marker.
func inputWidth(termWidth int) int {
	w := termWidth - 12
	if w < 20 {
		w = 20
	}
	if w > 120 {
		w = 120
	}
	return w
}
