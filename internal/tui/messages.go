package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/adforge/adforge/internal/coordinator"
	"github.com/adforge/adforge/internal/event"
	"github.com/adforge/adforge/internal/pipeline"
)

// Messages

// busMsg carries a coordinator event into the Bubble Tea loop.
type busMsg struct {
	event event.Event
}

// actionResultMsg reports the outcome of an approve, regenerate,
// feedback, or reconnect command.
type actionResultMsg struct {
	action string
	stage  pipeline.Stage
	err    error
}

// Commands

func approveCmd(coord *coordinator.Coordinator, note string, selection pipeline.Selection) tea.Cmd {
	return func() tea.Msg {
		stage := pipeline.Stage("")
		if sess := coord.Session(); sess != nil {
			stage = sess.Status
		}
		_, err := coord.Approve(context.Background(), note, selection)
		return actionResultMsg{action: "approve", stage: stage, err: err}
	}
}

func regenerateCmd(coord *coordinator.Coordinator, note string, selection pipeline.Selection) tea.Cmd {
	return func() tea.Msg {
		stage := pipeline.Stage("")
		if sess := coord.Session(); sess != nil {
			stage = sess.Status
		}
		err := coord.Regenerate(context.Background(), note, selection)
		return actionResultMsg{action: "regenerate", stage: stage, err: err}
	}
}

func sendFeedbackCmd(coord *coordinator.Coordinator, message string, selection pipeline.Selection) tea.Cmd {
	return func() tea.Msg {
		err := coord.SendFeedback(message, selection)
		return actionResultMsg{action: "feedback", err: err}
	}
}

func reconnectCmd(coord *coordinator.Coordinator) tea.Cmd {
	return func() tea.Msg {
		err := coord.Reconnect(context.Background())
		return actionResultMsg{action: "reconnect", err: err}
	}
}
