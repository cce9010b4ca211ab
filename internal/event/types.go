// Package event defines event types for decoupling components in AdForge.
// These events let the session store, coordinator, and TUI communicate
// without direct dependencies.
package event

import (
	"time"

	"github.com/adforge/adforge/internal/pipeline"
)

// Event is the interface that all events must implement.
// It provides a common way to identify and timestamp events.
type Event interface {
	// EventType returns a string identifier for this event type.
	// Convention: "category.action" (e.g., "session.updated", "channel.error")
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// baseEvent provides common fields for all events.
// Embed this in concrete event types to satisfy the Event interface.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

// newBaseEvent creates a baseEvent with the current time.
func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// -----------------------------------------------------------------------------
// Session Events
// -----------------------------------------------------------------------------

// SessionUpdatedEvent is emitted whenever the session store applies a
// new session snapshot, whether from a push event, a poll fetch, or a
// local optimistic transition.
type SessionUpdatedEvent struct {
	baseEvent
	Session *pipeline.Session // Deep copy of the stored session
}

// NewSessionUpdatedEvent creates a SessionUpdatedEvent.
func NewSessionUpdatedEvent(session *pipeline.Session) SessionUpdatedEvent {
	return SessionUpdatedEvent{
		baseEvent: newBaseEvent("session.updated"),
		Session:   session,
	}
}

// SessionClearedEvent is emitted when the session store is cleared.
type SessionClearedEvent struct {
	baseEvent
}

// NewSessionClearedEvent creates a SessionClearedEvent.
func NewSessionClearedEvent() SessionClearedEvent {
	return SessionClearedEvent{baseEvent: newBaseEvent("session.cleared")}
}

// -----------------------------------------------------------------------------
// Channel Events
// -----------------------------------------------------------------------------

// ChannelStateEvent is emitted when the realtime channel's connection
// state changes.
type ChannelStateEvent struct {
	baseEvent
	Previous string // Previous connection state
	Current  string // New connection state
}

// NewChannelStateEvent creates a ChannelStateEvent.
func NewChannelStateEvent(previous, current string) ChannelStateEvent {
	return ChannelStateEvent{
		baseEvent: newBaseEvent("channel.state_changed"),
		Previous:  previous,
		Current:   current,
	}
}

// ChannelErrorEvent is emitted when the realtime channel reports an
// error. Terminal is true when the reconnect budget was exhausted and
// the channel will not retry on its own.
type ChannelErrorEvent struct {
	baseEvent
	Message  string // User-visible error message
	Terminal bool   // True when the channel gave up reconnecting
}

// NewChannelErrorEvent creates a ChannelErrorEvent.
func NewChannelErrorEvent(message string, terminal bool) ChannelErrorEvent {
	return ChannelErrorEvent{
		baseEvent: newBaseEvent("channel.error"),
		Message:   message,
		Terminal:  terminal,
	}
}

// -----------------------------------------------------------------------------
// Stage Events
// -----------------------------------------------------------------------------

// StageCompletedEvent is emitted when a stage-complete push event has
// been applied to the session store.
type StageCompletedEvent struct {
	baseEvent
	Stage pipeline.Stage // Stage that produced a result
}

// NewStageCompletedEvent creates a StageCompletedEvent.
func NewStageCompletedEvent(stage pipeline.Stage) StageCompletedEvent {
	return StageCompletedEvent{
		baseEvent: newBaseEvent("stage.completed"),
		Stage:     stage,
	}
}

// InteractionEvent is emitted when a model interaction message arrives
// over the realtime channel, including the echo of user feedback.
type InteractionEvent struct {
	baseEvent
	Message pipeline.ChatMessage
}

// NewInteractionEvent creates an InteractionEvent.
func NewInteractionEvent(message pipeline.ChatMessage) InteractionEvent {
	return InteractionEvent{
		baseEvent: newBaseEvent("interaction.received"),
		Message:   message,
	}
}

// -----------------------------------------------------------------------------
// Action Events
// -----------------------------------------------------------------------------

// ActionKind identifies a gateway action.
type ActionKind string

const (
	ActionStart      ActionKind = "start"
	ActionApprove    ActionKind = "approve"
	ActionRegenerate ActionKind = "regenerate"
	ActionFeedback   ActionKind = "feedback"
)

// ActionStartedEvent is emitted when a gateway action begins. The UI
// uses it to show an in-flight indicator and disable re-submission.
type ActionStartedEvent struct {
	baseEvent
	Kind  ActionKind     // Which action is in flight
	Stage pipeline.Stage // Stage the action targets (empty for start)
}

// NewActionStartedEvent creates an ActionStartedEvent.
func NewActionStartedEvent(kind ActionKind, stage pipeline.Stage) ActionStartedEvent {
	return ActionStartedEvent{
		baseEvent: newBaseEvent("action.started"),
		Kind:      kind,
		Stage:     stage,
	}
}

// ActionFinishedEvent is emitted when a gateway action completes.
// Err is empty on success.
type ActionFinishedEvent struct {
	baseEvent
	Kind  ActionKind
	Stage pipeline.Stage
	Err   string // Error message, empty on success
}

// NewActionFinishedEvent creates an ActionFinishedEvent.
func NewActionFinishedEvent(kind ActionKind, stage pipeline.Stage, errMsg string) ActionFinishedEvent {
	return ActionFinishedEvent{
		baseEvent: newBaseEvent("action.finished"),
		Kind:      kind,
		Stage:     stage,
		Err:       errMsg,
	}
}

// -----------------------------------------------------------------------------
// Poll Events
// -----------------------------------------------------------------------------

// PollStartedEvent is emitted when the poll fallback driver begins
// watching a pending stage.
type PollStartedEvent struct {
	baseEvent
	PendingStage pipeline.Stage
}

// NewPollStartedEvent creates a PollStartedEvent.
func NewPollStartedEvent(pendingStage pipeline.Stage) PollStartedEvent {
	return PollStartedEvent{
		baseEvent:    newBaseEvent("poll.started"),
		PendingStage: pendingStage,
	}
}

// PollStoppedEvent is emitted when the poll fallback driver stops,
// either because the pending stage reached its terminal condition or
// because the watch was canceled.
type PollStoppedEvent struct {
	baseEvent
	PendingStage pipeline.Stage
	Reason       string // "satisfied" or "canceled"
}

// NewPollStoppedEvent creates a PollStoppedEvent.
func NewPollStoppedEvent(pendingStage pipeline.Stage, reason string) PollStoppedEvent {
	return PollStoppedEvent{
		baseEvent:    newBaseEvent("poll.stopped"),
		PendingStage: pendingStage,
		Reason:       reason,
	}
}
