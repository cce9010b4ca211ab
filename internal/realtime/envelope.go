package realtime

import (
	"encoding/json"

	"github.com/adforge/adforge/internal/pipeline"
)

// Event types the pipeline service pushes over the channel.
const (
	// EventStageComplete announces that a stage finished generating.
	EventStageComplete = "stage_complete"
	// EventLLMInteraction delivers a conversation message: the echo of a
	// user feedback message or an assistant response.
	EventLLMInteraction = "llm_interaction"
	// EventError reports a pipeline-side failure for this session.
	EventError = "error"
)

// Envelope is the wire frame for every pushed message.
type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// StageCompletePayload carries the finished stage and, when the service
// includes it, the full refreshed session snapshot.
type StageCompletePayload struct {
	Stage   pipeline.Stage    `json:"stage"`
	Session *pipeline.Session `json:"session,omitempty"`
}

// ErrorPayload carries a pipeline-side error message.
type ErrorPayload struct {
	Message string `json:"message"`
}

// feedbackFrame is the outbound message for user feedback on the current
// stage, optionally scoped to selected output items.
type feedbackFrame struct {
	Type      string             `json:"type"`
	Message   string             `json:"message"`
	Selection pipeline.Selection `json:"selection,omitempty"`
}

const feedbackFrameType = "feedback"
