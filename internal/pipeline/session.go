package pipeline

import "time"

// MessageType classifies who produced a conversation message.
type MessageType string

const (
	// MessageUser is a message typed by the user.
	MessageUser MessageType = "user"
	// MessageAssistant is a message produced by the generation model.
	MessageAssistant MessageType = "assistant"
	// MessageSystem is a message produced by the pipeline itself.
	MessageSystem MessageType = "system"
)

// ChatMessage is one entry in a session's conversation history.
// Messages are append-only within a stage; the history is wholesale
// emptied on every stage transition.
type ChatMessage struct {
	Type      MessageType `json:"type"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
}

// ReferenceImage is one candidate image produced by the reference
// image stage.
type ReferenceImage struct {
	Index   int     `json:"index"`
	URL     string  `json:"url"`
	Prompt  string  `json:"prompt"`
	Quality float64 `json:"quality"`
}

// Clip is one storyboard entry with its start and end frames.
type Clip struct {
	Index           int     `json:"index"`
	Description     string  `json:"description"`
	StartFrameURL   string  `json:"start_frame_url"`
	EndFrameURL     string  `json:"end_frame_url"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// StoryOutput is the result of the story stage.
type StoryOutput struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// ReferenceImageOutput is the result of the reference image stage.
type ReferenceImageOutput struct {
	Images []ReferenceImage `json:"images"`
}

// StoryboardOutput is the result of the storyboard stage.
type StoryboardOutput struct {
	Clips []Clip `json:"clips"`
}

// VideoOutput is the result of the video stage.
type VideoOutput struct {
	URL             string  `json:"url"`
	ThumbnailURL    string  `json:"thumbnail_url"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// Outputs holds the per-stage results a session has produced so far.
// A nil entry means the stage has not produced a result yet. Entries
// are immutable once written except when replaced wholesale by a
// regenerate result for the same stage.
type Outputs struct {
	Story          *StoryOutput          `json:"story,omitempty"`
	ReferenceImage *ReferenceImageOutput `json:"reference_image,omitempty"`
	Storyboard     *StoryboardOutput     `json:"storyboard,omitempty"`
	Video          *VideoOutput          `json:"video,omitempty"`
}

// ForStage reports whether the given stage has a non-empty output.
func (o Outputs) ForStage(stage Stage) bool {
	switch stage {
	case StageStory:
		return o.Story != nil
	case StageReferenceImage:
		return o.ReferenceImage != nil && len(o.ReferenceImage.Images) > 0
	case StageStoryboard:
		return o.Storyboard != nil && len(o.Storyboard.Clips) > 0
	case StageVideo:
		return o.Video != nil
	default:
		return false
	}
}

// clone returns a deep copy of the outputs.
func (o Outputs) clone() Outputs {
	out := Outputs{}
	if o.Story != nil {
		story := *o.Story
		out.Story = &story
	}
	if o.ReferenceImage != nil {
		images := make([]ReferenceImage, len(o.ReferenceImage.Images))
		copy(images, o.ReferenceImage.Images)
		out.ReferenceImage = &ReferenceImageOutput{Images: images}
	}
	if o.Storyboard != nil {
		clips := make([]Clip, len(o.Storyboard.Clips))
		copy(clips, o.Storyboard.Clips)
		out.Storyboard = &StoryboardOutput{Clips: clips}
	}
	if o.Video != nil {
		video := *o.Video
		out.Video = &video
	}
	return out
}

// Session is the aggregate root for one pipeline run. Status is the
// authoritative live stage; CurrentStage is a display label that may
// lag by one update cycle and must never drive logic.
type Session struct {
	ID           string        `json:"session_id"`
	Status       Stage         `json:"status"`
	CurrentStage string        `json:"current_stage"`
	Outputs      Outputs       `json:"outputs"`
	Conversation []ChatMessage `json:"conversation_history"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// Clone returns a deep copy of the session so callers can hand out
// snapshots without aliasing the stored state.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Outputs = s.Outputs.clone()
	if s.Conversation != nil {
		out.Conversation = make([]ChatMessage, len(s.Conversation))
		copy(out.Conversation, s.Conversation)
	}
	return &out
}

// ItemCount returns the number of selectable output items for a stage:
// reference images or storyboard clips. Other stages have no selectable
// items.
func (s *Session) ItemCount(stage Stage) int {
	if s == nil {
		return 0
	}
	switch stage {
	case StageReferenceImage:
		if s.Outputs.ReferenceImage == nil {
			return 0
		}
		return len(s.Outputs.ReferenceImage.Images)
	case StageStoryboard:
		if s.Outputs.Storyboard == nil {
			return 0
		}
		return len(s.Outputs.Storyboard.Clips)
	default:
		return 0
	}
}
