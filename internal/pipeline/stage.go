// Package pipeline defines the data model for video ad generation sessions:
// the ordered stage progression, the session aggregate with its per-stage
// outputs and conversation history, per-item selections, and the derived
// stage progress projection consumed by the stage indicator UI.
package pipeline

// Stage identifies one phase of the generation pipeline.
// The generation stages advance in a fixed order; Error is a terminal
// status reported by the backend and sits outside the progress order.
type Stage string

const (
	// StageStory is the initial stage where the ad narrative is written.
	StageStory Stage = "story"
	// StageReferenceImage generates candidate reference images for the story.
	StageReferenceImage Stage = "reference_image"
	// StageStoryboard breaks the story into clips with start/end frames.
	StageStoryboard Stage = "storyboard"
	// StageVideo renders the final video from the approved storyboard.
	StageVideo Stage = "video"
	// StageComplete marks a finished pipeline run.
	StageComplete Stage = "complete"
	// StageError is the terminal failure status reported by the backend.
	// It is never part of the progress order.
	StageError Stage = "error"
)

// stageOrder is the fixed progression of a pipeline session.
var stageOrder = []Stage{
	StageStory,
	StageReferenceImage,
	StageStoryboard,
	StageVideo,
	StageComplete,
}

// stageLabels maps stages to the human-readable labels shown in the
// stage indicator.
var stageLabels = map[Stage]string{
	StageStory:          "Story",
	StageReferenceImage: "Reference Images",
	StageStoryboard:     "Storyboard",
	StageVideo:          "Video",
	StageComplete:       "Complete",
	StageError:          "Error",
}

// stageDescriptions maps stages to short descriptions of what each
// stage produces.
var stageDescriptions = map[Stage]string{
	StageStory:          "Write the ad narrative",
	StageReferenceImage: "Generate candidate reference images",
	StageStoryboard:     "Break the story into clips",
	StageVideo:          "Render the final video",
	StageComplete:       "Pipeline finished",
	StageError:          "Pipeline failed",
}

// Order returns the fixed stage progression. The returned slice is a
// copy; callers may not mutate the canonical order.
func Order() []Stage {
	order := make([]Stage, len(stageOrder))
	copy(order, stageOrder)
	return order
}

// Index returns the position of a stage within the fixed order, or -1
// for Error and unknown stages.
func (s Stage) Index() int {
	for i, stage := range stageOrder {
		if stage == s {
			return i
		}
	}
	return -1
}

// Next returns the stage that follows s in the fixed order. The final
// stage and stages outside the order return themselves.
func (s Stage) Next() Stage {
	idx := s.Index()
	if idx < 0 || idx >= len(stageOrder)-1 {
		return s
	}
	return stageOrder[idx+1]
}

// Prev returns the stage that precedes s in the fixed order. The first
// stage and stages outside the order return themselves.
func (s Stage) Prev() Stage {
	idx := s.Index()
	if idx <= 0 {
		return s
	}
	return stageOrder[idx-1]
}

// Label returns the human-readable label for a stage. Unknown stages
// return the raw stage string.
func (s Stage) Label() string {
	if label, ok := stageLabels[s]; ok {
		return label
	}
	return string(s)
}

// Description returns the short description for a stage.
func (s Stage) Description() string {
	return stageDescriptions[s]
}

// Valid reports whether s is a known stage, including the terminal
// Error status.
func (s Stage) Valid() bool {
	if s == StageError {
		return true
	}
	return s.Index() >= 0
}

// Terminal reports whether s is a terminal status: Complete or Error.
func (s Stage) Terminal() bool {
	return s == StageComplete || s == StageError
}

// Generating reports whether s is one of the four stages that produce
// output and pause for review.
func (s Stage) Generating() bool {
	idx := s.Index()
	return idx >= 0 && s != StageComplete
}
