package pipeline

// StageDescriptor is one entry of the derived stage indicator: a stage
// from the fixed order with its display strings and progress flags.
// Descriptors are derived on every session change and never persisted.
type StageDescriptor struct {
	Stage       Stage  `json:"stage"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
	Active      bool   `json:"active"`
}

// Progress projects a session onto the fixed stage order. A stage is
// completed when its output exists or a later stage has been reached;
// it is active when it equals the session status. A nil session yields
// descriptors with no completed or active entries. The projection is
// pure and runs in O(len(Order())).
func Progress(sess *Session) []StageDescriptor {
	descriptors := make([]StageDescriptor, len(stageOrder))
	statusIdx := -1
	if sess != nil {
		statusIdx = sess.Status.Index()
	}
	for i, stage := range stageOrder {
		d := StageDescriptor{
			Stage:       stage,
			Label:       stage.Label(),
			Description: stage.Description(),
		}
		if sess != nil {
			d.Completed = sess.Outputs.ForStage(stage) || statusIdx > i
			d.Active = stage == sess.Status
		}
		descriptors[i] = d
	}
	return descriptors
}
