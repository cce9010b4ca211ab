package pipeline

import "testing"

func TestProgressLength(t *testing.T) {
	statuses := []Stage{StageStory, StageReferenceImage, StageStoryboard, StageVideo, StageComplete, StageError}

	for _, status := range statuses {
		descriptors := Progress(testSession(status))
		if len(descriptors) != len(Order()) {
			t.Errorf("status %q: Progress length = %d, want %d", status, len(descriptors), len(Order()))
		}
	}

	if got := len(Progress(nil)); got != len(Order()) {
		t.Errorf("nil session: Progress length = %d, want %d", got, len(Order()))
	}
}

func TestProgressExactlyOneActive(t *testing.T) {
	// Every non-terminal status, and complete itself, maps to exactly one
	// active descriptor. An error status is outside the order and yields
	// none.
	for _, status := range Order() {
		descriptors := Progress(testSession(status))
		active := 0
		for _, d := range descriptors {
			if d.Active {
				active++
				if d.Stage != status {
					t.Errorf("status %q: active descriptor is %q", status, d.Stage)
				}
			}
		}
		if active != 1 {
			t.Errorf("status %q: %d active descriptors, want 1", status, active)
		}
	}

	for _, d := range Progress(testSession(StageError)) {
		if d.Active {
			t.Errorf("error status: descriptor %q marked active", d.Stage)
		}
	}
}

func TestProgressCompleted(t *testing.T) {
	tests := []struct {
		name          string
		mutate        func(*Session)
		status        Stage
		wantCompleted map[Stage]bool
	}{
		{
			name:   "story live with story output",
			status: StageStory,
			wantCompleted: map[Stage]bool{
				StageStory:          true, // output exists
				StageReferenceImage: false,
				StageStoryboard:     false,
				StageVideo:          false,
				StageComplete:       false,
			},
		},
		{
			name:   "storyboard live marks earlier stages completed",
			status: StageStoryboard,
			mutate: func(s *Session) {
				s.Outputs.ReferenceImage = &ReferenceImageOutput{Images: []ReferenceImage{{Index: 0}}}
			},
			wantCompleted: map[Stage]bool{
				StageStory:          true, // behind the live stage
				StageReferenceImage: true, // output exists and behind live
				StageStoryboard:     false,
				StageVideo:          false,
				StageComplete:       false,
			},
		},
		{
			name:   "completed run marks all generation stages",
			status: StageComplete,
			wantCompleted: map[Stage]bool{
				StageStory:          true,
				StageReferenceImage: true,
				StageStoryboard:     true,
				StageVideo:          true,
				StageComplete:       false, // no output and nothing after it
			},
		},
		{
			name:   "error status only reflects existing outputs",
			status: StageError,
			wantCompleted: map[Stage]bool{
				StageStory:          true, // output exists
				StageReferenceImage: false,
				StageStoryboard:     false,
				StageVideo:          false,
				StageComplete:       false,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := testSession(tt.status)
			if tt.mutate != nil {
				tt.mutate(sess)
			}
			for _, d := range Progress(sess) {
				if want := tt.wantCompleted[d.Stage]; d.Completed != want {
					t.Errorf("stage %q completed = %v, want %v", d.Stage, d.Completed, want)
				}
			}
		})
	}
}

func TestProgressNilSession(t *testing.T) {
	for _, d := range Progress(nil) {
		if d.Completed || d.Active {
			t.Errorf("nil session: stage %q has completed=%v active=%v", d.Stage, d.Completed, d.Active)
		}
		if d.Label == "" {
			t.Errorf("stage %q has empty label", d.Stage)
		}
	}
}

func TestProgressIsPure(t *testing.T) {
	sess := testSession(StageStory)
	first := Progress(sess)
	second := Progress(sess)

	if len(first) != len(second) {
		t.Fatalf("projection changed length between calls: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("descriptor %d differs between identical projections", i)
		}
	}
	if sess.Status != StageStory || !sess.Outputs.ForStage(StageStory) {
		t.Error("projection mutated the session")
	}
}
