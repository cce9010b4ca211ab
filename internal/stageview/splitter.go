// Package stageview tracks the split between the stage a session is
// actually running and the stage the user is looking at. The user may
// step back through completed stages while a later stage generates;
// the splitter decides when the view follows the live stage and when
// it stays pinned.
package stageview

import (
	"sync"

	"github.com/adforge/adforge/internal/pipeline"
)

// View is a point-in-time snapshot of the view/live split.
type View struct {
	// Live is the stage the session is actually on.
	Live pipeline.Stage
	// Display is the stage being shown: the pinned view stage if the
	// user navigated away, otherwise the live stage.
	Display pipeline.Stage
	// ViewingCurrent reports whether the displayed stage is the live one.
	ViewingCurrent bool
	// ViewingFuture reports whether the displayed stage sits after the
	// live stage in the fixed order and so has not run yet.
	ViewingFuture bool
	// Pinned reports whether the user explicitly selected the view
	// stage rather than following the live stage.
	Pinned bool
}

// Splitter applies the view reset rules as session updates arrive and
// answers which stage the UI should display.
//
// A nil view means the display follows the live stage. A session update
// that changes the status snaps the view back to live; an update that
// only replaces output within the same stage leaves a pinned view alone,
// so a regenerate cycle does not yank the user away from the stage they
// were inspecting.
type Splitter struct {
	mu         sync.Mutex
	view       *pipeline.Stage
	live       pipeline.Stage
	hasSession bool
}

// NewSplitter returns a splitter with no session observed.
func NewSplitter() *Splitter {
	return &Splitter{}
}

// Observe feeds the splitter the latest session state. Passing nil
// clears the split entirely.
func (s *Splitter) Observe(sess *pipeline.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess == nil {
		s.view = nil
		s.live = ""
		s.hasSession = false
		return
	}
	if !s.hasSession || sess.Status != s.live {
		s.view = nil
	}
	s.live = sess.Status
	s.hasSession = true
}

// LiveStage returns the stage the session is actually on, or the empty
// stage when no session has been observed.
func (s *Splitter) LiveStage() pipeline.Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live
}

// DisplayStage returns the stage the UI should render.
func (s *Splitter) DisplayStage() pipeline.Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.displayLocked()
}

func (s *Splitter) displayLocked() pipeline.Stage {
	if s.view != nil {
		return *s.view
	}
	return s.live
}

// IsViewingCurrentStage reports whether the displayed stage is the live
// stage.
func (s *Splitter) IsViewingCurrentStage() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.displayLocked() == s.live
}

// ViewingFutureStage reports whether the displayed stage comes after
// the live stage in the fixed order. Such a stage has not produced
// output yet, so the UI shows a placeholder and blocks actions instead
// of silently ignoring them.
func (s *Splitter) ViewingFutureStage() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.displayLocked().Index() > s.live.Index()
}

// ActionsDisabled reports whether approve and regenerate gestures must
// be blocked: the user is not looking at the live stage, the displayed
// stage has not run yet, the realtime channel is down, or an action is
// already in flight.
func (s *Splitter) ActionsDisabled(connected, inFlight bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasSession {
		return true
	}
	if !connected || inFlight {
		return true
	}
	display := s.displayLocked()
	if display != s.live {
		return true
	}
	return display.Index() > s.live.Index()
}

// Previous moves the view one stage back along the fixed order,
// clamped at the first stage. It does nothing without a session.
func (s *Splitter) Previous() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasSession {
		return
	}
	prev := s.displayLocked().Prev()
	s.view = &prev
}

// Next moves the view one stage forward along the fixed order, clamped
// at the final stage. Moving past the live stage is allowed; the UI
// renders the not-yet-generated placeholder there.
func (s *Splitter) Next() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasSession {
		return
	}
	next := s.displayLocked().Next()
	s.view = &next
}

// JumpToLive snaps the view back to the live stage.
func (s *Splitter) JumpToLive() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = nil
}

// SetView pins the view to a specific stage. Stages outside the fixed
// order are ignored.
func (s *Splitter) SetView(stage pipeline.Stage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasSession || stage.Index() < 0 {
		return
	}
	pinned := stage
	s.view = &pinned
}

// Snapshot returns the current view/live split in one consistent read.
func (s *Splitter) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	display := s.displayLocked()
	return View{
		Live:           s.live,
		Display:        display,
		ViewingCurrent: display == s.live,
		ViewingFuture:  display.Index() > s.live.Index(),
		Pinned:         s.view != nil,
	}
}
