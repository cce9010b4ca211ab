package tui

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/adforge/adforge/internal/config"
	"github.com/adforge/adforge/internal/coordinator"
	"github.com/adforge/adforge/internal/event"
	"github.com/adforge/adforge/internal/pipeline"
	"github.com/adforge/adforge/internal/realtime"
)

// fakeBackend is a scripted backend.Client for model tests.
type fakeBackend struct {
	mu          sync.Mutex
	sess        *pipeline.Session
	approveNext pipeline.Stage
}

func (f *fakeBackend) StartPipeline(ctx context.Context, prompt string, targetDuration int, mode string) (*pipeline.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sess.Clone(), nil
}

func (f *fakeBackend) GetSession(ctx context.Context, sessionID string) (*pipeline.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sess.Clone(), nil
}

func (f *fakeBackend) ApproveStage(ctx context.Context, sessionID string, stage pipeline.Stage, note string, selection pipeline.Selection) (pipeline.Stage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.approveNext, nil
}

func (f *fakeBackend) Regenerate(ctx context.Context, sessionID string, stage pipeline.Stage, note string, selection pipeline.Selection) error {
	return nil
}

// fakeChan is an always-healthy coordinator.Channel.
type fakeChan struct {
	id        string
	connected bool
	feedbacks []string
}

func (f *fakeChan) Connect(ctx context.Context) error {
	f.connected = true
	return nil
}

func (f *fakeChan) Disconnect() { f.connected = false }

func (f *fakeChan) SendFeedback(message string, selection pipeline.Selection) error {
	f.feedbacks = append(f.feedbacks, message)
	return nil
}

func (f *fakeChan) SessionID() string { return f.id }

func (f *fakeChan) State() realtime.ConnState {
	if f.connected {
		return realtime.StateConnected
	}
	return realtime.StateDisconnected
}

func (f *fakeChan) IsConnected() bool { return f.connected }

func (f *fakeChan) OnStageComplete(fn realtime.StageCompleteHandler) {}
func (f *fakeChan) OnInteraction(fn realtime.InteractionHandler)     {}
func (f *fakeChan) OnError(fn realtime.ErrorHandler)                 {}
func (f *fakeChan) OnStateChange(fn realtime.StateHandler)           {}

var _ coordinator.Channel = (*fakeChan)(nil)

// refSession returns a session paused on the reference image stage with
// outputs for both completed stages, so no background polling starts.
func refSession() *pipeline.Session {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	return &pipeline.Session{
		ID:           "sess-ui",
		Status:       pipeline.StageReferenceImage,
		CurrentStage: string(pipeline.StageReferenceImage),
		Outputs: pipeline.Outputs{
			Story: &pipeline.StoryOutput{Title: "Morning Run", Text: "A runner greets the sunrise."},
			ReferenceImage: &pipeline.ReferenceImageOutput{
				Images: []pipeline.ReferenceImage{
					{Index: 0, URL: "https://cdn.example.com/img-0.png", Prompt: "runner at dawn", Quality: 0.91},
					{Index: 1, URL: "https://cdn.example.com/img-1.png", Prompt: "city street", Quality: 0.84},
					{Index: 2, URL: "https://cdn.example.com/img-2.png", Prompt: "close-up shoes", Quality: 0.77},
				},
			},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// newTestModel builds a model over a coordinator attached to the given
// session, or over an idle coordinator when sess is nil.
func newTestModel(t *testing.T, sess *pipeline.Session) (Model, *coordinator.Coordinator) {
	t.Helper()

	client := &fakeBackend{sess: sess, approveNext: pipeline.StageStoryboard}
	factory := func(sessionID string) coordinator.Channel {
		return &fakeChan{id: sessionID}
	}
	coord := coordinator.New(coordinator.Config{
		Client:         client,
		ChannelFactory: factory,
		PollInterval:   time.Hour,
	})
	t.Cleanup(coord.Close)

	if sess != nil {
		if _, err := coord.Attach(context.Background(), sess.ID); err != nil {
			t.Fatalf("Attach() error = %v", err)
		}
	}

	m := NewModel(coord, config.TUIConfig{})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return next.(Model), coord
}

func keyMsg(key string) tea.KeyMsg {
	switch key {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
}

func pressKey(t *testing.T, m Model, key string) (Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(keyMsg(key))
	next, ok := updated.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", updated)
	}
	return next, cmd
}

func TestNewModelDefaults(t *testing.T) {
	m, _ := newTestModel(t, nil)

	if m.maxConversationLines != 200 {
		t.Errorf("maxConversationLines = %d, want 200", m.maxConversationLines)
	}
	if m.composing {
		t.Error("new model should not start in the composer")
	}
}

func TestWindowSizeMarksReady(t *testing.T) {
	m := NewModel(newIdleCoordinator(t), config.TUIConfig{})
	if m.ready {
		t.Fatal("model should not be ready before the first window size")
	}
	if got := m.View(); got != "Loading..." {
		t.Errorf("View() before ready = %q, want Loading...", got)
	}

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m = updated.(Model)
	if !m.ready {
		t.Error("model should be ready after a window size message")
	}
	if m.width != 80 || m.height != 24 {
		t.Errorf("size = %dx%d, want 80x24", m.width, m.height)
	}
}

func newIdleCoordinator(t *testing.T) *coordinator.Coordinator {
	t.Helper()
	coord := coordinator.New(coordinator.Config{
		Client: &fakeBackend{sess: refSession()},
		ChannelFactory: func(sessionID string) coordinator.Channel {
			return &fakeChan{id: sessionID}
		},
		PollInterval: time.Hour,
	})
	t.Cleanup(coord.Close)
	return coord
}

func TestQuitKeys(t *testing.T) {
	for _, key := range []string{"q", "ctrl+c"} {
		t.Run(key, func(t *testing.T) {
			m, _ := newTestModel(t, nil)
			m, cmd := pressKey(t, m, key)

			if !m.quitting {
				t.Error("quitting flag not set")
			}
			if cmd == nil {
				t.Fatal("expected a quit command")
			}
			msg := cmd()
			if _, ok := msg.(tea.QuitMsg); !ok {
				t.Errorf("command produced %T, want tea.QuitMsg", msg)
			}
			if got := m.View(); got != "" {
				t.Errorf("View() while quitting = %q, want empty", got)
			}
		})
	}
}

func TestHelpToggle(t *testing.T) {
	m, _ := newTestModel(t, nil)

	m, _ = pressKey(t, m, "?")
	if !m.showHelp {
		t.Fatal("help should open on ?")
	}
	if !strings.Contains(m.View(), "jump back to the live stage") {
		t.Error("full help should list the jump binding")
	}

	m, _ = pressKey(t, m, "?")
	if m.showHelp {
		t.Error("help should close on second ?")
	}
}

func TestApproveBlockedWithoutSession(t *testing.T) {
	m, _ := newTestModel(t, nil)

	m, cmd := pressKey(t, m, "a")
	if cmd != nil {
		t.Error("approve should not run without a session")
	}
	if m.infoMessage != "No active session." {
		t.Errorf("infoMessage = %q", m.infoMessage)
	}
}

func TestApproveOnHealthySession(t *testing.T) {
	m, _ := newTestModel(t, refSession())

	m, cmd := pressKey(t, m, "a")
	if cmd == nil {
		t.Fatal("approve should produce a command on a healthy session")
	}
	if m.infoMessage != "" {
		t.Errorf("unexpected block message %q", m.infoMessage)
	}
}

func TestStageNavigationPinsView(t *testing.T) {
	m, coord := newTestModel(t, refSession())

	m, _ = pressKey(t, m, "left")
	view := coord.View()
	if view.Display != pipeline.StageStory {
		t.Fatalf("Display = %v, want story", view.Display)
	}
	if view.ViewingCurrent {
		t.Error("pinned view should not count as viewing current")
	}

	m, cmd := pressKey(t, m, "a")
	if cmd != nil {
		t.Error("approve should be blocked while pinned to a past stage")
	}
	if !strings.Contains(m.infoMessage, "jump to the live stage") {
		t.Errorf("infoMessage = %q, want a jump-to-live hint", m.infoMessage)
	}

	m, _ = pressKey(t, m, "g")
	if view := coord.View(); view.Display != pipeline.StageReferenceImage {
		t.Errorf("Display after jump = %v, want reference_image", view.Display)
	}

	if _, cmd := pressKey(t, m, "a"); cmd == nil {
		t.Error("approve should work again after jumping to live")
	}
}

func TestItemPicking(t *testing.T) {
	m, _ := newTestModel(t, refSession())

	m, _ = pressKey(t, m, "2")
	if !m.selection.Contains(1) {
		t.Fatalf("selection = %v, want image index 1 picked", m.selection)
	}
	if !strings.Contains(m.View(), "◉") {
		t.Error("rendered view should mark the picked image")
	}

	m, _ = pressKey(t, m, "2")
	if m.selection.Contains(1) {
		t.Error("second press should unpick the image")
	}

	m, _ = pressKey(t, m, "9")
	if len(m.selection) != 0 {
		t.Errorf("selection = %v, want empty for an out-of-range pick", m.selection)
	}
}

func TestPicksResetOnStageChange(t *testing.T) {
	m, _ := newTestModel(t, refSession())

	m, _ = pressKey(t, m, "1")
	if len(m.selection) == 0 {
		t.Fatal("pick did not register")
	}

	m, _ = pressKey(t, m, "left")
	if len(m.selection) != 0 {
		t.Errorf("selection = %v, want reset after viewing another stage", m.selection)
	}
}

func TestComposerFlow(t *testing.T) {
	m, _ := newTestModel(t, refSession())

	m, _ = pressKey(t, m, "i")
	if !m.composing {
		t.Fatal("composer should open on i")
	}

	for _, r := range "fix it" {
		m, _ = pressKey(t, m, string(r))
	}
	if got := m.input.Value(); got != "fix it" {
		t.Fatalf("input value = %q, want %q", got, "fix it")
	}

	m, cmd := pressKey(t, m, "enter")
	if m.composing {
		t.Error("composer should close on enter")
	}
	if cmd == nil {
		t.Fatal("enter with text should produce a feedback command")
	}
	if got := m.input.Value(); got != "" {
		t.Errorf("input should be cleared, got %q", got)
	}

	if msg := cmd(); msg != nil {
		result, ok := msg.(actionResultMsg)
		if !ok {
			t.Fatalf("command produced %T, want actionResultMsg", msg)
		}
		if result.action != "feedback" || result.err != nil {
			t.Errorf("result = %+v", result)
		}
	}
}

func TestComposerCancel(t *testing.T) {
	m, _ := newTestModel(t, refSession())

	m, _ = pressKey(t, m, "enter")
	if !m.composing {
		t.Fatal("composer should open on enter")
	}
	m, _ = pressKey(t, m, "x")

	m, _ = pressKey(t, m, "esc")
	if m.composing {
		t.Error("esc should close the composer")
	}
	if got := m.input.Value(); got != "" {
		t.Errorf("esc should discard the draft, got %q", got)
	}
}

func TestComposerIgnoresBlankFeedback(t *testing.T) {
	m, _ := newTestModel(t, refSession())

	m, _ = pressKey(t, m, "i")
	for _, r := range "   " {
		m, _ = pressKey(t, m, string(r))
	}
	m, cmd := pressKey(t, m, "enter")
	if cmd != nil {
		t.Error("blank feedback should not produce a command")
	}
	if m.composing {
		t.Error("composer should still close")
	}
}

func TestComposerRequiresSession(t *testing.T) {
	m, _ := newTestModel(t, nil)

	m, _ = pressKey(t, m, "i")
	if m.composing {
		t.Error("composer should not open without a session")
	}
}

func TestActionResultUpdatesInfoMessage(t *testing.T) {
	tests := []struct {
		name string
		msg  actionResultMsg
		want string
	}{
		{
			name: "approve",
			msg:  actionResultMsg{action: "approve", stage: pipeline.StageStory},
			want: "Approved Story",
		},
		{
			name: "regenerate",
			msg:  actionResultMsg{action: "regenerate", stage: pipeline.StageVideo},
			want: "Regenerating Video...",
		},
		{
			name: "feedback",
			msg:  actionResultMsg{action: "feedback"},
			want: "Feedback sent",
		},
		{
			name: "reconnect",
			msg:  actionResultMsg{action: "reconnect"},
			want: "Reconnected",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newTestModel(t, refSession())
			updated, _ := m.Update(tt.msg)
			m = updated.(Model)
			if m.infoMessage != tt.want {
				t.Errorf("infoMessage = %q, want %q", m.infoMessage, tt.want)
			}
		})
	}
}

func TestActionResultErrorLeavesBannerToCoordinator(t *testing.T) {
	m, _ := newTestModel(t, refSession())
	m.selection = pipeline.Selection{0}

	updated, _ := m.Update(actionResultMsg{action: "approve", err: context.Canceled})
	m = updated.(Model)

	if m.infoMessage != "" {
		t.Errorf("infoMessage = %q, want empty on error", m.infoMessage)
	}
	if len(m.selection) == 0 {
		t.Error("failed approve should keep the picks")
	}
}

func TestApproveClearsPicks(t *testing.T) {
	m, _ := newTestModel(t, refSession())
	m.selection = pipeline.Selection{0}

	updated, _ := m.Update(actionResultMsg{action: "approve", stage: pipeline.StageReferenceImage})
	m = updated.(Model)
	if len(m.selection) != 0 {
		t.Errorf("selection = %v, want cleared after approve", m.selection)
	}
}

func TestViewWelcomeWithoutSession(t *testing.T) {
	m, _ := newTestModel(t, nil)

	out := m.View()
	if !strings.Contains(out, "No active session") {
		t.Errorf("welcome screen missing, got:\n%s", out)
	}
	if !strings.Contains(out, "adforge start") {
		t.Error("welcome screen should mention the start command")
	}
}

func TestViewShowsStageBarAndImages(t *testing.T) {
	m, _ := newTestModel(t, refSession())

	out := m.View()
	for _, want := range []string{"Story", "Reference Images", "img-1.png", "runner at dawn"} {
		if !strings.Contains(out, want) {
			t.Errorf("View() missing %q", want)
		}
	}
	if !strings.Contains(out, "✓") {
		t.Error("stage bar should mark the completed story stage")
	}
}

func TestViewShowsConversation(t *testing.T) {
	sess := refSession()
	sess.Conversation = []pipeline.ChatMessage{
		{Type: pipeline.MessageUser, Content: "warmer light please", Timestamp: time.Now()},
		{Type: pipeline.MessageAssistant, Content: "Adjusting the palette.", Timestamp: time.Now()},
	}
	m, _ := newTestModel(t, sess)

	out := m.View()
	if !strings.Contains(out, "warmer light please") {
		t.Error("conversation should include the user message")
	}
	if !strings.Contains(out, "Adjusting the palette.") {
		t.Error("conversation should include the assistant reply")
	}
}

func TestConversationTruncatesToLimit(t *testing.T) {
	sess := refSession()
	for i := 0; i < 10; i++ {
		sess.Conversation = append(sess.Conversation, pipeline.ChatMessage{
			Type:    pipeline.MessageUser,
			Content: strings.Repeat("x", 5),
		})
	}
	sess.Conversation[0].Content = "first message"
	sess.Conversation[9].Content = "last message"

	m, _ := newTestModel(t, sess)
	m.maxConversationLines = 3

	out := m.renderConversation()
	if strings.Contains(out, "first message") {
		t.Error("oldest message should be dropped")
	}
	if !strings.Contains(out, "last message") {
		t.Error("newest message should be kept")
	}
}

func TestBusEventResyncsPicks(t *testing.T) {
	m, coord := newTestModel(t, refSession())

	m, _ = pressKey(t, m, "1")
	if len(m.selection) == 0 {
		t.Fatal("pick did not register")
	}

	coord.Clear()
	updated, _ := m.Update(busMsg{event: event.NewSessionClearedEvent()})
	m = updated.(Model)
	if len(m.selection) != 0 {
		t.Errorf("selection = %v, want reset after the session cleared", m.selection)
	}
}
