// Package coordinator owns the lifecycle of a pipeline session. It
// wires the session store, the realtime channel, the poll fallback
// driver, and the action gateway into one unit: starting, resuming,
// and clearing a session tear the previous wiring down before the next
// one is established, and the two independent update sources reconcile
// through the store's idempotent apply.
package coordinator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/adforge/adforge/internal/backend"
	"github.com/adforge/adforge/internal/errors"
	"github.com/adforge/adforge/internal/event"
	"github.com/adforge/adforge/internal/gateway"
	"github.com/adforge/adforge/internal/logging"
	"github.com/adforge/adforge/internal/pipeline"
	"github.com/adforge/adforge/internal/poller"
	"github.com/adforge/adforge/internal/realtime"
	"github.com/adforge/adforge/internal/stageview"
	"github.com/adforge/adforge/internal/store"
)

// Channel is the realtime connection surface the coordinator drives.
// *realtime.Channel satisfies it; tests substitute fakes.
type Channel interface {
	Connect(ctx context.Context) error
	Disconnect()
	SendFeedback(message string, selection pipeline.Selection) error
	SessionID() string
	State() realtime.ConnState
	IsConnected() bool
	OnStageComplete(fn realtime.StageCompleteHandler)
	OnInteraction(fn realtime.InteractionHandler)
	OnError(fn realtime.ErrorHandler)
	OnStateChange(fn realtime.StateHandler)
}

// ChannelFactory creates a realtime channel bound to a session id.
type ChannelFactory func(sessionID string) Channel

var _ Channel = (*realtime.Channel)(nil)

// Config carries the coordinator's collaborators.
type Config struct {
	// Client talks to the backend pipeline service.
	Client backend.Client
	// ChannelFactory builds the realtime channel for a session.
	ChannelFactory ChannelFactory
	// Snapshot persists the session across restarts. Optional.
	Snapshot *store.Snapshot
	// PollInterval is the poll fallback cadence. Zero uses the default.
	PollInterval time.Duration
	// Bus announces state changes. Created internally when nil.
	Bus *event.Bus
	// Logger may be nil.
	Logger *logging.Logger
}

// Coordinator drives one pipeline session at a time.
type Coordinator struct {
	client   backend.Client
	store    *store.Store
	poller   *poller.Driver
	gateway  *gateway.Gateway
	splitter *stageview.Splitter
	bus      *event.Bus
	logger   *logging.Logger

	channelFactory ChannelFactory
	storeUnsub     func()

	mu      sync.Mutex
	channel Channel
	lastErr string
}

// New wires a coordinator from its collaborators.
func New(cfg Config) *Coordinator {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NopLogger()
	}
	bus := cfg.Bus
	if bus == nil {
		bus = event.NewBus()
	}

	st := store.New(bus, cfg.Snapshot, logger)
	c := &Coordinator{
		client:         cfg.Client,
		store:          st,
		splitter:       stageview.NewSplitter(),
		bus:            bus,
		logger:         logger,
		channelFactory: cfg.ChannelFactory,
	}
	c.poller = poller.NewDriver(cfg.PollInterval, cfg.Client.GetSession, st.Apply, bus, logger)
	c.gateway = gateway.New(cfg.Client, st, c.poller, bus, logger)
	c.storeUnsub = st.Subscribe(c.splitter.Observe)
	return c
}

// StartFresh clears any active session and starts a new pipeline from a
// prompt. The realtime channel attaches only after the backend has
// confirmed the fresh session, so a connection never races a session id
// that is about to be replaced.
func (c *Coordinator) StartFresh(ctx context.Context, prompt string, targetDuration int, mode string) (*pipeline.Session, error) {
	c.teardown()
	c.store.Clear()
	c.setError("")

	sess, err := c.gateway.StartPipeline(ctx, prompt, targetDuration, mode)
	if err != nil {
		c.setError(err.Error())
		return nil, err
	}

	// A connect failure is not a start failure; the poll loop still
	// converges and the banner reports the channel state.
	_ = c.attachChannel(ctx, sess.ID)
	c.watchIfGenerating(sess)
	return sess, nil
}

// Resume rehydrates the persisted session and re-validates it against
// the backend. Unlike a fresh start, a restored session connects its
// realtime channel immediately.
func (c *Coordinator) Resume(ctx context.Context) (*pipeline.Session, error) {
	c.teardown()

	sess, err := c.store.Rehydrate()
	if err != nil {
		c.setError(err.Error())
		return nil, err
	}
	return c.restore(ctx, sess.ID)
}

// Attach adopts an existing session by id, for example one started on
// another machine.
func (c *Coordinator) Attach(ctx context.Context, sessionID string) (*pipeline.Session, error) {
	c.teardown()
	return c.restore(ctx, sessionID)
}

func (c *Coordinator) restore(ctx context.Context, sessionID string) (*pipeline.Session, error) {
	full, err := c.client.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, errors.ErrSessionNotFound) {
			// A stale id leaves nothing behind, not even the
			// rehydrated copy.
			c.store.Clear()
		}
		c.setError(fmt.Sprintf("could not restore session %s: %v", sessionID, err))
		return nil, err
	}

	c.store.Apply(full)
	c.setError("")
	_ = c.attachChannel(ctx, full.ID)
	c.watchIfGenerating(full)

	c.logger.Info("session restored", "session_id", full.ID, "status", full.Status)
	return full, nil
}

// Approve advances the pipeline past the live stage.
func (c *Coordinator) Approve(ctx context.Context, note string, selection pipeline.Selection) (pipeline.Stage, error) {
	sess := c.store.Get()
	if sess == nil {
		return "", errors.NewSessionError("cannot approve without an active session", errors.ErrNoActiveSession)
	}
	next, err := c.gateway.Approve(ctx, sess.Status, note, selection)
	if err != nil {
		c.setError(err.Error())
		return "", err
	}
	c.setError("")
	return next, nil
}

// Regenerate redoes the live stage with feedback.
func (c *Coordinator) Regenerate(ctx context.Context, note string, selection pipeline.Selection) error {
	sess := c.store.Get()
	if sess == nil {
		return errors.NewSessionError("cannot regenerate without an active session", errors.ErrNoActiveSession)
	}
	if err := c.gateway.Regenerate(ctx, sess.Status, note, selection); err != nil {
		c.setError(err.Error())
		return err
	}
	c.setError("")
	return nil
}

// SendFeedback forwards a conversational message over the realtime
// channel. The message appears in the local conversation only once the
// backend echoes it back, never optimistically.
func (c *Coordinator) SendFeedback(message string, selection pipeline.Selection) error {
	c.mu.Lock()
	ch := c.channel
	c.mu.Unlock()
	if ch == nil {
		return errors.NewChannelError("no realtime channel for feedback", errors.ErrNotConnected)
	}

	c.bus.Publish(event.NewActionStartedEvent(event.ActionFeedback, ""))
	err := ch.SendFeedback(message, selection)
	if err != nil {
		c.setError(err.Error())
		c.bus.Publish(event.NewActionFinishedEvent(event.ActionFeedback, "", err.Error()))
		return err
	}
	c.bus.Publish(event.NewActionFinishedEvent(event.ActionFeedback, "", ""))
	return nil
}

// Reconnect re-establishes the realtime channel after a terminal
// connection loss.
func (c *Coordinator) Reconnect(ctx context.Context) error {
	c.mu.Lock()
	ch := c.channel
	c.mu.Unlock()

	if ch == nil {
		sess := c.store.Get()
		if sess == nil {
			return errors.NewSessionError("no session to reconnect", errors.ErrNoActiveSession)
		}
		return c.attachChannel(ctx, sess.ID)
	}
	if err := ch.Connect(ctx); err != nil {
		c.setError(err.Error())
		return err
	}
	c.setError("")
	return nil
}

// Clear tears down the poll loop and realtime channel, then discards
// the session. When Clear returns no component holds a reference to the
// old session and no further update can land in its slot.
func (c *Coordinator) Clear() {
	c.teardown()
	c.store.Clear()
	c.setError("")
}

// Close releases everything without clearing the persisted session, so
// a later run can resume it.
func (c *Coordinator) Close() {
	c.teardown()
	if c.storeUnsub != nil {
		c.storeUnsub()
		c.storeUnsub = nil
	}
}

// teardown stops the poll loop and drops the realtime channel. The
// poller is stopped first so no fetch is in flight while the channel
// goes down.
func (c *Coordinator) teardown() {
	c.poller.Stop()

	c.mu.Lock()
	ch := c.channel
	c.channel = nil
	c.mu.Unlock()
	if ch != nil {
		ch.Disconnect()
	}
}

func (c *Coordinator) attachChannel(ctx context.Context, sessionID string) error {
	ch := c.channelFactory(sessionID)
	ch.OnStageComplete(c.handleStageComplete)
	ch.OnInteraction(c.handleInteraction)
	ch.OnError(c.handleChannelError)
	ch.OnStateChange(c.handleStateChange)

	c.mu.Lock()
	c.channel = ch
	c.mu.Unlock()

	if err := ch.Connect(ctx); err != nil {
		// The poll loop still converges without the channel; the
		// session stays usable behind an error banner.
		c.setError(err.Error())
		c.logger.Warn("realtime connect failed", "session_id", sessionID, "error", err)
		return err
	}
	return nil
}

// watchIfGenerating starts the poll fallback when the session's live
// stage has not produced output yet, so a fresh or restored session
// converges even if every push event is lost.
func (c *Coordinator) watchIfGenerating(sess *pipeline.Session) {
	if sess == nil || sess.Status.Terminal() {
		return
	}
	if sess.Outputs.ForStage(sess.Status) {
		return
	}
	c.poller.Watch(sess.ID, sess.Status)
}

func (c *Coordinator) handleStageComplete(stage pipeline.Stage, sess *pipeline.Session) {
	if sess != nil {
		c.store.Apply(sess)
	} else {
		// The push event announced the result without carrying it.
		go c.refetch(c.sessionID())
	}
	c.bus.Publish(event.NewStageCompletedEvent(stage))
}

func (c *Coordinator) handleInteraction(msg pipeline.ChatMessage) {
	c.store.AppendMessage(msg)
	c.bus.Publish(event.NewInteractionEvent(msg))
}

func (c *Coordinator) handleChannelError(message string, terminal bool) {
	c.setError(message)
	if terminal {
		c.logger.Error("realtime channel gave up", "error", message)
	}
	c.bus.Publish(event.NewChannelErrorEvent(message, terminal))
}

func (c *Coordinator) handleStateChange(previous, current realtime.ConnState) {
	c.bus.Publish(event.NewChannelStateEvent(string(previous), string(current)))
}

// refetch pulls the full session and applies it, guarding against the
// session having been switched while the fetch was in flight.
func (c *Coordinator) refetch(sessionID string) {
	if sessionID == "" {
		return
	}
	full, err := c.client.GetSession(context.Background(), sessionID)
	if err != nil {
		c.logger.Warn("session refetch failed", "session_id", sessionID, "error", err)
		return
	}
	current := c.store.Get()
	if current == nil || current.ID != full.ID {
		return
	}
	c.store.Apply(full)
}

func (c *Coordinator) sessionID() string {
	if sess := c.store.Get(); sess != nil {
		return sess.ID
	}
	return ""
}

func (c *Coordinator) setError(message string) {
	c.mu.Lock()
	c.lastErr = message
	c.mu.Unlock()
}

// Session returns a copy of the active session, or nil.
func (c *Coordinator) Session() *pipeline.Session {
	return c.store.Get()
}

// Unconfirmed reports whether the current session state is a local
// optimistic projection awaiting backend confirmation.
func (c *Coordinator) Unconfirmed() bool {
	return c.store.Unconfirmed()
}

// View returns the current view/live stage split.
func (c *Coordinator) View() stageview.View {
	return c.splitter.Snapshot()
}

// Splitter exposes the view navigation surface.
func (c *Coordinator) Splitter() *stageview.Splitter {
	return c.splitter
}

// Bus exposes the event bus for UI adapters.
func (c *Coordinator) Bus() *event.Bus {
	return c.bus
}

// InFlight reports whether an action call is outstanding.
func (c *Coordinator) InFlight() bool {
	return c.gateway.InFlight()
}

// Polling reports whether the poll fallback is watching a pending stage.
func (c *Coordinator) Polling() bool {
	return c.poller.Active()
}

// Connected reports whether the realtime channel is up.
func (c *Coordinator) Connected() bool {
	c.mu.Lock()
	ch := c.channel
	c.mu.Unlock()
	return ch != nil && ch.IsConnected()
}

// ConnState returns the realtime channel state, disconnected when no
// channel exists.
func (c *Coordinator) ConnState() realtime.ConnState {
	c.mu.Lock()
	ch := c.channel
	c.mu.Unlock()
	if ch == nil {
		return realtime.StateDisconnected
	}
	return ch.State()
}

// ActionsDisabled reports whether stage actions must be blocked for the
// stage currently displayed.
func (c *Coordinator) ActionsDisabled() bool {
	return c.splitter.ActionsDisabled(c.Connected(), c.InFlight())
}

// LastError returns the session-scoped error banner text, empty when
// the last operation succeeded.
func (c *Coordinator) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// DismissError clears the error banner.
func (c *Coordinator) DismissError() {
	c.setError("")
}
