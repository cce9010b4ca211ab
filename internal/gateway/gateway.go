// Package gateway exposes the user-facing pipeline actions: starting a
// run, approving the stage under review, and requesting a regeneration.
// It owns the optimistic transition that follows a successful approve
// and the single-action-in-flight guard that blocks double submission.
package gateway

import (
	"context"
	"fmt"
	"sync"

	"github.com/adforge/adforge/internal/backend"
	"github.com/adforge/adforge/internal/errors"
	"github.com/adforge/adforge/internal/event"
	"github.com/adforge/adforge/internal/logging"
	"github.com/adforge/adforge/internal/pipeline"
	"github.com/adforge/adforge/internal/store"
)

// Watcher marks a stage as awaiting a fresh result so the poll loop
// keeps refetching until it lands.
type Watcher interface {
	Watch(sessionID string, pendingStage pipeline.Stage)
}

// Gateway coordinates action calls against the backend with the local
// session store. Action failures leave the stored session untouched;
// the last known good state stays visible to the user.
type Gateway struct {
	client  backend.Client
	store   *store.Store
	watcher Watcher
	bus     *event.Bus
	logger  *logging.Logger

	mu       sync.Mutex
	inFlight bool
}

// New creates a Gateway. The bus may be nil, in which case no action
// lifecycle events are published.
func New(client backend.Client, st *store.Store, watcher Watcher, bus *event.Bus, logger *logging.Logger) *Gateway {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Gateway{
		client:  client,
		store:   st,
		watcher: watcher,
		bus:     bus,
		logger:  logger,
	}
}

// InFlight reports whether an action call is currently outstanding.
func (g *Gateway) InFlight() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inFlight
}

func (g *Gateway) begin() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.inFlight {
		return errors.ErrActionInFlight
	}
	g.inFlight = true
	return nil
}

func (g *Gateway) end() {
	g.mu.Lock()
	g.inFlight = false
	g.mu.Unlock()
}

func (g *Gateway) publish(ev event.Event) {
	if g.bus != nil {
		g.bus.Publish(ev)
	}
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// StartPipeline creates a fresh session from a prompt. Any prior
// session must have been cleared first; two unrelated sessions are
// never merged.
func (g *Gateway) StartPipeline(ctx context.Context, prompt string, targetDuration int, mode string) (sess *pipeline.Session, err error) {
	if err := g.begin(); err != nil {
		return nil, err
	}
	g.publish(event.NewActionStartedEvent(event.ActionStart, ""))
	defer func() {
		g.end()
		g.publish(event.NewActionFinishedEvent(event.ActionStart, "", errMessage(err)))
	}()

	if existing := g.store.Get(); existing != nil {
		return nil, errors.NewSessionError(
			"clear the active session before starting a new pipeline",
			errors.ErrSessionExists,
		).WithSessionID(existing.ID)
	}

	sess, err = g.client.StartPipeline(ctx, prompt, targetDuration, mode)
	if err != nil {
		return nil, err
	}

	g.store.Apply(sess)
	g.logger.Info("pipeline started",
		"session_id", sess.ID,
		"status", sess.Status,
		"mode", mode,
	)
	return sess, nil
}

// Approve advances the pipeline past the given stage. On success the
// local session optimistically moves to the returned next stage with an
// emptied conversation, the next stage is handed to the poll watcher,
// and one immediate refetch reconciles against the authoritative state
// in case the matching realtime event was already missed.
func (g *Gateway) Approve(ctx context.Context, stage pipeline.Stage, note string, selection pipeline.Selection) (next pipeline.Stage, err error) {
	if err := g.begin(); err != nil {
		return "", err
	}
	g.publish(event.NewActionStartedEvent(event.ActionApprove, stage))
	defer func() {
		g.end()
		g.publish(event.NewActionFinishedEvent(event.ActionApprove, stage, errMessage(err)))
	}()

	sess := g.store.Get()
	if sess == nil {
		return "", errors.NewSessionError("cannot approve without an active session", errors.ErrNoActiveSession)
	}
	if stage != sess.Status {
		return "", g.stageMismatch("approve", stage, sess)
	}

	sel := selection.Normalize(stage, sess)
	next, err = g.client.ApproveStage(ctx, sess.ID, stage, note, sel)
	if err != nil {
		return "", err
	}

	optimistic := sess
	optimistic.Status = next
	optimistic.Conversation = nil
	g.store.ApplyOptimistic(optimistic)

	g.watcher.Watch(sess.ID, next)
	g.refetch(ctx, sess.ID)

	g.logger.Info("stage approved",
		"session_id", sess.ID,
		"stage", stage,
		"next_stage", next,
		"selection", sel,
	)
	return next, nil
}

// Regenerate asks the backend to redo the current stage with feedback.
// The session status does not change; the stage itself becomes the
// pending stage until its replacement output arrives.
func (g *Gateway) Regenerate(ctx context.Context, stage pipeline.Stage, note string, selection pipeline.Selection) (err error) {
	if err := g.begin(); err != nil {
		return err
	}
	g.publish(event.NewActionStartedEvent(event.ActionRegenerate, stage))
	defer func() {
		g.end()
		g.publish(event.NewActionFinishedEvent(event.ActionRegenerate, stage, errMessage(err)))
	}()

	sess := g.store.Get()
	if sess == nil {
		return errors.NewSessionError("cannot regenerate without an active session", errors.ErrNoActiveSession)
	}
	if stage != sess.Status {
		return g.stageMismatch("regenerate", stage, sess)
	}

	sel := selection.Normalize(stage, sess)
	if err := g.client.Regenerate(ctx, sess.ID, stage, note, sel); err != nil {
		return err
	}

	g.watcher.Watch(sess.ID, stage)

	g.logger.Info("stage regeneration requested",
		"session_id", sess.ID,
		"stage", stage,
		"selection", sel,
	)
	return nil
}

func (g *Gateway) stageMismatch(action string, stage pipeline.Stage, sess *pipeline.Session) error {
	return errors.NewSessionError(
		fmt.Sprintf("cannot %s stage %s while the session is on %s", action, stage, sess.Status),
		errors.ErrStageMismatch,
	).WithSessionID(sess.ID).WithStage(string(stage))
}

// refetch pulls the full session once after an accepted action. A
// failure here is not an action failure: the poll loop reaches the
// same state on its next tick.
func (g *Gateway) refetch(ctx context.Context, sessionID string) {
	full, err := g.client.GetSession(ctx, sessionID)
	if err != nil {
		g.logger.Warn("post-action refetch failed", "session_id", sessionID, "error", err)
		return
	}
	g.store.Apply(full)
}
