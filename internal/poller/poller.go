// Package poller drives periodic session refetches while a stage is
// generating. Polling complements the realtime channel: push events
// surface results sooner when the channel is healthy, but the poll loop
// alone is enough for the session to converge, so a dropped channel
// never strands a running pipeline.
package poller

import (
	"context"
	"sync"
	"time"

	"github.com/adforge/adforge/internal/event"
	"github.com/adforge/adforge/internal/logging"
	"github.com/adforge/adforge/internal/pipeline"
)

// DefaultInterval is the poll cadence used when no interval is configured.
const DefaultInterval = 3 * time.Second

// FetchFunc retrieves the authoritative session state from the backend.
type FetchFunc func(ctx context.Context, sessionID string) (*pipeline.Session, error)

// ApplyFunc hands a fetched session to the caller's store.
type ApplyFunc func(sess *pipeline.Session)

// Driver runs at most one poll loop at a time. Each Watch call replaces
// the previous loop; Stop halts the loop and returns only once no
// further fetches can begin.
type Driver struct {
	interval time.Duration
	fetch    FetchFunc
	apply    ApplyFunc
	bus      *event.Bus
	logger   *logging.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewDriver creates a poll driver. An interval of zero or less falls
// back to DefaultInterval. The bus may be nil, in which case no poll
// lifecycle events are published.
func NewDriver(interval time.Duration, fetch FetchFunc, apply ApplyFunc, bus *event.Bus, logger *logging.Logger) *Driver {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Driver{
		interval: interval,
		fetch:    fetch,
		apply:    apply,
		bus:      bus,
		logger:   logger,
	}
}

// Watch starts polling the given session until the pending stage has
// produced output or the session has moved past it. Any loop started by
// a previous Watch is stopped first. The first fetch happens one
// interval after Watch returns; callers that need the state right away
// perform their own immediate refetch.
func (d *Driver) Watch(sessionID string, pendingStage pipeline.Stage) {
	d.mu.Lock()
	d.stopLocked()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	d.cancel = cancel
	d.done = done

	logger := d.logger.WithSession(sessionID).WithStage(string(pendingStage))
	go func() {
		defer close(done)
		d.run(ctx, logger, sessionID, pendingStage)
	}()
	d.mu.Unlock()

	logger.Debug("poll watch started", "interval", d.interval)
	d.publish(event.NewPollStartedEvent(pendingStage))
}

// Stop cancels the current poll loop, if any, and waits for it to exit.
// After Stop returns no further fetches will be issued.
func (d *Driver) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
}

func (d *Driver) stopLocked() {
	if d.cancel == nil {
		return
	}
	d.cancel()
	<-d.done
	d.cancel = nil
	d.done = nil
}

// Active reports whether a poll loop is currently running.
func (d *Driver) Active() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.done == nil {
		return false
	}
	select {
	case <-d.done:
		return false
	default:
		return true
	}
}

func (d *Driver) run(ctx context.Context, logger *logging.Logger, sessionID string, pendingStage pipeline.Stage) {
	reason := "canceled"
	defer func() {
		d.publish(event.NewPollStoppedEvent(pendingStage, reason))
	}()

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if ctx.Err() != nil {
			return
		}

		sess, err := d.fetch(ctx, sessionID)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			// Transient fetch failures are tolerated; the next tick
			// tries again.
			logger.Warn("poll fetch failed", "error", err)
			continue
		}

		d.apply(sess)

		if Settled(sess, pendingStage) {
			logger.Debug("poll watch settled", "status", sess.Status)
			reason = "satisfied"
			return
		}
	}
}

func (d *Driver) publish(ev event.Event) {
	if d.bus != nil {
		d.bus.Publish(ev)
	}
}

// Settled reports whether polling for a pending stage can stop: the
// stage has produced output, or the session status has moved to a
// different stage. An error status alone does not settle the watch;
// the backend may still recover and finish the stage.
func Settled(sess *pipeline.Session, pendingStage pipeline.Stage) bool {
	if sess == nil {
		return false
	}
	if sess.Outputs.ForStage(pendingStage) {
		return true
	}
	return sess.Status != pendingStage && sess.Status != pipeline.StageError
}
