// Package realtime maintains the push connection that delivers stage
// completions, conversation messages, and pipeline errors for one session.
// A Channel owns a single connection, survives transient drops by
// redialing within a configured budget, and reports a terminal connection
// loss once that budget is exhausted. It never mutates session state
// itself; received events are forwarded to registered handlers.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/adforge/adforge/internal/errors"
	"github.com/adforge/adforge/internal/logging"
	"github.com/adforge/adforge/internal/pipeline"
)

// ConnState describes the channel's connection lifecycle.
type ConnState string

const (
	StateConnecting   ConnState = "connecting"
	StateConnected    ConnState = "connected"
	StateDisconnected ConnState = "disconnected"
)

// StageCompleteHandler receives stage completion events. The session
// snapshot is nil when the service did not include one.
type StageCompleteHandler func(stage pipeline.Stage, session *pipeline.Session)

// InteractionHandler receives conversation messages: feedback echoes and
// assistant responses.
type InteractionHandler func(msg pipeline.ChatMessage)

// ErrorHandler receives channel errors. terminal is true only when the
// reconnect budget is exhausted and the channel has given up.
type ErrorHandler func(message string, terminal bool)

// StateHandler receives connection state transitions.
type StateHandler func(previous, current ConnState)

// DefaultRedialDelay is the pause between reconnect attempts when the
// config does not specify one.
const DefaultRedialDelay = time.Second

// ChannelConfig configures a Channel.
type ChannelConfig struct {
	// BaseURL is the ws or wss base URL without a trailing slash.
	BaseURL string
	// SessionID scopes the subscription.
	SessionID string
	// ReconnectBudget is the number of consecutive redial attempts made
	// after a drop before the channel reports a terminal connection loss.
	// Zero means the first drop is terminal.
	ReconnectBudget int
	// RedialDelay is the pause between redial attempts. Zero means
	// DefaultRedialDelay.
	RedialDelay time.Duration
	// Transport dials connections.
	Transport Transport
	// Logger may be nil.
	Logger *logging.Logger
}

// Channel is a session-scoped push subscription.
type Channel struct {
	cfg    ChannelConfig
	logger *logging.Logger

	mu     sync.Mutex
	state  ConnState
	conn   Conn
	cancel context.CancelFunc
	wg     sync.WaitGroup

	onStageComplete StageCompleteHandler
	onInteraction   InteractionHandler
	onError         ErrorHandler
	onState         StateHandler
}

// NewChannel creates a disconnected Channel. Handlers should be registered
// before Connect.
func NewChannel(cfg ChannelConfig) *Channel {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NopLogger()
	}
	if cfg.SessionID != "" {
		logger = logger.WithSession(cfg.SessionID)
	}
	if cfg.RedialDelay == 0 {
		cfg.RedialDelay = DefaultRedialDelay
	}
	return &Channel{
		cfg:    cfg,
		logger: logger,
		state:  StateDisconnected,
	}
}

// SessionID returns the session this channel is scoped to.
func (c *Channel) SessionID() string {
	return c.cfg.SessionID
}

// OnStageComplete registers the stage completion handler.
func (c *Channel) OnStageComplete(fn StageCompleteHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onStageComplete = fn
}

// OnInteraction registers the conversation message handler.
func (c *Channel) OnInteraction(fn InteractionHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onInteraction = fn
}

// OnError registers the error handler.
func (c *Channel) OnError(fn ErrorHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onError = fn
}

// OnStateChange registers the connection state handler.
func (c *Channel) OnStateChange(fn StateHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onState = fn
}

// State returns the current connection state.
func (c *Channel) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsConnected reports whether the channel is currently connected.
func (c *Channel) IsConnected() bool {
	return c.State() == StateConnected
}

// Connect dials the channel and starts the read loop. It is a no-op when
// the channel is already connected or connecting. The context bounds the
// dial only; the connection itself lives until Disconnect or a terminal
// loss.
func (c *Channel) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateDisconnected {
		c.mu.Unlock()
		return nil
	}
	c.state = StateConnecting
	stateHandler := c.onState
	c.mu.Unlock()
	if stateHandler != nil {
		stateHandler(StateDisconnected, StateConnecting)
	}

	conn, err := c.cfg.Transport.Dial(ctx, c.url())
	if err != nil {
		c.setState(StateDisconnected)
		return errors.NewChannelError("dial failed", err).
			WithSessionID(c.cfg.SessionID)
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	c.mu.Lock()
	c.conn = conn
	c.cancel = cancel
	c.mu.Unlock()
	c.setState(StateConnected)

	c.wg.Add(1)
	go c.readLoop(loopCtx, conn)

	c.logger.Info("channel connected")
	return nil
}

// Disconnect closes the channel and waits for the read loop to exit.
// Safe to call repeatedly. Must not be called from inside an event
// handler.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	cancel := c.cancel
	conn := c.conn
	c.cancel = nil
	c.conn = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		_ = conn.Close()
	}
	c.wg.Wait()
	c.setState(StateDisconnected)
}

// SendFeedback sends a feedback message for the current stage, optionally
// scoped to selected output items. The message is not appended to the
// local conversation here; the service echoes it back as an
// llm_interaction event.
func (c *Channel) SendFeedback(message string, selection pipeline.Selection) error {
	c.mu.Lock()
	conn := c.conn
	connected := c.state == StateConnected
	c.mu.Unlock()

	if !connected || conn == nil {
		return errors.NewChannelError("cannot send feedback", errors.ErrNotConnected).
			WithSessionID(c.cfg.SessionID)
	}

	frame := feedbackFrame{Type: feedbackFrameType, Message: message, Selection: selection}
	if err := conn.WriteJSON(frame); err != nil {
		return errors.NewChannelError("feedback send failed", err).
			WithSessionID(c.cfg.SessionID)
	}

	c.logger.Debug("feedback sent", "selected", len(selection))
	return nil
}

func (c *Channel) url() string {
	return fmt.Sprintf("%s/ws/pipeline/%s", c.cfg.BaseURL, c.cfg.SessionID)
}

// setState transitions the connection state and notifies the state
// handler outside the lock. Same-state transitions are dropped.
func (c *Channel) setState(next ConnState) {
	c.mu.Lock()
	prev := c.state
	if prev == next {
		c.mu.Unlock()
		return
	}
	c.state = next
	handler := c.onState
	c.mu.Unlock()

	if handler != nil {
		handler(prev, next)
	}
}

// readLoop pumps messages from the connection until it is deliberately
// disconnected or the reconnect budget is exhausted.
func (c *Channel) readLoop(ctx context.Context, conn Conn) {
	defer c.wg.Done()

	current := conn
	for {
		data, err := current.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				// Deliberate disconnect.
				return
			}
			c.logger.Warn("channel read failed", "error", err)

			next, ok := c.redial(ctx)
			if !ok {
				if ctx.Err() == nil {
					c.terminalLost()
				}
				return
			}
			current = next
			continue
		}
		c.dispatch(data)
	}
}

// redial attempts to re-establish the connection, trying up to the
// reconnect budget with a fixed delay between attempts. Each failed
// attempt is surfaced as a non-terminal error.
func (c *Channel) redial(ctx context.Context) (Conn, bool) {
	c.setState(StateConnecting)

	budget := c.cfg.ReconnectBudget
	for attempt := 1; attempt <= budget; attempt++ {
		conn, err := c.cfg.Transport.Dial(ctx, c.url())
		if err == nil {
			c.mu.Lock()
			c.conn = conn
			c.mu.Unlock()
			c.setState(StateConnected)
			c.logger.Info("channel reconnected", "attempt", attempt)
			return conn, true
		}

		c.logger.Warn("reconnect attempt failed",
			"attempt", attempt, "budget", budget, "error", err)
		c.emitError(fmt.Sprintf("connection interrupted, reconnect attempt %d/%d failed",
			attempt, budget), false)

		if attempt < budget {
			select {
			case <-ctx.Done():
				return nil, false
			case <-time.After(c.cfg.RedialDelay):
			}
		}
	}
	return nil, false
}

// terminalLost marks the channel permanently down for this connection
// attempt cycle. Recovery requires an explicit Connect.
func (c *Channel) terminalLost() {
	c.mu.Lock()
	cancel := c.cancel
	c.cancel = nil
	c.conn = nil
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}

	c.setState(StateDisconnected)
	c.logger.Error("channel lost, reconnect budget exhausted",
		"budget", c.cfg.ReconnectBudget)
	c.emitError("connection lost", true)
}

func (c *Channel) emitError(message string, terminal bool) {
	c.mu.Lock()
	handler := c.onError
	c.mu.Unlock()
	if handler != nil {
		handler(message, terminal)
	}
}

// dispatch decodes a frame and routes it to the matching handler.
// Malformed frames are dropped with a log line; they never kill the loop.
func (c *Channel) dispatch(data []byte) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		c.logger.Warn("dropping malformed frame", "error", err)
		return
	}

	switch env.Event {
	case EventStageComplete:
		var p StageCompletePayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			c.logger.Warn("dropping malformed stage_complete payload", "error", err)
			return
		}
		c.mu.Lock()
		handler := c.onStageComplete
		c.mu.Unlock()
		if handler != nil {
			handler(p.Stage, p.Session)
		}

	case EventLLMInteraction:
		var msg pipeline.ChatMessage
		if err := json.Unmarshal(env.Payload, &msg); err != nil {
			c.logger.Warn("dropping malformed llm_interaction payload", "error", err)
			return
		}
		c.mu.Lock()
		handler := c.onInteraction
		c.mu.Unlock()
		if handler != nil {
			handler(msg)
		}

	case EventError:
		var p ErrorPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			c.logger.Warn("dropping malformed error payload", "error", err)
			return
		}
		c.emitError(p.Message, false)

	default:
		c.logger.Debug("ignoring unknown event", "event", env.Event)
	}
}
