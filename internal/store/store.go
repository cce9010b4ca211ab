// Package store holds the client's authoritative copy of the pipeline
// session. All mutations flow through the Store, which serializes them,
// notifies subscribers through the event bus, and persists a durable
// snapshot for crash recovery and resume.
package store

import (
	"sync"

	"github.com/adforge/adforge/internal/errors"
	"github.com/adforge/adforge/internal/event"
	"github.com/adforge/adforge/internal/logging"
	"github.com/adforge/adforge/internal/pipeline"
)

// Store is the single source of truth for the current session state.
// Server snapshots replace the session wholesale; there is no field-level
// merging. Reads return deep copies so callers can never alias the
// internal state. Bus notifications are published outside the lock so
// handlers may call back into the Store.
type Store struct {
	mu          sync.Mutex
	sess        *pipeline.Session
	unconfirmed bool
	bus         *event.Bus
	snap        *Snapshot
	logger      *logging.Logger
}

// New creates a Store. The snapshot may be nil, in which case no durable
// persistence happens. The bus is required; session changes are announced
// on it.
func New(bus *event.Bus, snap *Snapshot, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Store{
		bus:    bus,
		snap:   snap,
		logger: logger,
	}
}

// Get returns a deep copy of the current session, or nil when no session
// is active.
func (s *Store) Get() *pipeline.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sess.Clone()
}

// Unconfirmed reports whether the current state is an optimistic local
// projection that has not yet been confirmed by a server snapshot.
func (s *Store) Unconfirmed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unconfirmed
}

// Apply replaces the session with an authoritative server snapshot.
// Applying the same snapshot twice leaves the state identical to applying
// it once. Any optimistic tag is cleared: the server snapshot either
// confirms the local projection or supersedes it.
func (s *Store) Apply(sess *pipeline.Session) {
	if sess == nil {
		s.logger.Warn("ignoring nil session snapshot")
		return
	}
	s.mu.Lock()
	s.sess = sess.Clone()
	s.unconfirmed = false
	s.persistLocked()
	snapshot := s.sess.Clone()
	s.mu.Unlock()

	s.bus.Publish(event.NewSessionUpdatedEvent(snapshot))
}

// ApplyOptimistic replaces the session with a locally computed projection
// of a state transition the server has accepted but not yet reported.
// The state is tagged unconfirmed until the next Apply.
func (s *Store) ApplyOptimistic(sess *pipeline.Session) {
	if sess == nil {
		s.logger.Warn("ignoring nil optimistic session")
		return
	}
	s.mu.Lock()
	s.sess = sess.Clone()
	s.unconfirmed = true
	s.persistLocked()
	snapshot := s.sess.Clone()
	s.mu.Unlock()

	s.bus.Publish(event.NewSessionUpdatedEvent(snapshot))
}

// AppendMessage appends a chat message to the session's conversation.
// Used when the realtime channel echoes back a feedback message or
// delivers an assistant response. No-op when no session is active.
func (s *Store) AppendMessage(msg pipeline.ChatMessage) {
	s.mu.Lock()
	if s.sess == nil {
		s.mu.Unlock()
		s.logger.Warn("dropping message with no active session", "type", string(msg.Type))
		return
	}
	s.sess.Conversation = append(s.sess.Conversation, msg)
	s.persistLocked()
	snapshot := s.sess.Clone()
	s.mu.Unlock()

	s.bus.Publish(event.NewSessionUpdatedEvent(snapshot))
}

// Clear discards the session synchronously. When Clear returns, Get
// reports nil and the durable snapshot is gone.
func (s *Store) Clear() {
	s.mu.Lock()
	had := s.sess != nil
	s.sess = nil
	s.unconfirmed = false
	if s.snap != nil {
		if err := s.snap.Remove(); err != nil {
			s.logger.Warn("failed to remove session snapshot", "error", err)
		}
	}
	s.mu.Unlock()

	if had {
		s.bus.Publish(event.NewSessionClearedEvent())
	}
}

// Rehydrate loads the durable snapshot into the store. It runs before
// any network call on resume; the caller re-validates the session
// against the backend afterwards, since the snapshot is a reload
// convenience and never the source of truth.
func (s *Store) Rehydrate() (*pipeline.Session, error) {
	if s.snap == nil {
		return nil, errors.ErrNoActiveSession
	}
	sess, err := s.snap.Load()
	if err != nil {
		return nil, err
	}
	s.Apply(sess)
	return sess, nil
}

// Subscribe registers a handler for session changes. The handler receives
// a deep copy of the new state, or nil when the session was cleared.
// The returned function removes the subscription.
func (s *Store) Subscribe(fn func(*pipeline.Session)) func() {
	updatedID := s.bus.Subscribe("session.updated", func(e event.Event) {
		if ev, ok := e.(event.SessionUpdatedEvent); ok {
			fn(ev.Session)
		}
	})
	clearedID := s.bus.Subscribe("session.cleared", func(e event.Event) {
		fn(nil)
	})
	return func() {
		s.bus.Unsubscribe(updatedID)
		s.bus.Unsubscribe(clearedID)
	}
}

// persistLocked writes the current session to the durable snapshot.
// Persistence is best effort; failures are logged and do not block the
// in-memory update.
func (s *Store) persistLocked() {
	if s.snap == nil || s.sess == nil {
		return
	}
	if err := s.snap.Save(s.sess); err != nil {
		s.logger.Warn("failed to persist session snapshot",
			"session_id", s.sess.ID, "error", err)
	}
}
