package event

import (
	"fmt"
	"log"
	"runtime/debug"
	"sync"
)

// Handler receives a published event.
type Handler func(Event)

// subscriber pairs a handler with the id handed back to the caller.
type subscriber struct {
	id      string
	handler Handler
}

// Bus is a synchronous publish/subscribe dispatcher. The session store, the
// realtime channel, and the poll driver all publish into one bus; the
// coordinator and TUI subscribe. Delivery happens on the publisher's
// goroutine, so the store's mutex discipline is what serializes handlers.
type Bus struct {
	mu       sync.RWMutex
	byType   map[string][]subscriber
	wildcard []subscriber
	lastID   uint64
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{byType: make(map[string][]subscriber)}
}

// Subscribe registers a handler for one event type and returns an id for
// Unsubscribe.
func (b *Bus) Subscribe(eventType string, handler Handler) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := subscriber{id: b.newID(), handler: handler}
	b.byType[eventType] = append(b.byType[eventType], sub)
	return sub.id
}

// SubscribeAll registers a handler that receives every published event,
// after any type-specific handlers.
func (b *Bus) SubscribeAll(handler Handler) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := subscriber{id: b.newID(), handler: handler}
	b.wildcard = append(b.wildcard, sub)
	return sub.id
}

// newID must be called with b.mu held.
func (b *Bus) newID() string {
	b.lastID++
	return fmt.Sprintf("sub-%d", b.lastID)
}

// Unsubscribe removes the subscription with the given id. It reports
// whether the id was found.
func (b *Bus) Unsubscribe(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for eventType, subs := range b.byType {
		if pruned, ok := remove(subs, id); ok {
			b.byType[eventType] = pruned
			return true
		}
	}
	if pruned, ok := remove(b.wildcard, id); ok {
		b.wildcard = pruned
		return true
	}
	return false
}

func remove(subs []subscriber, id string) ([]subscriber, bool) {
	for i, sub := range subs {
		if sub.id == id {
			return append(subs[:i], subs[i+1:]...), true
		}
	}
	return subs, false
}

// Publish delivers the event to type-specific handlers in registration
// order, then to wildcard handlers. A panicking handler is recovered and
// logged; the remaining handlers still run. The subscriber lists are copied
// under the read lock so a handler may subscribe or unsubscribe without
// deadlocking.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	targets := make([]subscriber, 0, len(b.byType[ev.EventType()])+len(b.wildcard))
	targets = append(targets, b.byType[ev.EventType()]...)
	targets = append(targets, b.wildcard...)
	b.mu.RUnlock()

	for _, sub := range targets {
		deliver(sub.handler, ev)
	}
}

func deliver(handler Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ERROR: handler for %s panicked: %v\n%s",
				ev.EventType(), r, debug.Stack())
		}
	}()
	handler(ev)
}

// Clear drops every subscription.
func (b *Bus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.byType = make(map[string][]subscriber)
	b.wildcard = nil
}

// SubscriptionCount returns the number of live subscriptions, wildcard
// included.
func (b *Bus) SubscriptionCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n := len(b.wildcard)
	for _, subs := range b.byType {
		n += len(subs)
	}
	return n
}
