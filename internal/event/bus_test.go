package event

import (
	"sync"
	"testing"

	"github.com/adforge/adforge/internal/pipeline"
)

// collector records events delivered to a handler.
type collector struct {
	mu     sync.Mutex
	events []Event
}

func (c *collector) handler(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func (c *collector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func (c *collector) types() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.events))
	for i, e := range c.events {
		out[i] = e.EventType()
	}
	return out
}

func TestBusSubscribePublish(t *testing.T) {
	bus := NewBus()
	var got collector

	bus.Subscribe("stage.completed", got.handler)

	bus.Publish(NewStageCompletedEvent(pipeline.StageStory))
	bus.Publish(NewStageCompletedEvent(pipeline.StageVideo))

	if got.count() != 2 {
		t.Fatalf("expected 2 events, got %d", got.count())
	}

	first, ok := got.events[0].(StageCompletedEvent)
	if !ok {
		t.Fatalf("expected StageCompletedEvent, got %T", got.events[0])
	}
	if first.Stage != pipeline.StageStory {
		t.Errorf("expected stage %q, got %q", pipeline.StageStory, first.Stage)
	}
}

func TestBusPublishIgnoresOtherTypes(t *testing.T) {
	bus := NewBus()
	var got collector

	bus.Subscribe("session.cleared", got.handler)

	bus.Publish(NewStageCompletedEvent(pipeline.StageStory))
	bus.Publish(NewChannelStateEvent("connecting", "connected"))

	if got.count() != 0 {
		t.Errorf("expected no events for unrelated types, got %d", got.count())
	}
}

func TestBusSubscribeAll(t *testing.T) {
	bus := NewBus()
	var got collector

	bus.SubscribeAll(got.handler)

	bus.Publish(NewSessionClearedEvent())
	bus.Publish(NewStageCompletedEvent(pipeline.StageStoryboard))
	bus.Publish(NewChannelStateEvent("connected", "disconnected"))

	want := []string{"session.cleared", "stage.completed", "channel.state_changed"}
	types := got.types()
	if len(types) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(types))
	}
	for i, w := range want {
		if types[i] != w {
			t.Errorf("event %d: expected type %q, got %q", i, w, types[i])
		}
	}
}

func TestBusSpecificHandlersBeforeWildcards(t *testing.T) {
	bus := NewBus()

	var order []string
	var mu sync.Mutex
	record := func(name string) Handler {
		return func(Event) {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
		}
	}

	bus.SubscribeAll(record("wildcard"))
	bus.Subscribe("stage.completed", record("specific"))

	bus.Publish(NewStageCompletedEvent(pipeline.StageStory))

	if len(order) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(order))
	}
	if order[0] != "specific" || order[1] != "wildcard" {
		t.Errorf("expected specific handler first, got order %v", order)
	}
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewBus()
	var got collector

	id := bus.Subscribe("session.updated", got.handler)

	bus.Publish(NewSessionUpdatedEvent(nil))
	if got.count() != 1 {
		t.Fatalf("expected 1 event before unsubscribe, got %d", got.count())
	}

	if !bus.Unsubscribe(id) {
		t.Fatal("expected Unsubscribe to find the subscription")
	}

	bus.Publish(NewSessionUpdatedEvent(nil))
	if got.count() != 1 {
		t.Errorf("expected no delivery after unsubscribe, got %d events", got.count())
	}

	if bus.Unsubscribe(id) {
		t.Error("expected Unsubscribe of removed ID to return false")
	}
}

func TestBusUnsubscribeUnknownID(t *testing.T) {
	bus := NewBus()
	if bus.Unsubscribe("sub-999") {
		t.Error("expected false for unknown subscription ID")
	}
}

func TestBusHandlerPanicRecovery(t *testing.T) {
	bus := NewBus()
	var got collector

	bus.Subscribe("stage.completed", func(Event) {
		panic("handler blew up")
	})
	bus.Subscribe("stage.completed", got.handler)

	// Should not panic, and the second handler still runs.
	bus.Publish(NewStageCompletedEvent(pipeline.StageStory))

	if got.count() != 1 {
		t.Errorf("expected handler after panicking one to run, got %d events", got.count())
	}
}

func TestBusClear(t *testing.T) {
	bus := NewBus()
	var got collector

	bus.Subscribe("stage.completed", got.handler)
	bus.SubscribeAll(got.handler)

	if bus.SubscriptionCount() != 2 {
		t.Fatalf("expected 2 subscriptions, got %d", bus.SubscriptionCount())
	}

	bus.Clear()

	if bus.SubscriptionCount() != 0 {
		t.Errorf("expected 0 subscriptions after Clear, got %d", bus.SubscriptionCount())
	}

	bus.Publish(NewStageCompletedEvent(pipeline.StageStory))
	if got.count() != 0 {
		t.Errorf("expected no delivery after Clear, got %d events", got.count())
	}
}

func TestBusConcurrentPublish(t *testing.T) {
	bus := NewBus()
	var got collector

	bus.Subscribe("stage.completed", got.handler)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bus.Publish(NewStageCompletedEvent(pipeline.StageStory))
		}()
	}
	wg.Wait()

	if got.count() != 10 {
		t.Errorf("expected 10 events from concurrent publish, got %d", got.count())
	}
}

func TestBusSubscribeDuringPublish(t *testing.T) {
	bus := NewBus()
	var got collector

	// A handler that subscribes another handler must not deadlock.
	bus.Subscribe("stage.completed", func(Event) {
		bus.Subscribe("session.cleared", got.handler)
	})

	bus.Publish(NewStageCompletedEvent(pipeline.StageStory))
	bus.Publish(NewSessionClearedEvent())

	if got.count() != 1 {
		t.Errorf("expected handler registered during publish to receive later events, got %d", got.count())
	}
}
