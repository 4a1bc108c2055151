package events

import (
	"sync"
	"time"
)

// Event is a typed notification published on the bus.
//
// Data holds event-specific payload and is shared between subscribers;
// publishers must not mutate it after publishing.
type Event struct {
	Type string         `json:"event_type"`
	Data map[string]any `json:"data"`
	Time time.Time      `json:"time_fired"`
}

// Handler receives published events. Handlers run on the publisher's
// goroutine and must not block.
type Handler func(Event)

// MatchAll subscribes a handler to every event type.
const MatchAll = "*"

// Bus is an in-process publish/subscribe event bus.
//
// Subscriptions are keyed by event type, with MatchAll receiving
// everything. All methods are safe for concurrent use.
type Bus struct {
	mu   sync.RWMutex
	subs map[string]map[int]Handler
	next int
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[string]map[int]Handler)}
}

// Subscribe registers a handler for an event type and returns a cancel
// function that removes the subscription. eventType "" is treated as
// MatchAll.
func (b *Bus) Subscribe(eventType string, handler Handler) func() {
	if eventType == "" {
		eventType = MatchAll
	}

	b.mu.Lock()
	id := b.next
	b.next++
	if b.subs[eventType] == nil {
		b.subs[eventType] = make(map[int]Handler)
	}
	b.subs[eventType][id] = handler
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if handlers, ok := b.subs[eventType]; ok {
			delete(handlers, id)
			if len(handlers) == 0 {
				delete(b.subs, eventType)
			}
		}
	}
}

// Publish fires an event to all matching subscribers. The fired time is
// stamped here if the caller left it zero.
func (b *Bus) Publish(eventType string, data map[string]any) {
	event := Event{
		Type: eventType,
		Data: data,
		Time: time.Now().UTC(),
	}

	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[eventType])+len(b.subs[MatchAll]))
	for _, h := range b.subs[eventType] {
		handlers = append(handlers, h)
	}
	for _, h := range b.subs[MatchAll] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	// Handlers run outside the lock so they can subscribe/unsubscribe.
	for _, h := range handlers {
		h(event)
	}
}

// SubscriberCount returns the number of active subscriptions for a type.
func (b *Bus) SubscriberCount(eventType string) int {
	if eventType == "" {
		eventType = MatchAll
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[eventType])
}
