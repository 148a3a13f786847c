// Package event provides the in-process publish/subscribe bus used by the
// supervisor and plugins to announce lifecycle transitions without direct
// coupling. Delivery is synchronous and in-process only; events with no
// subscribers at publish time are dropped.
package event

import (
	"sync"
	"time"

	"github.com/rs/xid"

	"cbhands/internal/logger"
)

// Well-known event names published by the supervisor.
const (
	ServiceStarted = "service.started"
	ServiceStopped = "service.stopped"
	ServiceFailed  = "service.failed"
)

// Payload is a free-form mapping of string to arbitrary value.
type Payload map[string]interface{}

// Event is a transient event record fanned out to subscribers.
type Event struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Payload   Payload   `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

// Handler processes a delivered event. A returned error is logged and does
// not stop delivery to remaining subscribers.
type Handler func(Event) error

// Token identifies a subscription for later removal.
type Token struct {
	event string
	id    string
}

type subscription struct {
	id      string
	handler Handler
}

// Bus fans events out to subscribers synchronously, in subscription order.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]subscription
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[string][]subscription),
	}
}

// Subscribe registers a handler for an event name and returns a token
// usable for Unsubscribe.
func (b *Bus) Subscribe(name string, handler Handler) Token {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := subscription{id: xid.New().String(), handler: handler}
	b.handlers[name] = append(b.handlers[name], sub)
	return Token{event: name, id: sub.id}
}

// Unsubscribe removes the subscription identified by token. Unknown tokens
// are ignored.
func (b *Bus) Unsubscribe(token Token) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.handlers[token.event]
	for i, sub := range subs {
		if sub.id == token.id {
			b.handlers[token.event] = append(subs[:i], subs[i+1:]...)
			return
		}
	}
}

// Publish delivers the event synchronously to all current subscribers for
// name, in subscription order. A failing subscriber is reported and skipped;
// it never prevents delivery to the rest.
func (b *Bus) Publish(name string, payload Payload) Event {
	evt := Event{
		ID:        xid.New().String(),
		Name:      name,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	b.mu.RLock()
	subs := make([]subscription, len(b.handlers[name]))
	copy(subs, b.handlers[name])
	b.mu.RUnlock()

	for _, sub := range subs {
		b.deliver(sub, evt)
	}
	return evt
}

// SubscriberCount returns the number of subscribers for an event name.
func (b *Bus) SubscriberCount(name string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[name])
}

func (b *Bus) deliver(sub subscription, evt Event) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithFields(logger.Fields{
				"event": evt.Name,
				"panic": r,
			}).Error("Event subscriber panicked")
		}
	}()

	if err := sub.handler(evt); err != nil {
		logger.WithFields(logger.Fields{
			"event": evt.Name,
		}).WithError(err).Warn("Event subscriber failed")
	}
}
