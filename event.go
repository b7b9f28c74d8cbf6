package weave

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Event is a notification about a state change, emitted by a handler once
// the change is persisted in its store.
type Event struct {
	// Module is the name of the extension emitting the event.
	Module string
	// Topic names the kind of state change, for example "funded".
	Topic string
	// Key identifies the entity the event is about.
	Key string
	// Payload is the event specific data. It must be JSON serializable.
	Payload interface{}
}

// Tag returns the name under which this event is indexed, for example
// "escrow.funded".
func (e Event) Tag() string {
	return fmt.Sprintf("%s.%s", e.Module, e.Topic)
}

// MarshalJSON serializes the event with lower case names.
func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Module  string      `json:"module"`
		Topic   string      `json:"topic"`
		Key     string      `json:"key"`
		Payload interface{} `json:"payload"`
	}{
		Module:  e.Module,
		Topic:   e.Topic,
		Key:     e.Key,
		Payload: e.Payload,
	})
}

// EventBuffer collects events emitted while processing a transaction.
// Events are only published once the transaction was successful.
type EventBuffer struct {
	mu     sync.Mutex
	events []Event
}

// Add appends an event.
func (b *EventBuffer) Add(e Event) {
	b.mu.Lock()
	b.events = append(b.events, e)
	b.mu.Unlock()
}

// Events returns all collected events in the order they were added.
func (b *EventBuffer) Events() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Event(nil), b.events...)
}

// Reset drops all collected events.
func (b *EventBuffer) Reset() {
	b.mu.Lock()
	b.events = nil
	b.mu.Unlock()
}

// WithEventBuffer attaches a buffer that EmitEvent writes to.
func WithEventBuffer(ctx Context, b *EventBuffer) Context {
	return context.WithValue(ctx, contextKeyEvents, b)
}

// EmitEvent records given event in the buffer attached to the context.
// Events are dropped when the context carries no buffer, which is the case
// for checks.
func EmitEvent(ctx Context, e Event) {
	b, ok := ctx.Value(contextKeyEvents).(*EventBuffer)
	if !ok {
		return
	}
	b.Add(e)
	GetLogger(ctx).Debug("event", "tag", e.Tag(), "key", e.Key)
}
