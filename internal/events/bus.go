package events

import (
	"context"
	"sync"

	"bidding-engine/utils"
)

// Handler reacts to a published event.
type Handler func(ctx context.Context, e Event) error

// Sink forwards events outside the process.
type Sink interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Publisher is what services depend on.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

// Bus delivers events to in-process subscribers synchronously, then to the
// optional sink. Failures are logged and never reach the publisher.
type Bus struct {
	mu   sync.RWMutex
	subs map[Type][]Handler
	sink Sink
}

// NewBus creates a bus; sink may be nil.
func NewBus(sink Sink) *Bus {
	return &Bus{subs: make(map[Type][]Handler), sink: sink}
}

// Subscribe registers h for events of type t.
func (b *Bus) Subscribe(t Type, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[t] = append(b.subs[t], h)
}

func (b *Bus) Publish(ctx context.Context, e Event) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.subs[e.Type]...)
	b.mu.RUnlock()

	for _, h := range handlers {
		if err := h(ctx, e); err != nil {
			utils.Error("event handler failed", map[string]any{
				"event_id":     e.ID,
				"type":         string(e.Type),
				"aggregate_id": e.AggregateID,
				"error":        err.Error(),
			})
		}
	}

	if b.sink == nil {
		return
	}
	if err := b.sink.Publish(ctx, e); err != nil {
		utils.Warn("event sink publish failed", map[string]any{
			"event_id": e.ID,
			"type":     string(e.Type),
			"error":    err.Error(),
		})
	}
}

// Close closes the sink.
func (b *Bus) Close() error {
	if b.sink == nil {
		return nil
	}
	return b.sink.Close()
}
