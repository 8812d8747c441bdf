package services

import (
	"context"
	"log/slog"
	"sync"

	"github.com/lorrc/atendimento-dashboard/internal/core/domain"
	"github.com/lorrc/atendimento-dashboard/internal/core/ports"
)

// EventBus is an in-process synchronous publish/subscribe bus.
//
// Publish delivers the event to every subscriber of its type in registration
// order and returns when they are done. An event published from inside a handler
// is queued and delivered after the current event has reached all its
// subscribers, so a handler never observes a half-delivered event. Publishers on
// other goroutines wait for the running dispatch to drain.
type EventBus struct {
	mu       sync.RWMutex
	handlers map[domain.EventType][]subscription
	nextID   uint64

	dispatchMu sync.Mutex

	queueMu     sync.Mutex
	dispatching bool
	queue       []queuedEvent

	logger *slog.Logger
}

type subscription struct {
	id      uint64
	handler ports.EventHandler
}

type queuedEvent struct {
	ctx   context.Context
	event domain.Event
}

type dispatchKey struct{}

var _ ports.EventBus = (*EventBus)(nil)

// NewEventBus creates an empty bus.
func NewEventBus(logger *slog.Logger) *EventBus {
	return &EventBus{
		handlers: make(map[domain.EventType][]subscription),
		logger:   logger.With("component", "event_bus"),
	}
}

// Subscribe registers handler for eventType. The returned function removes it.
func (b *EventBus) Subscribe(eventType domain.EventType, handler ports.EventHandler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.handlers[eventType] = append(b.handlers[eventType], subscription{id: id, handler: handler})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.handlers[eventType]
		for i, s := range subs {
			if s.id == id {
				b.handlers[eventType] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers event to its subscribers. A handler that publishes must
// pass the context it was handed: nesting is recognized through it, and a
// publish from inside a dispatch with any other context waits on itself. Such a
// stall is logged after stallWarnAfter.
func (b *EventBus) Publish(ctx context.Context, event domain.Event) {
	if ctx.Value(dispatchKey{}) == b && b.enqueue(ctx, event) {
		return
	}

	lockWatched(ctx, &b.dispatchMu, stallWarnAfter, b.logger, "publish")
	defer b.dispatchMu.Unlock()

	b.setDispatching(true)
	defer b.setDispatching(false)

	b.deliver(context.WithValue(ctx, dispatchKey{}, b), event)
	for {
		next, ok := b.dequeue()
		if !ok {
			return
		}
		b.deliver(next.ctx, next.event)
	}
}

// Len returns the number of subscribers for eventType.
func (b *EventBus) Len(eventType domain.EventType) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[eventType])
}

func (b *EventBus) deliver(ctx context.Context, event domain.Event) {
	b.mu.RLock()
	subs := make([]subscription, len(b.handlers[event.Type]))
	copy(subs, b.handlers[event.Type])
	b.mu.RUnlock()

	for _, s := range subs {
		b.invoke(ctx, s.handler, event)
	}
}

func (b *EventBus) invoke(ctx context.Context, handler ports.EventHandler, event domain.Event) {
	defer func() {
		if rec := recover(); rec != nil {
			b.logger.ErrorContext(ctx, "event handler panicked",
				"event", event.Type,
				"panic", rec,
			)
		}
	}()
	handler(ctx, event)
}

// enqueue defers event when a dispatch is running. It reports false when the
// dispatching context outlived its dispatch.
func (b *EventBus) enqueue(ctx context.Context, event domain.Event) bool {
	b.queueMu.Lock()
	defer b.queueMu.Unlock()
	if !b.dispatching {
		return false
	}
	b.queue = append(b.queue, queuedEvent{ctx: ctx, event: event})
	return true
}

func (b *EventBus) dequeue() (queuedEvent, bool) {
	b.queueMu.Lock()
	defer b.queueMu.Unlock()
	if len(b.queue) == 0 {
		return queuedEvent{}, false
	}
	next := b.queue[0]
	b.queue = b.queue[1:]
	return next, true
}

func (b *EventBus) setDispatching(v bool) {
	b.queueMu.Lock()
	b.dispatching = v
	b.queueMu.Unlock()
}
