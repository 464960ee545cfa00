package eventbus

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mywatercloset/api/pkg/domain/events"
	"github.com/mywatercloset/api/pkg/eventbus"
)

// MemoryEventBus runs handlers synchronously inside Emit.
type MemoryEventBus struct {
	handlers  map[events.EventType][]eventbus.HandlerFunc
	mu        sync.RWMutex
	logger    *slog.Logger
	published []events.Event
}

// NewWithMemory creates a new synchronous in-memory event bus.
func NewWithMemory(logger *slog.Logger) *MemoryEventBus {
	return &MemoryEventBus{
		handlers: make(map[events.EventType][]eventbus.HandlerFunc),
		logger:   logger.With("bus", "memory"),
	}
}

func (b *MemoryEventBus) Register(eventType events.EventType, handler eventbus.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Emit dispatches the event to all handlers registered for its type.
// Handler failures are logged, never returned.
func (b *MemoryEventBus) Emit(ctx context.Context, event events.Event) error {
	b.mu.Lock()
	b.published = append(b.published, event)
	handlers := append([]eventbus.HandlerFunc(nil), b.handlers[events.EventType(event.Type())]...)
	b.mu.Unlock()

	executeHandlers(ctx, b.logger, event, handlers)
	return nil
}

// Published returns the events emitted so far.
func (b *MemoryEventBus) Published() []events.Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]events.Event(nil), b.published...)
}

var _ eventbus.Bus = (*MemoryEventBus)(nil)

// MemoryAsyncEventBus queues events and runs handlers on background
// goroutines, so Emit returns before any side effect runs.
type MemoryAsyncEventBus struct {
	handlers map[events.EventType][]eventbus.HandlerFunc
	mu       sync.RWMutex
	eventCh  chan events.Event
	inflight sync.WaitGroup
	done     chan struct{}
	closeMu  sync.Once
	log      *slog.Logger
}

// NewWithMemoryAsync creates a new asynchronous in-memory event bus.
func NewWithMemoryAsync(logger *slog.Logger) *MemoryAsyncEventBus {
	b := &MemoryAsyncEventBus{
		handlers: make(map[events.EventType][]eventbus.HandlerFunc),
		eventCh:  make(chan events.Event, 100),
		done:     make(chan struct{}),
		log:      logger.With("event-bus", "memory-async"),
	}
	go b.process()
	return b
}

func (b *MemoryAsyncEventBus) Register(eventType events.EventType, handler eventbus.HandlerFunc) {
	b.mu.Lock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	b.mu.Unlock()
}

// Emit queues the event. Handlers run after the caller has returned, so they
// get a fresh background context and nothing from ctx.
func (b *MemoryAsyncEventBus) Emit(_ context.Context, event events.Event) error {
	b.inflight.Add(1)
	select {
	case b.eventCh <- event:
		return nil
	case <-b.done:
		b.inflight.Done()
		return context.Canceled
	}
}

func (b *MemoryAsyncEventBus) process() {
	for {
		select {
		case event := <-b.eventCh:
			go func(event events.Event) {
				defer b.inflight.Done()
				b.mu.RLock()
				handlers := append([]eventbus.HandlerFunc{}, b.handlers[events.EventType(event.Type())]...)
				b.mu.RUnlock()
				executeHandlers(context.Background(), b.log, event, handlers)
			}(event)
		case <-b.done:
			return
		}
	}
}

// Wait blocks until every queued event has been handled.
func (b *MemoryAsyncEventBus) Wait() {
	b.inflight.Wait()
}

// Close waits for queued events and stops the bus.
func (b *MemoryAsyncEventBus) Close() error {
	b.Wait()
	b.closeMu.Do(func() { close(b.done) })
	return nil
}

var _ eventbus.Bus = (*MemoryAsyncEventBus)(nil)
