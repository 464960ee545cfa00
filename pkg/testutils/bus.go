package testutils

import (
	"context"
	"sync"

	"github.com/mywatercloset/api/pkg/domain/events"
	"github.com/mywatercloset/api/pkg/eventbus"
)

// RecordingBus records emitted events and runs registered handlers inline.
type RecordingBus struct {
	mu       sync.Mutex
	events   []events.Event
	handlers map[events.EventType][]eventbus.HandlerFunc
}

func NewRecordingBus() *RecordingBus {
	return &RecordingBus{handlers: make(map[events.EventType][]eventbus.HandlerFunc)}
}

func (b *RecordingBus) Register(eventType events.EventType, handler eventbus.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

func (b *RecordingBus) Emit(ctx context.Context, e events.Event) error {
	b.mu.Lock()
	b.events = append(b.events, e)
	handlers := append([]eventbus.HandlerFunc(nil), b.handlers[events.EventType(e.Type())]...)
	b.mu.Unlock()
	for _, h := range handlers {
		if err := h(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// Events returns a copy of everything emitted so far.
func (b *RecordingBus) Events() []events.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]events.Event(nil), b.events...)
}

// Transitions returns the emitted booking.transitioned events.
func (b *RecordingBus) Transitions() []*events.BookingTransitioned {
	var out []*events.BookingTransitioned
	for _, e := range b.Events() {
		if bt, ok := e.(*events.BookingTransitioned); ok {
			out = append(out, bt)
		}
	}
	return out
}

var _ eventbus.Bus = (*RecordingBus)(nil)
