package eventbus

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/mywatercloset/api/pkg/domain/booking"
	"github.com/mywatercloset/api/pkg/domain/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMemoryEventBus_RunsHandlersInline(t *testing.T) {
	bus := NewWithMemory(testLogger())
	var calls atomic.Int32
	bus.Register(events.EventTypeBookingTransitioned, func(context.Context, events.Event) error {
		calls.Add(1)
		return nil
	})
	bus.Register(events.EventTypeBookingTransitioned, func(context.Context, events.Event) error {
		calls.Add(1)
		return errors.New("boom")
	})
	bus.Register(events.EventTypeBookingTransitioned, func(context.Context, events.Event) error {
		panic("handler panicked")
	})
	bus.Register(events.EventTypeBookingTransitioned, func(context.Context, events.Event) error {
		calls.Add(1)
		return nil
	})

	err := bus.Emit(context.Background(), transitioned(booking.StatusConfirmed))
	require.NoError(t, err, "handler failures never reach the emitter")
	assert.Equal(t, int32(3), calls.Load())
	assert.Len(t, bus.Published(), 1)
}

func TestMemoryEventBus_NoHandlers(t *testing.T) {
	bus := NewWithMemory(testLogger())
	assert.NoError(t, bus.Emit(context.Background(), transitioned(booking.StatusCompleted)))
}

func TestMemoryAsyncEventBus_DetachesFromCaller(t *testing.T) {
	bus := NewWithMemoryAsync(testLogger())
	defer func() { _ = bus.Close() }()

	type requestKey struct{}
	release := make(chan struct{})
	var sawCancel, sawRequest atomic.Bool
	var calls atomic.Int32
	bus.Register(events.EventTypeBookingTransitioned, func(ctx context.Context, _ events.Event) error {
		<-release
		if ctx.Err() != nil {
			sawCancel.Store(true)
		}
		if ctx.Value(requestKey{}) != nil {
			sawRequest.Store(true)
		}
		calls.Add(1)
		return nil
	})

	ctx, cancel := context.WithCancel(context.WithValue(context.Background(), requestKey{}, "req-1"))
	for i := 0; i < 5; i++ {
		require.NoError(t, bus.Emit(ctx, transitioned(booking.StatusConfirmed)))
	}
	cancel()
	close(release)
	bus.Wait()

	assert.Equal(t, int32(5), calls.Load())
	assert.False(t, sawCancel.Load())
	assert.False(t, sawRequest.Load(), "handlers must not read request-scoped values")
}

func TestMemoryAsyncEventBus_EmitAfterClose(t *testing.T) {
	bus := NewWithMemoryAsync(testLogger())
	require.NoError(t, bus.Close())

	// Fill the queue so the send cannot succeed and the closed branch is taken.
	for i := 0; i < cap(bus.eventCh); i++ {
		bus.eventCh <- transitioned(booking.StatusConfirmed)
	}
	err := bus.Emit(context.Background(), transitioned(booking.StatusConfirmed))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEnvelopeRoundTrip(t *testing.T) {
	sent := transitioned(booking.StatusCancelled)
	sent.CancelledBy = booking.CancelledByProvider
	sent.Reason = "plumbing"

	raw, err := encodeEnvelope(sent)
	require.NoError(t, err)
	got, err := decodeEnvelope(raw)
	require.NoError(t, err)
	assert.Equal(t, sent, got)

	_, err = decodeEnvelope([]byte(`{"type":"nope","payload":{}}`))
	assert.Error(t, err)
	_, err = decodeEnvelope([]byte(`not json`))
	assert.Error(t, err)
}
