// Command bus_smoketest emits one synthetic booking transition on the
// configured event bus (redis or kafka) and waits for it to come back.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	infra_eventbus "github.com/mywatercloset/api/infra/eventbus"
	"github.com/mywatercloset/api/pkg/config"
	"github.com/mywatercloset/api/pkg/domain/booking"
	"github.com/mywatercloset/api/pkg/domain/events"
	"github.com/mywatercloset/api/pkg/eventbus"
)

const deliveryTimeout = 30 * time.Second

// RunSmokeTest round-trips a booking.transitioned event through the broker.
func RunSmokeTest(cfg *config.App, logger *slog.Logger) error {
	bus, err := openBus(cfg, logger)
	if err != nil {
		return err
	}
	if closer, ok := bus.(io.Closer); ok {
		defer func() { _ = closer.Close() }()
	}

	sent := &events.BookingTransitioned{
		ID:         uuid.New(),
		BookingID:  uuid.New(),
		BookerID:   uuid.New(),
		PropertyID: uuid.New(),
		OwnerID:    uuid.New(),
		From:       booking.StatusPending,
		To:         booking.StatusConfirmed,
		OccurredAt: time.Now().UTC(),
	}

	received := make(chan *events.BookingTransitioned, 16)
	bus.Register(events.EventTypeBookingTransitioned, func(_ context.Context, e events.Event) error {
		if bt, ok := e.(*events.BookingTransitioned); ok {
			received <- bt
		}
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
	defer cancel()
	if err := bus.Emit(ctx, sent); err != nil {
		return fmt.Errorf("emit failed: %w", err)
	}
	logger.Info("produced", "eventID", sent.ID, "bookingID", sent.BookingID)

	for {
		select {
		case got := <-received:
			if got.ID != sent.ID {
				logger.Debug("skipping earlier event", "eventID", got.ID)
				continue
			}
			logger.Info("✅ consumed", "eventID", got.ID, "to", got.To)
			return nil
		case <-ctx.Done():
			return fmt.Errorf("event %s not delivered: %w", sent.ID, ctx.Err())
		}
	}
}

func openBus(cfg *config.App, logger *slog.Logger) (eventbus.Bus, error) {
	if cfg.EventBus == nil {
		return nil, errors.New("event bus config missing")
	}
	// A private consumer group keeps the real side-effect consumers untouched.
	busCfg := *cfg.EventBus
	busCfg.Group = "smoketest-" + uuid.NewString()[:8]
	switch busCfg.Driver {
	case "redis":
		return infra_eventbus.NewWithRedis(cfg.Redis, &busCfg, logger)
	case "kafka":
		return infra_eventbus.NewWithKafka(cfg.Kafka, &busCfg, logger)
	default:
		return nil, fmt.Errorf("set EVENT_BUS_DRIVER to redis or kafka, got %q", cfg.EventBus.Driver)
	}
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	cfg, err := config.Load(".env")
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if err := RunSmokeTest(cfg, logger); err != nil {
		logger.Error("smoke test failed", "error", err)
		os.Exit(1)
	}
}
