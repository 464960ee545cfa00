package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/mywatercloset/api/pkg/config"
	"github.com/mywatercloset/api/pkg/domain/events"
	"github.com/mywatercloset/api/pkg/eventbus"
	"github.com/redis/go-redis/v9"
)

// RedisEventBus publishes events to a Redis stream and consumes them with a
// consumer group. Every instance runs a single consumer that dispatches each
// message to all handlers registered for its type. Messages whose handlers
// fail are copied to "<stream>-DLQ".
type RedisEventBus struct {
	client   *redis.Client
	stream   string
	group    string
	consumer string
	logger   *slog.Logger

	handlers map[events.EventType][]eventbus.HandlerFunc
	mu       sync.RWMutex
	start    sync.Once
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewWithRedis creates a new Redis-backed event bus and its consumer group.
func NewWithRedis(redisCfg *config.Redis, busCfg *config.EventBus, logger *slog.Logger) (*RedisEventBus, error) {
	if redisCfg == nil || redisCfg.URL == "" {
		return nil, errors.New("redis event bus: url is required")
	}
	if busCfg == nil || busCfg.Stream == "" || busCfg.Group == "" {
		return nil, errors.New("redis event bus: stream and group are required")
	}

	opt, err := redis.ParseURL(redisCfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redis event bus: invalid URL: %w", err)
	}
	if redisCfg.PoolSize > 0 {
		opt.PoolSize = redisCfg.PoolSize
	}
	if redisCfg.DialTimeout > 0 {
		opt.DialTimeout = redisCfg.DialTimeout
	}
	if redisCfg.ReadTimeout > 0 {
		opt.ReadTimeout = redisCfg.ReadTimeout
	}
	if redisCfg.WriteTimeout > 0 {
		opt.WriteTimeout = redisCfg.WriteTimeout
	}

	client := redis.NewClient(opt)
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis event bus: connection failed: %w", err)
	}
	err = client.XGroupCreateMkStream(ctx, busCfg.Stream, busCfg.Group, "0").Err()
	if err != nil && !isBusyGroup(err) {
		return nil, fmt.Errorf("redis event bus: create group: %w", err)
	}

	host, _ := os.Hostname()
	return &RedisEventBus{
		client:   client,
		stream:   busCfg.Stream,
		group:    busCfg.Group,
		consumer: fmt.Sprintf("%s-%d", host, time.Now().UnixNano()),
		logger:   logger.With("component", "redis-event-bus", "stream", busCfg.Stream),
		handlers: make(map[events.EventType][]eventbus.HandlerFunc),
	}, nil
}

func isBusyGroup(err error) bool {
	return err != nil && len(err.Error()) >= 9 && err.Error()[:9] == "BUSYGROUP"
}

// Emit publishes an event to the Redis stream.
func (b *RedisEventBus) Emit(ctx context.Context, event events.Event) error {
	envBytes, err := encodeEnvelope(event)
	if err != nil {
		b.logger.Error("failed to marshal envelope", "error", err, "type", event.Type())
		return fmt.Errorf("redis event bus: %w", err)
	}

	if err := b.client.XAdd(ctx, &redis.XAddArgs{
		Stream: b.stream,
		Values: map[string]any{"event": string(envBytes)},
	}).Err(); err != nil {
		b.logger.Error("failed to emit event", "error", err, "type", event.Type())
		return fmt.Errorf("redis event bus: emit failed: %w", err)
	}
	b.logger.Debug("event emitted", "type", event.Type())
	return nil
}

// Register adds a handler and starts the consumer on first use.
func (b *RedisEventBus) Register(eventType events.EventType, handler eventbus.HandlerFunc) {
	b.mu.Lock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	b.mu.Unlock()
	b.logger.Info("handler registered", "event_type", eventType, "consumer", b.consumer)

	b.start.Do(func() {
		ctx, cancel := context.WithCancel(context.Background())
		b.cancel = cancel
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			b.consume(ctx)
		}()
	})
}

func (b *RedisEventBus) consume(ctx context.Context) {
	for {
		res, err := b.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    b.group,
			Consumer: b.consumer,
			Streams:  []string{b.stream, ">"},
			Count:    10,
			Block:    5 * time.Second,
		}).Result()
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			if !errors.Is(err, redis.Nil) {
				b.logger.Error("error reading from stream", "error", err)
				time.Sleep(time.Second)
			}
			continue
		}
		for _, stream := range res {
			for _, msg := range stream.Messages {
				b.handleMessage(ctx, msg)
			}
		}
	}
}

func (b *RedisEventBus) handleMessage(ctx context.Context, msg redis.XMessage) {
	defer func() {
		if err := b.client.XAck(ctx, b.stream, b.group, msg.ID).Err(); err != nil {
			b.logger.Error("failed to acknowledge message", "error", err, "msg_id", msg.ID)
		}
	}()

	raw, ok := msg.Values["event"].(string)
	if !ok {
		b.logger.Error("message without event field", "msg_id", msg.ID)
		b.pushToDLQ(ctx, msg.Values)
		return
	}
	evt, err := decodeEnvelope([]byte(raw))
	if err != nil {
		b.logger.Error("failed to decode event", "error", err, "msg_id", msg.ID)
		b.pushToDLQ(ctx, msg.Values)
		return
	}

	b.mu.RLock()
	handlers := append([]eventbus.HandlerFunc(nil), b.handlers[events.EventType(evt.Type())]...)
	b.mu.RUnlock()
	if len(handlers) == 0 {
		b.logger.Debug("no handlers for event type", "type", evt.Type())
		return
	}
	if !executeHandlers(ctx, b.logger, evt, handlers) {
		b.pushToDLQ(ctx, msg.Values)
	}
}

// pushToDLQ copies the raw message to the DLQ stream for inspection or reprocessing.
func (b *RedisEventBus) pushToDLQ(ctx context.Context, values map[string]any) {
	dlqStream := b.stream + "-DLQ"
	if err := b.client.XAdd(ctx, &redis.XAddArgs{
		Stream: dlqStream,
		Values: values,
	}).Err(); err != nil {
		b.logger.Error("failed to push to DLQ", "error", err, "stream", dlqStream)
		return
	}
	b.logger.Warn("event pushed to DLQ", "stream", dlqStream)
}

// Close stops the consumer and closes the client.
func (b *RedisEventBus) Close() error {
	if b.cancel != nil {
		b.cancel()
	}
	b.wg.Wait()
	return b.client.Close()
}

var _ eventbus.Bus = (*RedisEventBus)(nil)
