package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mywatercloset/api/pkg/config"
	"github.com/mywatercloset/api/pkg/domain/events"
	"github.com/mywatercloset/api/pkg/eventbus"
	"github.com/segmentio/kafka-go"
)

const (
	defaultTopicPrefix = "mywatercloset"
	retryDelay         = 500 * time.Millisecond
	headerEventType    = "event-type"
	headerDLQReason    = "dlq-reason"
)

// KafkaEventBus publishes each event type to its own topic and consumes it
// with a consumer group. Messages whose handlers fail are forwarded to the
// matching DLQ topic before their offset is committed.
type KafkaEventBus struct {
	brokers []string
	prefix  string
	group   string
	writer  *kafka.Writer
	dialer  *kafka.Dialer
	ctx     context.Context

	handlers    map[events.EventType][]eventbus.HandlerFunc
	handlersMtx sync.RWMutex

	readers    map[events.EventType]*kafka.Reader
	readersMtx sync.Mutex
	topics     map[string]struct{}
	topicsMtx  sync.Mutex

	logger *slog.Logger
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWithKafka creates a new Kafka-backed event bus.
func NewWithKafka(kafkaCfg *config.Kafka, busCfg *config.EventBus, logger *slog.Logger) (*KafkaEventBus, error) {
	if kafkaCfg == nil {
		return nil, errors.New("kafka event bus: config is required")
	}
	brokers := parseBrokers(kafkaCfg.Brokers)
	if len(brokers) == 0 {
		return nil, errors.New("kafka event bus: brokers are required")
	}
	group := "side-effects"
	if busCfg != nil && busCfg.Group != "" {
		group = busCfg.Group
	}

	dialer := &kafka.Dialer{Timeout: 10 * time.Second, DualStack: true}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireOne,
		Balancer:               &kafka.Hash{},
	}

	ctx, cancel := context.WithCancel(context.Background())
	bus := &KafkaEventBus{
		brokers:  brokers,
		prefix:   kafkaCfg.TopicPrefix,
		group:    group,
		writer:   writer,
		dialer:   dialer,
		ctx:      ctx,
		handlers: make(map[events.EventType][]eventbus.HandlerFunc),
		readers:  make(map[events.EventType]*kafka.Reader),
		topics:   make(map[string]struct{}),
		logger:   logger.With("bus", "kafka"),
		cancel:   cancel,
	}

	if err := bus.ping(ctx); err != nil {
		_ = bus.Close()
		return nil, err
	}
	bus.logger.Info("🚀 Kafka event bus initialized", "group_id", group, "brokers", brokers)
	return bus, nil
}

// Close stops the consumers and closes network resources.
func (b *KafkaEventBus) Close() error {
	b.cancel()

	b.readersMtx.Lock()
	for _, r := range b.readers {
		_ = r.Close()
	}
	b.readersMtx.Unlock()

	b.wg.Wait()
	return b.writer.Close()
}

// Register adds a handler and starts a consumer for the type on first use.
func (b *KafkaEventBus) Register(eventType events.EventType, handler eventbus.HandlerFunc) {
	b.handlersMtx.Lock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	b.handlersMtx.Unlock()

	b.ensureConsumer(eventType)
}

// Emit publishes an event to the topic of its type.
func (b *KafkaEventBus) Emit(ctx context.Context, event events.Event) error {
	envBytes, err := encodeEnvelope(event)
	if err != nil {
		return fmt.Errorf("kafka event bus: %w", err)
	}

	topic := topicNameFor(b.prefix, events.EventType(event.Type()))
	if err := b.ensureTopic(ctx, topic); err != nil {
		return err
	}
	if err := b.writer.WriteMessages(ctx, kafka.Message{
		Topic:   topic,
		Key:     partitionKey(event),
		Value:   envBytes,
		Headers: []kafka.Header{{Key: headerEventType, Value: []byte(event.Type())}},
		Time:    time.Now(),
	}); err != nil {
		return fmt.Errorf("kafka event bus: publish failed: %w", err)
	}
	return nil
}

func (b *KafkaEventBus) ping(ctx context.Context) error {
	conn, err := b.dialer.DialContext(ctx, "tcp", b.brokers[0])
	if err != nil {
		return fmt.Errorf("kafka event bus: connection failed: %w", err)
	}
	_ = conn.Close()
	return nil
}

func (b *KafkaEventBus) ensureConsumer(eventType events.EventType) {
	b.readersMtx.Lock()
	defer b.readersMtx.Unlock()

	if _, exists := b.readers[eventType]; exists {
		return
	}
	topic := topicNameFor(b.prefix, eventType)
	if err := b.ensureTopic(b.ctx, topic); err != nil {
		b.logger.Error("kafka ensure topic error", "error", err, "event_type", eventType)
		return
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     b.brokers,
		GroupID:     b.group,
		Topic:       topic,
		StartOffset: kafka.FirstOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     time.Second,
		Dialer:      b.dialer,
	})
	b.readers[eventType] = reader

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.consumeLoop(b.ctx, eventType, reader)
	}()
}

func (b *KafkaEventBus) consumeLoop(ctx context.Context, eventType events.EventType, reader *kafka.Reader) {
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			b.logger.Error("kafka consume error", "error", err, "event_type", eventType)
			time.Sleep(retryDelay)
			continue
		}

		if err := b.processMessage(ctx, msg); err != nil {
			b.logger.Error("kafka message processing failed; will retry",
				"error", err, "topic", msg.Topic, "offset", msg.Offset)
			time.Sleep(retryDelay)
			continue
		}
		if err := reader.CommitMessages(ctx, msg); err != nil {
			b.logger.Error("kafka commit error", "error", err, "topic", msg.Topic, "offset", msg.Offset)
		}
	}
}

// processMessage returns an error only when the message could not be parked
// in the DLQ, in which case its offset must not be committed.
func (b *KafkaEventBus) processMessage(ctx context.Context, msg kafka.Message) error {
	evt, err := decodeEnvelope(msg.Value)
	if err != nil {
		b.logger.Error("failed to decode event", "error", err, "topic", msg.Topic, "offset", msg.Offset)
		return b.publishToDLQ(ctx, eventTypeOf(msg), msg, "decode: "+err.Error())
	}
	eventType := events.EventType(evt.Type())

	b.handlersMtx.RLock()
	handlers := append([]eventbus.HandlerFunc(nil), b.handlers[eventType]...)
	b.handlersMtx.RUnlock()
	if len(handlers) == 0 {
		b.logger.Warn("no handlers registered for event type", "event_type", eventType)
		return nil
	}
	if executeHandlers(ctx, b.logger, evt, handlers) {
		return nil
	}
	return b.publishToDLQ(ctx, eventType, msg, "handler failed")
}

func (b *KafkaEventBus) publishToDLQ(ctx context.Context, eventType events.EventType, msg kafka.Message, reason string) error {
	dlqTopic := dlqTopicNameFor(b.prefix, eventType)
	if err := b.ensureTopic(ctx, dlqTopic); err != nil {
		return err
	}
	if err := b.writer.WriteMessages(ctx, kafka.Message{
		Topic: dlqTopic,
		Key:   msg.Key,
		Value: msg.Value,
		Headers: append(append([]kafka.Header(nil), msg.Headers...),
			kafka.Header{Key: headerDLQReason, Value: []byte(reason)}),
		Time: time.Now(),
	}); err != nil {
		return fmt.Errorf("kafka event bus: dlq publish failed: %w", err)
	}
	b.logger.Warn("message sent to DLQ", "event_type", eventType, "dlq_topic", dlqTopic, "reason", reason)
	return nil
}

func (b *KafkaEventBus) ensureTopic(ctx context.Context, topic string) error {
	b.topicsMtx.Lock()
	_, exists := b.topics[topic]
	b.topicsMtx.Unlock()
	if exists {
		return nil
	}

	conn, err := b.dialer.DialContext(ctx, "tcp", b.brokers[0])
	if err != nil {
		return fmt.Errorf("kafka event bus: dial failed: %w", err)
	}
	defer func() { _ = conn.Close() }()

	err = conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
	if err != nil && !isTopicAlreadyExists(err) {
		return fmt.Errorf("kafka event bus: create topic failed: %w", err)
	}

	b.topicsMtx.Lock()
	b.topics[topic] = struct{}{}
	b.topicsMtx.Unlock()
	return nil
}

// partitionKey keeps every event of one booking on one partition so its
// transitions are consumed in order.
func partitionKey(event events.Event) []byte {
	switch e := event.(type) {
	case *events.BookingTransitioned:
		return []byte(e.BookingID.String())
	case events.BookingTransitioned:
		return []byte(e.BookingID.String())
	default:
		return []byte(event.Type())
	}
}

// eventTypeOf reads the type header of a message that could not be decoded.
func eventTypeOf(msg kafka.Message) events.EventType {
	for _, h := range msg.Headers {
		if h.Key == headerEventType {
			return events.EventType(h.Value)
		}
	}
	return events.EventType("unknown")
}

func isTopicAlreadyExists(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, kafka.TopicAlreadyExists) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "TOPIC_ALREADY_EXISTS") ||
		strings.Contains(msg, "Topic with this name already exists")
}

// parseBrokers accepts both list entries and comma-separated entries.
func parseBrokers(brokers []string) []string {
	out := make([]string, 0, len(brokers))
	for _, entry := range brokers {
		for _, p := range strings.Split(entry, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func topicNameFor(prefix string, eventType events.EventType) string {
	if prefix = strings.TrimSpace(prefix); prefix == "" {
		prefix = defaultTopicPrefix
	}
	return fmt.Sprintf("%s.%s", prefix, strings.ToLower(eventType.String()))
}

func dlqTopicNameFor(prefix string, eventType events.EventType) string {
	if prefix = strings.TrimSpace(prefix); prefix == "" {
		prefix = defaultTopicPrefix
	}
	return fmt.Sprintf("%s.dlq.%s", prefix, strings.ToLower(eventType.String()))
}

var _ eventbus.Bus = (*KafkaEventBus)(nil)
