package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mywatercloset/api/pkg/domain/events"
	"github.com/mywatercloset/api/pkg/eventbus"
)

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func encodeEnvelope(event events.Event) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return json.Marshal(envelope{Type: event.Type(), Payload: data})
}

// decodeEnvelope rebuilds the concrete event registered in events.EventTypes.
func decodeEnvelope(raw []byte) (events.Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}
	constructor, ok := events.EventTypes[events.EventType(env.Type)]
	if !ok {
		return nil, fmt.Errorf("unknown event type %q", env.Type)
	}
	evt := constructor()
	if err := json.Unmarshal(env.Payload, evt); err != nil {
		return nil, fmt.Errorf("unmarshal %s payload: %w", env.Type, err)
	}
	return evt, nil
}

// executeHandlers runs every handler, recovering panics. It reports whether
// all of them succeeded.
func executeHandlers(
	ctx context.Context,
	logger *slog.Logger,
	evt events.Event,
	handlers []eventbus.HandlerFunc,
) bool {
	success := true
	for _, h := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					success = false
					logger.Error("panic recovered in event handler", "type", evt.Type(), "panic", r)
				}
			}()
			if err := h(ctx, evt); err != nil {
				success = false
				logger.Error("failed to process event", "type", evt.Type(), "error", err)
			}
		}()
	}
	return success
}
