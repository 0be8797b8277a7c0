package eventbus

import (
	"context"
	"log/slog"
	"sync"
)

// ConsumerRegistry is the routing table of the event bus. It maps event
// types to the consumers subscribed to them and fans incoming events out.
// The same registry backs both the in-process bus and the broker consumer,
// so handlers never care which transport delivered an event.
type ConsumerRegistry struct {
	mu     sync.RWMutex
	byType map[string][]EventConsumer
	logger *slog.Logger
}

// NewConsumerRegistry creates an empty registry.
func NewConsumerRegistry(logger *slog.Logger) *ConsumerRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConsumerRegistry{
		byType: make(map[string][]EventConsumer),
		logger: logger,
	}
}

// Register subscribes a consumer to every event type it declares.
func (reg *ConsumerRegistry) Register(consumer EventConsumer) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	for _, eventType := range consumer.EventTypes() {
		reg.byType[eventType] = append(reg.byType[eventType], consumer)
		reg.logger.Debug("consumer subscribed", "event_type", eventType)
	}
}

// GetConsumers returns the consumers subscribed to eventType.
func (reg *ConsumerRegistry) GetConsumers(eventType string) []EventConsumer {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return reg.byType[eventType]
}

// GetAllEventTypes returns every event type with at least one subscriber.
func (reg *ConsumerRegistry) GetAllEventTypes() []string {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	types := make([]string, 0, len(reg.byType))
	for eventType := range reg.byType {
		types = append(types, eventType)
	}
	return types
}

// ConsumerCount returns the number of subscriptions across all event types.
func (reg *ConsumerRegistry) ConsumerCount() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	total := 0
	for _, subscribed := range reg.byType {
		total += len(subscribed)
	}
	return total
}

// Dispatch delivers an event to every consumer subscribed to its routing
// key. Delivery continues past failing consumers; the last error is
// returned so the transport can decide whether to redeliver.
func (reg *ConsumerRegistry) Dispatch(ctx context.Context, event *ConsumedEvent) error {
	subscribed := reg.GetConsumers(event.RoutingKey)
	if len(subscribed) == 0 {
		reg.logger.Debug("event has no subscribers", "routing_key", event.RoutingKey)
		return nil
	}

	var lastErr error
	for _, consumer := range subscribed {
		if err := consumer.Handle(ctx, event); err != nil {
			reg.logger.Error("consumer failed to handle event",
				"routing_key", event.RoutingKey,
				"event_id", event.EventID,
				"error", err,
			)
			lastErr = err
		}
	}
	return lastErr
}
