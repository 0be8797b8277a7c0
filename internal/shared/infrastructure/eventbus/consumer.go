package eventbus

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ConsumedEvent is the wire form of a domain event as it arrives from a
// transport. Payload stays raw so each consumer decodes only the event
// types it declared.
type ConsumedEvent struct {
	EventID       uuid.UUID       `json:"event_id"`
	AggregateID   uuid.UUID       `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	RoutingKey    string          `json:"routing_key"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Payload       json.RawMessage `json:"payload"`
	Metadata      EventMetadata   `json:"metadata,omitempty"`
}

// EventMetadata carries tracing fields alongside the payload. LocationID
// scopes the event to a business location when the aggregate has one.
type EventMetadata struct {
	LocationID    uuid.UUID `json:"location_id,omitempty"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	CausationID   string    `json:"causation_id,omitempty"`
}

// EventConsumer is implemented by anything that reacts to domain events.
type EventConsumer interface {
	// EventTypes lists the routing keys the consumer wants, for example
	// "engage.task.completed" or "engage.tasks.refreshed".
	EventTypes() []string

	// Handle processes one delivery. Returning an error tells the
	// transport the delivery failed.
	Handle(ctx context.Context, event *ConsumedEvent) error
}

// Consumer is a transport that feeds ConsumedEvents to a registry.
type Consumer interface {
	// Start begins consuming and blocks until ctx is cancelled or the
	// transport shuts down.
	Start(ctx context.Context) error

	// RegisterConsumer subscribes an event consumer on this transport.
	RegisterConsumer(consumer EventConsumer)

	// Close tears down the transport connection.
	Close() error
}
