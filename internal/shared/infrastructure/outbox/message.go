// Package outbox implements the transactional outbox: domain events are
// written to the database in the same transaction as the state change that
// produced them, and a relay publishes them to the broker afterwards.
package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/localift/engage/internal/shared/domain"
	"github.com/localift/engage/internal/shared/infrastructure/eventbus"
)

// Message is a stored domain event awaiting publication.
type Message struct {
	ID               int64
	EventID          uuid.UUID
	AggregateType    string
	AggregateID      uuid.UUID
	EventType        string
	RoutingKey       string
	Payload          json.RawMessage
	Metadata         json.RawMessage
	CreatedAt        time.Time
	PublishedAt      *time.Time
	NextRetryAt      *time.Time
	RetryCount       int
	LastError        *string
	DeadLetteredAt   *time.Time
	DeadLetterReason *string
}

// NewMessage creates an outbox message from a domain event.
func NewMessage(event domain.DomainEvent) (*Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	metadata, err := json.Marshal(event.Metadata())
	if err != nil {
		return nil, err
	}

	return &Message{
		EventID:       event.EventID(),
		AggregateType: event.AggregateType(),
		AggregateID:   event.AggregateID(),
		EventType:     event.RoutingKey(),
		RoutingKey:    event.RoutingKey(),
		Payload:       payload,
		Metadata:      metadata,
		CreatedAt:     event.OccurredAt(),
	}, nil
}

// IsPublished reports whether the message has been published.
func (m *Message) IsPublished() bool {
	return m.PublishedAt != nil
}

// CanRetry reports whether the message has retry attempts left.
func (m *Message) CanRetry(maxRetries int) bool {
	return m.RetryCount < maxRetries
}

// Envelope wraps the raw event payload in the consumer envelope so
// subscribers receive the aggregate id and location metadata alongside
// the event body.
func (m *Message) Envelope() ([]byte, error) {
	event := eventbus.ConsumedEvent{
		EventID:       m.EventID,
		AggregateID:   m.AggregateID,
		AggregateType: m.AggregateType,
		RoutingKey:    m.RoutingKey,
		OccurredAt:    m.CreatedAt,
		Payload:       m.Payload,
	}

	if metadata, ok := m.decodeMetadata(); ok {
		event.Metadata = eventbus.EventMetadata{
			LocationID:    metadata.LocationID,
			CorrelationID: metadata.CorrelationID.String(),
			CausationID:   metadata.CausationID.String(),
		}
	}

	return json.Marshal(event)
}

// Trace returns the correlation, causation and location ids for log
// fields, empty when the stored metadata is missing or invalid.
func (m *Message) Trace() (correlationID, causationID, locationID string) {
	metadata, ok := m.decodeMetadata()
	if !ok {
		return "", "", ""
	}
	return metadata.CorrelationID.String(), metadata.CausationID.String(), metadata.LocationID.String()
}

func (m *Message) decodeMetadata() (domain.EventMetadata, bool) {
	if len(m.Metadata) == 0 {
		return domain.EventMetadata{}, false
	}
	var metadata domain.EventMetadata
	if err := json.Unmarshal(m.Metadata, &metadata); err != nil {
		return domain.EventMetadata{}, false
	}
	return metadata, true
}
