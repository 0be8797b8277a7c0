package application

import (
	"github.com/google/uuid"

	"github.com/localift/engage/internal/shared/domain"
)

// NewEventMetadata mints metadata for one command execution: a fresh
// correlation and causation id, scoped to the location the command acts on.
func NewEventMetadata(locationID uuid.UUID) domain.EventMetadata {
	return domain.EventMetadata{
		CorrelationID: uuid.New(),
		CausationID:   uuid.New(),
		LocationID:    locationID,
	}
}

// metadataSetter is the mutation hook events gain by embedding
// domain.BaseEvent.
type metadataSetter interface {
	SetMetadata(metadata domain.EventMetadata)
}

// ApplyEventMetadata stamps metadata on every event that can carry it, so
// all events raised by one command share the same correlation id.
func ApplyEventMetadata(events []domain.DomainEvent, metadata domain.EventMetadata) {
	for _, event := range events {
		if setter, ok := event.(metadataSetter); ok {
			setter.SetMetadata(metadata)
		}
	}
}
