// Package subscribers reacts to engagement events on the event bus.
package subscribers

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/localift/engage/internal/engagement/domain/cycle"
	"github.com/localift/engage/internal/engagement/domain/task"
	gamification "github.com/localift/engage/internal/gamification/domain"
	"github.com/localift/engage/internal/shared/infrastructure/eventbus"
)

// StateRecomputer recomputes a location's game state and refreshes the
// cache. The gamification state service satisfies it.
type StateRecomputer interface {
	Recompute(ctx context.Context, locationID uuid.UUID) (gamification.GameState, error)
}

// StateWarmer listens for events that invalidate a location's cached game
// state and recomputes it, so the next board read is a cache hit.
type StateWarmer struct {
	states StateRecomputer
	logger *slog.Logger
}

// NewStateWarmer creates a state warmer subscriber.
func NewStateWarmer(states StateRecomputer, logger *slog.Logger) *StateWarmer {
	if logger == nil {
		logger = slog.Default()
	}
	return &StateWarmer{
		states: states,
		logger: logger,
	}
}

// EventTypes returns the routing keys the warmer reacts to.
func (w *StateWarmer) EventTypes() []string {
	return []string{
		task.RoutingKeyCompleted,
		task.RoutingKeyExcluded,
		cycle.RoutingKeyRefreshed,
	}
}

// Handle recomputes the game state for the event's location.
func (w *StateWarmer) Handle(ctx context.Context, event *eventbus.ConsumedEvent) error {
	locationID := event.Metadata.LocationID
	if locationID == uuid.Nil {
		w.logger.Warn("event missing location metadata, skipping state warm",
			"routing_key", event.RoutingKey,
			"event_id", event.EventID,
		)
		return nil
	}

	state, err := w.states.Recompute(ctx, locationID)
	if err != nil {
		// A failed warm is not retried; the next read recomputes on a miss.
		w.logger.Error("state warm failed",
			"location_id", locationID,
			"routing_key", event.RoutingKey,
			"error", err,
		)
		return nil
	}

	w.logger.Debug("game state warmed",
		"location_id", locationID,
		"level", state.Level,
		"total_points", state.TotalPoints,
	)

	return nil
}
