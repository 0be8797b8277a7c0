// Package services exposes the gamification read services: derived game
// state behind a read-through cache, and the board sub-scores.
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/localift/engage/internal/gamification/domain"
)

// StateCache is the keyed game state store the service reads through.
// Satisfied by the Redis and in-memory caches in infrastructure/cache.
type StateCache interface {
	Get(ctx context.Context, locationID uuid.UUID) (domain.GameState, bool, error)
	Set(ctx context.Context, locationID uuid.UUID, state domain.GameState) error
	Invalidate(ctx context.Context, locationID uuid.UUID) error
}

// StateService derives a location's game state from the points ledger.
// The cache is best effort: a broken cache degrades reads to a recompute,
// never to an error.
type StateService struct {
	ledger    domain.LedgerRepository
	cache     StateCache
	levelStep int
	logger    *slog.Logger
}

// NewStateService creates a state service. levelStep tunes the leveling
// curve; zero or negative falls back to the default.
func NewStateService(ledger domain.LedgerRepository, cache StateCache, levelStep int, logger *slog.Logger) *StateService {
	return &StateService{
		ledger:    ledger,
		cache:     cache,
		levelStep: levelStep,
		logger:    logger,
	}
}

// Load returns the location's game state, serving from the cache when it
// holds an entry and recomputing from the ledger otherwise.
func (s *StateService) Load(ctx context.Context, locationID uuid.UUID) (domain.GameState, error) {
	state, ok, err := s.cache.Get(ctx, locationID)
	if err != nil {
		s.logger.Warn("game state cache read failed", "location_id", locationID, "error", err)
	} else if ok {
		return state, nil
	}

	state, err = s.Recompute(ctx, locationID)
	if err != nil {
		return domain.GameState{}, err
	}

	if err := s.cache.Set(ctx, locationID, state); err != nil {
		s.logger.Warn("game state cache write failed", "location_id", locationID, "error", err)
	}
	return state, nil
}

// Recompute folds the ledger into a fresh state without touching the
// cache. Command handlers call it inside their transaction so the fold
// sees the entry they just appended.
func (s *StateService) Recompute(ctx context.Context, locationID uuid.UUID) (domain.GameState, error) {
	entries, err := s.ledger.FindByLocation(ctx, locationID)
	if err != nil {
		return domain.GameState{}, err
	}
	return domain.ComputeGameState(entries, s.levelStep, time.Now()), nil
}

// Invalidate drops the cached state after a mutation. Failures are logged
// and swallowed; the worst case is one stale read before the next write.
func (s *StateService) Invalidate(ctx context.Context, locationID uuid.UUID) {
	if err := s.cache.Invalidate(ctx, locationID); err != nil {
		s.logger.Warn("game state cache invalidation failed", "location_id", locationID, "error", err)
	}
}
