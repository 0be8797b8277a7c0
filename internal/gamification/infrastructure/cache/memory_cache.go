package cache

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/localift/engage/internal/gamification/domain"
)

// InMemoryStateCache is the in-memory twin of the Redis cache, used in
// local mode and tests. Entries never expire; invalidation is explicit.
type InMemoryStateCache struct {
	mu     sync.RWMutex
	states map[uuid.UUID]domain.GameState
}

// NewInMemoryStateCache creates an empty in-memory state cache.
func NewInMemoryStateCache() *InMemoryStateCache {
	return &InMemoryStateCache{states: make(map[uuid.UUID]domain.GameState)}
}

// Get retrieves the cached state for a location.
func (c *InMemoryStateCache) Get(ctx context.Context, locationID uuid.UUID) (domain.GameState, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	state, ok := c.states[locationID]
	return state, ok, nil
}

// Set stores the state for a location.
func (c *InMemoryStateCache) Set(ctx context.Context, locationID uuid.UUID, state domain.GameState) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.states[locationID] = state
	return nil
}

// Invalidate drops the cached state for a location.
func (c *InMemoryStateCache) Invalidate(ctx context.Context, locationID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.states, locationID)
	return nil
}
