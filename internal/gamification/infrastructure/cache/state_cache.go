// Package cache provides the keyed LocationGameState cache: Redis-backed
// for server mode plus an in-memory twin for tests and local mode. The
// cache is never authoritative; commands invalidate it and reads fall back
// to recomputing from the ledger on a miss.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/localift/engage/internal/gamification/domain"
)

// RedisStateCache stores derived game state in Redis keyed by location.
// Keys are namespaced engage:gamestate:{location_id}.
type RedisStateCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStateCache creates a Redis-backed state cache. ttl bounds how
// long a stale entry can outlive a missed invalidation; pass 0 to store
// without expiration.
func NewRedisStateCache(client *redis.Client, ttl time.Duration) *RedisStateCache {
	return &RedisStateCache{client: client, ttl: ttl}
}

func stateKey(locationID uuid.UUID) string {
	return fmt.Sprintf("engage:gamestate:%s", locationID)
}

// Get retrieves the cached state for a location. The second return value
// reports whether the cache held an entry.
func (c *RedisStateCache) Get(ctx context.Context, locationID uuid.UUID) (domain.GameState, bool, error) {
	val, err := c.client.Get(ctx, stateKey(locationID)).Bytes()
	if err == redis.Nil {
		return domain.GameState{}, false, nil
	}
	if err != nil {
		return domain.GameState{}, false, err
	}

	var state domain.GameState
	if err := json.Unmarshal(val, &state); err != nil {
		return domain.GameState{}, false, fmt.Errorf("decode cached state: %w", err)
	}
	return state, true, nil
}

// Set stores the state for a location.
func (c *RedisStateCache) Set(ctx context.Context, locationID uuid.UUID, state domain.GameState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	return c.client.Set(ctx, stateKey(locationID), payload, c.ttl).Err()
}

// Invalidate drops the cached state for a location.
func (c *RedisStateCache) Invalidate(ctx context.Context, locationID uuid.UUID) error {
	return c.client.Del(ctx, stateKey(locationID)).Err()
}
