package persistence

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/localift/engage/internal/gamification/domain"
)

// InMemoryUnlockRepository is an in-memory domain.UnlockRepository for
// tests and examples.
type InMemoryUnlockRepository struct {
	mu      sync.RWMutex
	unlocks map[unlockKey]memoryUnlock
}

type unlockKey struct {
	locationID   uuid.UUID
	definitionID string
}

type memoryUnlock struct {
	id           uuid.UUID
	locationID   uuid.UUID
	kind         domain.Kind
	definitionID string
	title        string
	description  string
	value        int
	achievedAt   time.Time
	createdAt    time.Time
	updatedAt    time.Time
}

// NewInMemoryUnlockRepository creates an empty in-memory unlock store.
func NewInMemoryUnlockRepository() *InMemoryUnlockRepository {
	return &InMemoryUnlockRepository{unlocks: make(map[unlockKey]memoryUnlock)}
}

// Save stores an unlock, rejecting a second record for the same location
// and definition with domain.ErrAlreadyUnlocked.
func (r *InMemoryUnlockRepository) Save(ctx context.Context, unlock *domain.Unlock) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := unlockKey{locationID: unlock.LocationID(), definitionID: unlock.DefinitionID()}
	if _, exists := r.unlocks[key]; exists {
		return domain.ErrAlreadyUnlocked
	}

	r.unlocks[key] = memoryUnlock{
		id:           unlock.ID(),
		locationID:   unlock.LocationID(),
		kind:         unlock.Kind(),
		definitionID: unlock.DefinitionID(),
		title:        unlock.Title(),
		description:  unlock.Description(),
		value:        unlock.Value(),
		achievedAt:   unlock.AchievedAt(),
		createdAt:    unlock.CreatedAt(),
		updatedAt:    unlock.UpdatedAt(),
	}
	return nil
}

// FindByLocation retrieves all unlocks for a location, newest first.
func (r *InMemoryUnlockRepository) FindByLocation(ctx context.Context, locationID uuid.UUID) ([]*domain.Unlock, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []memoryUnlock
	for _, row := range r.unlocks {
		if row.locationID == locationID {
			matched = append(matched, row)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].achievedAt.Equal(matched[j].achievedAt) {
			return matched[i].achievedAt.After(matched[j].achievedAt)
		}
		return matched[i].id.String() < matched[j].id.String()
	})

	unlocks := make([]*domain.Unlock, 0, len(matched))
	for _, row := range matched {
		unlocks = append(unlocks, domain.RehydrateUnlock(
			row.id, row.locationID, row.kind, row.definitionID, row.title,
			row.description, row.value, row.achievedAt, row.createdAt, row.updatedAt,
		))
	}
	return unlocks, nil
}
