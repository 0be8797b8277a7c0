package persistence

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/localift/engage/internal/gamification/domain"
)

// InMemorySnapshotRepository is an in-memory domain.SnapshotRepository for
// tests and examples. Snapshots are stored by value with a detached
// categories slice so callers never share state with the store.
type InMemorySnapshotRepository struct {
	mu        sync.RWMutex
	snapshots map[uuid.UUID]domain.Snapshot
}

// NewInMemorySnapshotRepository creates an empty in-memory snapshot store.
func NewInMemorySnapshotRepository() *InMemorySnapshotRepository {
	return &InMemorySnapshotRepository{snapshots: make(map[uuid.UUID]domain.Snapshot)}
}

// Save upserts the snapshot for a location. Last write wins.
func (r *InMemorySnapshotRepository) Save(ctx context.Context, snapshot *domain.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *snapshot
	stored.Categories = cloneStrings(snapshot.Categories)
	r.snapshots[snapshot.LocationID] = stored
	return nil
}

// FindByLocation retrieves the stored snapshot for a location.
func (r *InMemorySnapshotRepository) FindByLocation(ctx context.Context, locationID uuid.UUID) (*domain.Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, exists := r.snapshots[locationID]
	if !exists {
		return nil, domain.ErrSnapshotNotFound
	}

	out := stored
	out.Categories = cloneStrings(stored.Categories)
	return &out, nil
}

func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}
	return append([]string(nil), values...)
}
