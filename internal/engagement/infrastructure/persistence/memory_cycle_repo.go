package persistence

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/localift/engage/internal/engagement/domain/cycle"
	sharedDomain "github.com/localift/engage/internal/shared/domain"
	"github.com/localift/engage/internal/shared/infrastructure/database"
)

// InMemoryCycleRepository is an in-memory implementation of
// cycle.Repository for tests and local development without a database.
type InMemoryCycleRepository struct {
	mu      sync.RWMutex
	records map[cycleKey]memoryCycle
}

type cycleKey struct {
	locationID uuid.UUID
	week       string
}

type memoryCycle struct {
	id          uuid.UUID
	locationID  uuid.UUID
	week        sharedDomain.CycleWeek
	refreshedAt time.Time
	nextRefresh time.Time
	taskCount   int
	version     int
	createdAt   time.Time
	updatedAt   time.Time
}

// NewInMemoryCycleRepository creates a new in-memory cycle repository.
func NewInMemoryCycleRepository() *InMemoryCycleRepository {
	return &InMemoryCycleRepository{records: make(map[cycleKey]memoryCycle)}
}

// Save stores the record for a completed refresh. Records are immutable,
// so an existing record for the same location and week means a concurrent
// refresh won the race, reported as database.ErrOptimisticLocking.
func (r *InMemoryCycleRepository) Save(ctx context.Context, record *cycle.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := cycleKey{locationID: record.LocationID(), week: record.Week().String()}
	if _, exists := r.records[key]; exists {
		return database.ErrOptimisticLocking
	}

	r.records[key] = memoryCycle{
		id:          record.ID(),
		locationID:  record.LocationID(),
		week:        record.Week(),
		refreshedAt: record.RefreshedAt(),
		nextRefresh: record.NextRefresh(),
		taskCount:   record.TaskCount(),
		version:     record.Version(),
		createdAt:   record.CreatedAt(),
		updatedAt:   record.UpdatedAt(),
	}
	return nil
}

// FindLatest retrieves the most recent cycle record for a location.
func (r *InMemoryCycleRepository) FindLatest(ctx context.Context, locationID uuid.UUID) (*cycle.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *memoryCycle
	for key, row := range r.records {
		if key.locationID != locationID {
			continue
		}
		if latest == nil || row.refreshedAt.After(latest.refreshedAt) {
			row := row
			latest = &row
		}
	}

	if latest == nil {
		return nil, cycle.ErrRecordNotFound
	}
	return latest.rehydrate(), nil
}

// FindByLocationAndWeek retrieves the cycle record for a specific week.
func (r *InMemoryCycleRepository) FindByLocationAndWeek(ctx context.Context, locationID uuid.UUID, week sharedDomain.CycleWeek) (*cycle.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	row, ok := r.records[cycleKey{locationID: locationID, week: week.String()}]
	if !ok {
		return nil, cycle.ErrRecordNotFound
	}
	return row.rehydrate(), nil
}

func (row memoryCycle) rehydrate() *cycle.Record {
	return cycle.Rehydrate(
		row.id,
		row.locationID,
		row.week,
		row.refreshedAt,
		row.nextRefresh,
		row.taskCount,
		row.version,
		row.createdAt,
		row.updatedAt,
	)
}
