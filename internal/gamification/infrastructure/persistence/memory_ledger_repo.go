package persistence

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/localift/engage/internal/gamification/domain"
	sharedDomain "github.com/localift/engage/internal/shared/domain"
)

// InMemoryLedgerRepository is an in-memory domain.LedgerRepository for
// tests and examples. Entries are keyed by task id, which is what gives
// the ledger its one-entry-per-task guarantee.
type InMemoryLedgerRepository struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]memoryEntry
}

type memoryEntry struct {
	id           uuid.UUID
	locationID   uuid.UUID
	taskID       uuid.UUID
	definitionID string
	category     string
	week         sharedDomain.CycleWeek
	points       int
	awardedAt    time.Time
}

// NewInMemoryLedgerRepository creates an empty in-memory ledger.
func NewInMemoryLedgerRepository() *InMemoryLedgerRepository {
	return &InMemoryLedgerRepository{entries: make(map[uuid.UUID]memoryEntry)}
}

// Append stores one points award, rejecting a second award for the same
// task with domain.ErrDuplicateTaskAward.
func (r *InMemoryLedgerRepository) Append(ctx context.Context, entry *domain.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[entry.TaskID()]; exists {
		return domain.ErrDuplicateTaskAward
	}

	r.entries[entry.TaskID()] = memoryEntry{
		id:           entry.ID(),
		locationID:   entry.LocationID(),
		taskID:       entry.TaskID(),
		definitionID: entry.DefinitionID(),
		category:     entry.Category(),
		week:         entry.CycleWeek(),
		points:       entry.Points(),
		awardedAt:    entry.AwardedAt(),
	}
	return nil
}

// FindByLocation retrieves all ledger entries for a location, oldest first.
func (r *InMemoryLedgerRepository) FindByLocation(ctx context.Context, locationID uuid.UUID) ([]*domain.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []memoryEntry
	for _, row := range r.entries {
		if row.locationID == locationID {
			matched = append(matched, row)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].awardedAt.Equal(matched[j].awardedAt) {
			return matched[i].awardedAt.Before(matched[j].awardedAt)
		}
		return matched[i].id.String() < matched[j].id.String()
	})

	entries := make([]*domain.Entry, 0, len(matched))
	for _, row := range matched {
		entries = append(entries, domain.RehydrateEntry(
			row.id, row.locationID, row.taskID, row.definitionID, row.category,
			row.week, row.points, row.awardedAt,
		))
	}
	return entries, nil
}
