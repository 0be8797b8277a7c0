// Package cycle tracks the weekly refresh cadence for each location. A
// Record is written once per successful refresh; the latest record decides
// whether the next refresh is allowed yet.
package cycle

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/localift/engage/internal/shared/domain"
)

// DefaultInterval is the minimum time between two refreshes for a location.
const DefaultInterval = 7 * 24 * time.Hour

// ErrRefreshTooSoon is returned when a refresh is requested before the
// interval since the last refresh has elapsed.
var ErrRefreshTooSoon = errors.New("refresh interval has not elapsed")

// Record captures one completed refresh for a location.
type Record struct {
	domain.BaseAggregateRoot
	locationID  uuid.UUID
	week        domain.CycleWeek
	refreshedAt time.Time
	nextRefresh time.Time
	taskCount   int
}

// NewRecord creates the record for a refresh that happened at refreshedAt.
// The cycle week is derived from the refresh instant. A non-positive
// interval falls back to DefaultInterval.
func NewRecord(locationID uuid.UUID, refreshedAt time.Time, interval time.Duration, taskCount int) *Record {
	if interval <= 0 {
		interval = DefaultInterval
	}
	refreshedAt = refreshedAt.UTC()

	r := &Record{
		BaseAggregateRoot: domain.NewBaseAggregateRoot(),
		locationID:        locationID,
		week:              domain.CycleWeekOf(refreshedAt),
		refreshedAt:       refreshedAt,
		nextRefresh:       refreshedAt.Add(interval),
		taskCount:         taskCount,
	}

	r.AddDomainEvent(NewTasksRefreshed(r.ID(), r.week.String(), r.taskCount, r.nextRefresh))

	return r
}

func (r *Record) LocationID() uuid.UUID  { return r.locationID }
func (r *Record) Week() domain.CycleWeek { return r.week }
func (r *Record) RefreshedAt() time.Time { return r.refreshedAt }
func (r *Record) NextRefresh() time.Time { return r.nextRefresh }
func (r *Record) TaskCount() int         { return r.taskCount }

// CanRefresh reports whether a location may refresh at the given instant.
// A location with no record yet may always refresh. The boundary is
// inclusive: a request at exactly NextRefresh is allowed.
func CanRefresh(latest *Record, now time.Time) bool {
	if latest == nil {
		return true
	}
	return !now.UTC().Before(latest.nextRefresh)
}

// Rehydrate reconstructs a record from persisted state.
func Rehydrate(
	id uuid.UUID,
	locationID uuid.UUID,
	week domain.CycleWeek,
	refreshedAt time.Time,
	nextRefresh time.Time,
	taskCount int,
	version int,
	createdAt time.Time,
	updatedAt time.Time,
) *Record {
	entity := domain.RehydrateBaseEntity(id, createdAt, updatedAt)
	return &Record{
		BaseAggregateRoot: domain.RehydrateBaseAggregateRoot(entity, version),
		locationID:        locationID,
		week:              week,
		refreshedAt:       refreshedAt,
		nextRefresh:       nextRefresh,
		taskCount:         taskCount,
	}
}
