package cycle_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localift/engage/internal/engagement/domain/cycle"
)

func TestNewRecord(t *testing.T) {
	locationID := uuid.New()
	refreshedAt := time.Date(2025, 2, 12, 9, 30, 0, 0, time.UTC)

	rec := cycle.NewRecord(locationID, refreshedAt, cycle.DefaultInterval, 5)

	assert.NotEqual(t, uuid.Nil, rec.ID())
	assert.Equal(t, locationID, rec.LocationID())
	assert.Equal(t, "2025-W07", rec.Week().String())
	assert.Equal(t, refreshedAt, rec.RefreshedAt())
	assert.Equal(t, refreshedAt.Add(7*24*time.Hour), rec.NextRefresh())
	assert.Equal(t, 5, rec.TaskCount())
}

func TestNewRecord_EmitsRefreshedEvent(t *testing.T) {
	refreshedAt := time.Date(2025, 2, 12, 9, 30, 0, 0, time.UTC)

	rec := cycle.NewRecord(uuid.New(), refreshedAt, cycle.DefaultInterval, 3)

	events := rec.DomainEvents()
	require.Len(t, events, 1)

	refreshed, ok := events[0].(cycle.TasksRefreshed)
	require.True(t, ok)
	assert.Equal(t, rec.ID(), refreshed.AggregateID())
	assert.Equal(t, cycle.RoutingKeyRefreshed, refreshed.RoutingKey())
	assert.Equal(t, "2025-W07", refreshed.Week)
	assert.Equal(t, 3, refreshed.TaskCount)
	assert.Equal(t, rec.NextRefresh(), refreshed.NextRefresh)
}

func TestNewRecord_NonPositiveInterval(t *testing.T) {
	refreshedAt := time.Date(2025, 2, 12, 9, 30, 0, 0, time.UTC)

	rec := cycle.NewRecord(uuid.New(), refreshedAt, 0, 1)

	assert.Equal(t, refreshedAt.Add(cycle.DefaultInterval), rec.NextRefresh())
}

func TestNewRecord_NormalizesToUTC(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	refreshedAt := time.Date(2025, 2, 12, 10, 30, 0, 0, berlin)

	rec := cycle.NewRecord(uuid.New(), refreshedAt, cycle.DefaultInterval, 1)

	assert.Equal(t, time.UTC, rec.RefreshedAt().Location())
	assert.True(t, rec.RefreshedAt().Equal(refreshedAt))
}

func TestCanRefresh_NoRecord(t *testing.T) {
	assert.True(t, cycle.CanRefresh(nil, time.Now()))
}

func TestCanRefresh(t *testing.T) {
	refreshedAt := time.Date(2025, 2, 12, 9, 0, 0, 0, time.UTC)
	rec := cycle.NewRecord(uuid.New(), refreshedAt, cycle.DefaultInterval, 4)

	tests := []struct {
		name    string
		now     time.Time
		allowed bool
	}{
		{"immediately after refresh", refreshedAt.Add(time.Minute), false},
		{"six days later", refreshedAt.Add(6 * 24 * time.Hour), false},
		{"one second before boundary", rec.NextRefresh().Add(-time.Second), false},
		{"exactly at boundary", rec.NextRefresh(), true},
		{"after boundary", rec.NextRefresh().Add(time.Hour), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, cycle.CanRefresh(rec, tt.now))
		})
	}
}

func TestRehydrate(t *testing.T) {
	id := uuid.New()
	locationID := uuid.New()
	refreshedAt := time.Date(2025, 2, 12, 9, 0, 0, 0, time.UTC)
	nextRefresh := refreshedAt.Add(cycle.DefaultInterval)

	fresh := cycle.NewRecord(locationID, refreshedAt, cycle.DefaultInterval, 4)
	rec := cycle.Rehydrate(
		id, locationID, fresh.Week(),
		refreshedAt, nextRefresh, 4,
		2, refreshedAt, refreshedAt,
	)

	assert.Equal(t, id, rec.ID())
	assert.Equal(t, locationID, rec.LocationID())
	assert.Equal(t, "2025-W07", rec.Week().String())
	assert.Equal(t, nextRefresh, rec.NextRefresh())
	assert.Equal(t, 2, rec.Version())
	assert.Empty(t, rec.DomainEvents())
}
