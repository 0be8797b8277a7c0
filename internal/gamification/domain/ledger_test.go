package domain_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localift/engage/internal/gamification/domain"
	sharedDomain "github.com/localift/engage/internal/shared/domain"
)

func TestNewEntry(t *testing.T) {
	locationID := uuid.New()
	taskID := uuid.New()
	week := sharedDomain.CycleWeekOf(time.Date(2025, 2, 12, 0, 0, 0, 0, time.UTC))
	awardedAt := time.Date(2025, 2, 13, 10, 0, 0, 0, time.UTC)

	entry, err := domain.NewEntry(locationID, taskID, " respond-to-reviews ", "reviews", week, 25, awardedAt)

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, entry.ID())
	assert.Equal(t, locationID, entry.LocationID())
	assert.Equal(t, taskID, entry.TaskID())
	assert.Equal(t, "respond-to-reviews", entry.DefinitionID())
	assert.Equal(t, "reviews", entry.Category())
	assert.Equal(t, "2025-W07", entry.CycleWeek().String())
	assert.Equal(t, 25, entry.Points())
	assert.Equal(t, awardedAt, entry.AwardedAt())
}

func TestNewEntry_NilTaskID(t *testing.T) {
	week := sharedDomain.CycleWeekOf(time.Now())

	_, err := domain.NewEntry(uuid.New(), uuid.Nil, "def", "reviews", week, 25, time.Now())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNilTaskID)
}

func TestNewEntry_NegativePoints(t *testing.T) {
	week := sharedDomain.CycleWeekOf(time.Now())

	_, err := domain.NewEntry(uuid.New(), uuid.New(), "def", "reviews", week, -1, time.Now())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNegativeAward)
}

func TestNewEntry_ZeroPointsAllowed(t *testing.T) {
	week := sharedDomain.CycleWeekOf(time.Now())

	entry, err := domain.NewEntry(uuid.New(), uuid.New(), "def", "reviews", week, 0, time.Now())

	require.NoError(t, err)
	assert.Equal(t, 0, entry.Points())
}

func TestNewEntry_NormalizesToUTC(t *testing.T) {
	week := sharedDomain.CycleWeekOf(time.Now())
	cet := time.FixedZone("CET", 60*60)
	awardedAt := time.Date(2025, 2, 13, 11, 0, 0, 0, cet)

	entry, err := domain.NewEntry(uuid.New(), uuid.New(), "def", "reviews", week, 10, awardedAt)

	require.NoError(t, err)
	assert.Equal(t, time.UTC, entry.AwardedAt().Location())
	assert.True(t, entry.AwardedAt().Equal(awardedAt))
}

func TestRehydrateEntry(t *testing.T) {
	id := uuid.New()
	locationID := uuid.New()
	taskID := uuid.New()
	week := sharedDomain.CycleWeekOf(time.Date(2025, 2, 12, 0, 0, 0, 0, time.UTC))
	awardedAt := time.Date(2025, 2, 13, 10, 0, 0, 0, time.UTC)

	entry := domain.RehydrateEntry(id, locationID, taskID, "def", "posts", week, 15, awardedAt)

	assert.Equal(t, id, entry.ID())
	assert.Equal(t, taskID, entry.TaskID())
	assert.Equal(t, "posts", entry.Category())
	assert.Equal(t, 15, entry.Points())
	assert.Equal(t, awardedAt, entry.AwardedAt())
}
