package services

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/localift/engage/internal/gamification/domain"
	sharedDomain "github.com/localift/engage/internal/shared/domain"
)

type mockLedgerRepo struct {
	mock.Mock
}

func (m *mockLedgerRepo) Append(ctx context.Context, entry *domain.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *mockLedgerRepo) FindByLocation(ctx context.Context, locationID uuid.UUID) ([]*domain.Entry, error) {
	args := m.Called(ctx, locationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Entry), args.Error(1)
}

type mockSnapshotRepo struct {
	mock.Mock
}

func (m *mockSnapshotRepo) Save(ctx context.Context, snapshot *domain.Snapshot) error {
	args := m.Called(ctx, snapshot)
	return args.Error(0)
}

func (m *mockSnapshotRepo) FindByLocation(ctx context.Context, locationID uuid.UUID) (*domain.Snapshot, error) {
	args := m.Called(ctx, locationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Snapshot), args.Error(1)
}

type mockStateCache struct {
	mock.Mock
}

func (m *mockStateCache) Get(ctx context.Context, locationID uuid.UUID) (domain.GameState, bool, error) {
	args := m.Called(ctx, locationID)
	return args.Get(0).(domain.GameState), args.Bool(1), args.Error(2)
}

func (m *mockStateCache) Set(ctx context.Context, locationID uuid.UUID, state domain.GameState) error {
	args := m.Called(ctx, locationID, state)
	return args.Error(0)
}

func (m *mockStateCache) Invalidate(ctx context.Context, locationID uuid.UUID) error {
	args := m.Called(ctx, locationID)
	return args.Error(0)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

func ledgerEntry(t *testing.T, locationID uuid.UUID, category string, points int, awardedAt time.Time) *domain.Entry {
	t.Helper()

	entry, err := domain.NewEntry(
		locationID, uuid.New(), "upload-photos", category,
		sharedDomain.CycleWeekOf(awardedAt), points, awardedAt,
	)
	require.NoError(t, err)
	return entry
}

func TestStateService_Load(t *testing.T) {
	ctx := context.Background()
	locationID := uuid.New()

	t.Run("serves from cache on a hit", func(t *testing.T) {
		ledger := new(mockLedgerRepo)
		cache := new(mockStateCache)
		svc := NewStateService(ledger, cache, 0, testLogger())

		cached := domain.GameState{Level: 3, TotalPoints: 420}
		cache.On("Get", ctx, locationID).Return(cached, true, nil)

		state, err := svc.Load(ctx, locationID)
		require.NoError(t, err)
		assert.Equal(t, cached, state)

		ledger.AssertNotCalled(t, "FindByLocation")
		cache.AssertExpectations(t)
	})

	t.Run("recomputes and caches on a miss", func(t *testing.T) {
		ledger := new(mockLedgerRepo)
		cache := new(mockStateCache)
		svc := NewStateService(ledger, cache, 0, testLogger())

		now := time.Now()
		entries := []*domain.Entry{
			ledgerEntry(t, locationID, "photos", 100, now.Add(-time.Hour)),
			ledgerEntry(t, locationID, "posts", 50, now),
		}

		cache.On("Get", ctx, locationID).Return(domain.GameState{}, false, nil)
		ledger.On("FindByLocation", ctx, locationID).Return(entries, nil)
		cache.On("Set", ctx, locationID, mock.AnythingOfType("domain.GameState")).Return(nil)

		state, err := svc.Load(ctx, locationID)
		require.NoError(t, err)
		assert.Equal(t, 150, state.TotalPoints)
		assert.Equal(t, 2, state.Level)
		assert.Equal(t, 25, state.ProgressToNextLevel)
		assert.Equal(t, 2, state.TasksCompleted)

		ledger.AssertExpectations(t)
		cache.AssertExpectations(t)
	})

	t.Run("degrades to a recompute when the cache breaks", func(t *testing.T) {
		ledger := new(mockLedgerRepo)
		cache := new(mockStateCache)
		svc := NewStateService(ledger, cache, 0, testLogger())

		cache.On("Get", ctx, locationID).Return(domain.GameState{}, false, errors.New("redis down"))
		ledger.On("FindByLocation", ctx, locationID).Return([]*domain.Entry{}, nil)
		cache.On("Set", ctx, locationID, mock.AnythingOfType("domain.GameState")).Return(errors.New("redis down"))

		state, err := svc.Load(ctx, locationID)
		require.NoError(t, err)
		assert.Equal(t, 0, state.TotalPoints)
		assert.Equal(t, 1, state.Level)
	})

	t.Run("propagates ledger errors", func(t *testing.T) {
		ledger := new(mockLedgerRepo)
		cache := new(mockStateCache)
		svc := NewStateService(ledger, cache, 0, testLogger())

		cache.On("Get", ctx, locationID).Return(domain.GameState{}, false, nil)
		ledger.On("FindByLocation", ctx, locationID).Return(nil, errors.New("connection lost"))

		_, err := svc.Load(ctx, locationID)
		require.Error(t, err)
		cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestStateService_Recompute_DoesNotTouchCache(t *testing.T) {
	ctx := context.Background()
	locationID := uuid.New()

	ledger := new(mockLedgerRepo)
	cache := new(mockStateCache)
	svc := NewStateService(ledger, cache, 0, testLogger())

	entries := []*domain.Entry{
		ledgerEntry(t, locationID, "reviews", 25, time.Now()),
	}
	ledger.On("FindByLocation", ctx, locationID).Return(entries, nil)

	state, err := svc.Recompute(ctx, locationID)
	require.NoError(t, err)
	assert.Equal(t, 25, state.TotalPoints)

	cache.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
	cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything)
}

func TestStateService_Invalidate_SwallowsCacheErrors(t *testing.T) {
	ctx := context.Background()
	locationID := uuid.New()

	ledger := new(mockLedgerRepo)
	cache := new(mockStateCache)
	svc := NewStateService(ledger, cache, 0, testLogger())

	cache.On("Invalidate", ctx, locationID).Return(errors.New("redis down"))

	svc.Invalidate(ctx, locationID)
	cache.AssertExpectations(t)
}
