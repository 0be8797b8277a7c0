package persistence

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localift/engage/internal/gamification/domain"
	sharedDomain "github.com/localift/engage/internal/shared/domain"
	"github.com/localift/engage/internal/shared/infrastructure/database"
	"github.com/localift/engage/internal/shared/infrastructure/database/sqlite"
	"github.com/localift/engage/internal/shared/infrastructure/migrations"
)

func setupSQLiteDB(t *testing.T) database.Connection {
	t.Helper()

	cfg := database.Config{
		Driver:     database.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "engage.db"),
	}

	conn, err := sqlite.NewConnection(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	sqliteConn, ok := conn.(*sqlite.Connection)
	require.True(t, ok)
	require.NoError(t, migrations.RunSQLiteMigrations(context.Background(), sqliteConn.DB()))

	return conn
}

func newTestEntry(t *testing.T, locationID, taskID uuid.UUID, points int, awardedAt time.Time) *domain.Entry {
	t.Helper()

	entry, err := domain.NewEntry(
		locationID, taskID, "upload-photos", "photos",
		sharedDomain.CycleWeekOf(awardedAt), points, awardedAt,
	)
	require.NoError(t, err)
	return entry
}

func TestSQLiteLedgerRepository_AppendAndFind(t *testing.T) {
	conn := setupSQLiteDB(t)
	repo := NewSQLiteLedgerRepository(conn)
	ctx := context.Background()

	locationID := uuid.New()
	awardedAt := time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC)
	entry := newTestEntry(t, locationID, uuid.New(), 15, awardedAt)

	require.NoError(t, repo.Append(ctx, entry))

	entries, err := repo.FindByLocation(ctx, locationID)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	loaded := entries[0]
	assert.Equal(t, entry.ID(), loaded.ID())
	assert.Equal(t, locationID, loaded.LocationID())
	assert.Equal(t, entry.TaskID(), loaded.TaskID())
	assert.Equal(t, "upload-photos", loaded.DefinitionID())
	assert.Equal(t, "photos", loaded.Category())
	assert.Equal(t, entry.CycleWeek().String(), loaded.CycleWeek().String())
	assert.Equal(t, 15, loaded.Points())
	assert.Equal(t, awardedAt.Unix(), loaded.AwardedAt().Unix())
}

func TestSQLiteLedgerRepository_DuplicateTaskAward(t *testing.T) {
	conn := setupSQLiteDB(t)
	repo := NewSQLiteLedgerRepository(conn)
	ctx := context.Background()

	locationID := uuid.New()
	taskID := uuid.New()
	awardedAt := time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC)

	first := newTestEntry(t, locationID, taskID, 15, awardedAt)
	require.NoError(t, repo.Append(ctx, first))

	second := newTestEntry(t, locationID, taskID, 40, awardedAt.Add(time.Hour))
	err := repo.Append(ctx, second)
	require.ErrorIs(t, err, domain.ErrDuplicateTaskAward)

	entries, err := repo.FindByLocation(ctx, locationID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, first.ID(), entries[0].ID())
	assert.Equal(t, 15, entries[0].Points())
}

func TestSQLiteLedgerRepository_FindByLocationOldestFirst(t *testing.T) {
	conn := setupSQLiteDB(t)
	repo := NewSQLiteLedgerRepository(conn)
	ctx := context.Background()

	locationID := uuid.New()
	base := time.Date(2025, 6, 11, 10, 0, 0, 0, time.UTC)

	middle := newTestEntry(t, locationID, uuid.New(), 10, base.Add(-24*time.Hour))
	newest := newTestEntry(t, locationID, uuid.New(), 20, base)
	oldest := newTestEntry(t, locationID, uuid.New(), 30, base.Add(-48*time.Hour))
	other := newTestEntry(t, uuid.New(), uuid.New(), 40, base)

	for _, entry := range []*domain.Entry{middle, newest, oldest, other} {
		require.NoError(t, repo.Append(ctx, entry))
	}

	entries, err := repo.FindByLocation(ctx, locationID)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, oldest.ID(), entries[0].ID())
	assert.Equal(t, middle.ID(), entries[1].ID())
	assert.Equal(t, newest.ID(), entries[2].ID())
}
