package app

import (
	"fmt"

	"github.com/localift/engage/internal/engagement/domain/cycle"
	"github.com/localift/engage/internal/engagement/domain/task"
	engagementPersistence "github.com/localift/engage/internal/engagement/infrastructure/persistence"
	gamification "github.com/localift/engage/internal/gamification/domain"
	gamificationPersistence "github.com/localift/engage/internal/gamification/infrastructure/persistence"
	"github.com/localift/engage/internal/shared/infrastructure/database"
	"github.com/localift/engage/internal/shared/infrastructure/outbox"
)

// RepositoryFactory creates repositories matching the connection's driver.
type RepositoryFactory struct {
	conn   database.Connection
	driver database.Driver
}

// NewRepositoryFactory creates a repository factory bound to a connection.
func NewRepositoryFactory(conn database.Connection) *RepositoryFactory {
	return &RepositoryFactory{
		conn:   conn,
		driver: conn.Driver(),
	}
}

// TaskRepository creates a task repository for the configured driver.
func (f *RepositoryFactory) TaskRepository() (task.Repository, error) {
	switch f.driver {
	case database.DriverPostgres:
		return engagementPersistence.NewPostgresTaskRepository(f.conn), nil
	case database.DriverSQLite:
		return engagementPersistence.NewSQLiteTaskRepository(f.conn), nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

// CycleRepository creates a cycle record repository for the configured driver.
func (f *RepositoryFactory) CycleRepository() (cycle.Repository, error) {
	switch f.driver {
	case database.DriverPostgres:
		return engagementPersistence.NewPostgresCycleRepository(f.conn), nil
	case database.DriverSQLite:
		return engagementPersistence.NewSQLiteCycleRepository(f.conn), nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

// LedgerRepository creates a points ledger repository for the configured driver.
func (f *RepositoryFactory) LedgerRepository() (gamification.LedgerRepository, error) {
	switch f.driver {
	case database.DriverPostgres:
		return gamificationPersistence.NewPostgresLedgerRepository(f.conn), nil
	case database.DriverSQLite:
		return gamificationPersistence.NewSQLiteLedgerRepository(f.conn), nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

// SnapshotRepository creates a listing snapshot repository for the configured driver.
func (f *RepositoryFactory) SnapshotRepository() (gamification.SnapshotRepository, error) {
	switch f.driver {
	case database.DriverPostgres:
		return gamificationPersistence.NewPostgresSnapshotRepository(f.conn), nil
	case database.DriverSQLite:
		return gamificationPersistence.NewSQLiteSnapshotRepository(f.conn), nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

// UnlockRepository creates an unlock repository for the configured driver.
func (f *RepositoryFactory) UnlockRepository() (gamification.UnlockRepository, error) {
	switch f.driver {
	case database.DriverPostgres:
		return gamificationPersistence.NewPostgresUnlockRepository(f.conn), nil
	case database.DriverSQLite:
		return gamificationPersistence.NewSQLiteUnlockRepository(f.conn), nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

// OutboxRepository creates an outbox repository for the configured driver.
func (f *RepositoryFactory) OutboxRepository() (outbox.Repository, error) {
	switch f.driver {
	case database.DriverPostgres:
		return outbox.NewPostgresRepository(f.conn), nil
	case database.DriverSQLite:
		return outbox.NewSQLiteRepository(f.conn), nil
	default:
		return nil, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

// Driver returns the database driver type.
func (f *RepositoryFactory) Driver() database.Driver {
	return f.driver
}

// Connection returns the underlying database connection.
func (f *RepositoryFactory) Connection() database.Connection {
	return f.conn
}
