package domain

import (
	"context"

	"github.com/google/uuid"
)

// LedgerRepository persists points awards. Append returns
// ErrDuplicateTaskAward when the task already has an entry; FindByLocation
// returns entries ordered by award time, oldest first.
type LedgerRepository interface {
	Append(ctx context.Context, entry *Entry) error
	FindByLocation(ctx context.Context, locationID uuid.UUID) ([]*Entry, error)
}

// UnlockRepository persists milestone and achievement unlocks. Save
// returns ErrAlreadyUnlocked when the location already has the
// definition; FindByLocation returns unlocks newest first.
type UnlockRepository interface {
	Save(ctx context.Context, unlock *Unlock) error
	FindByLocation(ctx context.Context, locationID uuid.UUID) ([]*Unlock, error)
}

// SnapshotRepository stores the last known listing snapshot per location.
// Save upserts; FindByLocation returns ErrSnapshotNotFound when the
// location was never captured.
type SnapshotRepository interface {
	Save(ctx context.Context, snapshot *Snapshot) error
	FindByLocation(ctx context.Context, locationID uuid.UUID) (*Snapshot, error)
}
