// Package domain holds the gamification model for a location: the
// append-only points ledger and the pure engines that derive level,
// streaks, scores and unlocks from it. Standing is always recomputed
// from the ledger, never stored.
package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	sharedDomain "github.com/localift/engage/internal/shared/domain"
)

var (
	ErrNilTaskID          = errors.New("ledger entry requires a task id")
	ErrNegativeAward      = errors.New("ledger entry points cannot be negative")
	ErrDuplicateTaskAward = errors.New("task has already been awarded points")
)

// Entry is one immutable points award. At most one entry ever exists per
// task; the ledger is append-only.
type Entry struct {
	id           uuid.UUID
	locationID   uuid.UUID
	taskID       uuid.UUID
	definitionID string
	category     string
	cycleWeek    sharedDomain.CycleWeek
	points       int
	awardedAt    time.Time
}

// NewEntry creates the award for a completed task. awardedAt is the
// completion instant and is normalized to UTC.
func NewEntry(
	locationID uuid.UUID,
	taskID uuid.UUID,
	definitionID string,
	category string,
	week sharedDomain.CycleWeek,
	points int,
	awardedAt time.Time,
) (*Entry, error) {
	if taskID == uuid.Nil {
		return nil, ErrNilTaskID
	}
	if points < 0 {
		return nil, ErrNegativeAward
	}
	if awardedAt.IsZero() {
		awardedAt = time.Now()
	}

	return &Entry{
		id:           uuid.New(),
		locationID:   locationID,
		taskID:       taskID,
		definitionID: strings.TrimSpace(definitionID),
		category:     category,
		cycleWeek:    week,
		points:       points,
		awardedAt:    awardedAt.UTC(),
	}, nil
}

// RehydrateEntry reconstructs an entry from persisted state.
func RehydrateEntry(
	id uuid.UUID,
	locationID uuid.UUID,
	taskID uuid.UUID,
	definitionID string,
	category string,
	week sharedDomain.CycleWeek,
	points int,
	awardedAt time.Time,
) *Entry {
	return &Entry{
		id:           id,
		locationID:   locationID,
		taskID:       taskID,
		definitionID: definitionID,
		category:     category,
		cycleWeek:    week,
		points:       points,
		awardedAt:    awardedAt,
	}
}

func (e *Entry) ID() uuid.UUID                     { return e.id }
func (e *Entry) LocationID() uuid.UUID             { return e.locationID }
func (e *Entry) TaskID() uuid.UUID                 { return e.taskID }
func (e *Entry) DefinitionID() string              { return e.definitionID }
func (e *Entry) Category() string                  { return e.category }
func (e *Entry) CycleWeek() sharedDomain.CycleWeek { return e.cycleWeek }
func (e *Entry) Points() int                       { return e.points }
func (e *Entry) AwardedAt() time.Time              { return e.awardedAt }
