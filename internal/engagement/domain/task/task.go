// Package task holds the weekly engagement task aggregate. A task is
// generated from a catalog definition during a cycle refresh and can be
// completed or excluded exactly once; its point value is frozen at
// generation time.
package task

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/localift/engage/internal/shared/domain"
)

var (
	ErrEmptyTitle           = errors.New("task title cannot be empty")
	ErrEmptyDefinitionID    = errors.New("task definition id cannot be empty")
	ErrNegativePoints       = errors.New("task points cannot be negative")
	ErrTaskAlreadyCompleted = errors.New("task is already completed")
	ErrTaskAlreadyExcluded  = errors.New("task is already excluded")
)

// Status represents the task lifecycle state.
type Status int

const (
	StatusPending Status = iota
	StatusInProgress
	StatusCompleted
	StatusExcluded
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusInProgress:
		return "in_progress"
	case StatusCompleted:
		return "completed"
	case StatusExcluded:
		return "excluded"
	default:
		return "unknown"
	}
}

// ParseStatus converts a stored status string back to a Status.
func ParseStatus(value string) (Status, error) {
	switch value {
	case "pending":
		return StatusPending, nil
	case "in_progress":
		return StatusInProgress, nil
	case "completed":
		return StatusCompleted, nil
	case "excluded":
		return StatusExcluded, nil
	default:
		return StatusPending, fmt.Errorf("invalid task status %q", value)
	}
}

// IsTerminal reports whether the status permits no further transitions.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusExcluded
}

// Definition is the catalog-supplied template a task is generated from.
// Everything except Points is opaque to the engine and passed through to
// clients unchanged.
type Definition struct {
	DefinitionID  string
	Title         string
	Description   string
	Category      string
	Type          string
	Impact        string
	Priority      string
	EstimatedTime string
	Points        int
}

// Task represents one suggested engagement action for a location.
type Task struct {
	domain.BaseAggregateRoot
	locationID    uuid.UUID
	cycleWeek     domain.CycleWeek
	definitionID  string
	title         string
	description   string
	category      string
	taskType      string
	impact        string
	priority      string
	estimatedTime string
	points        int
	status        Status
	completedAt   *time.Time
	excludedAt    *time.Time
	excludeReason string
}

// NewTask generates a pending task for a location from a catalog definition.
func NewTask(locationID uuid.UUID, week domain.CycleWeek, def Definition) (*Task, error) {
	def.Title = strings.TrimSpace(def.Title)
	def.DefinitionID = strings.TrimSpace(def.DefinitionID)
	if def.Title == "" {
		return nil, ErrEmptyTitle
	}
	if def.DefinitionID == "" {
		return nil, ErrEmptyDefinitionID
	}
	if def.Points < 0 {
		return nil, ErrNegativePoints
	}

	t := &Task{
		BaseAggregateRoot: domain.NewBaseAggregateRoot(),
		locationID:        locationID,
		cycleWeek:         week,
		definitionID:      def.DefinitionID,
		title:             def.Title,
		description:       strings.TrimSpace(def.Description),
		category:          def.Category,
		taskType:          def.Type,
		impact:            def.Impact,
		priority:          def.Priority,
		estimatedTime:     def.EstimatedTime,
		points:            def.Points,
		status:            StatusPending,
	}

	t.AddDomainEvent(NewTaskGenerated(t.ID(), t.definitionID, t.title, t.cycleWeek.String(), t.points))

	return t, nil
}

// Getters

func (t *Task) LocationID() uuid.UUID       { return t.locationID }
func (t *Task) CycleWeek() domain.CycleWeek { return t.cycleWeek }
func (t *Task) DefinitionID() string        { return t.definitionID }
func (t *Task) Title() string               { return t.title }
func (t *Task) Description() string         { return t.description }
func (t *Task) Category() string            { return t.category }
func (t *Task) Type() string                { return t.taskType }
func (t *Task) Impact() string              { return t.impact }
func (t *Task) Priority() string            { return t.priority }
func (t *Task) EstimatedTime() string       { return t.estimatedTime }
func (t *Task) Points() int                 { return t.points }
func (t *Task) Status() Status              { return t.status }
func (t *Task) CompletedAt() *time.Time     { return t.completedAt }
func (t *Task) ExcludedAt() *time.Time      { return t.excludedAt }
func (t *Task) ExcludeReason() string       { return t.excludeReason }
func (t *Task) IsCompleted() bool           { return t.status == StatusCompleted }
func (t *Task) IsExcluded() bool            { return t.status == StatusExcluded }

// Start marks the task as in progress.
func (t *Task) Start() error {
	if t.IsCompleted() {
		return ErrTaskAlreadyCompleted
	}
	if t.IsExcluded() {
		return ErrTaskAlreadyExcluded
	}
	if t.status == StatusInProgress {
		return nil // Idempotent
	}
	t.status = StatusInProgress
	t.Touch()
	t.AddDomainEvent(NewTaskStarted(t.ID()))
	return nil
}

// Complete marks the task as completed and stamps the completion time.
// A completed or excluded task cannot be completed again.
func (t *Task) Complete() error {
	if t.IsCompleted() {
		return ErrTaskAlreadyCompleted
	}
	if t.IsExcluded() {
		return ErrTaskAlreadyExcluded
	}

	now := time.Now().UTC()
	t.status = StatusCompleted
	t.completedAt = &now
	t.Touch()

	t.AddDomainEvent(NewTaskCompleted(t.ID(), t.definitionID, t.cycleWeek.String(), t.points))

	return nil
}

// Exclude marks the task as not applicable to this location. The
// definition stays out of the catalog for the rest of the calendar month.
func (t *Task) Exclude(reason string) error {
	if t.IsCompleted() {
		return ErrTaskAlreadyCompleted
	}
	if t.IsExcluded() {
		return ErrTaskAlreadyExcluded
	}

	now := time.Now().UTC()
	t.status = StatusExcluded
	t.excludedAt = &now
	t.excludeReason = strings.TrimSpace(reason)
	t.Touch()

	t.AddDomainEvent(NewTaskExcluded(t.ID(), t.definitionID, t.excludeReason))

	return nil
}

// Rehydrate reconstructs a task from persisted state. No events are emitted.
func Rehydrate(
	id uuid.UUID,
	locationID uuid.UUID,
	week domain.CycleWeek,
	def Definition,
	status Status,
	completedAt *time.Time,
	excludedAt *time.Time,
	excludeReason string,
	version int,
	createdAt time.Time,
	updatedAt time.Time,
) *Task {
	entity := domain.RehydrateBaseEntity(id, createdAt, updatedAt)
	return &Task{
		BaseAggregateRoot: domain.RehydrateBaseAggregateRoot(entity, version),
		locationID:        locationID,
		cycleWeek:         week,
		definitionID:      def.DefinitionID,
		title:             def.Title,
		description:       def.Description,
		category:          def.Category,
		taskType:          def.Type,
		impact:            def.Impact,
		priority:          def.Priority,
		estimatedTime:     def.EstimatedTime,
		points:            def.Points,
		status:            status,
		completedAt:       completedAt,
		excludedAt:        excludedAt,
		excludeReason:     excludeReason,
	}
}
