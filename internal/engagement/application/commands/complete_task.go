// Package commands holds the engagement write operations: refreshing a
// location's weekly board, completing a task and excluding one. Every
// handler runs its writes inside a single unit of work, hands domain
// events to the outbox in the same transaction and invalidates the
// cached game state before the transaction commits.
package commands

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/localift/engage/internal/engagement/domain/task"
	gamification "github.com/localift/engage/internal/gamification/domain"
	"github.com/localift/engage/internal/listing"
	sharedApplication "github.com/localift/engage/internal/shared/application"
	"github.com/localift/engage/internal/shared/infrastructure/outbox"
)

// StateInvalidator drops a location's cached game state after a mutation.
// The gamification state service satisfies it.
type StateInvalidator interface {
	Invalidate(ctx context.Context, locationID uuid.UUID)
}

// CompleteTaskCommand contains the data needed to complete a task.
type CompleteTaskCommand struct {
	TaskID     uuid.UUID
	LocationID uuid.UUID
}

// CommandName identifies the command in logs.
func (CompleteTaskCommand) CommandName() string { return "engage.task.complete" }

// UnlockView is one milestone or achievement earned by a completion.
type UnlockView struct {
	DefinitionID string    `json:"definitionId"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	Value        int       `json:"value"`
	AchievedAt   time.Time `json:"achievedAt"`
}

// CompleteTaskResult reports what the completion earned. NewMilestones and
// NewAchievements carry only unlocks from this call, never previously
// earned ones.
type CompleteTaskResult struct {
	PointsAwarded   int          `json:"pointsAwarded"`
	LeveledUp       bool         `json:"leveledUp"`
	NewLevel        int          `json:"newLevel"`
	NewStreak       int          `json:"newStreak"`
	NewMilestones   []UnlockView `json:"newMilestones"`
	NewAchievements []UnlockView `json:"newAchievements"`
	GMBUpdated      bool         `json:"gmbUpdated"`
	GMBUpdateNote   string       `json:"gmbUpdateNote,omitempty"`
}

// CompleteTaskHandler handles the CompleteTaskCommand.
type CompleteTaskHandler struct {
	taskRepo   task.Repository
	ledger     gamification.LedgerRepository
	unlocks    gamification.UnlockRepository
	applier    listing.Applier
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	states     StateInvalidator
	levelStep  int
}

// NewCompleteTaskHandler creates a new CompleteTaskHandler.
func NewCompleteTaskHandler(
	taskRepo task.Repository,
	ledger gamification.LedgerRepository,
	unlocks gamification.UnlockRepository,
	applier listing.Applier,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	states StateInvalidator,
	levelStep int,
) *CompleteTaskHandler {
	return &CompleteTaskHandler{
		taskRepo:   taskRepo,
		ledger:     ledger,
		unlocks:    unlocks,
		applier:    applier,
		outboxRepo: outboxRepo,
		uow:        uow,
		states:     states,
		levelStep:  levelStep,
	}
}

// Handle executes the CompleteTaskCommand. The status change, the listing
// side effect, the ledger append and any unlocks commit together or not
// at all.
func (h *CompleteTaskHandler) Handle(ctx context.Context, cmd CompleteTaskCommand) (*CompleteTaskResult, error) {
	var result *CompleteTaskResult

	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		// Find the task
		t, err := h.taskRepo.FindByID(txCtx, cmd.TaskID)
		if err != nil {
			return err
		}

		// A task from another location reads as not found
		if t.LocationID() != cmd.LocationID {
			return task.ErrTaskNotFound
		}

		// Transition the task
		if err := t.Complete(); err != nil {
			return err
		}
		if err := h.taskRepo.Save(txCtx, t); err != nil {
			return err
		}

		// Apply the listing side effect; a collaborator failure rolls the
		// whole completion back
		outcome, err := h.applier.Apply(txCtx, listing.Request{
			LocationID:   t.LocationID(),
			TaskID:       t.ID(),
			DefinitionID: t.DefinitionID(),
			Category:     t.Category(),
		})
		if err != nil {
			return listing.NewCollaboratorError(t.DefinitionID(), err)
		}

		// Award the points
		completedAt := *t.CompletedAt()
		entries, err := h.ledger.FindByLocation(txCtx, cmd.LocationID)
		if err != nil {
			return err
		}
		before := gamification.ComputeGameState(entries, h.levelStep, completedAt)

		entry, err := gamification.NewEntry(t.LocationID(), t.ID(), t.DefinitionID(), t.Category(), t.CycleWeek(), t.Points(), completedAt)
		if err != nil {
			return err
		}
		if err := h.ledger.Append(txCtx, entry); err != nil {
			return err
		}
		after := gamification.ComputeGameState(append(entries, entry), h.levelStep, completedAt)

		events := t.DomainEvents()

		result = &CompleteTaskResult{
			PointsAwarded: entry.Points(),
			LeveledUp:     after.Level > before.Level,
			NewLevel:      after.Level,
			NewStreak:     after.CurrentStreak,
			GMBUpdated:    outcome.Updated,
			GMBUpdateNote: outcome.Note,
		}

		// Evaluate unlock predicates against the fresh state
		existing, err := h.unlocks.FindByLocation(txCtx, cmd.LocationID)
		if err != nil {
			return err
		}
		unlocked := make(map[string]bool, len(existing))
		for _, u := range existing {
			unlocked[u.DefinitionID()] = true
		}

		for _, def := range gamification.NewlyMet(gamification.DefaultDefinitions(), after, unlocked) {
			u := gamification.NewUnlock(cmd.LocationID, def, completedAt)
			if err := h.unlocks.Save(txCtx, u); err != nil {
				// A concurrent completion may have unlocked it first
				if errors.Is(err, gamification.ErrAlreadyUnlocked) {
					continue
				}
				return err
			}

			view := UnlockView{
				DefinitionID: u.DefinitionID(),
				Title:        u.Title(),
				Description:  u.Description(),
				Value:        u.Value(),
				AchievedAt:   u.AchievedAt(),
			}
			if u.Kind() == gamification.KindAchievement {
				result.NewAchievements = append(result.NewAchievements, view)
			} else {
				result.NewMilestones = append(result.NewMilestones, view)
			}
			events = append(events, u.DomainEvents()...)
		}

		// Save domain events to outbox
		sharedApplication.ApplyEventMetadata(events, sharedApplication.NewEventMetadata(cmd.LocationID))

		msgs := make([]*outbox.Message, 0, len(events))
		for _, event := range events {
			msg, err := outbox.NewMessage(event)
			if err != nil {
				return err
			}
			msgs = append(msgs, msg)
		}
		if err := h.outboxRepo.SaveBatch(txCtx, msgs); err != nil {
			return err
		}

		h.states.Invalidate(txCtx, cmd.LocationID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
