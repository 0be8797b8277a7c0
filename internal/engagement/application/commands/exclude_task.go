package commands

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/localift/engage/internal/engagement/domain/task"
	sharedApplication "github.com/localift/engage/internal/shared/application"
	"github.com/localift/engage/internal/shared/infrastructure/outbox"
)

// ExcludeTaskCommand contains the data needed to exclude a task.
type ExcludeTaskCommand struct {
	TaskID uuid.UUID
	Reason string
}

// CommandName identifies the command in logs.
func (ExcludeTaskCommand) CommandName() string { return "engage.task.exclude" }

// ExcludeTaskResult reports the exclusion. The definition id stays
// suppressed for the rest of the calendar month.
type ExcludeTaskResult struct {
	LocationID   uuid.UUID
	DefinitionID string
	ExcludedAt   time.Time
}

// ExcludeTaskHandler handles the ExcludeTaskCommand.
type ExcludeTaskHandler struct {
	taskRepo   task.Repository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	states     StateInvalidator
}

// NewExcludeTaskHandler creates a new ExcludeTaskHandler.
func NewExcludeTaskHandler(taskRepo task.Repository, outboxRepo outbox.Repository, uow sharedApplication.UnitOfWork, states StateInvalidator) *ExcludeTaskHandler {
	return &ExcludeTaskHandler{
		taskRepo:   taskRepo,
		outboxRepo: outboxRepo,
		uow:        uow,
		states:     states,
	}
}

// Handle executes the ExcludeTaskCommand.
func (h *ExcludeTaskHandler) Handle(ctx context.Context, cmd ExcludeTaskCommand) (*ExcludeTaskResult, error) {
	var result *ExcludeTaskResult

	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		// Find the task
		t, err := h.taskRepo.FindByID(txCtx, cmd.TaskID)
		if err != nil {
			return err
		}

		// Transition the task
		if err := t.Exclude(cmd.Reason); err != nil {
			return err
		}
		if err := h.taskRepo.Save(txCtx, t); err != nil {
			return err
		}

		// Save domain events to outbox
		events := t.DomainEvents()
		sharedApplication.ApplyEventMetadata(events, sharedApplication.NewEventMetadata(t.LocationID()))

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

		h.states.Invalidate(txCtx, t.LocationID())

		result = &ExcludeTaskResult{
			LocationID:   t.LocationID(),
			DefinitionID: t.DefinitionID(),
			ExcludedAt:   *t.ExcludedAt(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
