package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/localift/engage/internal/catalog/sdk"
	"github.com/localift/engage/internal/engagement/domain/cycle"
	"github.com/localift/engage/internal/engagement/domain/task"
	gamification "github.com/localift/engage/internal/gamification/domain"
	sharedApplication "github.com/localift/engage/internal/shared/application"
	sharedDomain "github.com/localift/engage/internal/shared/domain"
	"github.com/localift/engage/internal/shared/infrastructure/outbox"
)

// RulesetSource yields the ruleset a refresh resolves candidates with.
// The catalog registry satisfies it through RulesetSourceFunc.
type RulesetSource interface {
	Active(ctx context.Context) (sdk.Ruleset, error)
}

// RulesetSourceFunc adapts a function to RulesetSource.
type RulesetSourceFunc func(ctx context.Context) (sdk.Ruleset, error)

// Active calls f.
func (f RulesetSourceFunc) Active(ctx context.Context) (sdk.Ruleset, error) {
	return f(ctx)
}

// RefreshTasksCommand contains the data needed to refresh a location's
// board. PlaceID, GMBAccountID and AccessToken pass through to the
// ruleset untouched.
type RefreshTasksCommand struct {
	LocationID   uuid.UUID
	PlaceID      string
	GMBAccountID string
	AccessToken  string
}

// CommandName identifies the command in logs.
func (RefreshTasksCommand) CommandName() string { return "engage.tasks.refresh" }

// RefreshTasksResult describes the cycle the refresh opened.
type RefreshTasksResult struct {
	Week        sharedDomain.CycleWeek
	TaskCount   int
	RefreshedAt time.Time
	NextRefresh time.Time
}

// RefreshTasksHandler handles the RefreshTasksCommand.
type RefreshTasksHandler struct {
	taskRepo   task.Repository
	cycleRepo  cycle.Repository
	snapshots  gamification.SnapshotRepository
	rulesets   RulesetSource
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	states     StateInvalidator
	interval   time.Duration
	now        func() time.Time
}

// NewRefreshTasksHandler creates a new RefreshTasksHandler. A
// non-positive interval falls back to cycle.DefaultInterval.
func NewRefreshTasksHandler(
	taskRepo task.Repository,
	cycleRepo cycle.Repository,
	snapshots gamification.SnapshotRepository,
	rulesets RulesetSource,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	states StateInvalidator,
	interval time.Duration,
) *RefreshTasksHandler {
	return &RefreshTasksHandler{
		taskRepo:   taskRepo,
		cycleRepo:  cycleRepo,
		snapshots:  snapshots,
		rulesets:   rulesets,
		outboxRepo: outboxRepo,
		uow:        uow,
		states:     states,
		interval:   interval,
		now:        time.Now,
	}
}

// Handle executes the RefreshTasksCommand. The cadence gate and the
// ruleset call run outside the transaction; persisting the generated
// tasks, the cycle record and the observed snapshot happens inside one.
// A concurrent refresh that commits this week's record first surfaces as
// an optimistic-locking conflict.
func (h *RefreshTasksHandler) Handle(ctx context.Context, cmd RefreshTasksCommand) (*RefreshTasksResult, error) {
	now := h.now().UTC()

	// Gate on the cadence
	latest, err := h.cycleRepo.FindLatest(ctx, cmd.LocationID)
	if err != nil && !errors.Is(err, cycle.ErrRecordNotFound) {
		return nil, err
	}
	if !cycle.CanRefresh(latest, now) {
		return nil, cycle.ErrRefreshTooSoon
	}

	// Resolve candidates
	input, err := h.resolveInput(ctx, cmd, now)
	if err != nil {
		return nil, err
	}

	rs, err := h.rulesets.Active(ctx)
	if err != nil {
		return nil, err
	}
	output, err := rs.Resolve(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("ruleset %s: %w", rs.Name(), err)
	}

	// Rulesets may ignore the exclusion list they were given; filter
	// regardless
	candidates := sdk.FilterExcluded(output.Candidates, input.ExcludedIDs)
	for _, c := range candidates {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("ruleset %s: %w", rs.Name(), err)
		}
	}

	var result *RefreshTasksResult

	err = sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		week := sharedDomain.CycleWeekOf(now)
		events := make([]sharedDomain.DomainEvent, 0, len(candidates)+1)

		// Persist the new board
		for _, c := range candidates {
			t, err := task.NewTask(cmd.LocationID, week, task.Definition{
				DefinitionID:  c.DefinitionID,
				Title:         c.Title,
				Description:   c.Description,
				Category:      c.Category,
				Type:          c.Type,
				Impact:        c.Impact,
				Priority:      c.Priority,
				EstimatedTime: c.EstimatedTime,
				Points:        c.Points,
			})
			if err != nil {
				return err
			}
			if err := h.taskRepo.Save(txCtx, t); err != nil {
				return err
			}
			events = append(events, t.DomainEvents()...)
		}

		// Open the cycle
		record := cycle.NewRecord(cmd.LocationID, now, h.interval, len(candidates))
		if err := h.cycleRepo.Save(txCtx, record); err != nil {
			return err
		}
		events = append(events, record.DomainEvents()...)

		// A zero snapshot means the ruleset had no vantage point on the
		// profile; keep the stored one
		if !output.Snapshot.IsZero() {
			if err := h.snapshots.Save(txCtx, toStoredSnapshot(cmd.LocationID, output.Snapshot)); err != nil {
				return err
			}
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

		result = &RefreshTasksResult{
			Week:        record.Week(),
			TaskCount:   record.TaskCount(),
			RefreshedAt: record.RefreshedAt(),
			NextRefresh: record.NextRefresh(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// resolveInput assembles everything the ruleset may consider: the
// location ref with its pass-through credentials, the stored snapshot and
// the definition ids completed or excluded this calendar month.
func (h *RefreshTasksHandler) resolveInput(ctx context.Context, cmd RefreshTasksCommand, now time.Time) (sdk.ResolveInput, error) {
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	completed, err := h.taskRepo.FindCompletedSince(ctx, cmd.LocationID, monthStart)
	if err != nil {
		return sdk.ResolveInput{}, err
	}
	excluded, err := h.taskRepo.FindExcludedSince(ctx, cmd.LocationID, monthStart)
	if err != nil {
		return sdk.ResolveInput{}, err
	}

	input := sdk.ResolveInput{
		Location: sdk.LocationRef{
			LocationID:   cmd.LocationID,
			PlaceID:      cmd.PlaceID,
			GMBAccountID: cmd.GMBAccountID,
			AccessToken:  cmd.AccessToken,
		},
		CompletedIDs: definitionIDs(completed),
		ExcludedIDs:  definitionIDs(excluded),
	}

	snapshot, err := h.snapshots.FindByLocation(ctx, cmd.LocationID)
	switch {
	case errors.Is(err, gamification.ErrSnapshotNotFound):
		// First refresh; the ruleset sees a zero snapshot
	case err != nil:
		return sdk.ResolveInput{}, err
	default:
		input.Snapshot = toProfileSnapshot(snapshot)
	}

	return input, nil
}

// definitionIDs collects the distinct definition ids of tasks, preserving
// first-seen order.
func definitionIDs(tasks []*task.Task) []string {
	seen := make(map[string]bool, len(tasks))
	ids := make([]string, 0, len(tasks))
	for _, t := range tasks {
		if seen[t.DefinitionID()] {
			continue
		}
		seen[t.DefinitionID()] = true
		ids = append(ids, t.DefinitionID())
	}
	return ids
}

// toProfileSnapshot converts the stored snapshot into the form rulesets
// read.
func toProfileSnapshot(s *gamification.Snapshot) sdk.ProfileSnapshot {
	return sdk.ProfileSnapshot{
		BusinessName:     s.BusinessName,
		PrimaryCategory:  s.PrimaryCategory,
		Categories:       s.Categories,
		HasPhone:         s.HasPhone,
		HasWebsite:       s.HasWebsite,
		HasHours:         s.HasHours,
		HasDescription:   s.HasDescription,
		PhotoCount:       s.PhotoCount,
		ReviewCount:      s.ReviewCount,
		UnrepliedReviews: s.UnrepliedReviews,
		AverageRating:    s.AverageRating,
		CapturedAt:       s.CapturedAt,
	}
}

// toStoredSnapshot converts a ruleset's observation into the persisted
// form.
func toStoredSnapshot(locationID uuid.UUID, observed sdk.ProfileSnapshot) *gamification.Snapshot {
	return &gamification.Snapshot{
		LocationID:       locationID,
		BusinessName:     observed.BusinessName,
		PrimaryCategory:  observed.PrimaryCategory,
		Categories:       observed.Categories,
		HasPhone:         observed.HasPhone,
		HasWebsite:       observed.HasWebsite,
		HasHours:         observed.HasHours,
		HasDescription:   observed.HasDescription,
		PhotoCount:       observed.PhotoCount,
		ReviewCount:      observed.ReviewCount,
		UnrepliedReviews: observed.UnrepliedReviews,
		AverageRating:    observed.AverageRating,
		CapturedAt:       observed.CapturedAt,
	}
}
