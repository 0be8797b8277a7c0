// Package application coordinates the engagement lifecycle. The Service
// fronts the command and query handlers for every transport, owns the
// bounded optimistic-conflict retry and turns a cadence denial into a
// board response instead of a failure.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/localift/engage/internal/engagement/application/commands"
	"github.com/localift/engage/internal/engagement/application/queries"
	"github.com/localift/engage/internal/engagement/domain/cycle"
	"github.com/localift/engage/internal/shared/infrastructure/database"
)

// CodeCadence marks a refresh that was denied by the weekly cadence. The
// caller still receives the current board.
const CodeCadence = "cadence"

// conflictRetries bounds how often a command is replayed after losing an
// optimistic-locking race.
const conflictRetries = 3

// ConflictError reports that a command kept losing optimistic-locking
// races after its whole retry budget.
type ConflictError struct {
	Attempts int
	Err      error
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("command conflicted %d times: %v", e.Attempts, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConflictError) Unwrap() error { return e.Err }

// RefreshHandler executes a board refresh.
type RefreshHandler interface {
	Handle(ctx context.Context, cmd commands.RefreshTasksCommand) (*commands.RefreshTasksResult, error)
}

// CompleteHandler executes a task completion.
type CompleteHandler interface {
	Handle(ctx context.Context, cmd commands.CompleteTaskCommand) (*commands.CompleteTaskResult, error)
}

// ExcludeHandler executes a task exclusion.
type ExcludeHandler interface {
	Handle(ctx context.Context, cmd commands.ExcludeTaskCommand) (*commands.ExcludeTaskResult, error)
}

// BoardHandler projects the board for one location.
type BoardHandler interface {
	Handle(ctx context.Context, query queries.GetBoardQuery) (*queries.BoardDTO, error)
}

// RefreshOutcome is the refresh response: the board after the attempt,
// a human-readable message and a machine code when the cadence denied
// the refresh.
type RefreshOutcome struct {
	Board     *queries.BoardDTO
	Message   string
	Code      string
	Refreshed bool
}

// Service is the task lifecycle coordinator.
type Service struct {
	refresh  RefreshHandler
	complete CompleteHandler
	exclude  ExcludeHandler
	board    BoardHandler
	logger   *slog.Logger
}

// NewService creates the coordinator over the four handlers.
func NewService(refresh RefreshHandler, complete CompleteHandler, exclude ExcludeHandler, board BoardHandler, logger *slog.Logger) *Service {
	return &Service{
		refresh:  refresh,
		complete: complete,
		exclude:  exclude,
		board:    board,
		logger:   logger,
	}
}

// Board projects the current board for a location.
func (s *Service) Board(ctx context.Context, locationID uuid.UUID) (*queries.BoardDTO, error) {
	return s.board.Handle(ctx, queries.GetBoardQuery{LocationID: locationID})
}

// Refresh regenerates the weekly board. A cadence denial is not an
// error: the caller gets the current board plus the cadence code. A
// refresh that loses its optimistic race is replayed; the replay then
// sees the winner's cycle record and lands in the denial path.
func (s *Service) Refresh(ctx context.Context, cmd commands.RefreshTasksCommand) (*RefreshOutcome, error) {
	var result *commands.RefreshTasksResult
	err := s.retryConflict(ctx, cmd.CommandName(), func() error {
		var handleErr error
		result, handleErr = s.refresh.Handle(ctx, cmd)
		return handleErr
	})

	if errors.Is(err, cycle.ErrRefreshTooSoon) {
		board, boardErr := s.board.Handle(ctx, queries.GetBoardQuery{LocationID: cmd.LocationID})
		if boardErr != nil {
			return nil, boardErr
		}
		return &RefreshOutcome{
			Board:   board,
			Message: cadenceMessage(board),
			Code:    CodeCadence,
		}, nil
	}
	if err != nil {
		return nil, err
	}

	board, err := s.board.Handle(ctx, queries.GetBoardQuery{LocationID: cmd.LocationID})
	if err != nil {
		return nil, err
	}
	return &RefreshOutcome{
		Board:     board,
		Message:   fmt.Sprintf("Generated %d tasks for week %s", result.TaskCount, result.Week),
		Refreshed: true,
	}, nil
}

// Complete completes a task and reports what it earned. A completion
// that loses its optimistic race is replayed against the fresh task
// state, so the loser of two concurrent completes observes the
// already-completed rejection rather than a conflict.
func (s *Service) Complete(ctx context.Context, cmd commands.CompleteTaskCommand) (*commands.CompleteTaskResult, error) {
	var result *commands.CompleteTaskResult
	err := s.retryConflict(ctx, cmd.CommandName(), func() error {
		var handleErr error
		result, handleErr = s.complete.Handle(ctx, cmd)
		return handleErr
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Exclude excludes a task and returns the updated board.
func (s *Service) Exclude(ctx context.Context, cmd commands.ExcludeTaskCommand) (*queries.BoardDTO, error) {
	var result *commands.ExcludeTaskResult
	err := s.retryConflict(ctx, cmd.CommandName(), func() error {
		var handleErr error
		result, handleErr = s.exclude.Handle(ctx, cmd)
		return handleErr
	})
	if err != nil {
		return nil, err
	}
	return s.board.Handle(ctx, queries.GetBoardQuery{LocationID: result.LocationID})
}

// retryConflict replays fn while it keeps losing optimistic-locking
// races. Any other outcome passes through untouched.
func (s *Service) retryConflict(ctx context.Context, command string, fn func() error) error {
	var err error
	for attempt := 1; attempt <= conflictRetries; attempt++ {
		err = fn()
		if err == nil || !errors.Is(err, database.ErrOptimisticLocking) {
			return err
		}
		s.logger.WarnContext(ctx, "optimistic conflict, retrying",
			slog.String("command", command),
			slog.Int("attempt", attempt),
		)
	}
	return &ConflictError{Attempts: conflictRetries, Err: err}
}

func cadenceMessage(board *queries.BoardDTO) string {
	if board.NextRefresh != nil {
		return fmt.Sprintf("Tasks for this week are already in place; the next refresh opens at %s", board.NextRefresh.UTC().Format(time.RFC3339))
	}
	return "Tasks for this week are already in place"
}
