package mcp

import (
	"context"

	"github.com/felixgeelhaar/mcp-go"

	"github.com/localift/engage/internal/engagement/application/commands"
)

type taskCompleteInput struct {
	TaskID     string `json:"taskId" jsonschema:"required"`
	LocationID string `json:"locationId,omitempty"`
}

type taskExcludeInput struct {
	TaskID string `json:"taskId" jsonschema:"required"`
	Reason string `json:"reason,omitempty"`
}

func registerTaskTools(srv *mcp.Server, deps ToolDependencies) error {
	srv.Tool("task.complete").
		Description("Mark an engagement task as complete and collect what it earned").
		Handler(func(ctx context.Context, input taskCompleteInput) (*commands.CompleteTaskResult, error) {
			taskID, err := parseUUID(input.TaskID)
			if err != nil {
				return nil, err
			}
			locationID, err := resolveLocationID(deps, input.LocationID)
			if err != nil {
				return nil, err
			}

			return deps.Service.Complete(ctx, commands.CompleteTaskCommand{
				TaskID:     taskID,
				LocationID: locationID,
			})
		})

	srv.Tool("task.exclude").
		Description("Exclude a task that does not apply to this location").
		Handler(func(ctx context.Context, input taskExcludeInput) (map[string]any, error) {
			taskID, err := parseUUID(input.TaskID)
			if err != nil {
				return nil, err
			}

			board, err := deps.Service.Exclude(ctx, commands.ExcludeTaskCommand{
				TaskID: taskID,
				Reason: input.Reason,
			})
			if err != nil {
				return nil, err
			}

			return map[string]any{
				"excluded": true,
				"board":    board,
			}, nil
		})

	return nil
}
