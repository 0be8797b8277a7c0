package mcp

import (
	"context"

	"github.com/felixgeelhaar/mcp-go"

	"github.com/localift/engage/internal/engagement/application/commands"
	"github.com/localift/engage/internal/engagement/application/queries"
)

type boardGetInput struct {
	LocationID string `json:"locationId,omitempty"`
}

type tasksRefreshInput struct {
	LocationID   string `json:"locationId,omitempty"`
	PlaceID      string `json:"placeId,omitempty"`
	GMBAccountID string `json:"gmbAccountId,omitempty"`
	AccessToken  string `json:"accessToken,omitempty"`
}

func registerBoardTools(srv *mcp.Server, deps ToolDependencies) error {
	srv.Tool("board.get").
		Description("Get the engagement board for a location").
		Handler(func(ctx context.Context, input boardGetInput) (*queries.BoardDTO, error) {
			locationID, err := resolveLocationID(deps, input.LocationID)
			if err != nil {
				return nil, err
			}
			return deps.Service.Board(ctx, locationID)
		})

	srv.Tool("tasks.refresh").
		Description("Generate this week's engagement tasks for a location").
		Handler(func(ctx context.Context, input tasksRefreshInput) (map[string]any, error) {
			locationID, err := resolveLocationID(deps, input.LocationID)
			if err != nil {
				return nil, err
			}

			outcome, err := deps.Service.Refresh(ctx, commands.RefreshTasksCommand{
				LocationID:   locationID,
				PlaceID:      input.PlaceID,
				GMBAccountID: input.GMBAccountID,
				AccessToken:  input.AccessToken,
			})
			if err != nil {
				return nil, err
			}

			return map[string]any{
				"refreshed": outcome.Refreshed,
				"message":   outcome.Message,
				"code":      outcome.Code,
				"board":     outcome.Board,
			}, nil
		})

	return nil
}
