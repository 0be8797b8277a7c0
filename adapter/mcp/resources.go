package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"

	"github.com/localift/engage/internal/engagement/application/queries"
)

// RegisterResources registers MCP resources that expose the board of the
// configured location.
func RegisterResources(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}

	srv.Resource("engage://board").
		Name("Engagement Board").
		Description("The full engagement board for the configured location").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			board, err := fetchBoard(ctx, deps)
			if err != nil {
				return nil, err
			}
			return boardResource(uri, board)
		})

	srv.Resource("engage://board/tasks").
		Name("Active Tasks").
		Description("This cycle's open tasks for the configured location").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			board, err := fetchBoard(ctx, deps)
			if err != nil {
				return nil, err
			}
			return boardResource(uri, board.Tasks.Active)
		})

	srv.Resource("engage://board/stats").
		Name("Game State").
		Description("Level, points, and streaks for the configured location").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			board, err := fetchBoard(ctx, deps)
			if err != nil {
				return nil, err
			}
			return boardResource(uri, map[string]any{
				"stats":  board.Stats,
				"scores": board.Scores,
			})
		})

	srv.Resource("engage://board/milestones").
		Name("Milestones").
		Description("Recently earned milestones and achievements").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			board, err := fetchBoard(ctx, deps)
			if err != nil {
				return nil, err
			}
			return boardResource(uri, map[string]any{
				"milestones":   board.Milestones.Recent,
				"achievements": board.Achievements,
			})
		})

	return nil
}

func fetchBoard(ctx context.Context, deps ToolDependencies) (*queries.BoardDTO, error) {
	if deps.Service == nil {
		return nil, fmt.Errorf("board resources require database connection")
	}
	locationID, err := resolveLocationID(deps, "")
	if err != nil {
		return nil, err
	}
	return deps.Service.Board(ctx, locationID)
}

func boardResource(uri string, payload any) (*mcp.ResourceContent, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, err
	}
	return &mcp.ResourceContent{
		URI:      uri,
		MimeType: "application/json",
		Text:     string(data),
	}, nil
}
