package mcp

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/mcp-go"

	"github.com/localift/engage/adapter/cli"
)

func registerCoreTools(srv *mcp.Server, deps ToolDependencies) error {
	srv.Tool("engage.health").
		Description("Check engine wiring health").
		Handler(func(ctx context.Context, input struct{}) (map[string]string, error) {
			if deps.Service == nil {
				return nil, errors.New("engine not initialized")
			}
			return map[string]string{"status": "ok"}, nil
		})

	srv.Tool("engage.version").
		Description("Get engine version information").
		Handler(func(ctx context.Context, input struct{}) (map[string]string, error) {
			return map[string]string{
				"version":   cli.Version,
				"commit":    cli.Commit,
				"buildDate": cli.BuildDate,
			}, nil
		})

	return nil
}
