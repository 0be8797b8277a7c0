// Package mcp serves the engagement engine over the Model Context
// Protocol so agent clients drive the same facade as the HTTP API and
// the CLI.
package mcp

import (
	"context"
	"errors"
	"log/slog"

	mcpgo "github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/mcp-go/middleware"
	"github.com/google/uuid"

	mcplocal "github.com/localift/engage/adapter/mcp"
	"github.com/localift/engage/internal/engagement/application"
	"github.com/localift/engage/pkg/config"
)

// Serve starts an MCP server over the engagement facade and blocks until
// the context is canceled.
func Serve(ctx context.Context, cfg *config.Config, service *application.Service, logger *slog.Logger) error {
	if cfg == nil {
		return errors.New("config is required")
	}
	if service == nil {
		return errors.New("engagement service is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	srv := mcpgo.NewServer(mcpgo.ServerInfo{
		Name:    "engage-mcp",
		Version: "1.0.0",
		Capabilities: mcpgo.Capabilities{
			Tools:     true,
			Resources: true,
			Prompts:   true,
		},
	})

	deps := mcplocal.ToolDependencies{Service: service}
	if locationID, err := uuid.Parse(cfg.LocationID); err == nil {
		deps.DefaultLocationID = locationID
	}

	if err := register(srv, deps, logger); err != nil {
		return err
	}

	stack := buildStack(cfg, slogMCP{l: logger}, logger)

	logger.Info("mcp server listening", "addr", cfg.MCPAddr)
	return mcpgo.ServeHTTPWithMiddleware(ctx, srv, cfg.MCPAddr, nil, mcpgo.WithMiddleware(stack...))
}

// register wires tools, resources, and prompts. Tools are required; a
// server without resources or prompts still works, so those only warn.
func register(srv *mcpgo.Server, deps mcplocal.ToolDependencies, logger *slog.Logger) error {
	if err := mcplocal.RegisterTools(srv, deps); err != nil {
		return err
	}
	if err := mcplocal.RegisterResources(srv, deps); err != nil {
		logger.Warn("failed to register MCP resources", "error", err)
	}
	if err := mcplocal.RegisterPrompts(srv, deps); err != nil {
		logger.Warn("failed to register MCP prompts", "error", err)
	}
	return nil
}

// buildStack prepends bearer-token auth to the default middleware stack
// when a token is configured.
func buildStack(cfg *config.Config, adapter slogMCP, logger *slog.Logger) []middleware.Middleware {
	stack := middleware.DefaultStack(adapter)
	if cfg.MCPAuthToken == "" {
		logger.Warn("MCP auth token not set; requests will be unauthenticated")
		return stack
	}

	authenticator := middleware.BearerTokenAuthenticator(middleware.StaticTokens(map[string]*middleware.Identity{
		cfg.MCPAuthToken: {ID: "mcp", Name: "mcp"},
	}))
	return append([]middleware.Middleware{middleware.Auth(authenticator, middleware.WithAuthLogger(adapter))}, stack...)
}

// slogMCP adapts slog to the middleware logging interface.
type slogMCP struct {
	l *slog.Logger
}

func (s slogMCP) Debug(msg string, fields ...middleware.Field) { s.l.Debug(msg, slogArgs(fields)...) }
func (s slogMCP) Info(msg string, fields ...middleware.Field)  { s.l.Info(msg, slogArgs(fields)...) }
func (s slogMCP) Warn(msg string, fields ...middleware.Field)  { s.l.Warn(msg, slogArgs(fields)...) }
func (s slogMCP) Error(msg string, fields ...middleware.Field) { s.l.Error(msg, slogArgs(fields)...) }

func slogArgs(fields []middleware.Field) []any {
	args := make([]any, 0, len(fields)*2)
	for _, field := range fields {
		args = append(args, field.Key, field.Value)
	}
	return args
}
