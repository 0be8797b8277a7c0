package mcp

import (
	"errors"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/google/uuid"

	"github.com/localift/engage/internal/engagement/application"
)

// ToolDependencies provides the engagement facade and context for MCP tools.
type ToolDependencies struct {
	Service *application.Service

	// DefaultLocationID backs tool calls that omit the location.
	DefaultLocationID uuid.UUID
}

// RegisterTools registers the MCP tools that mirror the engagement API.
func RegisterTools(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return errors.New("server is required")
	}
	if deps.Service == nil {
		return errors.New("engagement service is required")
	}

	if err := registerCoreTools(srv, deps); err != nil {
		return err
	}
	if err := registerBoardTools(srv, deps); err != nil {
		return err
	}
	if err := registerTaskTools(srv, deps); err != nil {
		return err
	}

	return nil
}
