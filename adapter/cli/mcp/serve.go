package mcp

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/localift/engage/internal/app"
	mcpinternal "github.com/localift/engage/internal/mcp"
	"github.com/localift/engage/pkg/config"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides MCP_ADDR)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.MCPAddr = serveAddr
	}

	logger := serverLogger(cmd.ErrOrStderr(), cfg.IsDevelopment())

	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer container.Close()

	if err := mcpinternal.Serve(ctx, cfg, container.Engagement, logger); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func serverLogger(out io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
}
