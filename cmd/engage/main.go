package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/localift/engage/adapter/cli"
	"github.com/localift/engage/adapter/cli/mcp"
	"github.com/localift/engage/internal/app"
	"github.com/localift/engage/pkg/config"
)

func main() {
	// Setup logger
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		cancel()
	}()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// In development without .env, use defaults
		logger.Warn("failed to load config, using development mode", "error", err)
		cfg = &config.Config{AppEnv: "development"}
	}

	// Update logger level based on config
	if cfg.IsDevelopment() {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}
	cli.SetLogger(logger)

	// Try to initialize the full container
	var cliApp *cli.App
	container, err := app.NewContainer(ctx, cfg, logger)
	if err != nil {
		if cfg.IsDevelopment() {
			logger.Warn("failed to initialize container, running in limited mode", "error", err)
			// In development, allow CLI to run without database
			cliApp = nil
		} else {
			logger.Error("failed to initialize container", "error", err)
			os.Exit(1)
		}
	} else {
		defer container.Close()

		// Start outbox processor in background (optional in CLI)
		if cfg.OutboxProcessorEnabled {
			if err := container.OutboxProcessor.Start(ctx); err != nil {
				logger.Warn("failed to start outbox processor", "error", err)
			}
		} else {
			logger.Info("outbox processor disabled in CLI")
		}

		// Create CLI app over the engagement facade
		cliApp = cli.NewApp(container.Engagement, container.RulesetRegistry, cfg)

		locationID, err := uuid.Parse(cfg.LocationID)
		if err != nil {
			logger.Error("invalid ENGAGE_LOCATION_ID", "error", err)
			os.Exit(1)
		}
		cliApp.SetDefaultLocationID(locationID)

		cliApp.SetOutboxProcessor(container.OutboxProcessor, container.OutboxRepo)
		cliApp.SetDBConn(container.DBConn)
		cliApp.SetMetrics(container.Metrics)
		cliApp.SetHealth(container.Health)
	}

	// Set the CLI app
	cli.SetApp(cliApp)

	// Register commands
	cli.AddCommand(mcp.Cmd)

	// Execute CLI
	cli.Execute()
}
