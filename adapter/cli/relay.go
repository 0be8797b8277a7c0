package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Run the outbox relay",
	Long: `Publish stored outbox messages to the event bus until interrupted.

The relay polls the outbox table, publishes pending messages with
retries, parks poisoned messages as dead letters, and periodically
deletes old published messages. Health probes are served on the
worker health address.

Examples:
  engage relay`,
	Aliases: []string{"worker"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil || app.OutboxProcessor == nil {
			fmt.Println("Relay requires database connection.")
			fmt.Println("Start services with: docker-compose up -d")
			return nil
		}

		ctx := cmd.Context()
		if err := app.OutboxProcessor.Start(ctx); err != nil {
			return fmt.Errorf("failed to start outbox processor: %w", err)
		}
		defer app.OutboxProcessor.Stop()

		healthSrv := newRelayHealthServer(app)
		go func() {
			if err := healthSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("relay health server failed", "error", err)
			}
		}()

		statsTicker := time.NewTicker(app.Config.OutboxStatsInterval)
		defer statsTicker.Stop()
		cleanupTicker := time.NewTicker(app.Config.OutboxCleanupInterval)
		defer cleanupTicker.Stop()

		fmt.Println("Relay running. Press Ctrl+C to stop.")

		for {
			select {
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				_ = healthSrv.Shutdown(shutdownCtx)
				cancel()
				return nil
			case <-statsTicker.C:
				stats := app.OutboxProcessor.GetStats()
				logger.Info("outbox relay stats",
					"published", stats.PublishedCount,
					"failed", stats.FailedCount,
					"dead", stats.DeadCount,
					"lag_seconds", stats.LagSeconds,
				)
			case <-cleanupTicker.C:
				if app.OutboxRepo == nil {
					continue
				}
				removed, err := app.OutboxRepo.DeleteOld(ctx, app.Config.OutboxRetentionDays)
				if err != nil {
					logger.Error("outbox cleanup failed", "error", err)
					continue
				}
				if removed > 0 {
					logger.Info("outbox cleanup", "removed", removed)
				}
			}
		}
	},
}

func newRelayHealthServer(app *App) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		stats := app.OutboxProcessor.GetStats()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":            "ok",
			"running":           stats.IsRunning,
			"published":         stats.PublishedCount,
			"failed":            stats.FailedCount,
			"dead":              stats.DeadCount,
			"last_processed_at": stats.LastProcessedAt,
			"last_error_at":     stats.LastErrorAt,
			"last_error":        stats.LastError,
		})
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		w.Header().Set("Content-Type", "application/json")
		if app.DBConn == nil || app.DBConn.Ping(ctx) != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprint(w, `{"status":"not_ready"}`)
			return
		}
		fmt.Fprint(w, `{"status":"ready"}`)
	})

	return &http.Server{
		Addr:              app.Config.WorkerHealthAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func init() {
	rootCmd.AddCommand(relayCmd)
}
