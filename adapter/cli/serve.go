package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/localift/engage/adapter/api"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the engagement HTTP API",
	Long: `Serve the engagement board over HTTP until interrupted.

The API exposes the board, refresh, complete, and exclude operations
under /api/v1 plus /healthz and /readyz probes.

Examples:
  engage serve
  engage serve --addr :9090`,
	Aliases: []string{"server", "api"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil {
			fmt.Println("Serve requires database connection.")
			fmt.Println("Start services with: docker-compose up -d")
			return nil
		}

		cfg := api.DefaultServerConfig()
		if serveAddr != "" {
			cfg.Addr = serveAddr
		} else if app.Config != nil && app.Config.HTTPAddr != "" {
			cfg.Addr = app.Config.HTTPAddr
		}

		handler := api.NewEngagementHandler(api.EngagementHandlerConfig{
			Service: app.Engagement,
			Logger:  logger,
		})
		server := api.NewServer(cfg, handler, app.Health, logger).WithMetrics(app.Metrics)

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.Start()
		}()

		select {
		case <-cmd.Context().Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		}
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (defaults to HTTP_ADDR)")
	rootCmd.AddCommand(serveCmd)
}
