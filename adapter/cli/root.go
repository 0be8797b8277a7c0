// Package cli wires the engage commands under one cobra root. Subcommands
// register themselves from init, so importing the package is enough to get
// the full command tree.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	verbose bool
	logger  *slog.Logger
)

// commandRun carries per-invocation tracing from PersistentPreRun to
// PersistentPostRun.
type commandRun struct {
	correlationID uuid.UUID
	startedAt     time.Time
}

type commandRunKey struct{}

var rootCmd = &cobra.Command{
	Use:   "engage",
	Short: "Engage - Local Engagement Engine",
	Long: `Engage keeps business locations active on their Google Business
Profile by generating a weekly board of engagement tasks.

	Completing tasks earns points, levels, streaks, and milestones,
	and pushes profile updates back to the listing.`,
	PersistentPreRun:  beginCommand,
	PersistentPostRun: endCommand,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

func beginCommand(cmd *cobra.Command, _ []string) {
	switch {
	case verbose:
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case logger == nil:
		logger = slog.Default()
	}

	run := commandRun{correlationID: uuid.New(), startedAt: time.Now()}
	cmd.SetContext(context.WithValue(cmd.Context(), commandRunKey{}, run))

	logger.Info("command start",
		"command", cmd.CommandPath(),
		"correlation_id", run.correlationID.String(),
	)
}

func endCommand(cmd *cobra.Command, _ []string) {
	run, ok := cmd.Context().Value(commandRunKey{}).(commandRun)
	if !ok || logger == nil {
		return
	}
	logger.Info("command end",
		"command", cmd.CommandPath(),
		"correlation_id", run.correlationID.String(),
		"duration_ms", time.Since(run.startedAt).Milliseconds(),
	)
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// AddCommand adds a command to the root command.
func AddCommand(cmd *cobra.Command) {
	rootCmd.AddCommand(cmd)
}

// SetLogger sets the CLI logger.
func SetLogger(l *slog.Logger) {
	logger = l
}
