package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/localift/engage/internal/engagement/application/commands"
)

var excludeReason string

var excludeCmd = &cobra.Command{
	Use:   "exclude <task-id>",
	Short: "Exclude a task that does not apply",
	Long: `Exclude a task from the board. Excluded tasks earn no points and
their definition is not offered to this location again. The updated
board is shown afterwards.

Examples:
  engage exclude 7b0ad164-9c3e-4f1a-b6d2-1a2b3c4d5e6f
  engage exclude 7b0ad164-... --reason "agency handles posting"`,
	Aliases: []string{"skip"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil {
			fmt.Println("Exclude command requires database connection.")
			fmt.Println("Start services with: docker-compose up -d")
			return nil
		}

		taskID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid task id %q: %w", args[0], err)
		}

		board, err := app.Engagement.Exclude(cmd.Context(), commands.ExcludeTaskCommand{
			TaskID: taskID,
			Reason: excludeReason,
		})
		if err != nil {
			return fmt.Errorf("failed to exclude task: %w", err)
		}

		fmt.Println("✗ Task excluded")
		renderBoard(board)
		return nil
	},
}

func init() {
	excludeCmd.Flags().StringVar(&excludeReason, "reason", "", "why this task does not apply")
	rootCmd.AddCommand(excludeCmd)
}
