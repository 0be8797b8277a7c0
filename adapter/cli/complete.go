package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/localift/engage/internal/engagement/application/commands"
)

var completeLocation string

var completeCmd = &cobra.Command{
	Use:   "complete <task-id>",
	Short: "Mark an engagement task as complete",
	Long: `Mark a task as complete and collect what it earns: points, level
progress, the weekly streak, and any milestones or achievements the
completion unlocks. Profile tasks also push the change to the listing.

Examples:
  engage complete 7b0ad164-9c3e-4f1a-b6d2-1a2b3c4d5e6f
  engage complete 7b0ad164-... --location 9c3e4f1a-...`,
	Aliases: []string{"done", "x"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil {
			fmt.Println("Complete command requires database connection.")
			fmt.Println("Start services with: docker-compose up -d")
			return nil
		}

		taskID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid task id %q: %w", args[0], err)
		}

		locationID := app.DefaultLocationID
		if completeLocation != "" {
			locationID, err = uuid.Parse(completeLocation)
			if err != nil {
				return fmt.Errorf("invalid location id %q: %w", completeLocation, err)
			}
		}
		if locationID == uuid.Nil {
			return fmt.Errorf("no location configured; pass --location or set ENGAGE_LOCATION_ID")
		}

		result, err := app.Engagement.Complete(cmd.Context(), commands.CompleteTaskCommand{
			TaskID:     taskID,
			LocationID: locationID,
		})
		if err != nil {
			return fmt.Errorf("failed to complete task: %w", err)
		}

		fmt.Printf("✓ Task completed: +%d points\n", result.PointsAwarded)
		if result.LeveledUp {
			fmt.Printf("🎉 Level up! Now level %d\n", result.NewLevel)
		}
		if result.NewStreak > 1 {
			fmt.Printf("🔥 Streak: %d weeks\n", result.NewStreak)
		}
		for _, m := range result.NewMilestones {
			fmt.Printf("🏅 Milestone unlocked: %s\n", m.Title)
		}
		for _, a := range result.NewAchievements {
			fmt.Printf("🎖  Achievement unlocked: %s\n", a.Title)
		}
		if result.GMBUpdated {
			fmt.Println("📤 Listing updated")
		} else if result.GMBUpdateNote != "" {
			fmt.Printf("📤 Listing: %s\n", result.GMBUpdateNote)
		}
		return nil
	},
}

func init() {
	completeCmd.Flags().StringVar(&completeLocation, "location", "", "location the task belongs to")
	rootCmd.AddCommand(completeCmd)
}
