package cli

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/localift/engage/internal/engagement/application/queries"
)

var boardCmd = &cobra.Command{
	Use:   "board [location-id]",
	Short: "Show the engagement board",
	Long: `Display the engagement board for a location including:
- Level, points, and streaks
- Profile, engagement, and content scores
- This cycle's tasks with their status
- Recently earned milestones and achievements

Without a location id the configured default location is used.

Examples:
  engage board                                        # Configured location
  engage board 7b0ad164-9c3e-4f1a-b6d2-1a2b3c4d5e6f   # Specific location`,
	Aliases: []string{"dashboard", "dash", "b"},
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil {
			fmt.Println("Board requires database connection.")
			fmt.Println("Start services with: docker-compose up -d")
			return nil
		}

		locationID, err := resolveLocation(app, args)
		if err != nil {
			return err
		}

		board, err := app.Engagement.Board(cmd.Context(), locationID)
		if err != nil {
			return fmt.Errorf("failed to load board: %w", err)
		}

		renderBoard(board)
		return nil
	},
}

// resolveLocation picks the location a command acts on: an explicit
// argument wins, otherwise the configured default location.
func resolveLocation(app *App, args []string) (uuid.UUID, error) {
	if len(args) > 0 {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return uuid.Nil, fmt.Errorf("invalid location id %q: %w", args[0], err)
		}
		return id, nil
	}
	if app.DefaultLocationID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("no location configured; pass a location id or set ENGAGE_LOCATION_ID")
	}
	return app.DefaultLocationID, nil
}

func renderBoard(board *queries.BoardDTO) {
	fmt.Printf("\n  📍 LOCATION %s\n", shortID(board.LocationID))
	fmt.Println(strings.Repeat("═", 60))

	if board.RefreshedAt == nil {
		fmt.Println("\n    No tasks yet.")
		fmt.Println("    Use 'engage refresh' to generate this week's board")
		fmt.Println()
		return
	}

	fmt.Printf("\n  🏆 PROGRESS (week %s)\n", board.Week)
	fmt.Println(strings.Repeat("-", 60))
	fmt.Printf("    Level %d  %s %d%%\n",
		board.Stats.Level, levelBar(board.Stats.ProgressToNextLevel), board.Stats.ProgressToNextLevel)
	fmt.Printf("    Points: %d total | %d this week | %d this month\n",
		board.Stats.TotalPoints, board.Stats.WeeklyPoints, board.Stats.MonthlyPoints)
	fmt.Printf("    Streak: %s (best %d) | Completed: %d tasks\n",
		weekCount(board.Stats.CurrentStreak), board.Stats.LongestStreak, board.Stats.TasksCompleted)
	fmt.Printf("    Scores: profile %d | engagement %d | content %d\n",
		board.Scores.Profile, board.Scores.Engagement, board.Scores.Content)

	fmt.Println("\n  📋 TASKS")
	fmt.Println(strings.Repeat("-", 60))
	if len(board.Tasks.Active) == 0 {
		fmt.Println("    All caught up. Nothing left this cycle!")
	} else {
		for _, t := range board.Tasks.Active {
			fmt.Printf("    %s [%s] %s (%s, %d pts)\n",
				taskStatusIcon(t.Status), shortID(t.ID), t.Title, t.Category, t.Points)
		}
	}
	fmt.Printf("\n    Generated: %d | Completed: %d | Rate: %d%%\n",
		board.Performance.TasksGenerated,
		board.Performance.TasksCompletedThisCycle,
		board.Performance.CompletionRate)

	if len(board.Milestones.Recent) > 0 {
		fmt.Println("\n  🏅 MILESTONES")
		fmt.Println(strings.Repeat("-", 60))
		for _, m := range board.Milestones.Recent {
			fmt.Printf("    🏅 %s (%d)\n", m.Title, m.Value)
		}
	}

	if len(board.Achievements) > 0 {
		fmt.Println("\n  🎖  ACHIEVEMENTS")
		fmt.Println(strings.Repeat("-", 60))
		for _, a := range board.Achievements {
			fmt.Printf("    🎖  %s (%d)\n", a.Title, a.Value)
		}
	}

	if board.NextRefresh != nil {
		fmt.Printf("\n    Next refresh: %s\n", board.NextRefresh.Format("Monday, January 2"))
	}
	fmt.Println()
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}

// levelBar renders level progress as a ten segment bar.
func levelBar(progress int) string {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	filled := progress / 10
	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", 10-filled) + "]"
}

func taskStatusIcon(status string) string {
	switch status {
	case "completed":
		return "✓"
	case "excluded":
		return "✗"
	case "in_progress":
		return "▶"
	default:
		return "•"
	}
}

func weekCount(n int) string {
	if n == 1 {
		return "1 week"
	}
	return fmt.Sprintf("%d weeks", n)
}

func init() {
	rootCmd.AddCommand(boardCmd)
}
