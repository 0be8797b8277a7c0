package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/localift/engage/internal/engagement/application/commands"
)

var (
	refreshPlaceID   string
	refreshAccountID string
	refreshToken     string
)

var refreshCmd = &cobra.Command{
	Use:   "refresh [location-id]",
	Short: "Generate this week's engagement tasks",
	Long: `Generate a fresh board of engagement tasks for a location.

The active ruleset inspects the location's profile and picks the tasks
that close the biggest gaps. Refreshing is limited to once per cadence
window; inside the window the current board is shown instead.

Examples:
  engage refresh                            # Refresh the configured location
  engage refresh 7b0ad164-...               # Refresh a specific location
  engage refresh --place ChIJN1t_tDeuEmsR   # Pass listing credentials through`,
	Aliases: []string{"generate"},
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil {
			fmt.Println("Refresh requires database connection.")
			fmt.Println("Start services with: docker-compose up -d")
			return nil
		}

		locationID, err := resolveLocation(app, args)
		if err != nil {
			return err
		}

		outcome, err := app.Engagement.Refresh(cmd.Context(), commands.RefreshTasksCommand{
			LocationID:   locationID,
			PlaceID:      refreshPlaceID,
			GMBAccountID: refreshAccountID,
			AccessToken:  refreshToken,
		})
		if err != nil {
			return fmt.Errorf("failed to refresh tasks: %w", err)
		}

		if outcome.Refreshed {
			fmt.Printf("✨ %s\n", outcome.Message)
		} else {
			fmt.Printf("⏳ %s\n", outcome.Message)
		}
		renderBoard(outcome.Board)
		return nil
	},
}

func init() {
	refreshCmd.Flags().StringVar(&refreshPlaceID, "place", "", "Google place id")
	refreshCmd.Flags().StringVar(&refreshAccountID, "account", "", "Google Business Profile account id")
	refreshCmd.Flags().StringVar(&refreshToken, "token", "", "OAuth access token for the listing provider")
	rootCmd.AddCommand(refreshCmd)
}
