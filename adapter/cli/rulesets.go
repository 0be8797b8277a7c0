package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/localift/engage/internal/catalog/registry"
)

var rulesetsCmd = &cobra.Command{
	Use:   "rulesets",
	Short: "List registered rulesets",
	Long: `List the task rulesets the engine can resolve with, builtin and
plugin alike, with their lifecycle state.

Examples:
  engage rulesets`,
	Aliases: []string{"rules", "catalog"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil || app.Rulesets == nil {
			fmt.Println("Rulesets command requires database connection.")
			fmt.Println("Start services with: docker-compose up -d")
			return nil
		}

		entries := app.Rulesets.List()

		fmt.Println("\n  🧩 RULESETS")
		fmt.Println(strings.Repeat("═", 60))

		if len(entries) == 0 {
			fmt.Println("    No rulesets registered.")
		}

		active := ""
		if app.Config != nil {
			active = app.Config.ActiveRuleset
		}

		for _, entry := range entries {
			kind := "plugin"
			if entry.Builtin {
				kind = "builtin"
			}
			version := ""
			if entry.Manifest != nil && entry.Manifest.Version != "" {
				version = " v" + entry.Manifest.Version
			}
			marker := rulesetStatusIcon(entry.Status)
			line := fmt.Sprintf("    %s %s%s (%s)", marker, entry.Name, version, kind)
			if entry.Name == active {
				line += "  (active)"
			}
			fmt.Println(line)
			if entry.Err != nil {
				fmt.Printf("        error: %v\n", entry.Err)
			}
		}

		fmt.Printf("\n    Total: %d\n", len(entries))
		fmt.Println()
		return nil
	},
}

func rulesetStatusIcon(status registry.Status) string {
	switch status {
	case registry.StatusReady:
		return "✓"
	case registry.StatusFailed:
		return "✗"
	default:
		return "○"
	}
}

func init() {
	rootCmd.AddCommand(rulesetsCmd)
}
