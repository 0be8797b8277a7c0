// Package mcp groups the Model Context Protocol commands.
package mcp

import "github.com/spf13/cobra"

// Cmd is the MCP command group, attached to the engage root by main.
var Cmd = &cobra.Command{
	Use:   "mcp",
	Short: "Manage the Engage MCP interface",
	Long:  "Serve the engagement board to MCP clients such as agent runtimes and editor integrations.",
}

func init() {
	Cmd.AddCommand(serveCmd)
}
