package commands

import (
	"github.com/spf13/cobra"

	"github.com/moasq/distcheck/internal/mcpserver"
)

var mcpCmd = &cobra.Command{
	Use:    "mcp",
	Short:  "Run the MCP server (used by coding agents)",
	Long:   "Starts the distcheck MCP server over stdio. Agents call run_smoke_check, inspect_output and last_run as typed tools.",
	Hidden: true,
	Args:   cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return mcpserver.Run(cmd.Context(), Version, logger)
	},
}
