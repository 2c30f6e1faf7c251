// Command rocketlane-mcp exposes the Rocketlane REST API as MCP tools.
//
// Usage:
//
//	rocketlane-mcp serve [--transport stdio|sse]   # run the MCP server
//	rocketlane-mcp tools [--json]                  # list the generated tools
//	rocketlane-mcp call get_task --args '{"taskId":"123"}'
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rocketlane-mcp",
		Short: "Rocketlane REST API as MCP tools",
		Long: `rocketlane-mcp turns every documented Rocketlane REST operation into a
callable tool. Configure it with ROCKETLANE_* environment variables, at least
ROCKETLANE_API_KEY.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(toolsCmd())
	rootCmd.AddCommand(callCmd())
	rootCmd.AddCommand(versionCmd())
	return rootCmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "rocketlane-mcp "+version)
		},
	}
}
