package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/i2y/rocketlane-mcp/configs"
	"github.com/i2y/rocketlane-mcp/internal/domain"
)

func toolsCmd() *cobra.Command {
	var outputJSON bool

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the generated tools",
		Long:  "Print every tool name with its one-line description, HTTP method and path.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configs.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			logger, closeLog := newLogger(cfg, cmd.ErrOrStderr(), false)
			defer closeLog()

			a, err := newApp(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			listing, err := a.serveUC.Execute(cmd.Context())
			if err != nil {
				return err
			}
			if outputJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(listing)
			}
			return printListing(cmd.OutOrStdout(), listing)
		},
	}

	cmd.Flags().BoolVar(&outputJSON, "json", false, "Output JSON")
	return cmd
}

func printListing(w io.Writer, listing []domain.ToolListing) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tMETHOD\tPATH\tDESCRIPTION")
	for _, entry := range listing {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", entry.Name, entry.Method, entry.Path, firstLine(entry.Description))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d tools\n", len(listing))
	return err
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
