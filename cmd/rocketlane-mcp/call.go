package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/i2y/rocketlane-mcp/configs"
	"github.com/i2y/rocketlane-mcp/internal/adapter/inbound/mcptools"
)

func callCmd() *cobra.Command {
	var rawArgs string

	cmd := &cobra.Command{
		Use:   "call <tool>",
		Short: "Invoke one tool and print the result",
		Long: `Invoke one tool with a JSON object of arguments and print the response.
Use --args - to read the arguments from stdin.`,
		Example: `  rocketlane-mcp call get_task --args '{"taskId":"123"}'
  echo '{"firstName_eq":"Ada"}' | rocketlane-mcp call get_all_users --args -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseArgs(rawArgs, cmd.InOrStdin())
			if err != nil {
				return err
			}
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

			result, err := a.invokeUC.Execute(cmd.Context(), args[0], params)
			if err != nil {
				return errors.New(mcptools.ErrorText(err))
			}
			text, err := mcptools.FormatResult(result)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
			return err
		},
	}

	cmd.Flags().StringVar(&rawArgs, "args", "{}", "Tool arguments as a JSON object, or - for stdin")
	return cmd
}

// parseArgs decodes the argument object, keeping numbers verbatim.
func parseArgs(raw string, stdin io.Reader) (map[string]interface{}, error) {
	if raw == "-" {
		if stdin == nil {
			stdin = os.Stdin
		}
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read arguments from stdin: %w", err)
		}
		raw = string(data)
	}
	if strings.TrimSpace(raw) == "" {
		return map[string]interface{}{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var params map[string]interface{}
	if err := dec.Decode(&params); err != nil {
		return nil, fmt.Errorf("--args must be a JSON object: %w", err)
	}
	if params == nil {
		params = map[string]interface{}{}
	}
	return params, nil
}
