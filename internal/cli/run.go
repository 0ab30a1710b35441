package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/agentgraph"
	"github.com/hupe1980/agentgraph/core"
)

func newRunCmd(root *rootOptions) *cobra.Command {
	var (
		prompt    string
		stateFile string
		search    bool
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "run [prompt]",
		Short: "Invoke the graph once and print the reply",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			state := core.State{}
			if stateFile != "" {
				s, err := readState(cmd.InOrStdin(), stateFile)
				if err != nil {
					return err
				}
				state = s
			}
			if prompt == "" && len(args) > 0 {
				prompt = strings.Join(args, " ")
			}
			if prompt != "" {
				state[core.KeyPrompt] = prompt
			}

			if search {
				root.cfg.Search.Enabled = true
			}

			out := &streamPrinter{w: cmd.OutOrStdout()}
			app, err := root.newApp(cmd, func(o *agentgraph.Options) { o.OnPartial = out.write })
			if err != nil {
				return err
			}
			defer app.Close()

			update, err := app.Invoke(cmd.Context(), state)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(update)
			}

			out.finish(update.Reply().Content)
			return nil
		},
	}
	cmd.Flags().StringVarP(&prompt, "prompt", "p", "", "Prompt used when the state carries no messages")
	cmd.Flags().StringVar(&stateFile, "state", "", "JSON state file (- for stdin)")
	cmd.Flags().BoolVar(&search, "search", false, "Run a web search before responding")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full state update as JSON")
	return cmd
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

func readState(stdin io.Reader, path string) (core.State, error) {
	data, err := readInput(stdin, path)
	if err != nil {
		return nil, fmt.Errorf("read state: %w", err)
	}

	var state core.State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parse state: %w", err)
	}
	if state == nil {
		state = core.State{}
	}
	return state, nil
}
