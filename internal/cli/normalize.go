package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/agentgraph/core"
)

func newNormalizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "normalize [file|-]",
		Short: "Print the canonical messages derived from a JSON state or message list",
		Long: "Accepts a JSON state object (with messages, prompt or changeme),\n" +
			"a single message object, a list of messages or a plain string.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "-"
			if len(args) == 1 {
				path = args[0]
			}

			data, err := readInput(cmd.InOrStdin(), path)
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}

			var v any
			if err := json.Unmarshal(data, &v); err != nil {
				return fmt.Errorf("parse input: %w", err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(normalizeInput(v))
		},
	}
	return cmd
}

// normalizeInput treats objects carrying a state key as a state and
// everything else as a message or message sequence.
func normalizeInput(v any) []core.Message {
	if obj, ok := v.(map[string]any); ok {
		for _, key := range []string{core.KeyMessages, core.KeyPrompt, core.KeyChangeme} {
			if _, isState := obj[key]; isState {
				return core.State(obj).Messages()
			}
		}
	}

	msgs := core.NormalizeAll(v)
	if msgs == nil {
		msgs = []core.Message{}
	}
	return msgs
}
