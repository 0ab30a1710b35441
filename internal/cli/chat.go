package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/agentgraph"
	"github.com/hupe1980/agentgraph/core"
)

func newChatCmd(root *rootOptions) *cobra.Command {
	var (
		sessionID string
		dbPath    string
		search    bool
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive chat with a persisted session",
		Long: "Reads one user message per line from stdin and prints each reply.\n" +
			"Type /exit or send EOF to quit.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dbPath != "" {
				root.cfg.SessionDB = dbPath
			}
			if search {
				root.cfg.Search.Enabled = true
			}
			if sessionID == "" {
				sessionID = core.NewID()
			}

			out := &streamPrinter{w: cmd.OutOrStdout()}
			app, err := root.newApp(cmd, func(o *agentgraph.Options) { o.OnPartial = out.write })
			if err != nil {
				return err
			}
			defer app.Close()

			fmt.Fprintf(cmd.ErrOrStderr(), "session %s (live model: %t)\n", sessionID, app.Live())

			scanner := bufio.NewScanner(cmd.InOrStdin())
			scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				if line == "/exit" || line == "/quit" {
					break
				}

				reply, err := app.Chat(cmd.Context(), sessionID, line)
				if err != nil {
					return err
				}
				out.finish(reply.Content)
			}

			return scanner.Err()
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "Session id to continue (default: new id)")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite session database path (default: in-memory)")
	cmd.Flags().BoolVar(&search, "search", false, "Run a web search before each reply")
	return cmd
}
