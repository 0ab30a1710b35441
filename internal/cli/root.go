// Package cli implements the agentgraph command tree.
package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hupe1980/agentgraph"
	"github.com/hupe1980/agentgraph/config"
	"github.com/hupe1980/agentgraph/logging"
)

type rootOptions struct {
	cfgFile   string
	logLevel  string
	logFormat string

	cfg config.Config
}

// NewRootCmd wires the cobra tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "agentgraph",
		Short:         "Single-node conversational agent graph",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.cfgFile)
			if err != nil {
				return err
			}
			if opts.logLevel != "" {
				if _, ok := logging.ParseLevel(opts.logLevel); !ok {
					return fmt.Errorf("invalid --log-level %q", opts.logLevel)
				}
				cfg.Log.Level = opts.logLevel
			}
			if opts.logFormat != "" {
				cfg.Log.Format = opts.logFormat
			}
			opts.cfg = cfg
			return nil
		},
	}
	root.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "Path to agentgraph YAML config file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "Log format (text or json)")

	root.AddCommand(
		newRunCmd(opts),
		newChatCmd(opts),
		newNormalizeCmd(),
	)
	return root
}

// newApp builds the façade, logging to the command's stderr.
func (o *rootOptions) newApp(cmd *cobra.Command, optFns ...func(*agentgraph.Options)) (*agentgraph.AgentGraph, error) {
	cfg := o.cfg
	level, _ := logging.ParseLevel(cfg.Log.Level)
	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:     level,
		Format:    cfg.Log.Format,
		Output:    cmd.ErrOrStderr(),
		Component: "agentgraph",
	})

	fns := append([]func(*agentgraph.Options){func(ao *agentgraph.Options) {
		ao.Config = &cfg
		ao.Logger = logger
	}}, optFns...)

	return agentgraph.New(fns...)
}

// streamPrinter writes streamed chunks and remembers whether any arrived.
type streamPrinter struct {
	w        io.Writer
	streamed bool
}

func (p *streamPrinter) write(chunk string) {
	p.streamed = true
	fmt.Fprint(p.w, chunk)
}

// finish prints the reply unless it was already streamed.
func (p *streamPrinter) finish(reply string) {
	if p.streamed {
		fmt.Fprintln(p.w)
		p.streamed = false
		return
	}
	fmt.Fprintln(p.w, reply)
}
