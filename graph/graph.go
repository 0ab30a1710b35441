// Package graph wires the responder into a flyt flow: start → respond → end,
// or start → search → respond → end when a searcher is configured.
//
// A Graph is immutable after construction. Every invocation builds fresh flyt
// nodes and a fresh shared store, so concurrent invocations never share
// mutable state.
package graph

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/flyt"

	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/logging"
	"github.com/hupe1980/agentgraph/tool"
)

// ErrNoReply is returned when the flow finished without a reply update.
var ErrNoReply = errors.New("graph produced no reply")

// Responder produces one reply update for a conversation state.
// *agent.Responder implements it.
type Responder interface {
	Respond(ctx context.Context, state core.State) core.StateUpdate
}

// Options configures a Graph.
type Options struct {
	// SearchRetries is the number of search attempts before the node is
	// skipped (default 1).
	SearchRetries int
	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Graph is a compiled, single-responder conversation graph.
type Graph struct {
	responder     Responder
	searcher      tool.Searcher
	searchRetries int
	logger        logging.Logger
}

// New creates a graph with a single respond node.
func New(responder Responder, optFns ...func(o *Options)) *Graph {
	return build(responder, nil, optFns)
}

// NewWithSearch creates a graph that runs a web search for the latest user
// message before responding.
func NewWithSearch(responder Responder, searcher tool.Searcher, optFns ...func(o *Options)) *Graph {
	return build(responder, searcher, optFns)
}

func build(responder Responder, searcher tool.Searcher, optFns []func(o *Options)) *Graph {
	opts := Options{
		SearchRetries: 1,
		Logger:        logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.SearchRetries < 1 {
		opts.SearchRetries = 1
	}

	return &Graph{
		responder:     responder,
		searcher:      searcher,
		searchRetries: opts.SearchRetries,
		logger:        logging.OrNoOp(opts.Logger),
	}
}

// Nodes returns the node names in execution order.
func (g *Graph) Nodes() []string {
	if g.searcher != nil {
		return []string{NodeSearch, NodeRespond}
	}
	return []string{NodeRespond}
}

func (g *Graph) flow() *flyt.Flow {
	respond := newRespondNode(g.responder, g.logger)
	if g.searcher == nil {
		return flyt.NewFlow(respond)
	}

	search := newSearchNode(g.searcher, g.logger, g.searchRetries)
	flow := flyt.NewFlow(search)
	flow.Connect(search, flyt.DefaultAction, respond)

	return flow
}

// Invoke runs the graph once and returns the update produced by the respond
// node. The update is only returned when the context is still live after the
// node finished.
func (g *Graph) Invoke(ctx context.Context, state core.State) (core.StateUpdate, error) {
	if state == nil {
		state = core.State{}
	}

	shared := flyt.NewSharedStore()
	shared.Set(keyState, state)

	start := time.Now()
	g.logger.Debug("graph.invoke.start", "nodes", g.Nodes())

	if err := g.flow().Run(ctx, shared); err != nil {
		g.logger.Warn("graph.invoke.failed", "error", err.Error())
		return core.StateUpdate{}, fmt.Errorf("graph: %w", err)
	}

	if err := ctx.Err(); err != nil {
		g.logger.Warn("graph.invoke.cancelled", "error", err.Error())
		return core.StateUpdate{}, fmt.Errorf("graph: %w", err)
	}

	v, _ := shared.Get(keyUpdate)
	update, ok := v.(core.StateUpdate)
	if !ok || len(update.Messages) == 0 {
		return core.StateUpdate{}, ErrNoReply
	}

	g.logger.Debug("graph.invoke.done", "duration", time.Since(start))

	return update, nil
}

// Run invokes the graph and returns the state with the reply appended to the
// normalized history.
func (g *Graph) Run(ctx context.Context, state core.State) (core.State, error) {
	if state == nil {
		state = core.State{}
	}

	update, err := g.Invoke(ctx, state)
	if err != nil {
		return nil, err
	}

	return state.Apply(update), nil
}
