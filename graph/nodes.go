package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/flyt"

	"github.com/hupe1980/agentgraph/agent"
	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/logging"
	"github.com/hupe1980/agentgraph/tool"
)

// Shared store keys.
const (
	keyState   = "state"
	keyUpdate  = "update"
	keyContext = "search_context"
)

// Node names reported by Graph.Nodes.
const (
	NodeSearch  = "search"
	NodeRespond = "respond"
)

type nodeLogger interface {
	LogNodeExecution(node string, dur time.Duration, success bool, err error)
}

func logNode(l logging.Logger, node string, start time.Time, err error) {
	if nl, ok := l.(nodeLogger); ok {
		nl.LogNodeExecution(node, time.Since(start), err == nil, err)
		return
	}
	if err != nil {
		l.Warn("graph.node.failed", "node", node, "error", err.Error())
		return
	}
	l.Debug("graph.node.done", "node", node, "duration", time.Since(start))
}

func stateFrom(shared *flyt.SharedStore) (core.State, error) {
	v, ok := shared.Get(keyState)
	if !ok {
		return core.State{}, nil
	}
	s, ok := v.(core.State)
	if !ok {
		return nil, fmt.Errorf("unexpected state type %T", v)
	}
	return s, nil
}

// respondNode runs the responder against the (possibly search-augmented)
// state and stores its update.
type respondNode struct {
	*flyt.BaseNode
	responder Responder
	logger    logging.Logger
}

func newRespondNode(r Responder, logger logging.Logger) *respondNode {
	return &respondNode{BaseNode: flyt.NewBaseNode(), responder: r, logger: logger}
}

func (n *respondNode) Prep(_ context.Context, shared *flyt.SharedStore) (any, error) {
	state, err := stateFrom(shared)
	if err != nil {
		return nil, err
	}

	v, ok := shared.Get(keyContext)
	if !ok {
		return state, nil
	}
	text, _ := v.(string)
	if text == "" {
		return state, nil
	}

	// Search results go in front of the history as one system message.
	msgs := state.Messages()
	augmented := make([]core.Message, 0, len(msgs)+1)
	augmented = append(augmented, core.NewSystemMessage(text))
	augmented = append(augmented, msgs...)

	next := state.Clone()
	next[core.KeyMessages] = augmented

	return next, nil
}

func (n *respondNode) Exec(ctx context.Context, prepResult any) (any, error) {
	start := time.Now()
	update := n.responder.Respond(ctx, prepResult.(core.State))
	logNode(n.logger, NodeRespond, start, nil)
	return update, nil
}

func (n *respondNode) Post(_ context.Context, shared *flyt.SharedStore, _, execResult any) (flyt.Action, error) {
	shared.Set(keyUpdate, execResult)
	return flyt.DefaultAction, nil
}

// searchNode looks up the latest user message on the web and leaves the
// formatted results in the shared store. Failures are skipped.
type searchNode struct {
	*flyt.BaseNode
	searcher tool.Searcher
	logger   logging.Logger
}

func newSearchNode(s tool.Searcher, logger logging.Logger, retries int) *searchNode {
	return &searchNode{
		BaseNode: flyt.NewBaseNode(flyt.WithMaxRetries(retries)),
		searcher: s,
		logger:   logger,
	}
}

func (n *searchNode) Prep(_ context.Context, shared *flyt.SharedStore) (any, error) {
	state, err := stateFrom(shared)
	if err != nil {
		return nil, err
	}
	return agent.Echo(state.Messages()), nil
}

func (n *searchNode) Exec(ctx context.Context, prepResult any) (any, error) {
	query, _ := prepResult.(string)
	if query == "" {
		return "", nil
	}

	start := time.Now()
	results, err := n.searcher.Search(ctx, query)
	logNode(n.logger, NodeSearch, start, err)
	if err != nil {
		return nil, err
	}

	return tool.FormatResults(query, results), nil
}

func (n *searchNode) ExecFallback(prepResult any, err error) (any, error) {
	n.logger.Warn("graph.search.skipped", "query", prepResult, "error", err.Error())
	return "", nil
}

func (n *searchNode) Post(_ context.Context, shared *flyt.SharedStore, _, execResult any) (flyt.Action, error) {
	if text, _ := execResult.(string); text != "" {
		shared.Set(keyContext, text)
	}
	return flyt.DefaultAction, nil
}
