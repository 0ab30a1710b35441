package graph

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentgraph/agent"
	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/model"
	"github.com/hupe1980/agentgraph/tool"
)

// MockSearcher for testing the search node
type MockSearcher struct{ mock.Mock }

func (m *MockSearcher) Search(ctx context.Context, query string) ([]tool.Result, error) {
	args := m.Called(ctx, query)
	results, _ := args.Get(0).([]tool.Result)
	return results, args.Error(1)
}

// recordingResponder captures the state it was invoked with.
type recordingResponder struct {
	mu    sync.Mutex
	seen  []core.State
	reply string
}

func (r *recordingResponder) Respond(_ context.Context, s core.State) core.StateUpdate {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, s)
	return core.NewStateUpdate(core.NewAssistantMessage(r.reply))
}

type emptyResponder struct{}

func (emptyResponder) Respond(context.Context, core.State) core.StateUpdate { return core.StateUpdate{} }

func TestGraph_EchoInvoke(t *testing.T) {
	g := New(agent.NewResponder(nil))

	update, err := g.Invoke(context.Background(), core.State{"messages": "ping"})
	require.NoError(t, err)
	require.Len(t, update.Messages, 1)
	assert.Equal(t, core.NewAssistantMessage("ping"), update.Reply())
	assert.Equal(t, []string{NodeRespond}, g.Nodes())
}

func TestGraph_NilStateEchoesEmpty(t *testing.T) {
	g := New(agent.NewResponder(nil))

	update, err := g.Invoke(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "", update.Reply().Content)
}

func TestGraph_ModelInvoke(t *testing.T) {
	mm := model.NewMockModel("mock")
	mm.AddResponse("hi", "Hi there")
	g := New(agent.NewResponder(mm, func(o *agent.ResponderOptions) { o.APIKeyPresent = true }))

	update, err := g.Invoke(context.Background(), core.State{"messages": []any{core.HumanMessage("hi")}})
	require.NoError(t, err)
	assert.Equal(t, "Hi there", update.Reply().Content)
}

func TestGraph_ModelErrorIsReply(t *testing.T) {
	mm := model.NewMockModel("mock")
	mm.SetError(errors.New("rate limited"))
	g := New(agent.NewResponder(mm, func(o *agent.ResponderOptions) { o.APIKeyPresent = true }))

	update, err := g.Invoke(context.Background(), core.State{"messages": "hello"})
	require.NoError(t, err)
	assert.Equal(t, "[error calling model: rate limited]", update.Reply().Content)
}

func TestGraph_Run(t *testing.T) {
	g := New(agent.NewResponder(nil))

	in := core.State{"messages": []any{core.HumanMessage("a")}, "user": "ada"}
	out, err := g.Run(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, []core.Message{
		core.NewUserMessage("a"),
		core.NewAssistantMessage("a"),
	}, out[core.KeyMessages])
	assert.Equal(t, "ada", out["user"])
	assert.Len(t, in[core.KeyMessages], 1, "input state is not modified")
}

func TestGraph_CancelledContext(t *testing.T) {
	r := &recordingResponder{reply: "x"}
	g := New(r)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Invoke(ctx, core.State{"messages": "hi"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, r.seen)
}

func TestGraph_NoReply(t *testing.T) {
	g := New(emptyResponder{})

	_, err := g.Invoke(context.Background(), core.State{})
	assert.ErrorIs(t, err, ErrNoReply)
}

func TestGraph_SearchInjectsSystemMessage(t *testing.T) {
	searcher := &MockSearcher{}
	searcher.On("Search", mock.Anything, "latest go release").Return([]tool.Result{
		{Title: "Go 1.25", URL: "https://go.dev/doc/go1.25", Snippet: "Release notes"},
	}, nil)

	r := &recordingResponder{reply: "Go 1.25"}
	g := NewWithSearch(r, searcher)
	assert.Equal(t, []string{NodeSearch, NodeRespond}, g.Nodes())

	update, err := g.Invoke(context.Background(), core.State{"messages": "latest go release"})
	require.NoError(t, err)
	assert.Equal(t, "Go 1.25", update.Reply().Content)

	require.Len(t, r.seen, 1)
	msgs := r.seen[0].Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, core.RoleSystem, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "https://go.dev/doc/go1.25")
	assert.Equal(t, core.NewUserMessage("latest go release"), msgs[1])
	searcher.AssertExpectations(t)
}

func TestGraph_SearchWithPromptFallback(t *testing.T) {
	searcher := &MockSearcher{}
	searcher.On("Search", mock.Anything, "weather").Return([]tool.Result{{Title: "Sunny", URL: "https://w.test"}}, nil)

	g := NewWithSearch(agent.NewResponder(nil), searcher)

	update, err := g.Invoke(context.Background(), core.State{"prompt": "weather"})
	require.NoError(t, err)
	assert.Equal(t, "weather", update.Reply().Content, "echo ignores the injected system message")
}

func TestGraph_SearchFailureIsSkipped(t *testing.T) {
	searcher := &MockSearcher{}
	searcher.On("Search", mock.Anything, "q").Return(nil, errors.New("offline"))

	r := &recordingResponder{reply: "ok"}
	g := NewWithSearch(r, searcher, func(o *Options) { o.SearchRetries = 2 })

	update, err := g.Invoke(context.Background(), core.State{"messages": "q"})
	require.NoError(t, err)
	assert.Equal(t, "ok", update.Reply().Content)

	require.Len(t, r.seen, 1)
	assert.Equal(t, []core.Message{core.NewUserMessage("q")}, r.seen[0].Messages())
	searcher.AssertNumberOfCalls(t, "Search", 2)
}

func TestGraph_SearchSkippedWithoutUserMessage(t *testing.T) {
	searcher := &MockSearcher{}
	r := &recordingResponder{reply: "ok"}
	g := NewWithSearch(r, searcher)

	_, err := g.Invoke(context.Background(), core.State{"messages": []any{core.SystemMessage("sys")}})
	require.NoError(t, err)
	searcher.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}

func TestGraph_ConcurrentInvocations(t *testing.T) {
	g := New(agent.NewResponder(nil))

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			text := string(rune('a' + i))
			update, err := g.Invoke(context.Background(), core.State{"messages": text})
			assert.NoError(t, err)
			assert.Equal(t, text, update.Reply().Content)
		}(i)
	}
	wg.Wait()
}
