package agentgraph

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentgraph/config"
	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/graph"
	"github.com/hupe1980/agentgraph/logging"
	"github.com/hupe1980/agentgraph/model"
	"github.com/hupe1980/agentgraph/tool"
)

type staticSearcher struct{ results []tool.Result }

func (s staticSearcher) Search(context.Context, string) ([]tool.Result, error) {
	return s.results, nil
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Model = "gpt-5"
	return &cfg
}

func quiet(o *Options) { o.Logger = logging.NoOpLogger{} }

func TestNew_EchoWithoutKey(t *testing.T) {
	ag, err := New(quiet, func(o *Options) { o.Config = testConfig() })
	require.NoError(t, err)
	defer ag.Close()

	assert.False(t, ag.Live())
	assert.Equal(t, []string{graph.NodeRespond}, ag.Graph().Nodes())

	update, err := ag.Invoke(context.Background(), core.State{"messages": "ping"})
	require.NoError(t, err)
	assert.Equal(t, core.NewAssistantMessage("ping"), update.Reply())
}

// withModel wires m and unlocks it with a test key.
func withModel(m model.Model) func(o *Options) {
	return func(o *Options) {
		cfg := testConfig()
		cfg.OpenAIKey = "sk-test"
		o.Config = cfg
		o.Model = m
	}
}

func TestNew_ExplicitModelRequiresKey(t *testing.T) {
	mm := model.NewMockModel("mock")

	ag, err := New(quiet, func(o *Options) {
		o.Config = testConfig()
		o.Model = mm
	})
	require.NoError(t, err)

	assert.False(t, ag.Live())
	update, err := ag.Invoke(context.Background(), core.State{"messages": "ping"})
	require.NoError(t, err)
	assert.Equal(t, "ping", update.Reply().Content)
	assert.Empty(t, mm.Requests())

	forced, err := New(quiet, func(o *Options) {
		o.Config = testConfig()
		o.Model = mm
		o.ForceLive = true
	})
	require.NoError(t, err)
	assert.True(t, forced.Live())
}

func TestNew_ExplicitModel(t *testing.T) {
	mm := model.NewMockModel("mock")
	mm.AddResponse("hi", "Hi there")

	ag, err := New(quiet, withModel(mm))
	require.NoError(t, err)

	assert.True(t, ag.Live())
	update, err := ag.Invoke(context.Background(), core.State{"messages": []any{core.HumanMessage("hi")}})
	require.NoError(t, err)
	assert.Equal(t, "Hi there", update.Reply().Content)
}

func TestNew_ProviderModelBuiltWithKey(t *testing.T) {
	cfg := testConfig()
	cfg.OpenAIKey = "sk-test"

	ag, err := New(quiet, func(o *Options) { o.Config = cfg })
	require.NoError(t, err)
	assert.True(t, ag.Live())
}

func TestNew_SearchEnabled(t *testing.T) {
	ag, err := New(quiet, func(o *Options) {
		o.Config = testConfig()
		o.Searcher = staticSearcher{results: []tool.Result{{Title: "T", URL: "https://t.test"}}}
	})
	require.NoError(t, err)

	assert.Equal(t, []string{graph.NodeSearch, graph.NodeRespond}, ag.Graph().Nodes())

	update, err := ag.Invoke(context.Background(), core.State{"prompt": "query"})
	require.NoError(t, err)
	assert.Equal(t, "query", update.Reply().Content)
}

func TestChat_PersistsHistory(t *testing.T) {
	mm := model.NewMockModel("mock")
	ag, err := New(quiet, withModel(mm))
	require.NoError(t, err)

	ctx := context.Background()

	reply, err := ag.Chat(ctx, "s1", "first")
	require.NoError(t, err)
	assert.Equal(t, core.NewAssistantMessage("Mock response to: first"), reply)

	_, err = ag.Chat(ctx, "s1", "second")
	require.NoError(t, err)

	reqs := mm.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, []core.Message{
		core.NewUserMessage("first"),
		core.NewAssistantMessage("Mock response to: first"),
		core.NewUserMessage("second"),
	}, reqs[1].Messages)

	sess, err := ag.Sessions().Get(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, sess.History(), 4)

	_, err = ag.Chat(ctx, "", "x")
	assert.Error(t, err)
}

func TestChat_SqliteSessionDB(t *testing.T) {
	cfg := testConfig()
	cfg.SessionDB = filepath.Join(t.TempDir(), "sessions.db")

	ag, err := New(quiet, func(o *Options) { o.Config = cfg })
	require.NoError(t, err)

	ctx := context.Background()
	reply, err := ag.Chat(ctx, "durable", "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", reply.Content)
	require.NoError(t, ag.Close())

	reopened, err := New(quiet, func(o *Options) { o.Config = cfg })
	require.NoError(t, err)
	defer reopened.Close()

	sess, err := reopened.Sessions().Get(ctx, "durable")
	require.NoError(t, err)
	assert.Equal(t, []core.Message{
		core.NewUserMessage("hello"),
		core.NewAssistantMessage("hello"),
	}, sess.History())
}

func TestChat_ModelErrorStillPersists(t *testing.T) {
	mm := model.NewMockModel("mock")
	mm.SetError(errors.New("rate limited"))

	ag, err := New(quiet, withModel(mm))
	require.NoError(t, err)

	reply, err := ag.Chat(context.Background(), "s", "hello")
	require.NoError(t, err)
	assert.Equal(t, "[error calling model: rate limited]", reply.Content)
}

func TestNewModel_Providers(t *testing.T) {
	cfg := config.Default()

	cfg.Provider = config.ProviderOpenAI
	m, err := NewModel(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "openai", m.Info().Provider)

	cfg.Provider = config.ProviderAnthropic
	m, err = NewModel(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "anthropic", m.Info().Provider)

	cfg.Provider = "llama"
	_, err = NewModel(context.Background(), cfg)
	assert.ErrorIs(t, err, config.ErrUnknownProvider)
}
