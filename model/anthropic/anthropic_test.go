package anthropic

import (
	"testing"

	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ model.Model = (*Model)(nil)

func TestBuildMessages(t *testing.T) {
	msgs := buildMessages([]core.Message{
		{Role: "system", Content: "rules"},
		{Role: "user", Content: "ping"},
		{Role: "assistant", Content: "pong"},
		{Role: "tool", Content: "result"},
		{Role: "user", Content: ""},
	})

	require.Len(t, msgs, 3)
	assert.Equal(t, "user", string(msgs[0].Role))
	assert.Equal(t, "assistant", string(msgs[1].Role))
	assert.Equal(t, "user", string(msgs[2].Role))
}

func TestExtractSystem(t *testing.T) {
	blocks := extractSystem("be brief", []core.Message{
		{Role: "system", Content: "rules"},
		{Role: "developer", Content: "dev"},
		{Role: "user", Content: "hi"},
	})

	require.Len(t, blocks, 3)
	assert.Equal(t, "be brief", blocks[0].Text)
	assert.Equal(t, "rules", blocks[1].Text)
	assert.Equal(t, "dev", blocks[2].Text)

	assert.Empty(t, extractSystem("", []core.Message{{Role: "user", Content: "x"}}))
}

func TestInfo(t *testing.T) {
	m := NewModel(func(o *Options) {
		o.APIKey = "k"
		o.Model = "claude-test"
	})
	assert.Equal(t, model.Info{Name: "claude-test", Provider: "anthropic"}, m.Info())
}
