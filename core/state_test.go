package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_DeriveMessages(t *testing.T) {
	t.Run("history used as-is", func(t *testing.T) {
		history := []any{map[string]any{"role": "user", "content": "ping"}}
		s := State{KeyMessages: history, KeyPrompt: "ignored"}
		assert.Equal(t, history, s.DeriveMessages())
	})

	t.Run("prompt fallback", func(t *testing.T) {
		s := State{KeyPrompt: "hello"}
		assert.Equal(t, []Message{{Role: "user", Content: "hello"}}, s.Messages())
	})

	t.Run("changeme fallback", func(t *testing.T) {
		s := State{KeyChangeme: "legacy"}
		assert.Equal(t, []Message{{Role: "user", Content: "legacy"}}, s.Messages())
	})

	t.Run("empty prompt skipped", func(t *testing.T) {
		s := State{KeyPrompt: "", KeyChangeme: "second"}
		assert.Equal(t, "second", s.Messages()[0].Content)
	})

	t.Run("empty history falls back", func(t *testing.T) {
		s := State{KeyMessages: []any{}, KeyPrompt: "p"}
		assert.Equal(t, "p", s.Messages()[0].Content)
	})

	t.Run("nothing present", func(t *testing.T) {
		msgs := State{}.Messages()
		require.Len(t, msgs, 1)
		assert.Equal(t, Message{Role: "user", Content: ""}, msgs[0])
	})

	t.Run("nil state", func(t *testing.T) {
		var s State
		assert.Equal(t, []Message{{Role: "user", Content: ""}}, s.Messages())
	})
}

func TestState_Apply(t *testing.T) {
	s := State{KeyMessages: []any{"hi"}, "other": 1}
	next := s.Apply(NewStateUpdate(NewAssistantMessage("hello")))

	assert.Equal(t, []Message{
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
	}, next[KeyMessages])
	assert.Equal(t, 1, next["other"])
	assert.Equal(t, []any{"hi"}, s[KeyMessages], "receiver must not change")
}

func TestStateUpdate_Reply(t *testing.T) {
	assert.Equal(t, Message{}, StateUpdate{}.Reply())
	assert.Equal(t, "x", NewStateUpdate(NewUserMessage("x")).Reply().Content)
}
