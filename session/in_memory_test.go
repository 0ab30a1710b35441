package session

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentgraph/core"
)

// Interface compliance (compile-time assertion)
var _ core.SessionStore = (*InMemoryStore)(nil)

func TestInMemoryStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	_, err := store.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Append(ctx, "s1", core.NewUserMessage("hi")))
	require.NoError(t, store.Append(ctx, "s1", core.NewAssistantMessage("hello")))

	sess, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", sess.ID)
	assert.Equal(t, []core.Message{
		core.NewUserMessage("hi"),
		core.NewAssistantMessage("hello"),
	}, sess.History())

	// Returned sessions are clones.
	sess.Append(core.NewUserMessage("local only"))
	again, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, again.History(), 2)

	require.NoError(t, store.Delete(ctx, "s1"))
	require.NoError(t, store.Delete(ctx, "s1"))
	_, err = store.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInMemoryStore_CancelledContext(t *testing.T) {
	store := NewInMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, store.Append(ctx, "s", core.NewUserMessage("x")), context.Canceled)
	_, err := store.Get(ctx, "s")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestInMemoryStore_ConcurrentAppend(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, store.Append(ctx, "shared", core.NewUserMessage("m")))
		}()
	}
	wg.Wait()

	sess, err := store.Get(ctx, "shared")
	require.NoError(t, err)
	assert.Len(t, sess.History(), 20)
}
