package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dataplane-labs/quality-sync/pkg/logger"
)

func TestMemoryCache_SetGetDelete(t *testing.T) {
	c := NewMemory(logger.NewNop())
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", map[string]int{"a": 1}, 0))
	b, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(b))

	require.NoError(t, c.Delete(ctx, "k"))
	_, err = c.Get(ctx, "k")
	assert.Error(t, err)
}

func TestMemoryCache_TTLExpiry(t *testing.T) {
	c := NewMemory(logger.NewNop())
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", 10*time.Millisecond))
	time.Sleep(25 * time.Millisecond)
	_, err := c.Get(ctx, "k")
	assert.Error(t, err)
}

func TestMemoryCache_PubSub(t *testing.T) {
	c := NewMemory(logger.NewNop())
	ctx := context.Background()

	ch, cancel, err := c.Subscribe(ctx, "pii-config")
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, c.Publish(ctx, "pii-config", "changed"))

	select {
	case msg := <-ch:
		assert.Equal(t, "changed", msg)
	case <-time.After(time.Second):
		t.Fatal("no message delivered")
	}

	// cancel twice must not panic
	cancel()
	cancel()
}
