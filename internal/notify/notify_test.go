package notify

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dataplane-labs/quality-sync/pkg/cache"
	"github.com/dataplane-labs/quality-sync/pkg/logger"
)

func TestNotifyReachesEverySubscriber(t *testing.T) {
	bus := cache.NewMemory(logger.NewNop())
	n := New(bus, logger.NewNop())
	ctx := context.Background()

	var first, second atomic.Int32
	cancel1, err := n.OnPIIConfigUpdate(ctx, func() { first.Add(1) })
	require.NoError(t, err)
	defer cancel1()
	cancel2, err := n.OnPIIConfigUpdate(ctx, func() { second.Add(1) })
	require.NoError(t, err)
	defer cancel2()

	require.NoError(t, n.NotifyPIIConfigUpdate(ctx))

	require.Eventually(t, func() bool {
		return first.Load() >= 1 && second.Load() >= 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCancelledSubscriberStopsReceiving(t *testing.T) {
	bus := cache.NewMemory(logger.NewNop())
	n := New(bus, logger.NewNop())
	ctx := context.Background()

	var calls atomic.Int32
	cancel, err := n.OnPIIConfigUpdate(ctx, func() { calls.Add(1) })
	require.NoError(t, err)

	require.NoError(t, n.NotifyPIIConfigUpdate(ctx))
	require.Eventually(t, func() bool { return calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, n.NotifyPIIConfigUpdate(ctx))
	time.Sleep(100 * time.Millisecond)
	require.Equal(t, int32(1), calls.Load())
}
