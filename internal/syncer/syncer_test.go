package syncer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dataplane-labs/quality-sync/internal/config"
	"github.com/dataplane-labs/quality-sync/internal/models"
	"github.com/dataplane-labs/quality-sync/internal/notify"
	"github.com/dataplane-labs/quality-sync/pkg/cache"
	"github.com/dataplane-labs/quality-sync/pkg/logger"
)

type stubFetcher struct {
	mu    sync.Mutex
	calls int
}

func (s *stubFetcher) GetQualitySummary(ctx context.Context, dataSourceID string) (*models.SummarySnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return &models.SummarySnapshot{
		Totals: models.SummaryTotals{Score: 77.0, PreviousScore: 70.0},
	}, nil
}

func testConfig() config.Config {
	var cfg config.Config
	// nothing listens here, so every pipeline degrades straight to polling
	cfg.Stream = config.StreamConfig{
		URL:               "ws://127.0.0.1:1",
		ConnectTimeout:    300,
		ReconnectAttempts: 1,
		ReconnectMaxWait:  60000,
		PingInterval:      1,
	}
	cfg.Polling = config.PollingConfig{Interval: 1}
	cfg.Predictions = config.PredictionsConfig{Max: 16}
	cfg.Cache = config.CacheConfig{TTL: 60}
	return cfg
}

func TestAcquireSharesOnePipelinePerScope(t *testing.T) {
	m := NewManager(testConfig(), &stubFetcher{}, nil, logger.NewNop())
	defer m.Close()

	h1 := m.Acquire("ds-1")
	h2 := m.Acquire("ds-1")
	other := m.Acquire("ds-2")

	assert.Same(t, h1.Projector, h2.Projector)
	assert.Same(t, h1.Dispatcher, h2.Dispatcher)
	assert.NotSame(t, h1.Projector, other.Projector)
	assert.ElementsMatch(t, []string{"ds-1", "ds-2"}, m.ActiveScopes())

	h1.Release()
	assert.Contains(t, m.ActiveScopes(), "ds-1")

	h2.Release()
	assert.NotContains(t, m.ActiveScopes(), "ds-1")

	other.Release()
	assert.Empty(t, m.ActiveScopes())
}

func TestReleaseTwiceIsNoOp(t *testing.T) {
	m := NewManager(testConfig(), &stubFetcher{}, nil, logger.NewNop())
	defer m.Close()

	h1 := m.Acquire("ds-1")
	h2 := m.Acquire("ds-1")

	h1.Release()
	h1.Release()
	assert.Contains(t, m.ActiveScopes(), "ds-1", "double release must not drop the other subscriber")

	h2.Release()
	assert.Empty(t, m.ActiveScopes())
}

func TestWarmStartSeedsProjectorFromCache(t *testing.T) {
	snapCache := cache.NewMemory(logger.NewNop())
	seeded := models.SummarySnapshot{
		Totals: models.SummaryTotals{Score: 91.0, PreviousScore: 88.0},
	}
	require.NoError(t, snapCache.Set(context.Background(), summaryKey("ds-1"), seeded, time.Minute))

	m := NewManager(testConfig(), &stubFetcher{}, snapCache, logger.NewNop())
	defer m.Close()

	h := m.Acquire("ds-1")
	defer h.Release()

	// seeded before the first fetch has any chance to land
	view := h.Projector.Snapshot()
	assert.Equal(t, 91.0, view.Score.Current)
	assert.Equal(t, models.ScoreExcellent, view.Score.Status)
}

func TestSuccessfulFetchesAreCached(t *testing.T) {
	snapCache := cache.NewMemory(logger.NewNop())
	m := NewManager(testConfig(), &stubFetcher{}, snapCache, logger.NewNop())
	defer m.Close()

	h := m.Acquire("ds-1")
	defer h.Release()

	require.Eventually(t, func() bool {
		raw, err := snapCache.Get(context.Background(), summaryKey("ds-1"))
		return err == nil && len(raw) > 0
	}, 5*time.Second, 50*time.Millisecond)
}

func TestPIIConfigUpdateDropsCachedSummaries(t *testing.T) {
	bus := cache.NewMemory(logger.NewNop())
	m := NewManager(testConfig(), &stubFetcher{}, bus, logger.NewNop())
	defer m.Close()

	h := m.Acquire("ds-1")
	defer h.Release()

	ctx := context.Background()
	require.NoError(t, bus.Set(ctx, "qsync:summary:ds-1", []byte(`{}`), 0))

	require.NoError(t, notify.New(bus, logger.NewNop()).NotifyPIIConfigUpdate(ctx))

	assert.Eventually(t, func() bool {
		_, err := bus.Get(ctx, "qsync:summary:ds-1")
		return err != nil
	}, 2*time.Second, 10*time.Millisecond)
}
