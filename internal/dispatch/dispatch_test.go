package dispatch

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dataplane-labs/quality-sync/internal/config"
	"github.com/dataplane-labs/quality-sync/internal/models"
	"github.com/dataplane-labs/quality-sync/pkg/logger"
)

type fakeSender struct {
	mu     sync.Mutex
	up     bool
	events []models.StreamEvent
}

func (f *fakeSender) TrySend(ev models.StreamEvent) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.up {
		return false
	}
	f.events = append(f.events, ev)
	return true
}

func (f *fakeSender) setUp(up bool) {
	f.mu.Lock()
	f.up = up
	f.mu.Unlock()
}

func (f *fakeSender) sent() []models.StreamEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.StreamEvent(nil), f.events...)
}

func newTestDispatcher(sender *fakeSender, cfg config.DispatchConfig) *Dispatcher {
	return New(cfg, sender, logger.NewNop())
}

func TestDispatchSendsWhileStreaming(t *testing.T) {
	sender := &fakeSender{up: true}
	d := newTestDispatcher(sender, config.DispatchConfig{})

	d.RequestPrediction("orders", "completeness")

	sent := sender.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, models.CmdRequestPrediction, sent[0].Event)

	var req models.PredictionRequest
	require.NoError(t, json.Unmarshal(sent[0].Data, &req))
	assert.Equal(t, "orders", req.Table)
	assert.Equal(t, "completeness", req.Metric)
	assert.Zero(t, d.QueueLen())
}

func TestDispatchQueuesWhilePollingAndFlushesOnReconnect(t *testing.T) {
	sender := &fakeSender{up: false}
	d := newTestDispatcher(sender, config.DispatchConfig{})

	d.RequestPrediction("orders", "completeness")
	d.ApplyRecommendation("alert-1", 0)
	assert.Empty(t, sender.sent())
	assert.Equal(t, 2, d.QueueLen())

	sender.setUp(true)
	d.HandleModeChange(models.ModeStreaming)

	sent := sender.sent()
	require.Len(t, sent, 2)
	assert.Equal(t, models.CmdRequestPrediction, sent[0].Event)
	assert.Equal(t, models.CmdApplyRecommendation, sent[1].Event)
	assert.Zero(t, d.QueueLen())
}

func TestDispatchModeChangeToPollingDoesNotFlush(t *testing.T) {
	sender := &fakeSender{up: false}
	d := newTestDispatcher(sender, config.DispatchConfig{})

	d.RequestPrediction("orders", "freshness")
	d.HandleModeChange(models.ModePolling)
	assert.Empty(t, sender.sent())
	assert.Equal(t, 1, d.QueueLen())
}

func TestDispatchDropsOldestWhenFull(t *testing.T) {
	sender := &fakeSender{up: false}
	d := newTestDispatcher(sender, config.DispatchConfig{QueueSize: 3})

	d.RequestPrediction("t0", "m")
	d.RequestPrediction("t1", "m")
	d.RequestPrediction("t2", "m")
	d.RequestPrediction("t3", "m")
	assert.Equal(t, 3, d.QueueLen())

	sender.setUp(true)
	d.Flush()

	sent := sender.sent()
	require.Len(t, sent, 3)
	tables := make([]string, 0, len(sent))
	for _, ev := range sent {
		var req models.PredictionRequest
		require.NoError(t, json.Unmarshal(ev.Data, &req))
		tables = append(tables, req.Table)
	}
	assert.Equal(t, []string{"t1", "t2", "t3"}, tables)
}

func TestDispatchRateLimiterHoldsBackBurst(t *testing.T) {
	sender := &fakeSender{up: true}
	d := newTestDispatcher(sender, config.DispatchConfig{
		RatePerSecond: 0.001, // effectively no refill during the test
		Burst:         2,
	})

	d.RequestPrediction("t0", "m")
	d.RequestPrediction("t1", "m")
	d.RequestPrediction("t2", "m")

	assert.Len(t, sender.sent(), 2)
	assert.Equal(t, 1, d.QueueLen())
}
