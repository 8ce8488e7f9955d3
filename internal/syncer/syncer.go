package syncer

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/dataplane-labs/quality-sync/internal/config"
	"github.com/dataplane-labs/quality-sync/internal/dispatch"
	"github.com/dataplane-labs/quality-sync/internal/models"
	"github.com/dataplane-labs/quality-sync/internal/notify"
	"github.com/dataplane-labs/quality-sync/internal/projector"
	"github.com/dataplane-labs/quality-sync/internal/transport"
	"github.com/dataplane-labs/quality-sync/pkg/cache"
	"github.com/dataplane-labs/quality-sync/pkg/logger"
)

// Manager shares one live sync pipeline per data-source scope. The
// first Acquire for a scope dials the transport, later Acquires attach
// to the running pipeline, and the last Release tears it down. Several
// panels watching the same scope never open duplicate sockets.
type Manager struct {
	cfg    config.Config
	rest   transport.SummaryFetcher
	cache  cache.SnapshotCache
	logger logger.Logger

	mu     sync.Mutex
	shared map[string]*pipeline

	stopNotify func()
}

type pipeline struct {
	refs       int
	projector  *projector.Projector
	selector   *transport.Selector
	dispatcher *dispatch.Dispatcher
}

// Handle is one subscription to a scope's pipeline. Release it when the
// view detaches; releasing the same handle twice is a no-op.
type Handle struct {
	Scope      string
	Projector  *projector.Projector
	Dispatcher *dispatch.Dispatcher

	once    sync.Once
	release func()
}

func (h *Handle) Release() {
	h.once.Do(h.release)
}

func NewManager(cfg config.Config, rest transport.SummaryFetcher, snapCache cache.SnapshotCache, log logger.Logger) *Manager {
	m := &Manager{
		cfg:    cfg,
		rest:   rest,
		cache:  snapCache,
		logger: log,
		shared: make(map[string]*pipeline),
	}

	// PII rule changes shift column verdicts, so cached summaries for
	// active scopes are no longer trustworthy as warm-start seeds.
	if snapCache != nil {
		cancel, err := notify.New(snapCache, log).OnPIIConfigUpdate(context.Background(), m.dropCachedSummaries)
		if err != nil {
			log.Warn("pii config updates unavailable", "error", err)
		} else {
			m.stopNotify = cancel
		}
	}
	return m
}

func (m *Manager) dropCachedSummaries() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for _, scope := range m.ActiveScopes() {
		if err := m.cache.Delete(ctx, summaryKey(scope)); err != nil {
			m.logger.Warn("failed to drop cached summary", "dataSource", scope, "error", err)
		}
	}
}

// Acquire attaches to the pipeline for scope, starting it if this is
// the first subscriber.
func (m *Manager) Acquire(scope string) *Handle {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.shared[scope]
	if !ok {
		p = m.startPipeline(scope)
		m.shared[scope] = p
	}
	p.refs++

	return &Handle{
		Scope:      scope,
		Projector:  p.projector,
		Dispatcher: p.dispatcher,
		release:    func() { m.release(scope) },
	}
}

// ActiveScopes reports which scopes currently hold a live pipeline.
func (m *Manager) ActiveScopes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	scopes := make([]string, 0, len(m.shared))
	for scope := range m.shared {
		scopes = append(scopes, scope)
	}
	return scopes
}

// Close releases every pipeline regardless of outstanding handles.
func (m *Manager) Close() {
	if m.stopNotify != nil {
		m.stopNotify()
	}
	m.mu.Lock()
	pipelines := make([]*pipeline, 0, len(m.shared))
	for scope, p := range m.shared {
		pipelines = append(pipelines, p)
		delete(m.shared, scope)
	}
	m.mu.Unlock()

	for _, p := range pipelines {
		p.selector.Close()
	}
}

func (m *Manager) startPipeline(scope string) *pipeline {
	log := m.logger.With("dataSource", scope)

	proj := projector.New(m.cfg.Predictions.Max, log)
	m.warmStart(scope, proj)

	fetcher := m.rest
	if m.cache != nil {
		fetcher = &cachingFetcher{
			next:  m.rest,
			cache: m.cache,
			ttl:   time.Duration(m.cfg.Cache.TTL) * time.Second,
			log:   log,
		}
	}

	sel := transport.NewSelector(scope, m.cfg.Stream, m.cfg.Polling, fetcher, proj, log)
	disp := dispatch.New(m.cfg.Dispatch, sel, log)
	sel.OnModeChange(disp.HandleModeChange)
	sel.Start()

	log.Info("sync pipeline started")
	return &pipeline{projector: proj, selector: sel, dispatcher: disp}
}

func (m *Manager) release(scope string) {
	m.mu.Lock()
	p, ok := m.shared[scope]
	if !ok {
		m.mu.Unlock()
		return
	}
	p.refs--
	if p.refs > 0 {
		m.mu.Unlock()
		return
	}
	delete(m.shared, scope)
	m.mu.Unlock()

	// last subscriber gone: unsubscribe, close the socket, stop timers
	p.selector.Close()
	m.logger.Info("sync pipeline stopped", "dataSource", scope)
}

// warmStart seeds a fresh projector with the last summary this process
// (or a sibling) cached for the scope, so views have data before the
// first fetch completes.
func (m *Manager) warmStart(scope string, proj *projector.Projector) {
	if m.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	raw, err := m.cache.Get(ctx, summaryKey(scope))
	if err != nil || len(raw) == 0 {
		return
	}
	var snap models.SummarySnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		m.logger.Warn("discarding unreadable cached summary", "dataSource", scope, "error", err)
		return
	}
	proj.OfferSnapshot(&snap, proj.Seq())
}

func summaryKey(scope string) string {
	return "qsync:summary:" + scope
}

// cachingFetcher writes every successful summary fetch through to the
// snapshot cache so the next cold start has something to show.
type cachingFetcher struct {
	next  transport.SummaryFetcher
	cache cache.SnapshotCache
	ttl   time.Duration
	log   logger.Logger
}

func (c *cachingFetcher) GetQualitySummary(ctx context.Context, dataSourceID string) (*models.SummarySnapshot, error) {
	snap, err := c.next.GetQualitySummary(ctx, dataSourceID)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Set(ctx, summaryKey(dataSourceID), snap, c.ttl); err != nil {
		c.log.Warn("failed to cache summary", "error", err)
	}
	return snap, nil
}
