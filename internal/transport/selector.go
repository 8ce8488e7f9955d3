package transport

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/avast/retry-go/v5"

	"github.com/dataplane-labs/quality-sync/internal/config"
	"github.com/dataplane-labs/quality-sync/internal/metrics"
	"github.com/dataplane-labs/quality-sync/internal/models"
	"github.com/dataplane-labs/quality-sync/internal/projector"
	"github.com/dataplane-labs/quality-sync/internal/tracing"
	"github.com/dataplane-labs/quality-sync/pkg/logger"
)

// SummaryFetcher is the REST fallback the selector polls when no stream
// is available.
type SummaryFetcher interface {
	GetQualitySummary(ctx context.Context, dataSourceID string) (*models.SummarySnapshot, error)
}

// Selector guarantees the projector always has a data source: it prefers
// the stream, degrades to REST polling on connect failure or any
// post-connect disconnect, and keeps trying to get the stream back while
// polling. Transport failures degrade, they never surface as errors.
type Selector struct {
	scope   string // data source id
	stream  config.StreamConfig
	polling config.PollingConfig

	rest   SummaryFetcher
	proj   *projector.Projector
	logger logger.Logger
	tracer *tracing.SyncTracer

	mu      sync.Mutex
	active  *Stream
	mode    models.ConnectionMode
	onMode  []func(models.ConnectionMode)
	started bool
	closed  bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewSelector(scope string, streamCfg config.StreamConfig, pollCfg config.PollingConfig, rest SummaryFetcher, proj *projector.Projector, log logger.Logger) *Selector {
	ctx, cancel := context.WithCancel(context.Background())
	return &Selector{
		scope:   scope,
		stream:  streamCfg,
		polling: pollCfg,
		rest:    rest,
		proj:    proj,
		logger:  log.With("dataSource", scope),
		tracer:  tracing.NewSyncTracer("quality-sync/transport"),
		mode:    models.ModeDisconnected,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// OnModeChange registers a callback invoked on every transport
// transition. Register before Start.
func (s *Selector) OnModeChange(fn func(models.ConnectionMode)) {
	s.mu.Lock()
	s.onMode = append(s.onMode, fn)
	s.mu.Unlock()
}

// Mode reports the currently active transport.
func (s *Selector) Mode() models.ConnectionMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// TrySend forwards an event over the stream if one is active. Returns
// false otherwise; it never blocks and never errors.
func (s *Selector) TrySend(ev models.StreamEvent) bool {
	s.mu.Lock()
	st := s.active
	mode := s.mode
	s.mu.Unlock()
	if mode != models.ModeStreaming || st == nil {
		return false
	}
	return st.Send(ev)
}

// Start launches the transport loop. Calling Start twice is a no-op.
func (s *Selector) Start() {
	s.mu.Lock()
	if s.started || s.closed {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	s.wg.Add(1)
	go s.run()
}

// Close tears the selector down: stops the polling ticker and any
// reconnect timer, unsubscribes, and closes the stream. Idempotent and
// synchronous: when Close returns no timer is pending and no further
// network calls will be made.
func (s *Selector) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.wg.Wait()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
	s.setMode(models.ModeDisconnected)
}

func (s *Selector) run() {
	defer s.wg.Done()

	for {
		st, err := s.connectBounded()
		if err == nil {
			s.serveStream(st)
		} else {
			s.logger.Warn("stream unavailable, falling back to polling", "error", err)
		}

		if s.ctx.Err() != nil {
			return
		}

		// Degraded: poll on the fixed interval while a background
		// reconnect loop tries to get the stream back.
		st = s.pollUntilStream()
		if st == nil {
			return // torn down
		}
		s.serveStream(st)
		if s.ctx.Err() != nil {
			return
		}
	}
}

// connectBounded makes the initial bounded set of connection attempts.
func (s *Selector) connectBounded() (*Stream, error) {
	attempts := s.stream.ReconnectAttempts
	if attempts <= 0 {
		attempts = 1
	}
	maxWait := time.Duration(s.stream.ReconnectMaxWait) * time.Millisecond
	if maxWait <= 0 {
		maxWait = 30 * time.Second
	}

	var st *Stream
	r := retry.New(
		retry.Context(s.ctx),
		retry.Attempts(uint(attempts)),
		retry.Delay(500*time.Millisecond),
		retry.MaxDelay(maxWait),
		retry.LastErrorOnly(true),
	)
	err := r.Do(func() error {
		var dialErr error
		st, dialErr = s.dial()
		return dialErr
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

// dial makes a single connection attempt and, on success, issues the
// scoped subscribe.
func (s *Selector) dial() (*Stream, error) {
	ctx, span := s.tracer.StartConnectSpan(s.ctx, s.stream.URL, s.scope)
	st, err := DialStream(ctx, s.stream, s.proj.ApplyEvent, s.logger)
	tracing.EndSpan(span, err)
	if err != nil {
		metrics.StreamConnectsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	payload, _ := json.Marshal(models.SubscribeOverview{DataSourceID: s.scope})
	st.Send(models.StreamEvent{Event: models.CmdSubscribeOverview, Data: payload})

	metrics.StreamConnectsTotal.WithLabelValues("connected").Inc()
	return st, nil
}

// serveStream owns a live connection until it drops or the selector is
// torn down.
func (s *Selector) serveStream(st *Stream) {
	s.mu.Lock()
	s.active = st
	s.mu.Unlock()
	s.setMode(models.ModeStreaming)
	s.logger.Info("stream connected", "url", s.stream.URL)

	select {
	case <-st.Done():
		// post-connect disconnect: degrade, run() takes it from here
		s.logger.Warn("stream disconnected")
	case <-s.ctx.Done():
		// teardown: scoped release, unsubscribe before closing
		st.Send(models.StreamEvent{Event: models.CmdUnsubscribeOverview})
	}

	s.mu.Lock()
	s.active = nil
	s.mu.Unlock()
	st.Close()
}

// pollUntilStream polls the REST summary (immediate fetch, then fixed
// interval) and concurrently retries the stream with doubling backoff.
// Returns the reconnected stream, or nil when torn down.
func (s *Selector) pollUntilStream() *Stream {
	s.setMode(models.ModePolling)

	interval := time.Duration(s.polling.Interval) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}
	maxWait := time.Duration(s.stream.ReconnectMaxWait) * time.Millisecond
	if maxWait <= 0 {
		maxWait = 30 * time.Second
	}

	s.fetchOnce()

	poll := time.NewTicker(interval)
	defer poll.Stop()

	backoff := time.Second
	reconnect := time.NewTimer(backoff)
	defer reconnect.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return nil

		case <-poll.C:
			s.fetchOnce()

		case <-reconnect.C:
			metrics.StreamReconnectsTotal.Inc()
			st, err := s.dial()
			if err == nil {
				return st
			}
			backoff *= 2
			if backoff > maxWait {
				backoff = maxWait
			}
			reconnect.Reset(backoff)
		}
	}
}

// fetchOnce issues one REST snapshot fetch. Errors are logged, counted,
// and surfaced as the dismissible inline message; they never stop the
// polling loop.
func (s *Selector) fetchOnce() {
	startSeq := s.proj.Seq()
	ctx, span := s.tracer.StartFetchSpan(s.ctx, "quality_summary", s.scope)
	snap, err := s.rest.GetQualitySummary(ctx, s.scope)
	tracing.EndSpan(span, err)
	if err != nil {
		if s.ctx.Err() != nil {
			return
		}
		metrics.PollFetchesTotal.WithLabelValues("error").Inc()
		s.logger.Warn("summary poll failed", "error", err)
		s.proj.SetError("failed to refresh quality summary: " + err.Error())
		return
	}
	if s.proj.OfferSnapshot(snap, startSeq) {
		metrics.PollFetchesTotal.WithLabelValues("success").Inc()
	}
}

func (s *Selector) setMode(mode models.ConnectionMode) {
	s.mu.Lock()
	if s.mode == mode {
		s.mu.Unlock()
		return
	}
	s.mode = mode
	listeners := append([]func(models.ConnectionMode)(nil), s.onMode...)
	s.mu.Unlock()

	metrics.SetTransportMode(s.scope, string(mode))
	s.proj.SetConnection(mode)
	for _, fn := range listeners {
		fn(mode)
	}
}
