package projector

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/dataplane-labs/quality-sync/internal/metrics"
	"github.com/dataplane-labs/quality-sync/internal/models"
	"github.com/dataplane-labs/quality-sync/pkg/logger"
)

// View is the canonical view model every panel renders from. The
// projector owns it; consumers get copies via Snapshot.
type View struct {
	Score       models.QualityScore
	Stats       models.QuickStats
	Alerts      []models.ActiveAlert
	Predictions []models.MLPrediction
	Connection  models.ConnectionState

	// LastError is the dismissible inline request-error message; empty
	// means no error banner.
	LastError string
}

// Projector maintains the canonical view model regardless of which
// transport produced an update. Stream events and REST snapshots both
// funnel through here; applies are serialized so updates land in
// delivery order.
type Projector struct {
	logger         logger.Logger
	maxPredictions int

	mu   sync.RWMutex
	view View
	// seq counts applied stream updates. A REST snapshot records the seq
	// observed when its fetch started; if the seq moved by the time the
	// response arrives, a live update won the race and the snapshot is
	// discarded.
	seq uint64

	subs []chan struct{}
}

func New(maxPredictions int, log logger.Logger) *Projector {
	if maxPredictions <= 0 {
		maxPredictions = 64
	}
	return &Projector{
		logger:         log,
		maxPredictions: maxPredictions,
		view: View{
			Connection: models.ConnectionState{Mode: models.ModeDisconnected, LastUpdated: time.Now()},
		},
	}
}

// Snapshot returns a copy of the current view model safe to read from
// any goroutine.
func (p *Projector) Snapshot() View {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return copyView(p.view)
}

// Seq returns the current apply sequence; the polling loop captures it
// before fetching a snapshot.
func (p *Projector) Seq() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.seq
}

// Subscribe returns a coalescing change-notification channel. Receivers
// that fall behind miss intermediate notifications, never updates: the
// next Snapshot call always sees the latest state.
func (p *Projector) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)
	p.mu.Lock()
	p.subs = append(p.subs, ch)
	p.mu.Unlock()
	return ch
}

// ApplyEvent applies one stream event to the view model. Payloads that
// fail to decode are logged and skipped; a malformed event must never
// take the sync loop down.
func (p *Projector) ApplyEvent(ev models.StreamEvent) {
	p.mu.Lock()

	applied := true
	switch ev.Event {
	case models.EventQualityUpdate:
		var score models.QualityScore
		if !p.decode(ev, &score) {
			applied = false
			break
		}
		normalizeScore(&score)
		p.view.Score = score

	case models.EventStatsUpdate:
		var stats models.QuickStats
		if !p.decode(ev, &stats) {
			applied = false
			break
		}
		clampStats(&stats)
		p.view.Stats = stats

	case models.EventAlertsInitial:
		var alerts []models.ActiveAlert
		if !p.decode(ev, &alerts) {
			applied = false
			break
		}
		for i := range alerts {
			normalizeAlert(&alerts[i])
		}
		p.view.Alerts = alerts

	case models.EventAlertCreated:
		var alert models.ActiveAlert
		if !p.decode(ev, &alert) {
			applied = false
			break
		}
		normalizeAlert(&alert)
		// most recent first
		p.view.Alerts = append([]models.ActiveAlert{alert}, p.view.Alerts...)

	case models.EventAlertResolved:
		var resolved models.AlertResolved
		if !p.decode(ev, &resolved) {
			applied = false
			break
		}
		p.removeAlertLocked(resolved.AlertID)

	case models.EventPredictionReady:
		var pred models.MLPrediction
		if !p.decode(ev, &pred) {
			applied = false
			break
		}
		p.upsertPredictionLocked(pred)

	default:
		p.logger.Debug("ignoring unknown stream event", "event", ev.Event)
		applied = false
	}

	if applied {
		p.seq++
		metrics.EventsAppliedTotal.WithLabelValues(ev.Event).Inc()
		metrics.ActiveAlertsGauge.Set(float64(len(p.view.Alerts)))
	}
	p.mu.Unlock()

	if applied {
		p.notify()
	}
}

// OfferSnapshot applies a REST summary snapshot fetched while seq was
// startSeq. Stale snapshots (any stream update applied since the fetch
// began) are discarded: last-writer-wins, stream preferred on tie.
// Returns whether the snapshot was applied.
func (p *Projector) OfferSnapshot(snap *models.SummarySnapshot, startSeq uint64) bool {
	p.mu.Lock()
	if p.seq != startSeq {
		p.mu.Unlock()
		metrics.PollFetchesTotal.WithLabelValues("stale_discarded").Inc()
		p.logger.Debug("discarding stale summary snapshot",
			"fetchedAtSeq", startSeq, "currentSeq", p.seq)
		return false
	}

	score, stats := MapSnapshot(snap, time.Now())
	p.view.Score = score
	p.view.Stats = stats
	p.view.LastError = ""
	p.mu.Unlock()

	p.notify()
	return true
}

// SetConnection records which transport currently feeds the model.
func (p *Projector) SetConnection(mode models.ConnectionMode) {
	p.mu.Lock()
	changed := p.view.Connection.Mode != mode
	p.view.Connection = models.ConnectionState{Mode: mode, LastUpdated: time.Now()}
	p.mu.Unlock()
	if changed {
		p.notify()
	}
}

// SetError surfaces a request error as the dismissible inline message.
func (p *Projector) SetError(msg string) {
	p.mu.Lock()
	p.view.LastError = msg
	p.mu.Unlock()
	p.notify()
}

// ClearError dismisses the inline error banner.
func (p *Projector) ClearError() {
	p.SetError("")
}

func (p *Projector) removeAlertLocked(id string) {
	alerts := p.view.Alerts
	for i := range alerts {
		if alerts[i].ID == id {
			p.view.Alerts = append(alerts[:i:i], alerts[i+1:]...)
			return
		}
	}
}

// upsertPredictionLocked replaces the forecast for its (table, metric)
// key; appends otherwise, evicting the oldest key past the cap.
func (p *Projector) upsertPredictionLocked(pred models.MLPrediction) {
	key := pred.Key()
	for i := range p.view.Predictions {
		if p.view.Predictions[i].Key() == key {
			p.view.Predictions[i] = pred
			return
		}
	}
	p.view.Predictions = append(p.view.Predictions, pred)
	if len(p.view.Predictions) > p.maxPredictions {
		p.view.Predictions = p.view.Predictions[1:]
	}
}

func (p *Projector) decode(ev models.StreamEvent, out interface{}) bool {
	if err := json.Unmarshal(ev.Data, out); err != nil {
		p.logger.Warn("malformed stream event payload", "event", ev.Event, "error", err)
		return false
	}
	return true
}

func (p *Projector) notify() {
	p.mu.RLock()
	subs := p.subs
	p.mu.RUnlock()
	for _, ch := range subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func copyView(v View) View {
	out := v
	out.Alerts = append([]models.ActiveAlert(nil), v.Alerts...)
	out.Predictions = append([]models.MLPrediction(nil), v.Predictions...)
	if v.Score.DimensionScores != nil {
		dims := make(map[string]float64, len(v.Score.DimensionScores))
		for k, val := range v.Score.DimensionScores {
			dims[k] = val
		}
		out.Score.DimensionScores = dims
	}
	return out
}

// normalizeScore folds server-sent enum strings the client does not know
// into their explicit unknown variants and re-derives status from the
// shared bucketing so streamed and polled paths cannot diverge.
func normalizeScore(s *models.QualityScore) {
	s.Trend = models.ParseTrend(string(s.Trend))
	s.Status = models.StatusForScore(s.Current)
	if s.LastUpdated.IsZero() {
		s.LastUpdated = time.Now()
	}
}

func normalizeAlert(a *models.ActiveAlert) {
	a.Severity = models.ParseSeverity(string(a.Severity))
	a.Trending = models.ParseAlertTrend(string(a.Trending))
	if a.BusinessImpact.RevenueAtRisk < 0 {
		a.BusinessImpact.RevenueAtRisk = 0
	}
	if a.BusinessImpact.AffectedUsers < 0 {
		a.BusinessImpact.AffectedUsers = 0
	}
}

func clampStats(s *models.QuickStats) {
	clampInt(&s.Monitoring.DataSources)
	clampInt(&s.Monitoring.TablesMonitored)
	clampInt(&s.Monitoring.ColumnsProfiled)
	clampInt(&s.Activity.ScansToday)
	clampInt(&s.Activity.IssuesDetected)
	clampInt(&s.Activity.IssuesResolved)
	clampInt(&s.Rules.Active)
	clampInt(&s.Rules.Failing)
	clampInt(&s.Rules.PIIRules)
	clampInt(&s.LiveMetrics.OpenAlerts)
	if s.Health.UptimePercent < 0 {
		s.Health.UptimePercent = 0
	}
	if s.Health.AvgScanSeconds < 0 {
		s.Health.AvgScanSeconds = 0
	}
	if s.LiveMetrics.EventsPerMinute < 0 {
		s.LiveMetrics.EventsPerMinute = 0
	}
}

func clampInt(v *int) {
	if *v < 0 {
		*v = 0
	}
}
