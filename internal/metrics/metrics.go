package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Transport metrics
	StreamConnectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quality_sync_stream_connects_total",
			Help: "Stream connection attempts by outcome",
		},
		[]string{"outcome"}, // connected, timeout, error
	)

	StreamReconnectsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "quality_sync_stream_reconnects_total",
			Help: "Background reconnect attempts made while degraded to polling",
		},
	)

	TransportMode = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "quality_sync_transport_mode",
			Help: "Active transport per data source (1 for the active mode, 0 otherwise)",
		},
		[]string{"data_source", "mode"}, // streaming, polling, disconnected
	)

	PollFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quality_sync_poll_fetches_total",
			Help: "REST summary fetches issued by the polling loop",
		},
		[]string{"result"}, // success, error, stale_discarded
	)

	// Projector metrics
	EventsAppliedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quality_sync_events_applied_total",
			Help: "Stream events applied to the canonical view model",
		},
		[]string{"event"},
	)

	ActiveAlertsGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "quality_sync_active_alerts",
			Help: "Alerts currently held in the view model",
		},
	)

	// Dispatcher metrics
	CommandsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quality_sync_commands_sent_total",
			Help: "Commands forwarded over the stream transport",
		},
		[]string{"command"},
	)

	CommandsDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quality_sync_commands_dropped_total",
			Help: "Commands dropped because the stream was down and the queue was full",
		},
		[]string{"command"},
	)

	// Backend REST client metrics
	BackendRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quality_sync_backend_requests_total",
			Help: "HTTP requests to the quality backend",
		},
		[]string{"operation", "status"},
	)

	BackendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quality_sync_backend_request_duration_seconds",
			Help:    "Quality backend request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// Cache metrics
	CacheRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quality_sync_cache_requests_total",
			Help: "Snapshot cache requests",
		},
		[]string{"operation", "result"}, // get/set/delete, hit/miss/error/success
	)
)

// RecordCacheOperation keeps cache instrumentation in one place so the
// cache package does not import prometheus directly.
func RecordCacheOperation(operation, result string) {
	CacheRequestsTotal.WithLabelValues(operation, result).Inc()
}

// SetTransportMode flips the per-mode gauge so exactly one mode reads 1.
func SetTransportMode(dataSource, mode string) {
	for _, m := range []string{"streaming", "polling", "disconnected"} {
		v := 0.0
		if m == mode {
			v = 1.0
		}
		TransportMode.WithLabelValues(dataSource, m).Set(v)
	}
}
