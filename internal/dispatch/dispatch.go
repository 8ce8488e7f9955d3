package dispatch

import (
	"encoding/json"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/dataplane-labs/quality-sync/internal/config"
	"github.com/dataplane-labs/quality-sync/internal/metrics"
	"github.com/dataplane-labs/quality-sync/internal/models"
	"github.com/dataplane-labs/quality-sync/pkg/logger"
)

// Sender is the transport side of the dispatcher, satisfied by
// transport.Selector.
type Sender interface {
	TrySend(ev models.StreamEvent) bool
}

// Dispatcher turns user actions into stream commands. Commands are
// best-effort and fire-and-forget: while the stream is down they queue
// in a bounded buffer (oldest dropped first) and flush on reconnect.
// Dispatching never blocks and never errors; the only acknowledgment a
// command ever gets is a later server event or snapshot.
type Dispatcher struct {
	sender  Sender
	limiter *rate.Limiter
	logger  logger.Logger

	mu      sync.Mutex
	queue   []models.StreamEvent
	maxSize int
}

func New(cfg config.DispatchConfig, sender Sender, log logger.Logger) *Dispatcher {
	maxSize := cfg.QueueSize
	if maxSize <= 0 {
		maxSize = 32
	}
	perSecond := cfg.RatePerSecond
	if perSecond <= 0 {
		perSecond = 5
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 10
	}
	return &Dispatcher{
		sender:  sender,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
		logger:  log,
		maxSize: maxSize,
	}
}

// RequestPrediction asks the backend to compute a forecast for one
// table/metric pair. The result, if any, arrives as a prediction:ready
// event.
func (d *Dispatcher) RequestPrediction(table, metric string) {
	d.submit(models.CmdRequestPrediction, models.PredictionRequest{
		Table:  table,
		Metric: metric,
	})
}

// ApplyRecommendation applies one recommended action of an active
// alert. The effect is observed through a later alert:resolved event or
// polled snapshot, never through a response.
func (d *Dispatcher) ApplyRecommendation(alertID string, actionIndex int) {
	d.submit(models.CmdApplyRecommendation, models.RecommendationRequest{
		AlertID:     alertID,
		ActionIndex: actionIndex,
	})
}

// Flush retries queued commands. Wire it to the transport's mode
// callback so the queue drains as soon as the stream is back.
func (d *Dispatcher) Flush() {
	d.mu.Lock()
	d.flushLocked()
	d.mu.Unlock()
}

// HandleModeChange is the transport.Selector.OnModeChange hook.
func (d *Dispatcher) HandleModeChange(mode models.ConnectionMode) {
	if mode == models.ModeStreaming {
		d.Flush()
	}
}

// QueueLen reports how many commands are waiting for the stream.
func (d *Dispatcher) QueueLen() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}

func (d *Dispatcher) submit(command string, payload interface{}) {
	raw, err := json.Marshal(payload)
	if err != nil {
		d.logger.Error("failed to marshal command payload", "command", command, "error", err)
		return
	}
	ev := models.StreamEvent{Event: command, Data: raw, Timestamp: time.Now()}

	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.queue) >= d.maxSize {
		dropped := d.queue[0]
		d.queue = d.queue[1:]
		metrics.CommandsDroppedTotal.WithLabelValues(dropped.Event).Inc()
		d.logger.Warn("command queue full, dropping oldest", "command", dropped.Event)
	}
	d.queue = append(d.queue, ev)
	d.flushLocked()
}

// flushLocked drains the queue in order. It stops at the first command
// that cannot go out, either because the limiter is out of tokens or
// the stream is down; whatever remains stays queued for the next
// submit or reconnect.
func (d *Dispatcher) flushLocked() {
	for len(d.queue) > 0 {
		if !d.limiter.Allow() {
			return
		}
		ev := d.queue[0]
		if !d.sender.TrySend(ev) {
			return
		}
		d.queue = d.queue[1:]
		metrics.CommandsSentTotal.WithLabelValues(ev.Event).Inc()
	}
}
