package notify

import (
	"context"
	"fmt"

	"github.com/dataplane-labs/quality-sync/pkg/cache"
	"github.com/dataplane-labs/quality-sync/pkg/logger"
)

const piiConfigChannel = "qsync:pii-config"

// Notifier tells other running views that PII rule configuration
// changed so they refresh their rule state. Delivery is at-least-once
// and carries no payload beyond the signal itself.
type Notifier struct {
	bus    cache.SnapshotCache
	logger logger.Logger
}

func New(bus cache.SnapshotCache, log logger.Logger) *Notifier {
	return &Notifier{bus: bus, logger: log}
}

// NotifyPIIConfigUpdate broadcasts the change signal. Call it after any
// successful PII classify or rule create.
func (n *Notifier) NotifyPIIConfigUpdate(ctx context.Context) error {
	if err := n.bus.Publish(ctx, piiConfigChannel, "changed"); err != nil {
		return fmt.Errorf("failed to broadcast pii config update: %w", err)
	}
	n.logger.Debug("pii config update broadcast")
	return nil
}

// OnPIIConfigUpdate invokes fn for every change signal until the
// returned cancel function is called or ctx ends.
func (n *Notifier) OnPIIConfigUpdate(ctx context.Context, fn func()) (func(), error) {
	msgs, cancel, err := n.bus.Subscribe(ctx, piiConfigChannel)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to pii config updates: %w", err)
	}

	go func() {
		for {
			select {
			case _, ok := <-msgs:
				if !ok {
					return
				}
				fn()
			case <-ctx.Done():
				return
			}
		}
	}()
	return cancel, nil
}
