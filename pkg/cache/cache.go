package cache

import (
	"context"
	"time"
)

// SnapshotCache stores the last known quality summary per scope so a
// restarted client has data before its first fetch, and carries the
// pub/sub channel used for cross-process change notifications.
type SnapshotCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error

	// Publish delivers msg to every subscriber of channel, at least once.
	Publish(ctx context.Context, channel string, msg string) error
	// Subscribe returns a receive channel for messages on channel and a
	// cancel function releasing the subscription.
	Subscribe(ctx context.Context, channel string) (<-chan string, func(), error)
}
