package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/dataplane-labs/quality-sync/pkg/logger"
)

// memoryCache is a process-local fallback satisfying SnapshotCache when no
// external cache is configured. Best-effort: nothing is shared across
// processes and everything is lost on restart. Pub/sub still works within
// the process, which is what the single-binary dashboard needs.
type memoryCache struct {
	mu     sync.RWMutex
	m      map[string]memoryEntry
	subs   map[string][]chan string
	logger logger.Logger
}

type memoryEntry struct {
	data    []byte
	expires time.Time
}

func NewMemory(log logger.Logger) SnapshotCache {
	return &memoryCache{
		m:      make(map[string]memoryEntry),
		subs:   make(map[string][]chan string),
		logger: log,
	}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if !ok || (!e.expires.IsZero() && time.Now().After(e.expires)) {
		return nil, fmt.Errorf("key not found: %s", key)
	}
	return e.data, nil
}

func (c *memoryCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		jb, err := json.Marshal(v)
		if err != nil {
			return err
		}
		b = jb
	}
	var expires time.Time
	if ttl > 0 {
		expires = time.Now().Add(ttl)
	}
	c.mu.Lock()
	c.m[key] = memoryEntry{data: b, expires: expires}
	c.mu.Unlock()
	return nil
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.m, key)
	c.mu.Unlock()
	return nil
}

func (c *memoryCache) Publish(_ context.Context, channel string, msg string) error {
	c.mu.RLock()
	subs := append([]chan string(nil), c.subs[channel]...)
	c.mu.RUnlock()
	for _, ch := range subs {
		select {
		case ch <- msg:
		default:
			// Slow subscriber; delivery is at-least-once for listeners
			// keeping up, not a durable queue.
		}
	}
	return nil
}

func (c *memoryCache) Subscribe(_ context.Context, channel string) (<-chan string, func(), error) {
	ch := make(chan string, 8)
	c.mu.Lock()
	c.subs[channel] = append(c.subs[channel], ch)
	c.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			c.mu.Lock()
			subs := c.subs[channel]
			for i, s := range subs {
				if s == ch {
					c.subs[channel] = append(subs[:i], subs[i+1:]...)
					break
				}
			}
			c.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel, nil
}
