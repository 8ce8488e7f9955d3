package config

import (
	"context"
	"fmt"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/dataplane-labs/quality-sync/pkg/logger"
)

// Watcher reloads the configuration when the config file changes and
// notifies registered callbacks with the new value.
type Watcher struct {
	configPath string
	logger     logger.Logger

	mu        sync.RWMutex
	current   *Config
	callbacks []func(*Config)
}

func NewWatcher(configPath string, initial *Config, log logger.Logger) *Watcher {
	return &Watcher{
		configPath: configPath,
		logger:     log,
		current:    initial,
	}
}

// OnChange registers a callback invoked after every successful reload.
func (w *Watcher) OnChange(fn func(*Config)) {
	w.mu.Lock()
	w.callbacks = append(w.callbacks, fn)
	w.mu.Unlock()
}

// Current returns the last successfully loaded configuration.
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Start blocks until ctx is cancelled, reloading on file writes. A reload
// that fails validation keeps the previous config.
func (w *Watcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.configPath); err != nil {
		return fmt.Errorf("failed to watch config file: %w", err)
	}

	w.logger.Info("Configuration watcher started", "configPath", w.configPath)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Write == fsnotify.Write {
				w.logger.Info("Configuration file changed, reloading", "file", event.Name)
				if err := w.reload(); err != nil {
					w.logger.Error("Failed to reload configuration", "error", err)
					continue
				}
				w.notify()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("Configuration watcher error", "error", err)

		case <-ctx.Done():
			w.logger.Info("Configuration watcher stopping")
			return nil
		}
	}
}

func (w *Watcher) reload() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.current = cfg
	w.mu.Unlock()
	return nil
}

func (w *Watcher) notify() {
	w.mu.RLock()
	cfg := w.current
	callbacks := append([]func(*Config)(nil), w.callbacks...)
	w.mu.RUnlock()

	for _, fn := range callbacks {
		fn(cfg)
	}
}
