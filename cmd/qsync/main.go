package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dataplane-labs/quality-sync/internal/config"
	"github.com/dataplane-labs/quality-sync/internal/export"
	"github.com/dataplane-labs/quality-sync/internal/restapi"
	"github.com/dataplane-labs/quality-sync/internal/search"
	"github.com/dataplane-labs/quality-sync/internal/syncer"
	"github.com/dataplane-labs/quality-sync/internal/tracing"
	"github.com/dataplane-labs/quality-sync/internal/tui"
	"github.com/dataplane-labs/quality-sync/pkg/cache"
	"github.com/dataplane-labs/quality-sync/pkg/logger"
)

const version = "v0.3.0"

func main() {
	var (
		headless   = flag.Bool("headless", false, "run without the terminal UI, sync and serve metrics only")
		scope      = flag.String("data-source", "", "data source id to watch (overrides config)")
		initConfig = flag.String("init-config", "", "write a sample config file to the given path and exit")
	)
	flag.Parse()

	if *initConfig != "" {
		if err := config.WriteSample(*initConfig); err != nil {
			log.Fatalf("Failed to write sample config: %v", err)
		}
		fmt.Println("sample config written to", *initConfig)
		return
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *scope != "" {
		cfg.DataSourceID = *scope
	}
	if cfg.DataSourceID == "" {
		log.Fatal("no data source configured; set data_source_id or pass -data-source")
	}

	// Initialize logger
	logger := logger.New(cfg.LogLevel)
	logger.Info("Starting quality-sync", "version", version, "environment", cfg.Environment, "dataSource", cfg.DataSourceID)

	// Optional tracing
	if cfg.Monitoring.TracingEnabled {
		tp, err := tracing.NewTracerProvider("quality-sync", version, cfg.Monitoring.OTLPEndpoint)
		if err != nil {
			logger.Warn("Tracing disabled", "error", err)
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = tp.Shutdown(shutdownCtx)
			}()
			logger.Info("Tracing initialized", "endpoint", cfg.Monitoring.OTLPEndpoint)
		}
	}

	// Snapshot cache: Valkey when configured, in-process otherwise
	var snapCache cache.SnapshotCache
	if cfg.Cache.Enabled {
		snapCache, err = cache.NewValkey(cfg.Cache.Addr, cfg.Cache.Password, cfg.Cache.DB,
			time.Duration(cfg.Cache.TTL)*time.Second, logger)
		if err != nil {
			logger.Warn("Valkey unreachable, using in-process cache", "error", err)
			snapCache = cache.NewMemory(logger)
		}
	} else {
		snapCache = cache.NewMemory(logger)
	}

	// Hot-reload the config file when one is present. Reloaded values
	// apply to pipelines acquired after the change.
	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	if _, statErr := os.Stat("config.yaml"); statErr == nil {
		watcher := config.NewWatcher("config.yaml", cfg, logger)
		watcher.OnChange(func(next *config.Config) {
			logger.Info("Configuration reloaded", "logLevel", next.LogLevel, "pollingInterval", next.Polling.Interval)
		})
		go func() {
			if err := watcher.Start(watchCtx); err != nil {
				logger.Error("Configuration watcher failed", "error", err)
			}
		}()
	}

	rest := restapi.NewClient(cfg.Backend, logger)
	manager := syncer.NewManager(*cfg, rest, snapCache, logger)
	defer manager.Close()

	// Metrics listener
	if cfg.Monitoring.Enabled {
		mux := http.NewServeMux()
		mux.Handle(cfg.Monitoring.MetricsPath, promhttp.Handler())
		go func() {
			logger.Info("Metrics listener started", "addr", cfg.Monitoring.ListenAddr, "path", cfg.Monitoring.MetricsPath)
			if err := http.ListenAndServe(cfg.Monitoring.ListenAddr, mux); err != nil {
				logger.Error("Metrics listener failed", "error", err)
			}
		}()
	}

	handle := manager.Acquire(cfg.DataSourceID)
	defer handle.Release()

	if *headless {
		runHeadless(logger)
		return
	}

	index, err := search.NewAlertIndex(logger)
	if err != nil {
		logger.Fatal("Failed to create alert index", "error", err)
	}

	exporter := export.NewWriter(cfg.Export, logger)
	program := tea.NewProgram(tui.New(handle, index, rest, exporter, logger), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		logger.Fatal("UI failed", "error", err)
	}

	logger.Info("quality-sync shutdown complete")
}

// runHeadless keeps the sync pipeline alive until a shutdown signal.
// The projector state is observable through the metrics listener.
func runHeadless(log logger.Logger) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Info("Shutdown signal received")
}
