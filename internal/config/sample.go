package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SampleConfig returns a fully populated config with default values,
// suitable for writing out as a starting config.yaml.
func SampleConfig() *Config {
	return &Config{
		Environment:  "development",
		LogLevel:     "info",
		DataSourceID: "default",
		Backend: BackendConfig{
			BaseURL:   "http://localhost:3000",
			Timeout:   10000,
			Retries:   3,
			BackoffMS: 1000,
		},
		Stream: StreamConfig{
			URL:               "ws://localhost:3000/socket.io/",
			ConnectTimeout:    5000,
			ReconnectAttempts: 5,
			ReconnectMaxWait:  30000,
			PingInterval:      30,
			ReadBufferSize:    1024,
			WriteBufferSize:   1024,
			MaxMessageSize:    1048576,
		},
		Polling:     PollingConfig{Interval: 30},
		Dispatch:    DispatchConfig{QueueSize: 32, RatePerSecond: 10, Burst: 5},
		Predictions: PredictionsConfig{Max: 64},
		Cache:       CacheConfig{Enabled: false, Addr: "localhost:6379", TTL: 300},
		Export:      ExportConfig{Dir: "."},
		Monitoring: MonitoringConfig{
			Enabled:      true,
			ListenAddr:   ":9464",
			MetricsPath:  "/metrics",
			OTLPEndpoint: "localhost:4317",
		},
	}
}

// WriteSample marshals the sample config to YAML at path. Refuses to
// overwrite an existing file.
func WriteSample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("refusing to overwrite existing config at %s", path)
	}
	out, err := yaml.Marshal(SampleConfig())
	if err != nil {
		return fmt.Errorf("marshal sample config: %w", err)
	}
	header := []byte("# quality-sync configuration\n# Values can be overridden with QSYNC_* environment variables.\n\n")
	return os.WriteFile(path, append(header, out...), 0o644)
}
