package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/viper"
)

// Load loads configuration with priority order:
// 1. Environment variables (QSYNC_*)
// 2. Configuration file (config.yaml)
// 3. Default values
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/quality-sync/")
	v.AddConfigPath("./configs/")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("QSYNC")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - continue with env vars and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("data_source_id", "default")

	// Backend defaults
	v.SetDefault("backend.base_url", "http://localhost:3000")
	v.SetDefault("backend.timeout", 10000)
	v.SetDefault("backend.retries", 3)
	v.SetDefault("backend.backoff_ms", 1000)

	// Stream defaults; the 5s connect timeout and 30s poll interval match
	// the reference dashboard behavior.
	v.SetDefault("stream.url", "ws://localhost:3000/socket.io/")
	v.SetDefault("stream.connect_timeout", 5000)
	v.SetDefault("stream.reconnect_attempts", 5)
	v.SetDefault("stream.reconnect_max_wait", 30000)
	v.SetDefault("stream.ping_interval", 30)
	v.SetDefault("stream.read_buffer_size", 1024)
	v.SetDefault("stream.write_buffer_size", 1024)
	v.SetDefault("stream.max_message_size", 1048576) // 1MB

	v.SetDefault("polling.interval", 30)

	v.SetDefault("dispatch.queue_size", 32)
	v.SetDefault("dispatch.rate_per_second", 10.0)
	v.SetDefault("dispatch.burst", 5)

	v.SetDefault("predictions.max", 64)

	// Cache defaults (disabled unless an addr is configured)
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.addr", "localhost:6379")
	v.SetDefault("cache.ttl", 300)
	v.SetDefault("cache.db", 0)

	v.SetDefault("export.dir", ".")

	v.SetDefault("monitoring.enabled", true)
	v.SetDefault("monitoring.listen_addr", ":9464")
	v.SetDefault("monitoring.metrics_path", "/metrics")
	v.SetDefault("monitoring.tracing_enabled", false)
	v.SetDefault("monitoring.otlp_endpoint", "localhost:4317")
}

func validateConfig(c *Config) error {
	if c.DataSourceID == "" {
		return fmt.Errorf("data_source_id must not be empty")
	}
	if _, err := url.Parse(c.Backend.BaseURL); err != nil || c.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url %q is not a valid URL", c.Backend.BaseURL)
	}
	u, err := url.Parse(c.Stream.URL)
	if err != nil || u.Scheme == "" {
		return fmt.Errorf("stream.url %q is not a valid URL", c.Stream.URL)
	}
	switch u.Scheme {
	case "ws", "wss":
	default:
		return fmt.Errorf("stream.url scheme %q must be ws or wss", u.Scheme)
	}
	if c.Stream.ConnectTimeout <= 0 {
		return fmt.Errorf("stream.connect_timeout must be positive")
	}
	if c.Polling.Interval <= 0 {
		return fmt.Errorf("polling.interval must be positive")
	}
	if c.Dispatch.QueueSize < 0 {
		return fmt.Errorf("dispatch.queue_size must not be negative")
	}
	if c.Predictions.Max <= 0 {
		return fmt.Errorf("predictions.max must be positive")
	}
	return nil
}
