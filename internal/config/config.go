package config

type Config struct {
	Environment  string `mapstructure:"environment" yaml:"environment"`
	LogLevel     string `mapstructure:"log_level" yaml:"log_level"`
	DataSourceID string `mapstructure:"data_source_id" yaml:"data_source_id"`

	Backend     BackendConfig     `mapstructure:"backend" yaml:"backend"`
	Stream      StreamConfig      `mapstructure:"stream" yaml:"stream"`
	Polling     PollingConfig     `mapstructure:"polling" yaml:"polling"`
	Dispatch    DispatchConfig    `mapstructure:"dispatch" yaml:"dispatch"`
	Predictions PredictionsConfig `mapstructure:"predictions" yaml:"predictions"`
	Cache       CacheConfig       `mapstructure:"cache" yaml:"cache"`
	Export      ExportConfig      `mapstructure:"export" yaml:"export"`
	Monitoring  MonitoringConfig  `mapstructure:"monitoring" yaml:"monitoring"`
}

// BackendConfig covers the quality backend's REST surface.
type BackendConfig struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	// BearerToken is attached as-is to the Authorization header. The token
	// is opaque to this client.
	BearerToken string `mapstructure:"bearer_token" yaml:"bearer_token"`
	Timeout     int    `mapstructure:"timeout" yaml:"timeout"` // milliseconds
	Retries     int    `mapstructure:"retries" yaml:"retries"`
	BackoffMS   int    `mapstructure:"backoff_ms" yaml:"backoff_ms"`
}

// StreamConfig covers the websocket channel.
type StreamConfig struct {
	URL               string `mapstructure:"url" yaml:"url"`
	ConnectTimeout    int    `mapstructure:"connect_timeout" yaml:"connect_timeout"` // milliseconds
	ReconnectAttempts int    `mapstructure:"reconnect_attempts" yaml:"reconnect_attempts"`
	ReconnectMaxWait  int    `mapstructure:"reconnect_max_wait" yaml:"reconnect_max_wait"` // milliseconds
	PingInterval      int    `mapstructure:"ping_interval" yaml:"ping_interval"`           // seconds
	ReadBufferSize    int    `mapstructure:"read_buffer_size" yaml:"read_buffer_size"`
	WriteBufferSize   int    `mapstructure:"write_buffer_size" yaml:"write_buffer_size"`
	MaxMessageSize    int64  `mapstructure:"max_message_size" yaml:"max_message_size"`
}

type PollingConfig struct {
	Interval int `mapstructure:"interval" yaml:"interval"` // seconds
}

type DispatchConfig struct {
	QueueSize     int     `mapstructure:"queue_size" yaml:"queue_size"`
	RatePerSecond float64 `mapstructure:"rate_per_second" yaml:"rate_per_second"`
	Burst         int     `mapstructure:"burst" yaml:"burst"`
}

type PredictionsConfig struct {
	// Max bounds the forecasts held per scope; oldest key is evicted.
	Max int `mapstructure:"max" yaml:"max"`
}

// CacheConfig handles the optional Valkey/Redis warm-start cache and the
// PII config-change pub/sub channel.
type CacheConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Addr     string `mapstructure:"addr" yaml:"addr"`
	Password string `mapstructure:"password" yaml:"password"`
	DB       int    `mapstructure:"db" yaml:"db"`
	TTL      int    `mapstructure:"ttl" yaml:"ttl"` // seconds
}

type ExportConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// MonitoringConfig handles self-monitoring of the sync client.
type MonitoringConfig struct {
	Enabled        bool   `mapstructure:"enabled" yaml:"enabled"`
	ListenAddr     string `mapstructure:"listen_addr" yaml:"listen_addr"`
	MetricsPath    string `mapstructure:"metrics_path" yaml:"metrics_path"`
	TracingEnabled bool   `mapstructure:"tracing_enabled" yaml:"tracing_enabled"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint" yaml:"otlp_endpoint"`
}
