package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestLoad_Defaults(t *testing.T) {
	// Run from a directory without a config file so defaults apply.
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "default", cfg.DataSourceID)
	assert.Equal(t, 5000, cfg.Stream.ConnectTimeout)
	assert.Equal(t, 30, cfg.Polling.Interval)
	assert.Equal(t, 32, cfg.Dispatch.QueueSize)
	assert.Equal(t, 64, cfg.Predictions.Max)
	assert.False(t, cfg.Cache.Enabled)
}

func TestLoad_EnvOverride(t *testing.T) {
	chdirTemp(t)
	t.Setenv("QSYNC_DATA_SOURCE_ID", "warehouse-7")
	t.Setenv("QSYNC_POLLING_INTERVAL", "10")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "warehouse-7", cfg.DataSourceID)
	assert.Equal(t, 10, cfg.Polling.Interval)
}

func TestLoad_FileOverride(t *testing.T) {
	dir := chdirTemp(t)
	file := map[string]any{
		"log_level": "debug",
		"stream":    map[string]any{"url": "wss://quality.example.com/socket.io/"},
	}
	raw, err := yaml.Marshal(file)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), raw, 0o644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "wss://quality.example.com/socket.io/", cfg.Stream.URL)
	// untouched keys keep defaults
	assert.Equal(t, 3, cfg.Backend.Retries)
}

func TestLoad_RejectsBadStreamScheme(t *testing.T) {
	chdirTemp(t)
	t.Setenv("QSYNC_STREAM_URL", "http://not-a-websocket")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ws or wss")
}

func TestWriteSample(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, WriteSample(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var cfg Config
	require.NoError(t, yaml.Unmarshal(raw, &cfg))
	assert.Equal(t, "ws://localhost:3000/socket.io/", cfg.Stream.URL)

	// second write must refuse
	assert.Error(t, WriteSample(path))
}

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
	return dir
}
