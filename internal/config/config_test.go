package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 2, cfg.Workers.Count)
	assert.Equal(t, 300*time.Second, cfg.Workers.JobTimeoutDuration())
	assert.False(t, cfg.NATS.Enabled)
	assert.False(t, cfg.Valkey.Enabled)
	assert.Equal(t, "polyplanner", cfg.Telemetry.ServiceName)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("POLYPLANNER_SERVER_PORT", "9090")
	t.Setenv("POLYPLANNER_WORKERS_COUNT", "8")
	t.Setenv("POLYPLANNER_NATS_ENABLED", "true")
	t.Setenv("POLYPLANNER_TERRAIN_SOURCE_URL", "http://elevation.local")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 8, cfg.Workers.Count)
	assert.True(t, cfg.NATS.Enabled)
	assert.Equal(t, "http://elevation.local", cfg.Terrain.SourceURL)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "service.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 7070\nvalkey:\n  enabled: true\n  job_ttl: 60\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.True(t, cfg.Valkey.Enabled)
	assert.Equal(t, 60, cfg.Valkey.JobTTL)
	assert.Equal(t, "localhost:6379", cfg.Valkey.Addr)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidateCollectsErrors(t *testing.T) {
	cfg := Config{
		Server:  ServerConfig{Port: 0, ReadTimeout: 1, WriteTimeout: 1, BodyLimit: 1},
		Log:     LogConfig{Format: "xml"},
		Workers: WorkersConfig{Count: 0, QueueSize: 1},
		NATS:    NATSConfig{Enabled: true},
	}
	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"server.port", "log.format", "workers.count", "nats.url"} {
		assert.Contains(t, err.Error(), want)
	}
}
