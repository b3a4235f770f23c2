package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
server:
  port: 9090
  host: "0.0.0.0"

database:
  url: "postgres://test/test"
  max_open_conns: 10
  max_idle_conns: 2
  conn_max_life_minutes: 3

redis:
  addr: "redis:6379"
  db: 1

provider_a:
  base_url: "https://a.example.com"
  timeout_seconds: 20

provider_b:
  base_url: "https://b.example.com"
  timeout_seconds: 25

sync:
  provider_a_budget_seconds: 40
  provider_b_budget_seconds: 45
  provider_a_max_batches: 50
  provider_b_max_batches: 75
  heartbeat_every: 3

scheduler:
  poll_interval_seconds: 30
  self_base_url: "http://self:8080"

service_key: "file-key"
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "postgres://test/test", cfg.Database.URL)
	assert.Equal(t, 10, cfg.Database.MaxOpenConns)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 1, cfg.Redis.DB)
	assert.Equal(t, "https://a.example.com", cfg.ProviderA.BaseURL)
	assert.Equal(t, 20*1000000000, int(cfg.ProviderA.Timeout().Nanoseconds()))
	assert.Equal(t, 75, cfg.Sync.ProviderBMaxBatches)
	assert.Equal(t, "http://self:8080", cfg.Scheduler.SelfBaseURL)
	assert.Equal(t, "file-key", cfg.ServiceKey)
}

func TestLoadDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	err := os.WriteFile(configPath, []byte("service_key: \"k\"\n"), 0644)
	require.NoError(t, err)

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, 5, cfg.Database.MaxIdleConns)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 30, cfg.ProviderA.TimeoutSeconds)
	assert.Equal(t, 50, cfg.Sync.ProviderABudgetSeconds)
	assert.Equal(t, 55, cfg.Sync.ProviderBBudgetSeconds)
	assert.Equal(t, 100, cfg.Sync.ProviderAMaxBatches)
	assert.Equal(t, 250, cfg.Sync.ProviderBMaxBatches)
	assert.Equal(t, 5, cfg.Sync.HeartbeatEvery)
	assert.Equal(t, 60, cfg.Scheduler.PollIntervalSeconds)
	assert.Equal(t, "http://localhost:8080", cfg.Scheduler.SelfBaseURL)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	err := os.WriteFile(configPath, []byte(`
database:
  url: "file-dsn"
provider_a:
  base_url: "file-a-url"
service_key: "file-key"
`), 0644)
	require.NoError(t, err)

	os.Setenv("DATABASE_URL", "env-dsn")
	os.Setenv("PROVIDER_A_BASE_URL", "env-a-url")
	os.Setenv("INTERNAL_SERVICE_KEY", "env-key")
	defer func() {
		os.Unsetenv("DATABASE_URL")
		os.Unsetenv("PROVIDER_A_BASE_URL")
		os.Unsetenv("INTERNAL_SERVICE_KEY")
	}()

	cfg, err := LoadFromEnv(configPath)
	require.NoError(t, err)

	assert.Equal(t, "env-dsn", cfg.Database.URL)
	assert.Equal(t, "env-a-url", cfg.ProviderA.BaseURL)
	assert.Equal(t, "env-key", cfg.ServiceKey)
}

func TestLoadFileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	assert.Error(t, err)
}
