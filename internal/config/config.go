package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	ProviderA  ProviderAConfig  `yaml:"provider_a"`
	ProviderB  ProviderBConfig  `yaml:"provider_b"`
	Webhook    WebhookConfig    `yaml:"webhook"`
	Sync       SyncConfig       `yaml:"sync"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	ServiceKey string           `yaml:"service_key"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// GetHost returns the server host, with ECS-style container detection.
func (c ServerConfig) GetHost() string {
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// DatabaseConfig holds the Postgres connection string for the unified store.
type DatabaseConfig struct {
	URL             string `yaml:"url"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifeMins int    `yaml:"conn_max_life_minutes"`
}

// RedisConfig holds the connection details for the rate limiter and
// distributed lock backend.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// ProviderAConfig holds Provider A API configuration.
type ProviderAConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the configured HTTP client timeout.
func (c ProviderAConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ProviderBConfig holds Provider B API configuration.
type ProviderBConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the configured HTTP client timeout.
func (c ProviderBConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// WebhookConfig holds per-provider webhook signature secrets.
type WebhookConfig struct {
	ProviderASecret string `yaml:"provider_a_secret"`
	ProviderBSecret string `yaml:"provider_b_secret"`
}

// SyncConfig holds batch-loop tuning knobs.
type SyncConfig struct {
	ProviderABudgetSeconds int `yaml:"provider_a_budget_seconds"`
	ProviderBBudgetSeconds int `yaml:"provider_b_budget_seconds"`
	ProviderAMaxBatches    int `yaml:"provider_a_max_batches"`
	ProviderBMaxBatches    int `yaml:"provider_b_max_batches"`
	HeartbeatEvery         int `yaml:"heartbeat_every"`
}

// SchedulerConfig holds the periodic-trigger worker's polling interval.
type SchedulerConfig struct {
	PollIntervalSeconds int    `yaml:"poll_interval_seconds"`
	SelfBaseURL         string `yaml:"self_base_url"`
}

// Load reads and parses the YAML configuration file, applying defaults for
// anything left unset.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifeMins == 0 {
		cfg.Database.ConnMaxLifeMins = 5
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.ProviderA.TimeoutSeconds == 0 {
		cfg.ProviderA.TimeoutSeconds = 30
	}
	if cfg.ProviderB.TimeoutSeconds == 0 {
		cfg.ProviderB.TimeoutSeconds = 30
	}
	if cfg.Sync.ProviderABudgetSeconds == 0 {
		cfg.Sync.ProviderABudgetSeconds = 50
	}
	if cfg.Sync.ProviderBBudgetSeconds == 0 {
		cfg.Sync.ProviderBBudgetSeconds = 55
	}
	if cfg.Sync.ProviderAMaxBatches == 0 {
		cfg.Sync.ProviderAMaxBatches = 100
	}
	if cfg.Sync.ProviderBMaxBatches == 0 {
		cfg.Sync.ProviderBMaxBatches = 250
	}
	if cfg.Sync.HeartbeatEvery == 0 {
		cfg.Sync.HeartbeatEvery = 5
	}
	if cfg.Scheduler.PollIntervalSeconds == 0 {
		cfg.Scheduler.PollIntervalSeconds = 60
	}
	if cfg.Scheduler.SelfBaseURL == "" {
		cfg.Scheduler.SelfBaseURL = "http://localhost:8080"
	}
}

// LoadFromEnv loads the YAML config and then applies environment-variable
// overrides. It loads a local .env file first (no error if missing) so
// secrets can live outside version control in development.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("SUPABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	// SUPABASE_SERVICE_ROLE_KEY and SUPABASE_ANON_KEY are not read:
	// Config has no field for either, and the storage layer connects with
	// the DSN in Database.URL alone.
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("PROVIDER_A_API_KEY"); v != "" {
		cfg.ProviderA.APIKey = v
	}
	if v := os.Getenv("PROVIDER_A_BASE_URL"); v != "" {
		cfg.ProviderA.BaseURL = v
	}
	if v := os.Getenv("PROVIDER_B_API_KEY"); v != "" {
		cfg.ProviderB.APIKey = v
	}
	if v := os.Getenv("PROVIDER_B_BASE_URL"); v != "" {
		cfg.ProviderB.BaseURL = v
	}
	if v := os.Getenv("PROVIDER_A_WEBHOOK_SECRET"); v != "" {
		cfg.Webhook.ProviderASecret = v
	}
	if v := os.Getenv("PROVIDER_B_WEBHOOK_SECRET"); v != "" {
		cfg.Webhook.ProviderBSecret = v
	}
	if v := os.Getenv("INTERNAL_SERVICE_KEY"); v != "" {
		cfg.ServiceKey = v
	}
	if v := os.Getenv("SELF_BASE_URL"); v != "" {
		cfg.Scheduler.SelfBaseURL = v
	}

	return cfg, nil
}
