package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ProviderConfig configures the comps-data API client. The API key is never
// stored in YAML; it is read from the environment variable named in
// APIKeyEnv at load time.
type ProviderConfig struct {
	BaseURL      string        `yaml:"base_url"`
	APIKeyEnv    string        `yaml:"api_key_env"`
	RPS          float64       `yaml:"rps"`
	Burst        int           `yaml:"burst"`
	TimeoutSecs  int           `yaml:"timeout_secs"`
	CacheTTLSecs int           `yaml:"cache_ttl_secs"`
	Circuit      CircuitConfig `yaml:"circuit"`

	// Resolved at load time, never serialized.
	APIKey string `yaml:"-"`
}

// CircuitConfig configures the provider circuit breaker.
type CircuitConfig struct {
	MaxRequests      uint32 `yaml:"max_requests"`      // half-open probe budget
	IntervalSecs     int    `yaml:"interval_secs"`     // closed-state count window
	TimeoutSecs      int    `yaml:"timeout_secs"`      // open-state cool-down
	FailureThreshold uint32 `yaml:"failure_threshold"` // consecutive failures to trip
}

// RedisConfig locates the response cache. An empty address disables caching.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// PostgresConfig locates the audit-run archive. An empty DSN disables
// persistence.
type PostgresConfig struct {
	DSN         string `yaml:"dsn"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// AlertsConfig configures chat-webhook delivery of run summaries.
type AlertsConfig struct {
	WebhookURL  string `yaml:"webhook_url"`
	TimeoutSecs int    `yaml:"timeout_secs"`
	Enabled     bool   `yaml:"enabled"`
}

// AppConfig is the full runtime configuration for one deployment.
type AppConfig struct {
	Provider ProviderConfig `yaml:"provider"`
	Redis    RedisConfig    `yaml:"redis"`
	Postgres PostgresConfig `yaml:"postgres"`
	Alerts   AlertsConfig   `yaml:"alerts"`
	Monitor  MonitorConfig  `yaml:"monitor"`
}

// MonitorConfig configures the health/metrics HTTP server.
type MonitorConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// DefaultAppConfig returns a runnable local configuration with no secrets.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		Provider: ProviderConfig{
			BaseURL:      "https://api.comps.example.com/v1",
			APIKeyEnv:    "REVPILOT_API_KEY",
			RPS:          4,
			Burst:        8,
			TimeoutSecs:  15,
			CacheTTLSecs: 900,
			Circuit: CircuitConfig{
				MaxRequests:      3,
				IntervalSecs:     60,
				TimeoutSecs:      30,
				FailureThreshold: 5,
			},
		},
		Postgres: PostgresConfig{TimeoutSecs: 5},
		Alerts:   AlertsConfig{TimeoutSecs: 10},
		Monitor:  MonitorConfig{ListenAddr: ":8089"},
	}
}

// LoadAppConfig reads the YAML runtime config and resolves secrets from the
// environment. An empty path returns the defaults.
func LoadAppConfig(path string) (AppConfig, error) {
	cfg := DefaultAppConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read app config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse app config: %w", err)
		}
	}

	if cfg.Provider.APIKeyEnv != "" {
		cfg.Provider.APIKey = os.Getenv(cfg.Provider.APIKeyEnv)
	}
	if cfg.Provider.BaseURL == "" {
		return cfg, fmt.Errorf("provider base_url is required")
	}
	return cfg, nil
}
