package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all configuration for the globe server
type Config struct {
	// Server configuration
	HTTPPort  int    `env:"GLOBE_HTTP_PORT" envDefault:"8080"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	StaticDir string `env:"GLOBE_STATIC_DIR" envDefault:"."`

	// Grafana query proxy configuration
	Grafana GrafanaConfig

	// Timeouts
	Timeouts TimeoutConfig
}

// GrafanaConfig holds the Grafana datasource proxy configuration
type GrafanaConfig struct {
	URL      string `env:"GRAFANA_URL"`
	User     string `env:"GRAFANA_USER" envDefault:"admin"`
	Password string `env:"GRAFANA_PASS"`

	DatasourceUID  string `env:"GRAFANA_DATASOURCE_UID"`
	DatasourceType string `env:"GRAFANA_DATASOURCE_TYPE" envDefault:"grafana-clickhouse-datasource"`

	Timeout            time.Duration `env:"GRAFANA_TIMEOUT" envDefault:"30s"`
	InsecureSkipVerify bool          `env:"GRAFANA_INSECURE_SKIP_VERIFY" envDefault:"true"`
}

// TimeoutConfig holds various timeout configurations
type TimeoutConfig struct {
	ShutdownTimeout time.Duration `env:"TIMEOUT_SHUTDOWN" envDefault:"10s"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server port
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}

	// Validate Grafana config
	if c.Grafana.URL == "" {
		return fmt.Errorf("grafana URL is required")
	}
	u, err := url.Parse(c.Grafana.URL)
	if err != nil {
		return fmt.Errorf("invalid grafana URL: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid grafana URL: %s (must be an absolute http or https URL)", c.Grafana.URL)
	}
	if c.Grafana.Password == "" {
		return fmt.Errorf("grafana password is required")
	}
	if c.Grafana.DatasourceUID == "" {
		return fmt.Errorf("grafana datasource UID is required")
	}
	if c.Grafana.Timeout <= 0 {
		return fmt.Errorf("grafana timeout must be positive, got %s", c.Grafana.Timeout)
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
