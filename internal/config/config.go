// Package config provides configuration loading and validation for the
// oblivious SRP service.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the osrpd service configuration.
type Config struct {
	Service   ServiceSettings   `yaml:"service"`
	RateLimit RateLimitSettings `yaml:"rate_limit"`
	OPRF      OPRFSettings      `yaml:"oprf"`
	Transport TransportSettings `yaml:"transport"`
	Logging   LoggingSettings   `yaml:"logging"`
}

// ServiceSettings contains service-level configuration.
type ServiceSettings struct {
	ListenAddress string `yaml:"listen_address"`
	ListenPort    int    `yaml:"listen_port"`
	DatabasePath  string `yaml:"database_path"`
	SessionTTL    string `yaml:"session_ttl"`
	LoginTTL      string `yaml:"login_ttl"`
	TLSCert       string `yaml:"tls_cert,omitempty"`
	TLSKey        string `yaml:"tls_key,omitempty"`
}

// RateLimitSettings configures the per-username OPRF evaluation budget.
type RateLimitSettings struct {
	WindowMS    int64 `yaml:"window_ms"`
	MaxRequests int   `yaml:"max_requests"`
}

// OPRFSettings configures the OPRF evaluator key.
type OPRFSettings struct {
	// PrivateKeyFile optionally points at an externally managed key;
	// when empty a fresh key is generated at startup. Rotating the key
	// invalidates every stored verifier.
	PrivateKeyFile string `yaml:"private_key_file,omitempty"`
}

// TransportSettings configures the per-IP HTTP rate limiter. This is a
// transport concern, distinct from the protocol's per-username budget.
type TransportSettings struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// LoggingSettings contains logging configuration.
type LoggingSettings struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads and parses the configuration file.
//
//nolint:gosec // G304: Config path is from command-line argument
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Default returns a configuration with working defaults for every field
// a deployment may omit.
func Default() *Config {
	return &Config{
		Service: ServiceSettings{
			ListenAddress: "127.0.0.1",
			ListenPort:    8470,
			DatabasePath:  "/var/lib/osrpd/osrp.db",
			SessionTTL:    "30m",
			LoginTTL:      "2m",
		},
		RateLimit: RateLimitSettings{
			WindowMS:    60000,
			MaxRequests: 3,
		},
		Transport: TransportSettings{
			RequestsPerSecond: 5,
			Burst:             10,
		},
		Logging: LoggingSettings{
			Level:  "info",
			Format: "json",
		},
	}
}

// validate performs basic validation on the configuration.
func (c *Config) validate() error {
	if c.Service.ListenPort <= 0 || c.Service.ListenPort > 65535 {
		return fmt.Errorf("service.listen_port must be between 1 and 65535")
	}
	if c.Service.DatabasePath == "" {
		return fmt.Errorf("service.database_path is required")
	}
	if c.RateLimit.WindowMS <= 0 {
		return fmt.Errorf("rate_limit.window_ms must be positive")
	}
	if c.RateLimit.MaxRequests <= 0 {
		return fmt.Errorf("rate_limit.max_requests must be positive")
	}
	if (c.Service.TLSCert == "") != (c.Service.TLSKey == "") {
		return fmt.Errorf("service.tls_cert and service.tls_key must be set together")
	}
	if _, err := c.GetSessionTTL(); err != nil {
		return err
	}
	if _, err := c.GetLoginTTL(); err != nil {
		return err
	}
	return nil
}

// GetSessionTTL parses and returns the session token TTL.
func (c *Config) GetSessionTTL() (time.Duration, error) {
	d, err := time.ParseDuration(c.Service.SessionTTL)
	if err != nil {
		return 0, fmt.Errorf("invalid session_ttl: %w", err)
	}
	if d < time.Minute {
		return 0, fmt.Errorf("session_ttl must be at least 1 minute")
	}
	return d, nil
}

// GetLoginTTL parses and returns the pending-login TTL.
func (c *Config) GetLoginTTL() (time.Duration, error) {
	d, err := time.ParseDuration(c.Service.LoginTTL)
	if err != nil {
		return 0, fmt.Errorf("invalid login_ttl: %w", err)
	}
	if d < 10*time.Second {
		return 0, fmt.Errorf("login_ttl must be at least 10 seconds")
	}
	return d, nil
}

// RateWindow returns the OPRF rate window as a duration.
func (c *Config) RateWindow() time.Duration {
	return time.Duration(c.RateLimit.WindowMS) * time.Millisecond
}

// Address returns the listen address in host:port form.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Service.ListenAddress, c.Service.ListenPort)
}
