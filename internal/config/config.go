// Package config handles loading and validating the application configuration
// from YAML files with environment variable substitution.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	domain "github.com/donaldgifford/rulesync/pkg/types"
)

// Config is the top-level application configuration.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Backends      []BackendConfig     `yaml:"backends"`
	Polling       PollingConfig       `yaml:"polling"`
	Audit         AuditConfig         `yaml:"audit"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Logging       LoggingConfig       `yaml:"logging"`
	Tracing       TracingConfig       `yaml:"tracing"`
}

// ServerConfig defines the Echo HTTP server settings.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// DatabaseConfig defines PostgreSQL connection settings. An empty host keeps
// wait history and audit runs in memory.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
	PoolSize int    `yaml:"pool_size"`
}

// Enabled reports whether a PostgreSQL database is configured.
func (d *DatabaseConfig) Enabled() bool {
	return d.Host != ""
}

// DSN returns a PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		d.Host, d.Port, d.Name, d.User, d.Password, d.SSLMode,
	)
}

// BackendConfig pairs a ruler (definition store) with a Prometheus-compatible
// rules API (runtime-state store) under one source name.
type BackendConfig struct {
	Name                 string          `yaml:"name"`
	Default              bool            `yaml:"default"`
	RulerURL             string          `yaml:"ruler_url"`
	RulerPathPrefix      string          `yaml:"ruler_path_prefix"`
	PrometheusURL        string          `yaml:"prometheus_url"`
	PrometheusPathPrefix string          `yaml:"prometheus_path_prefix"`
	Tenant               string          `yaml:"tenant"`
	Timeout              time.Duration   `yaml:"timeout"`
	RateLimit            RateLimitConfig `yaml:"rate_limit"`
	Auth                 AuthConfig      `yaml:"auth"`
}

// RateLimitConfig defines per-backend request rate limiting. A zero
// PerSecond disables limiting.
type RateLimitConfig struct {
	PerSecond float64 `yaml:"per_second"`
	Burst     int     `yaml:"burst"`
}

// AuthConfig defines how requests to a backend authenticate. BearerToken and
// OAuth take precedence over basic auth.
type AuthConfig struct {
	BearerToken string      `yaml:"bearer_token"`
	Username    string      `yaml:"username"`
	Password    string      `yaml:"password"`
	OAuth       OAuthConfig `yaml:"oauth"`
}

// OAuthConfig defines OAuth2 client-credentials settings.
type OAuthConfig struct {
	TokenURL     string   `yaml:"token_url"`
	ClientID     string   `yaml:"client_id"`
	ClientSecret string   `yaml:"client_secret"`
	Scopes       []string `yaml:"scopes"`
}

// Enabled reports whether OAuth is configured.
func (o *OAuthConfig) Enabled() bool {
	return o.TokenURL != ""
}

// PollingConfig defines consistency and existence polling.
type PollingConfig struct {
	Interval time.Duration `yaml:"interval"`
	Timeout  time.Duration `yaml:"timeout"`
}

// AuditConfig defines the periodic drift audit.
type AuditConfig struct {
	Enabled  bool              `yaml:"enabled"`
	Interval time.Duration     `yaml:"interval"`
	Groups   []domain.GroupRef `yaml:"groups"`
	// DriftThreshold is the number of consecutive drifted runs before a
	// group is reported.
	DriftThreshold int `yaml:"drift_threshold"`
}

// NotificationsConfig defines notification targets.
type NotificationsConfig struct {
	Discord DiscordConfig `yaml:"discord"`
}

// DiscordConfig defines Discord webhook settings.
type DiscordConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// TracingConfig defines OTLP trace export. Tracing is off unless enabled.
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"` // host:port of an OTLP gRPC collector
	Insecure    bool    `yaml:"insecure"`
	ServiceName string  `yaml:"service_name"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

// Load reads and parses a YAML config file, performing environment variable
// substitution and validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // config path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables in the YAML content.
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// DefaultBackend returns the name of the backend used for an empty source.
// With a single backend that backend is the default.
func (c *Config) DefaultBackend() string {
	for i := range c.Backends {
		if c.Backends[i].Default {
			return c.Backends[i].Name
		}
	}
	if len(c.Backends) == 1 {
		return c.Backends[0].Name
	}
	return ""
}

func applyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyDatabaseDefaults(&cfg.Database)
	for i := range cfg.Backends {
		applyBackendDefaults(&cfg.Backends[i])
	}
	applyPollingDefaults(&cfg.Polling)
	applyAuditDefaults(&cfg.Audit)
	applyLoggingDefaults(&cfg.Logging)
	applyTracingDefaults(&cfg.Tracing)
}

func applyServerDefaults(s *ServerConfig) {
	if s.Host == "" {
		s.Host = "0.0.0.0"
	}
	if s.Port == 0 {
		s.Port = 8080
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = 30 * time.Second
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = 30 * time.Second
	}
}

func applyDatabaseDefaults(d *DatabaseConfig) {
	if d.Port == 0 {
		d.Port = 5432
	}
	if d.SSLMode == "" {
		d.SSLMode = "disable"
	}
	if d.PoolSize == 0 {
		d.PoolSize = 10
	}
}

func applyBackendDefaults(b *BackendConfig) {
	if b.RulerPathPrefix == "" {
		b.RulerPathPrefix = "/api/v1/rules"
	}
	if b.Timeout == 0 {
		b.Timeout = 10 * time.Second
	}
	if b.RateLimit.PerSecond > 0 && b.RateLimit.Burst == 0 {
		b.RateLimit.Burst = 1
	}
}

func applyPollingDefaults(p *PollingConfig) {
	if p.Interval == 0 {
		p.Interval = 3 * time.Second
	}
	if p.Timeout == 0 {
		p.Timeout = 90 * time.Second
	}
}

func applyAuditDefaults(a *AuditConfig) {
	if a.Interval == 0 {
		a.Interval = 10 * time.Minute
	}
	if a.DriftThreshold == 0 {
		a.DriftThreshold = 2
	}
}

func applyLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "text"
	}
}

func applyTracingDefaults(t *TracingConfig) {
	if t.Endpoint == "" {
		t.Endpoint = "localhost:4317"
	}
	if t.ServiceName == "" {
		t.ServiceName = "rulesync"
	}
	if t.SampleRatio == 0 {
		t.SampleRatio = 1
	}
}

func validate(cfg *Config) error {
	var errs []error

	if cfg.Database.Enabled() {
		if cfg.Database.Name == "" {
			errs = append(errs, fmt.Errorf("database.name is required when database.host is set"))
		}
		if cfg.Database.User == "" {
			errs = append(errs, fmt.Errorf("database.user is required when database.host is set"))
		}
	}

	errs = append(errs, validateBackends(cfg.Backends)...)

	if cfg.Polling.Interval >= cfg.Polling.Timeout {
		errs = append(errs, fmt.Errorf(
			"polling.interval (%s) must be shorter than polling.timeout (%s)",
			cfg.Polling.Interval, cfg.Polling.Timeout,
		))
	}

	if cfg.Audit.Enabled {
		if len(cfg.Audit.Groups) == 0 {
			errs = append(errs, fmt.Errorf("audit.groups is required when audit is enabled"))
		}
		for i, g := range cfg.Audit.Groups {
			if err := g.Validate(); err != nil {
				errs = append(errs, fmt.Errorf("audit.groups[%d]: %w", i, err))
			}
			if g.Source != "" && !hasBackend(cfg.Backends, g.Source) {
				errs = append(errs, fmt.Errorf("audit.groups[%d]: unknown source %q", i, g.Source))
			}
		}
	}

	if cfg.Notifications.Discord.Enabled && cfg.Notifications.Discord.WebhookURL == "" {
		errs = append(errs, fmt.Errorf(
			"notifications.discord.webhook_url is required when discord is enabled",
		))
	}

	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
		errs = append(errs, fmt.Errorf(
			"tracing.sample_ratio must be between 0 and 1 (got %g)", cfg.Tracing.SampleRatio,
		))
	}

	switch cfg.Logging.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf(
			"logging.format must be one of: text, json (got %q)", cfg.Logging.Format,
		))
	}

	return errors.Join(errs...)
}

func validateBackends(backends []BackendConfig) []error {
	if len(backends) == 0 {
		return []error{fmt.Errorf("at least one backend is required")}
	}

	var errs []error
	seen := make(map[string]bool, len(backends))
	defaults := 0
	for i := range backends {
		b := &backends[i]
		if b.Name == "" {
			errs = append(errs, fmt.Errorf("backends[%d].name is required", i))
		} else if seen[b.Name] {
			errs = append(errs, fmt.Errorf("backends[%d]: duplicate name %q", i, b.Name))
		}
		seen[b.Name] = true
		if b.RulerURL == "" {
			errs = append(errs, fmt.Errorf("backends[%d].ruler_url is required", i))
		}
		if b.PrometheusURL == "" {
			errs = append(errs, fmt.Errorf("backends[%d].prometheus_url is required", i))
		}
		if b.Auth.OAuth.Enabled() && b.Auth.OAuth.ClientID == "" {
			errs = append(errs, fmt.Errorf("backends[%d].auth.oauth.client_id is required", i))
		}
		if b.Default {
			defaults++
		}
	}
	if defaults > 1 {
		errs = append(errs, fmt.Errorf("at most one backend may be marked default (got %d)", defaults))
	}
	return errs
}

func hasBackend(backends []BackendConfig, name string) bool {
	for i := range backends {
		if backends[i].Name == name {
			return true
		}
	}
	return false
}
