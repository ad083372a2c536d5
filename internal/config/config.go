// Package config handles loading and validating the application configuration
// from YAML files with environment variable substitution.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	domain "github.com/donaldgifford/smartsell/pkg/types"
)

// Config is the top-level application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Datasets  []DatasetConfig `yaml:"datasets"`
	Filters   FiltersConfig   `yaml:"filters"`
	Insights  InsightsConfig  `yaml:"insights"`
	Cache     CacheConfig     `yaml:"cache"`
	Sessions  SessionsConfig  `yaml:"sessions"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Tracing   TracingConfig   `yaml:"tracing"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig defines the Echo HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Addr returns the host:port listen address.
func (s *ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// DatasetConfig describes one source table and how its headers map to the
// roles the filter engine needs.
type DatasetConfig struct {
	ID            string        `yaml:"id"`
	Path          string        `yaml:"path"`
	Delimiter     string        `yaml:"delimiter"` // "", ",", ";", "tab", or any single character
	Columns       domain.Schema `yaml:"columns"`
	DeriveRevenue *bool         `yaml:"derive_revenue"` // default: true
}

// DelimiterRune returns the configured delimiter, or 0 to auto-detect.
func (d *DatasetConfig) DelimiterRune() (rune, error) {
	switch d.Delimiter {
	case "":
		return 0, nil
	case "tab", `\t`:
		return '\t', nil
	}
	if utf8.RuneCountInString(d.Delimiter) != 1 {
		return 0, fmt.Errorf("delimiter must be a single character (got %q)", d.Delimiter)
	}
	r, _ := utf8.DecodeRuneInString(d.Delimiter)
	if r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError {
		return 0, fmt.Errorf("delimiter %q is not allowed", d.Delimiter)
	}
	return r, nil
}

// ShouldDeriveRevenue reports whether a missing revenue column is computed
// from price and sales.
func (d *DatasetConfig) ShouldDeriveRevenue() bool {
	return d.DeriveRevenue == nil || *d.DeriveRevenue
}

// FiltersConfig defines filter defaults.
type FiltersConfig struct {
	DefaultRatingMin *float64 `yaml:"default_rating_min"` // default: 1.0
}

// RatingMin returns the effective default rating bound.
func (f *FiltersConfig) RatingMin() float64 {
	if f.DefaultRatingMin == nil {
		return 1.0
	}
	return *f.DefaultRatingMin
}

// InsightsConfig defines thresholds for the derived product lists.
type InsightsConfig struct {
	OptimizationMinSuccess float64 `yaml:"optimization_min_success"`  // default: 60
	OptimizationLimit      int     `yaml:"optimization_limit"`        // default: 5
	TopLimit               int     `yaml:"top_limit"`                 // default: 10
	HighPotentialMinRating float64 `yaml:"high_potential_min_rating"` // default: 4.0
	OverpricedQuantile     float64 `yaml:"overpriced_quantile"`       // default: 0.75
	OverpricedMaxSuccess   float64 `yaml:"overpriced_max_success"`    // default: 50
	HighSuccessMin         float64 `yaml:"high_success_min"`          // default: 75
}

// CacheConfig defines the filtered-view cache.
type CacheConfig struct {
	ViewCacheSize int `yaml:"view_cache_size"` // default: 256
}

// SessionsConfig defines session lifetime and background job intervals.
type SessionsConfig struct {
	IdleTimeout     time.Duration `yaml:"idle_timeout"`     // default: 30m
	SweepInterval   time.Duration `yaml:"sweep_interval"`   // default: 5m
	RefreshInterval time.Duration `yaml:"refresh_interval"` // default: 1m
}

// RateLimitConfig defines per-client API rate limiting.
type RateLimitConfig struct {
	PerSecond float64 `yaml:"per_second"` // default: 20
	Burst     int     `yaml:"burst"`      // default: 40
}

// TracingConfig defines the OpenTelemetry trace exporter.
type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Endpoint    string `yaml:"endpoint"`     // default: localhost:4317
	ServiceName string `yaml:"service_name"` // default: smartsell
	Insecure    bool   `yaml:"insecure"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
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

func applyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyInsightsDefaults(&cfg.Insights)
	applyCacheDefaults(&cfg.Cache)
	applySessionsDefaults(&cfg.Sessions)
	applyRateLimitDefaults(&cfg.RateLimit)
	applyTracingDefaults(&cfg.Tracing)
	applyLoggingDefaults(&cfg.Logging)
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
	if s.ShutdownTimeout == 0 {
		s.ShutdownTimeout = 10 * time.Second
	}
}

func applyInsightsDefaults(i *InsightsConfig) {
	if i.OptimizationMinSuccess == 0 {
		i.OptimizationMinSuccess = 60
	}
	if i.OptimizationLimit == 0 {
		i.OptimizationLimit = 5
	}
	if i.TopLimit == 0 {
		i.TopLimit = 10
	}
	if i.HighPotentialMinRating == 0 {
		i.HighPotentialMinRating = 4.0
	}
	if i.OverpricedQuantile == 0 {
		i.OverpricedQuantile = 0.75
	}
	if i.OverpricedMaxSuccess == 0 {
		i.OverpricedMaxSuccess = 50
	}
	if i.HighSuccessMin == 0 {
		i.HighSuccessMin = 75
	}
}

func applyCacheDefaults(c *CacheConfig) {
	if c.ViewCacheSize == 0 {
		c.ViewCacheSize = 256
	}
}

func applySessionsDefaults(s *SessionsConfig) {
	if s.IdleTimeout == 0 {
		s.IdleTimeout = 30 * time.Minute
	}
	if s.SweepInterval == 0 {
		s.SweepInterval = 5 * time.Minute
	}
	if s.RefreshInterval == 0 {
		s.RefreshInterval = time.Minute
	}
}

func applyRateLimitDefaults(r *RateLimitConfig) {
	if r.PerSecond == 0 {
		r.PerSecond = 20
	}
	if r.Burst == 0 {
		r.Burst = 40
	}
}

func applyTracingDefaults(t *TracingConfig) {
	if t.Endpoint == "" {
		t.Endpoint = "localhost:4317"
	}
	if t.ServiceName == "" {
		t.ServiceName = "smartsell"
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

func validate(cfg *Config) error {
	var errs []error

	if len(cfg.Datasets) == 0 {
		errs = append(errs, fmt.Errorf("at least one dataset is required"))
	}

	seen := make(map[string]bool, len(cfg.Datasets))
	for i := range cfg.Datasets {
		errs = append(errs, validateDataset(i, &cfg.Datasets[i], seen)...)
	}

	if r := cfg.Filters.DefaultRatingMin; r != nil && *r < 0 {
		errs = append(errs, fmt.Errorf("filters.default_rating_min must not be negative"))
	}
	if q := cfg.Insights.OverpricedQuantile; q < 0 || q > 1 {
		errs = append(errs, fmt.Errorf("insights.overpriced_quantile must be between 0 and 1"))
	}
	if cfg.Cache.ViewCacheSize < 0 {
		errs = append(errs, fmt.Errorf("cache.view_cache_size must not be negative"))
	}
	if cfg.RateLimit.PerSecond < 0 || cfg.RateLimit.Burst < 0 {
		errs = append(errs, fmt.Errorf("rate_limit values must not be negative"))
	}

	return errors.Join(errs...)
}

func validateDataset(i int, d *DatasetConfig, seen map[string]bool) []error {
	var errs []error

	if d.ID == "" {
		errs = append(errs, fmt.Errorf("datasets[%d].id is required", i))
	} else if seen[d.ID] {
		errs = append(errs, fmt.Errorf("datasets[%d].id %q is duplicated", i, d.ID))
	}
	seen[d.ID] = true

	if d.Path == "" {
		errs = append(errs, fmt.Errorf("datasets[%d].path is required", i))
	}

	for _, role := range domain.RequiredRoles() {
		if d.Columns.Column(role) == "" {
			errs = append(errs, fmt.Errorf("datasets[%d].columns.%s is required", i, role))
		}
	}

	if _, err := d.DelimiterRune(); err != nil {
		errs = append(errs, fmt.Errorf("datasets[%d].%w", i, err))
	}

	return errs
}
