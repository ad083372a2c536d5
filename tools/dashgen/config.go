package main

import (
	"errors"

	"github.com/donaldgifford/smartsell/tools/dashgen/rules"
)

// KnownMetrics is the set of metric names exported by smartsell plus the
// recording rules dashboards and alerts may reference.
var KnownMetrics = withRecordingRules(map[string]bool{
	// HTTP metrics.
	"smartsell_http_request_duration_seconds": true,
	"smartsell_http_requests_total":           true,
	"smartsell_rate_limited_total":            true,

	// Health metrics.
	"smartsell_healthz_up": true,
	"smartsell_readyz_up":  true,

	// Dataset metrics.
	"smartsell_dataset_rows":              true,
	"smartsell_dataset_skipped_rows_total": true,
	"smartsell_dataset_loads_total":       true,

	// Filter engine metrics.
	"smartsell_filter_evaluations_total": true,
	"smartsell_filter_duration_seconds":  true,
	"smartsell_view_cache_hits_total":    true,
	"smartsell_view_cache_misses_total":  true,

	// Session metrics.
	"smartsell_active_sessions":        true,
	"smartsell_sessions_expired_total": true,

	// Standard Prometheus metrics referenced in dashboards.
	"up":                         true,
	"process_start_time_seconds": true,
})

func withRecordingRules(known map[string]bool) map[string]bool {
	for _, name := range rules.RecordingRules().Records() {
		known[name] = true
	}
	return known
}

// Config controls which artifacts the generator produces and where they go.
type Config struct {
	OutputDir        string
	DashboardEnabled bool
	RulesEnabled     bool
}

// DefaultConfig returns a Config that generates all artifacts into ../../deploy
// (relative to tools/dashgen/).
func DefaultConfig() Config {
	return Config{
		OutputDir:        "../../deploy",
		DashboardEnabled: true,
		RulesEnabled:     true,
	}
}

// Validate checks that the config is usable.
func (c Config) Validate() error {
	if c.OutputDir == "" {
		return errors.New("output directory must be set")
	}
	if !c.DashboardEnabled && !c.RulesEnabled {
		return errors.New("at least one of dashboard or rules must be enabled")
	}
	return nil
}
