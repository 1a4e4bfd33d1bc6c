// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New() returns a Config populated with defaults.
// - Load layers .env, an optional YAML file and CTFBOARD_ env vars on top.
// - Errors are wrapped with this package's sentinel kinds.
package config

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn error"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr" validate:"required"`

	// TeamsFile and EventsFile override the embedded datasets when set.
	TeamsFile  string `koanf:"teams_file"`
	EventsFile string `koanf:"events_file"`

	// ReloadSchedule is a cron expression for re-reading the datasets.
	// Empty disables reloading.
	ReloadSchedule string `koanf:"reload_schedule"`

	// PageSize is the default number of rows per page.
	PageSize int `koanf:"page_size" validate:"min=1,ltefield=MaxPageSize"`

	// MaxPageSize caps ?page_size on the JSON API.
	MaxPageSize int `koanf:"max_page_size" validate:"min=1"`

	// EventWindowDays is the trailing window of the CTF rankings.
	EventWindowDays int `koanf:"event_window_days" validate:"min=1"`

	// RateLimitRPS and RateLimitBurst bound requests per client IP.
	// A zero rate disables limiting.
	RateLimitRPS   float64 `koanf:"rate_limit_rps" validate:"min=0"`
	RateLimitBurst int     `koanf:"rate_limit_burst" validate:"min=0"`

	// CORSAllowedOrigins lists origins allowed to call the JSON API.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`

	// CompressionLevel is the gzip level of HTTP responses.
	CompressionLevel int `koanf:"compression_level" validate:"min=-2,max=9"`

	// CompressionMinSize is the smallest body that gets compressed.
	CompressionMinSize int `koanf:"compression_min_size" validate:"min=0"`

	// DebugEnabled mounts the /debug/ dump page.
	DebugEnabled bool `koanf:"debug_enabled"`

	// MetricsNamespace prefixes every Prometheus metric name.
	MetricsNamespace string `koanf:"metrics_namespace" validate:"required,promname"`

	// MetricsConstLabels are attached to every metric, e.g. instance: eu-1.
	MetricsConstLabels map[string]string `koanf:"metrics_const_labels" validate:"dive,keys,promname,endkeys"`

	// MetricsLatencyBuckets overrides the latency histogram buckets, in ms.
	// They must be strictly increasing.
	MetricsLatencyBuckets []float64 `koanf:"metrics_latency_buckets"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		Addr:               ":9080",
		PageSize:           20,
		MaxPageSize:        200,
		EventWindowDays:    365,
		RateLimitRPS:       50,
		RateLimitBurst:     100,
		CORSAllowedOrigins: []string{"*"},
		CompressionLevel:   5,
		CompressionMinSize: 1024,
		MetricsNamespace:   "ctfboard",
	}
}
