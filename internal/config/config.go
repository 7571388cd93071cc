// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New() builds a Config with defaults; Load layers file and env on top.
// - All loading functions accept context.Context as the first parameter.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/okian/satfinder/pkg/errkind"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// TLESourceURL is the remote TLE document, fetched with a cache-busting query.
	TLESourceURL string `koanf:"tle_source_url"`

	// TLEFetchTimeoutSeconds bounds one remote dataset fetch.
	TLEFetchTimeoutSeconds int `koanf:"tle_fetch_timeout_seconds"`

	// DatasetTTLMinutes is how long a fetched dataset is served without I/O.
	DatasetTTLMinutes int `koanf:"dataset_ttl_minutes"`

	// PathCacheTTLMinutes is the server-side lifetime of a computed path result.
	PathCacheTTLMinutes int `koanf:"path_cache_ttl_minutes"`

	// PathDurationMinutes is the ground-track window passed to the predictor.
	PathDurationMinutes int `koanf:"path_duration_minutes"`

	// TimingsClientCacheSeconds and PathClientCacheSeconds are emitted as Cache-Control max-age.
	TimingsClientCacheSeconds int `koanf:"timings_client_cache_seconds"`
	PathClientCacheSeconds    int `koanf:"path_client_cache_seconds"`

	// Tracing controls the OpenTelemetry tracer provider.
	TracingEnabled     bool    `koanf:"tracing_enabled"`
	TracingExporter    string  `koanf:"tracing_exporter"`
	TracingEndpoint    string  `koanf:"tracing_endpoint"`
	TracingSampleRatio float64 `koanf:"tracing_sample_ratio"`
	TracingServiceName string  `koanf:"tracing_service_name"`

	// MetricsNamespace and MetricsSubsystem prefix the exported metric names.
	MetricsNamespace string `koanf:"metrics_namespace"`
	MetricsSubsystem string `koanf:"metrics_subsystem"`

	// MetricsLatencyBucketsMs overrides the latency histogram buckets; empty keeps the built-in set.
	MetricsLatencyBucketsMs []float64 `koanf:"metrics_latency_buckets_ms"`
}

var metricNamePart = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:                  "info",
		LogFormat:                 "text",
		Addr:                      ":9080",
		TLESourceURL:              "https://findstarlink.com/data/tle.json",
		TLEFetchTimeoutSeconds:    30,
		DatasetTTLMinutes:         60,
		PathCacheTTLMinutes:       10,
		PathDurationMinutes:       90,
		TimingsClientCacheSeconds: 300,
		PathClientCacheSeconds:    300,
		TracingEnabled:            false,
		TracingExporter:           "stdout",
		TracingSampleRatio:        1.0,
		TracingServiceName:        "satfinder",
		MetricsNamespace:          "satfinder",
		MetricsSubsystem:          "api",
	}
}

// DatasetTTL returns DatasetTTLMinutes as a duration.
func (c *Config) DatasetTTL() time.Duration {
	return time.Duration(c.DatasetTTLMinutes) * time.Minute
}

// PathCacheTTL returns PathCacheTTLMinutes as a duration.
func (c *Config) PathCacheTTL() time.Duration {
	return time.Duration(c.PathCacheTTLMinutes) * time.Minute
}

// TLEFetchTimeout returns TLEFetchTimeoutSeconds as a duration.
func (c *Config) TLEFetchTimeout() time.Duration {
	return time.Duration(c.TLEFetchTimeoutSeconds) * time.Second
}

// Validate reports the first invalid field.
func (c *Config) Validate(_ context.Context) error {
	const op = "config.validate"
	switch {
	case c.Addr == "":
		return errkind.WrapKind(op, ErrInvalidConfig, fmt.Errorf("addr must not be empty"))
	case c.TLESourceURL == "":
		return errkind.WrapKind(op, ErrInvalidConfig, fmt.Errorf("tle_source_url must not be empty"))
	case c.DatasetTTLMinutes <= 0:
		return errkind.WrapKind(op, ErrInvalidConfig, fmt.Errorf("dataset_ttl_minutes must be positive"))
	case c.PathCacheTTLMinutes <= 0:
		return errkind.WrapKind(op, ErrInvalidConfig, fmt.Errorf("path_cache_ttl_minutes must be positive"))
	case c.PathDurationMinutes <= 0:
		return errkind.WrapKind(op, ErrInvalidConfig, fmt.Errorf("path_duration_minutes must be positive"))
	case c.TLEFetchTimeoutSeconds <= 0:
		return errkind.WrapKind(op, ErrInvalidConfig, fmt.Errorf("tle_fetch_timeout_seconds must be positive"))
	case c.TimingsClientCacheSeconds < 0 || c.PathClientCacheSeconds < 0:
		return errkind.WrapKind(op, ErrInvalidConfig, fmt.Errorf("client cache seconds must not be negative"))
	case c.TracingSampleRatio < 0 || c.TracingSampleRatio > 1:
		return errkind.WrapKind(op, ErrInvalidConfig, fmt.Errorf("tracing_sample_ratio must be within [0,1]"))
	case !metricNamePart.MatchString(c.MetricsNamespace):
		return errkind.WrapKind(op, ErrInvalidConfig, fmt.Errorf("metrics_namespace %q is not a valid metric name prefix", c.MetricsNamespace))
	case !metricNamePart.MatchString(c.MetricsSubsystem):
		return errkind.WrapKind(op, ErrInvalidConfig, fmt.Errorf("metrics_subsystem %q is not a valid metric name prefix", c.MetricsSubsystem))
	}
	for i := 1; i < len(c.MetricsLatencyBucketsMs); i++ {
		if c.MetricsLatencyBucketsMs[i] <= c.MetricsLatencyBucketsMs[i-1] {
			return errkind.WrapKind(op, ErrInvalidConfig, fmt.Errorf("metrics_latency_buckets_ms must be strictly ascending"))
		}
	}
	return nil
}
