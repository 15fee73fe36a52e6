// Package config defines the kiosk's process configuration and how it is
// loaded.
package config

import (
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr is the kiosk API listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// UpstreamURL is the base URL of the time-clock backend.
	UpstreamURL string `koanf:"upstream_url"`

	// UpstreamAddr is where cmd/fake-upstream listens.
	UpstreamAddr string `koanf:"upstream_addr"`

	// RequestTimeoutMS bounds every backend call.
	RequestTimeoutMS int `koanf:"request_timeout_ms"`

	// IdleTimeoutMS logs an inactive session out.
	IdleTimeoutMS int `koanf:"idle_timeout_ms"`

	// LogQueueSize bounds the client log shipping queue.
	LogQueueSize int `koanf:"log_queue_size"`

	// LogWorkers sets the number of log shipping workers.
	LogWorkers int `koanf:"log_workers"`

	// Location is the IANA zone punches are bucketed in.
	Location string `koanf:"location"`

	// AuthenticatedPrefix is the route space a session may move within.
	AuthenticatedPrefix string `koanf:"authenticated_prefix"`

	// InternationalHoursLimit is the weekly hour count that raises the
	// international student warning.
	InternationalHoursLimit float64 `koanf:"international_hours_limit"`

	// AllowedOrigins feeds the CORS middleware.
	AllowedOrigins []string `koanf:"allowed_origins"`

	// MetricsEnabled turns Prometheus recording on or off.
	MetricsEnabled bool `koanf:"metrics_enabled"`

	// MetricsRefreshMS is how often runtime gauges are sampled.
	MetricsRefreshMS int `koanf:"metrics_refresh_ms"`
}

// New returns a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:                "info",
		Addr:                    ":8080",
		UpstreamURL:             "http://localhost:8463",
		UpstreamAddr:            ":8463",
		RequestTimeoutMS:        10_000,
		IdleTimeoutMS:           30_000,
		LogQueueSize:            1024,
		LogWorkers:              2,
		Location:                "Local",
		AuthenticatedPrefix:     "/employee",
		InternationalHoursLimit: 15,
		AllowedOrigins:          []string{"*"},
		MetricsEnabled:          true,
		MetricsRefreshMS:        10_000,
	}
}

// RequestTimeout returns RequestTimeoutMS as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}

// IdleTimeout returns IdleTimeoutMS as a duration.
func (c *Config) IdleTimeout() time.Duration {
	return time.Duration(c.IdleTimeoutMS) * time.Millisecond
}

// MetricsRefresh returns MetricsRefreshMS as a duration.
func (c *Config) MetricsRefresh() time.Duration {
	return time.Duration(c.MetricsRefreshMS) * time.Millisecond
}

// Loc resolves Location.
func (c *Config) Loc() (*time.Location, error) {
	return time.LoadLocation(c.Location)
}
