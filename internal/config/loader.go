package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix = "TIMECLOCK_"
	envConfig = "TIMECLOCK_CONFIG"
	envFile   = ".env"
)

// Load builds a Config by layering defaults, an optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if TIMECLOCK_CONFIG is set
//  3. env (prefix TIMECLOCK_), seeded from a .env file when one exists
func Load(_ context.Context) (*Config, error) {
	// godotenv never overrides variables already set in the process.
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, envFile, err)
	}

	base := New()
	k := koanf.New(".")

	if path := os.Getenv(envConfig); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// TIMECLOCK_IDLE_TIMEOUT_MS -> idle_timeout_ms; underscores are kept to
	// match the flat koanf tags. List keys are comma separated.
	envProvider := env.ProviderWithValue(envPrefix, ".", func(key, value string) (string, interface{}) {
		key = strings.TrimPrefix(strings.ToLower(key), strings.ToLower(envPrefix))
		if _, ok := listKeys[key]; ok {
			return key, splitList(value)
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// listKeys are the env keys holding comma-separated lists.
var listKeys = map[string]struct{}{
	"allowed_origins": {},
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate reports the first unusable setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.RequestTimeoutMS <= 0:
		return fmt.Errorf("%w: request_timeout_ms must be positive", ErrInvalidConfig)
	case c.IdleTimeoutMS <= 0:
		return fmt.Errorf("%w: idle_timeout_ms must be positive", ErrInvalidConfig)
	case c.MetricsRefreshMS <= 0:
		return fmt.Errorf("%w: metrics_refresh_ms must be positive", ErrInvalidConfig)
	case c.LogQueueSize <= 0:
		return fmt.Errorf("%w: log_queue_size must be positive", ErrInvalidConfig)
	case c.InternationalHoursLimit <= 0:
		return fmt.Errorf("%w: international_hours_limit must be positive", ErrInvalidConfig)
	case !strings.HasPrefix(c.AuthenticatedPrefix, "/"):
		return fmt.Errorf("%w: authenticated_prefix must start with /", ErrInvalidConfig)
	}

	u, err := url.Parse(c.UpstreamURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: upstream_url %q is not an absolute URL", ErrInvalidConfig, c.UpstreamURL)
	}
	if _, err := c.Loc(); err != nil {
		return fmt.Errorf("%w: location: %w", ErrInvalidConfig, err)
	}
	return nil
}
