package session

import (
	"time"

	"github.com/okian/timeclock/pkg/logger"
)

// Option applies a configuration option to the session manager.
type Option func(*Manager)

// WithLogger sets the logger used by the manager and its handles.
func WithLogger(l logger.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

// WithClock replaces time.Now. Tests use it to pin "today".
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.clock = now
		}
	}
}

// WithLocation sets the kiosk time zone used to bucket days.
func WithLocation(loc *time.Location) Option {
	return func(m *Manager) {
		if loc != nil {
			m.location = loc
		}
	}
}

// WithFetchTimeout bounds every employee fetch.
func WithFetchTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.fetchTimeout = d
		}
	}
}

// WithLogoutHook adds a hook run after every logout.
func WithLogoutHook(h LogoutHook) Option {
	return func(m *Manager) {
		if h != nil {
			m.hooks = append(m.hooks, h)
		}
	}
}

// WithAuthenticatedPrefix sets the route prefix a session may navigate
// within without being logged out.
func WithAuthenticatedPrefix(prefix string) Option {
	return func(m *Manager) {
		m.prefix = prefix
	}
}

// WithLoginPath sets the route reported to logout hooks as the redirect.
func WithLoginPath(path string) Option {
	return func(m *Manager) {
		m.loginPath = path
	}
}
