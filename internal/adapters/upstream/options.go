package upstream

import (
	"time"

	"github.com/okian/timeclock/pkg/logger"
)

// Option applies a configuration option to the fake backend.
type Option func(*Server)

// WithClock replaces time.Now for punch timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.clock = now
		}
	}
}

// WithHostname sets the hostname reported in punch answers.
func WithHostname(name string) Option {
	return func(s *Server) {
		if name != "" {
			s.hostname = name
		}
	}
}

// WithLogger sets the server's logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}
