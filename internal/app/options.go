package service

import (
	"time"

	"github.com/okian/timeclock/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithIdleTimeout sets how long a session may sit untouched before it is
// logged out.
func WithIdleTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.idleTimeout = d
		}
	}
}

// WithFetchTimeout bounds every employee fetch.
func WithFetchTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.fetchTimeout = d
		}
	}
}

// WithLogQueueSize sets the maximum size of the log shipping queue.
func WithLogQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithLogWorkers sets the number of log shipping goroutines.
func WithLogWorkers(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithLocation sets the zone punches are bucketed in.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.location = loc
		}
	}
}

// WithAuthenticatedPrefix sets the route space a session may move within.
func WithAuthenticatedPrefix(prefix string) Option {
	return func(s *Service) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithInternationalHoursLimit sets the weekly hours that raise the
// international student warning.
func WithInternationalHoursLimit(hours float64) Option {
	return func(s *Service) {
		if hours > 0 {
			s.internationalLimit = hours
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.clock = now
		}
	}
}
