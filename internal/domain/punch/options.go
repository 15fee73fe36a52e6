package punch

import (
	"time"

	"github.com/okian/timeclock/internal/domain/guard"
	"github.com/okian/timeclock/pkg/logger"
)

// Option applies a configuration option to the orchestrator.
type Option func(*Orchestrator)

// WithGuard sets the re-entrancy guard. Sharing one guard between
// orchestrators makes them exclusive per employee.
func WithGuard(g guard.Guard) Option {
	return func(o *Orchestrator) {
		o.guard = g
	}
}

// WithLogger sets the orchestrator's logger.
func WithLogger(l logger.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = l
	}
}

// WithConfirmer sets the default confirmer.
func WithConfirmer(c Confirmer) Option {
	return func(o *Orchestrator) {
		if c != nil {
			o.confirmer = c
		}
	}
}

// WithLogSink ships punch log entries to sink.
func WithLogSink(sink LogSink) Option {
	return func(o *Orchestrator) {
		o.logs = sink
	}
}

// WithClock replaces time.Now for log entry timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.clock = now
		}
	}
}

// WithStateObserver is called on every state transition.
func WithStateObserver(f func(employeeID string, s State)) Option {
	return func(o *Orchestrator) {
		o.observe = f
	}
}
