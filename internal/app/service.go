// Package service ties the kiosk together: it owns the single active
// session, the punch orchestrator bound to it, the kiosk-wide UI state and
// the log shipper, and implements the dependencies required by the HTTP API.
package service

import (
	"context"
	"sync"
	"time"

	logqueue "github.com/okian/timeclock/internal/adapters/mq/queue"
	shipper "github.com/okian/timeclock/internal/adapters/mq/worker"
	"github.com/okian/timeclock/internal/domain/guard"
	"github.com/okian/timeclock/internal/domain/model"
	"github.com/okian/timeclock/internal/domain/punch"
	"github.com/okian/timeclock/internal/domain/session"
	"github.com/okian/timeclock/pkg/logger"
	"github.com/okian/timeclock/pkg/metrics"
)

const (
	defaultTheme = "default"
	loginRoute   = "/login"
)

// Gateway is everything the kiosk needs from the backend.
type Gateway interface {
	session.Gateway
	punch.Gateway
	shipper.Sender
}

// active is the logged-in session and its inactivity timer.
type active struct {
	ref  *session.Ref
	idle *time.Timer
}

// Service implements the API dependencies for the kiosk.
type Service struct {
	mu sync.RWMutex

	gateway Gateway

	// Core components
	sessions     *session.Manager
	orchestrator *punch.Orchestrator
	logQueue     *logqueue.InMemoryQueue
	shippers     *shipper.Pool

	// Configuration
	idleTimeout        time.Duration
	fetchTimeout       time.Duration
	queueSize          int
	workerCount        int
	location           *time.Location
	prefix             string
	internationalLimit float64
	clock              func() time.Time

	// State
	started bool
	current *active
	ui      model.UIState
	notices model.Notices

	logger logger.Logger
}

// New constructs a Service talking to gw with default configuration.
func New(gw Gateway, opts ...Option) *Service {
	s := &Service{
		gateway:            gw,
		idleTimeout:        30 * time.Second,
		fetchTimeout:       10 * time.Second,
		queueSize:          1024,
		workerCount:        2,
		location:           time.Local,
		prefix:             "/employee",
		internationalLimit: 15,
		clock:              time.Now,
		ui:                 model.UIState{Theme: defaultTheme, Route: loginRoute},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start builds the session manager, orchestrator and log shipper and starts
// the shipping workers.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("kiosk")
	}

	s.logger.Info(ctx, "starting kiosk service...")

	s.logQueue = logqueue.NewInMemoryQueue(logqueue.WithCapacity(s.queueSize))
	s.shippers = shipper.NewPool(s.workerCount, s.logQueue, s.gateway)

	s.sessions = session.NewManager(s.gateway,
		session.WithClock(s.clock),
		session.WithLocation(s.location),
		session.WithFetchTimeout(s.fetchTimeout),
		session.WithAuthenticatedPrefix(s.prefix),
		session.WithLoginPath(loginRoute),
		session.WithLogoutHook(s.onLogout),
	)
	s.orchestrator = punch.New(s.gateway,
		punch.WithGuard(guard.NewInFlightGuard()),
		punch.WithLogSink(s.logQueue),
		punch.WithClock(s.clock),
	)

	s.shippers.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "kiosk service started",
		logger.Int("logWorkers", s.shippers.Size()),
		logger.Int("logQueueSize", s.queueSize),
		logger.String("location", s.location.String()),
		logger.String("idleTimeout", s.idleTimeout.String()),
	)

	return nil
}

// Stop logs out the active session and drains the log queue before the
// shipping workers stop.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	cur := s.current
	pool := s.shippers
	s.mu.Unlock()

	ctx := context.Background()
	s.logger.Info(ctx, "stopping kiosk service...")

	if cur != nil {
		cur.ref.Logout(ctx, false)
	}

	if pool != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := pool.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn(ctx, "log queue not drained", logger.Error(err))
		}
	}

	s.logger.Info(ctx, "kiosk service stopped")
}

// Log queues a client button log for shipping. It never blocks and reports
// whether the entry was accepted.
func (s *Service) Log(ctx context.Context, button, message string, notify bool) bool {
	s.mu.RLock()
	q := s.logQueue
	started := s.started
	var employeeID string
	if s.current != nil {
		employeeID = s.current.ref.EmployeeID()
	}
	s.mu.RUnlock()

	if !started {
		return false
	}
	return q.Enqueue(ctx, model.LogEntry{
		Time:       s.clock(),
		Message:    message,
		EmployeeID: employeeID,
		Button:     button,
		Notify:     notify,
	})
}

// SetTheme switches the kiosk theme until the next logout.
func (s *Service) SetTheme(name string) {
	if name == "" {
		name = defaultTheme
	}
	s.mu.Lock()
	s.ui.Theme = name
	s.mu.Unlock()
}

// UI returns the kiosk-wide presentation state.
func (s *Service) UI() model.UIState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ui
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":       s.started,
		"logWorkers":    s.workerCount,
		"logQueueSize":  s.queueSize,
		"idleTimeoutMs": s.idleTimeout.Milliseconds(),
		"theme":         s.ui.Theme,
		"route":         s.ui.Route,
		"sessionActive": s.current != nil,
	}

	if s.current != nil {
		id := s.current.ref.EmployeeID()
		stats["employeeId"] = id
		stats["punchState"] = s.orchestrator.State(id).String()
		stats["unsyncedPunches"] = s.current.ref.UnsyncedPunches()
	}

	if s.logQueue != nil {
		queueLen := s.logQueue.Len(ctx)
		stats["logQueueLength"] = queueLen
		stats["logsShipped"] = s.shippers.Shipped()
		metrics.UpdateQueueSize(queueLen)
	}

	return stats
}

// Location returns the zone punches are bucketed in.
func (s *Service) Location() *time.Location {
	return s.location
}
