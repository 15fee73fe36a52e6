package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/okian/timeclock/internal/domain/aggregate"
	"github.com/okian/timeclock/internal/domain/model"
	"github.com/okian/timeclock/pkg/logger"
	"github.com/okian/timeclock/pkg/metrics"
)

// Gateway fetches an employee snapshot from the backend.
type Gateway interface {
	FetchEmployee(ctx context.Context, employeeID string) (*model.FetchResult, error)
}

// LogoutEvent describes a finished logout.
type LogoutEvent struct {
	HandleID   string
	EmployeeID string
	Timeout    bool
	Redirect   string
}

// LogoutHook runs after a session has been torn down.
type LogoutHook func(ctx context.Context, ev LogoutEvent)

// Manager creates session handles and owns what they share: the gateway,
// the clock and the logout hooks.
type Manager struct {
	gateway      Gateway
	logger       logger.Logger
	clock        func() time.Time
	location     *time.Location
	fetchTimeout time.Duration
	prefix       string
	loginPath    string

	hooksMu sync.RWMutex
	hooks   []LogoutHook
}

// NewManager returns a Manager fetching through gw.
func NewManager(gw Gateway, opts ...Option) *Manager {
	m := &Manager{
		gateway:      gw,
		clock:        time.Now,
		location:     time.Local,
		fetchTimeout: 10 * time.Second,
		prefix:       "/employee",
		loginPath:    "/login",
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = logger.Get().Named("session")
	}
	return m
}

// OnLogout adds a hook run after every logout.
func (m *Manager) OnLogout(h LogoutHook) {
	m.hooksMu.Lock()
	defer m.hooksMu.Unlock()
	m.hooks = append(m.hooks, h)
}

// Now returns the manager's clock reading in the kiosk location.
func (m *Manager) Now() time.Time {
	return m.clock().In(m.location)
}

// Location returns the kiosk location.
func (m *Manager) Location() *time.Location {
	return m.location
}

// Load returns a live handle at once and fetches the employee in the
// background. A failed first load is terminal for the handle: nothing is
// published and subscribers receive the error.
func (m *Manager) Load(ctx context.Context, employeeID string) *Ref {
	ref := newRef(m, employeeID)
	m.logger.Info(ctx, "loading employee",
		logger.String("employee_id", employeeID),
		logger.String("handle_id", ref.id),
	)

	go func() {
		res, err := m.fetch(ctx, employeeID)
		if err != nil {
			m.logger.Error(ctx, "employee load failed",
				logger.String("employee_id", employeeID),
				logger.Error(err),
			)
			ref.fail(err)
			return
		}
		ref.publish(ctx, res)
	}()

	return ref
}

// fetch runs one upstream fetch and normalizes the result. The caller's
// cancellation is not propagated; only the fetch timeout bounds it.
func (m *Manager) fetch(ctx context.Context, employeeID string) (*model.FetchResult, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.fetchTimeout)
	defer cancel()

	start := time.Now()
	res, err := m.gateway.FetchEmployee(ctx, employeeID)
	metrics.RecordEmployeeLoadLatency(float64(time.Since(start).Milliseconds()))
	if err == nil && (res == nil || res.Employee == nil) {
		err = &model.GatewayError{Kind: model.ErrMalformedPayload, Reason: "response carried no employee"}
	}
	if err != nil {
		metrics.RecordEmployeeLoad(outcomeOf(err))
		return nil, fmt.Errorf("fetch employee %s: %w", employeeID, err)
	}

	res.Employee.ID = employeeID
	aggregate.Apply(res.Employee, m.Now())
	metrics.RecordEmployeeLoad("ok")
	metrics.UpdateUnsyncedPunches(res.UnsyncedPunches)
	metrics.UpdateUpstreamOnline("employee_cache", res.Status.EmployeeCacheOnline)
	metrics.UpdateUpstreamOnline("time_events", res.Status.TimeEventsOnline)
	metrics.UpdateUpstreamOnline("workday", res.Status.UpstreamOnline)
	return res, nil
}

func (m *Manager) authenticated(path string) bool {
	return path == m.prefix || strings.HasPrefix(path, m.prefix+"/")
}

func (m *Manager) runLogoutHooks(ctx context.Context, ev LogoutEvent) {
	m.hooksMu.RLock()
	hooks := append([]LogoutHook(nil), m.hooks...)
	m.hooksMu.RUnlock()
	for _, h := range hooks {
		h(ctx, ev)
	}
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, model.ErrNoWorker):
		return "no_worker"
	case errors.Is(err, model.ErrNotFound):
		return "not_found"
	case errors.Is(err, model.ErrUnreachable):
		return "unreachable"
	case errors.Is(err, model.ErrUpstreamUnavailable):
		return "unavailable"
	case errors.Is(err, model.ErrMalformedPayload):
		return "malformed"
	default:
		return "error"
	}
}
