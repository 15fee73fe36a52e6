package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/okian/timeclock/internal/domain/model"
	"github.com/okian/timeclock/internal/domain/punch"
	"github.com/okian/timeclock/internal/domain/session"
	"github.com/okian/timeclock/pkg/logger"
)

const maxIDLength = 9

func validID(id string) bool {
	if id == "" || len(id) > maxIDLength {
		return false
	}
	for _, c := range id {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// Login loads employeeID and waits for the first value. An active session
// is logged out first; the kiosk holds one session at a time.
func (s *Service) Login(ctx context.Context, employeeID string) (*session.Ref, error) {
	if !validID(employeeID) {
		return nil, ErrInvalidID
	}

	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil, ErrNotStarted
	}
	prev := s.current
	s.current = nil
	mgr := s.sessions
	s.mu.Unlock()

	if prev != nil {
		prev.ref.Logout(ctx, false)
	}

	ref := mgr.Load(ctx, employeeID)
	emp, err := ref.Wait(ctx)
	if err != nil {
		if ref.Err() == nil {
			// Still loading: close the handle so the late value is dropped.
			ref.Logout(ctx, false)
		}
		return nil, err
	}

	idle := time.AfterFunc(s.idleTimeout, func() {
		ref.Logout(context.Background(), true)
	})
	cur := &active{ref: ref, idle: idle}

	s.mu.Lock()
	displaced := s.current
	s.current = cur
	s.ui.Route = s.prefix + "/" + employeeID
	s.notices = s.noticesLocked(ref, emp, true)
	s.mu.Unlock()

	if displaced != nil {
		displaced.ref.Logout(ctx, false)
	}

	ref.OnTeardown(func() { idle.Stop() })
	unsubscribe := ref.Subscribe(session.Observer{
		Next: func(emp *model.Employee) { s.observe(ref, emp) },
	})
	ref.OnTeardown(unsubscribe)

	s.logger.Info(ctx, "employee logged in",
		logger.String("employee_id", employeeID),
		logger.String("handle_id", ref.ID()),
		logger.Int("positions", len(emp.Positions)),
	)
	return ref, nil
}

// observe keeps the status notices current on every publish.
func (s *Service) observe(ref *session.Ref, emp *model.Employee) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil || s.current.ref != ref {
		return
	}
	s.notices = s.noticesLocked(ref, emp, false)
}

// noticesLocked builds the banners for emp. The international alert is
// raised at most once per kiosk process, and only at login.
func (s *Service) noticesLocked(ref *session.Ref, emp *model.Employee, login bool) model.Notices {
	status := ref.Status()
	n := model.Notices{
		Offline:         status.Offline(),
		ReviewTimesheet: len(emp.Positions) > 0 && status.UpstreamOnline,
	}
	if !login {
		n.InternationalAlert = s.notices.InternationalAlert
		return n
	}
	if emp.InternationalStatus && emp.TotalWeekHours >= s.internationalLimit && !s.ui.InternationalAlertShown {
		s.ui.InternationalAlertShown = true
		n.InternationalAlert = fmt.Sprintf("You have worked more than %s hours this week.",
			strconv.FormatFloat(s.internationalLimit, 'f', -1, 64))
	}
	return n
}

// onLogout resets the kiosk-wide state after any session ends.
func (s *Service) onLogout(ctx context.Context, ev session.LogoutEvent) {
	s.mu.Lock()
	if s.current != nil && s.current.ref.ID() == ev.HandleID {
		s.current = nil
		s.notices = model.Notices{}
	}
	s.ui.Theme = defaultTheme
	s.ui.Route = ev.Redirect
	s.mu.Unlock()

	s.logger.Debug(ctx, "kiosk state reset",
		logger.String("employee_id", ev.EmployeeID),
		logger.Bool("timeout", ev.Timeout),
	)
}

// Current returns the live session.
func (s *Service) Current() (*session.Ref, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	if s.current == nil || !s.current.ref.Live() {
		return nil, model.ErrNoSession
	}
	return s.current.ref, nil
}

// Notices returns the banners for the active session.
func (s *Service) Notices() model.Notices {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.notices
}

// Touch restarts the inactivity timer. It reports whether a live session
// exists.
func (s *Service) Touch() bool {
	s.mu.RLock()
	cur := s.current
	s.mu.RUnlock()
	if cur == nil || !cur.ref.Live() {
		return false
	}
	cur.idle.Reset(s.idleTimeout)
	return true
}

// Punch runs one attempt against the live session.
func (s *Service) Punch(ctx context.Context, a punch.Attempt) (*punch.Result, error) {
	ref, err := s.Current()
	if err != nil {
		return nil, err
	}
	s.Touch()
	res, err := s.orchestrator.Punch(ctx, ref, a)
	s.Touch()
	return res, err
}

// Logout ends the active session.
func (s *Service) Logout(ctx context.Context) error {
	s.mu.RLock()
	cur := s.current
	s.mu.RUnlock()
	if cur == nil {
		return model.ErrNoSession
	}
	cur.ref.Logout(ctx, false)
	return nil
}

// Navigate records a route change. Leaving the authenticated route space
// logs the session out as a timeout; it returns true when that happened.
func (s *Service) Navigate(ctx context.Context, path string) bool {
	s.mu.Lock()
	cur := s.current
	s.ui.Route = path
	s.mu.Unlock()

	if cur == nil {
		return false
	}
	if cur.ref.Navigated(ctx, path) {
		return true
	}
	s.Touch()
	return false
}

// SelectDate moves the calendar cursor of the live session.
func (s *Service) SelectDate(date time.Time) error {
	ref, err := s.Current()
	if err != nil {
		return err
	}
	ref.SetSelectedDate(model.DateOf(date, s.location))
	s.Touch()
	return nil
}
