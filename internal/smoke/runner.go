package smoke

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/okian/timeclock/pkg/logger"
)

// ErrStep marks a failed step of a visit.
var ErrStep = errors.New("smoke step failed")

// Run walks config.Iterations visits through the kiosk and returns the run
// statistics. It stops at the first failing step.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	log := logger.Get().Named("smoke")

	log.Info(ctx, "starting kiosk smoke test",
		logger.String("baseURL", config.BaseURL),
		logger.String("employeeId", config.EmployeeID),
		logger.String("position", config.PositionNumber),
		logger.Int("iterations", config.Iterations),
		logger.String("timeout", config.Timeout.String()),
	)

	client := newHTTPClient(config.BaseURL, config.Timeout)
	r := &runner{config: config, client: client, stats: stats, log: log}

	if err := r.step(ctx, "health", r.checkHealth); err != nil {
		return r.finish(ctx), err
	}
	for i := 0; i < config.Iterations; i++ {
		if err := r.visit(ctx); err != nil {
			return r.finish(ctx), fmt.Errorf("visit %d: %w", i+1, err)
		}
		stats.Visits++
	}

	r.finish(ctx)
	log.Info(ctx, "smoke test completed successfully")
	return stats, nil
}

type runner struct {
	config *Config
	client *HTTPClient
	stats  *Stats
	log    logger.Logger

	current session
}

func (r *runner) step(ctx context.Context, name string, fn func(context.Context) error) error {
	r.stats.Steps++
	start := time.Now()
	if err := fn(ctx); err != nil {
		r.stats.StepsFailed++
		r.log.Error(ctx, "step failed", logger.String("step", name), logger.Error(err))
		return fmt.Errorf("%w: %s: %w", ErrStep, name, err)
	}
	r.stats.StepsPassed++
	if r.config.Verbose {
		r.log.Info(ctx, "step passed",
			logger.String("step", name),
			logger.String("took", time.Since(start).String()),
		)
	}
	return nil
}

// visit is one employee at the kiosk: login, look around, punch in and out,
// and leave.
func (r *runner) visit(ctx context.Context) error {
	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"login", r.login},
		{"session", r.readSession},
		{"day", r.readDay},
		{"calendar", r.readCalendar},
		{"punch-in", r.punchIn},
		{"punch-out", r.punchOut},
		{"logout", r.logout},
	}
	for _, s := range steps {
		if err := r.step(ctx, s.name, s.fn); err != nil {
			return err
		}
	}
	return nil
}

func (r *runner) checkHealth(ctx context.Context) error {
	var out struct {
		Status string `json:"status"`
	}
	if err := r.client.Do(ctx, http.MethodGet, "/healthz", nil, http.StatusOK, &out); err != nil {
		return err
	}
	if out.Status != "ok" {
		return fmt.Errorf("unexpected health status %q", out.Status)
	}
	return nil
}

func (r *runner) login(ctx context.Context) error {
	path := "/employees/" + r.config.EmployeeID + "/session"
	if err := r.client.Do(ctx, http.MethodPost, path, nil, http.StatusCreated, &r.current); err != nil {
		return err
	}
	return verifySession(r.current, r.config)
}

func (r *runner) readSession(ctx context.Context) error {
	var s session
	if err := r.client.Do(ctx, http.MethodGet, "/session/", nil, http.StatusOK, &s); err != nil {
		return err
	}
	if s.HandleID != r.current.HandleID {
		return fmt.Errorf("session handle changed from %s to %s", r.current.HandleID, s.HandleID)
	}
	return nil
}

func (r *runner) readDay(ctx context.Context) error {
	var day struct {
		Date string `json:"date"`
	}
	path := "/session/days/" + r.current.SelectedDate
	if err := r.client.Do(ctx, http.MethodGet, path, nil, http.StatusOK, &day); err != nil {
		return err
	}
	if day.Date != r.current.SelectedDate {
		return fmt.Errorf("day %s returned for %s", day.Date, r.current.SelectedDate)
	}
	return nil
}

func (r *runner) readCalendar(ctx context.Context) error {
	var grid calendarGrid
	path := "/session/positions/" + r.config.PositionNumber + "/calendar"
	if err := r.client.Do(ctx, http.MethodGet, path, nil, http.StatusOK, &grid); err != nil {
		return err
	}
	return verifyCalendar(grid, r.current.SelectedDate)
}

func (r *runner) punchIn(ctx context.Context) error {
	return r.punch(ctx, "IN")
}

func (r *runner) punchOut(ctx context.Context) error {
	return r.punch(ctx, "OUT")
}

func (r *runner) punch(ctx context.Context, typ string) error {
	var res punchResult
	body := map[string]any{
		"position_number":      r.config.PositionNumber,
		"clock_event_type":     typ,
		"time_entry_code":      r.config.TimeEntryCode,
		"confirm_double_punch": true,
		"after_success":        "acknowledge",
	}
	if err := r.client.Do(ctx, http.MethodPost, "/session/punch", body, http.StatusOK, &res); err != nil {
		return err
	}
	if res.Outcome != "submitted" {
		return fmt.Errorf("punch %s outcome %q", typ, res.Outcome)
	}
	if res.LoggedOut {
		return fmt.Errorf("punch %s ended the session", typ)
	}
	r.stats.Punches++
	return nil
}

func (r *runner) logout(ctx context.Context) error {
	var ui struct {
		Route string `json:"route"`
	}
	if err := r.client.Do(ctx, http.MethodPost, "/session/logout", nil, http.StatusOK, &ui); err != nil {
		return err
	}
	if err := r.client.Do(ctx, http.MethodGet, "/session/", nil, http.StatusNotFound, nil); err != nil {
		return fmt.Errorf("session still readable after logout: %w", err)
	}
	r.current = session{}
	return nil
}

func (r *runner) finish(ctx context.Context) *Stats {
	r.stats.EndTime = time.Now()
	r.stats.Duration = r.stats.EndTime.Sub(r.stats.StartTime)
	r.log.Info(ctx, "final statistics",
		logger.Int("visits", r.stats.Visits),
		logger.Int("steps", r.stats.Steps),
		logger.Int("stepsPassed", r.stats.StepsPassed),
		logger.Int("stepsFailed", r.stats.StepsFailed),
		logger.Int("punches", r.stats.Punches),
		logger.String("duration", r.stats.Duration.String()),
	)
	return r.stats
}
