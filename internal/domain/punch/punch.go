// Package punch drives one clock-in or clock-out attempt from validation
// through submission to the post-punch refresh.
package punch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/timeclock/internal/domain/guard"
	"github.com/okian/timeclock/internal/domain/model"
	"github.com/okian/timeclock/pkg/logger"
	"github.com/okian/timeclock/pkg/metrics"
)

// Session is the part of a session handle the orchestrator needs.
type Session interface {
	EmployeeID() string
	Employee() *model.Employee
	Refresh(ctx context.Context) error
	Logout(ctx context.Context, timeout bool)
	Live() bool
}

// Gateway submits punches to the backend.
type Gateway interface {
	SubmitPunch(ctx context.Context, req model.PunchRequest) (*model.PunchResponse, error)
}

// LogSink accepts client log entries without blocking. It reports whether
// the entry was accepted.
type LogSink interface {
	SendLog(ctx context.Context, entry model.LogEntry) bool
}

// State is where an attempt currently is.
type State int

const (
	Idle State = iota
	Validating
	AwaitingConfirmation
	Submitting
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Validating:
		return "validating"
	case AwaitingConfirmation:
		return "awaiting_confirmation"
	case Submitting:
		return "submitting"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Attempt is one button press.
type Attempt struct {
	PositionNumber string
	Type           model.ClockEventType
	// TimeEntryCode is the code picked on screen, by id or display name.
	// Ignored when the employee has a single code.
	TimeEntryCode string
	// Confirmer overrides the orchestrator's confirmer for this attempt.
	Confirmer Confirmer
}

// Outcome says how an attempt ended without error.
type Outcome string

const (
	OutcomeSubmitted Outcome = "submitted"
	OutcomeDeclined  Outcome = "declined"
)

// Result describes a finished attempt.
type Result struct {
	Outcome  Outcome
	Request  *model.PunchRequest
	Response *model.PunchResponse
	Choice   Choice
}

// Orchestrator runs punch attempts. Attempts for different employees are
// independent; a second attempt for an employee whose punch is being
// submitted is rejected.
type Orchestrator struct {
	gateway   Gateway
	guard     guard.Guard
	logger    logger.Logger
	confirmer Confirmer
	logs      LogSink
	clock     func() time.Time
	observe   func(employeeID string, s State)

	mu     sync.Mutex
	states map[string]State
}

// New returns an Orchestrator submitting through gw.
func New(gw Gateway, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		gateway:   gw,
		confirmer: StaticConfirmer{AfterSuccess: ChoiceAcknowledge},
		clock:     time.Now,
		states:    make(map[string]State),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.guard == nil {
		o.guard = guard.NewInFlightGuard()
	}
	if o.logger == nil {
		o.logger = logger.Get().Named("punch")
	}
	return o
}

// State returns the attempt state for an employee.
func (o *Orchestrator) State(employeeID string) State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.states[employeeID]
}

// setState records s for the attempt holding the guard.
func (o *Orchestrator) setState(employeeID string, s State) {
	o.mu.Lock()
	o.write(employeeID, s)
	o.mu.Unlock()
	if o.observe != nil {
		o.observe(employeeID, s)
	}
}

// setPending records s for an attempt that does not hold the guard. It is
// dropped while another attempt for the employee is submitting.
func (o *Orchestrator) setPending(ctx context.Context, employeeID string, s State) {
	o.mu.Lock()
	if o.guard.Held(ctx, employeeID) {
		o.mu.Unlock()
		return
	}
	o.write(employeeID, s)
	o.mu.Unlock()
	if o.observe != nil {
		o.observe(employeeID, s)
	}
}

func (o *Orchestrator) write(employeeID string, s State) {
	if s == Idle {
		delete(o.states, employeeID)
		return
	}
	o.states[employeeID] = s
}

// Punch runs one attempt against s. Validation failures return an error
// without contacting the gateway. A declined confirmation returns
// OutcomeDeclined. A failed or non-durable submission refreshes the session
// and returns an error wrapping model.ErrNotDurable; it is never retried.
func (o *Orchestrator) Punch(ctx context.Context, s Session, a Attempt) (*Result, error) {
	id := s.EmployeeID()
	if o.guard.Held(ctx, id) {
		o.reject(ctx, id, "busy")
		return nil, model.ErrBusy
	}

	holding := false
	o.setPending(ctx, id, Validating)
	defer func() {
		if !holding {
			o.setPending(ctx, id, Idle)
			return
		}
		o.setState(id, Idle)
		o.guard.Release(ctx, id)
	}()

	emp := s.Employee()
	if emp == nil || !s.Live() {
		o.reject(ctx, id, "no_session")
		return nil, model.ErrNoSession
	}
	if !emp.Eligible() {
		o.reject(ctx, id, "ineligible")
		return nil, model.ErrIneligible
	}
	tec, err := emp.ResolveTimeEntryCode(a.TimeEntryCode)
	if err != nil {
		o.reject(ctx, id, "time_entry_code")
		return nil, err
	}
	pos, ok := emp.Position(a.PositionNumber)
	if !ok {
		o.reject(ctx, id, "unknown_position")
		return nil, fmt.Errorf("%w: %s", model.ErrUnknownPosition, a.PositionNumber)
	}

	// Only a clock-in is refused while another job is in.
	if a.Type == model.ClockIn {
		if other, busy := emp.ClockedInElsewhere(pos.PositionNumber); busy {
			o.reject(ctx, id, "conflict")
			o.logger.Warn(ctx, "clock-in refused, another job is clocked in",
				logger.String("employee_id", id),
				logger.String("position", pos.PositionNumber),
				logger.String("clocked_in_position", other.PositionNumber),
			)
			o.refresh(ctx, s)
			return nil, fmt.Errorf("%w: position %s", model.ErrConflict, other.PositionNumber)
		}
	}

	confirmer := o.confirmer
	if a.Confirmer != nil {
		confirmer = a.Confirmer
	}

	if pos.InStatus == (a.Type == model.ClockIn) {
		o.setPending(ctx, id, AwaitingConfirmation)
		start := time.Now()
		confirmed := confirmer.ConfirmDoublePunch(ctx, pos, a.Type)
		metrics.RecordConfirmationWait(float64(time.Since(start).Milliseconds()))
		if !confirmed {
			o.logger.Info(ctx, "double punch declined",
				logger.String("employee_id", id),
				logger.String("position", pos.PositionNumber),
				logger.String("clock_event_type", string(a.Type)),
			)
			o.ship(ctx, id, "double-punch-cancel", "double punch cancelled for position "+pos.PositionNumber, false)
			return &Result{Outcome: OutcomeDeclined}, nil
		}
	}

	if !o.guard.Acquire(ctx, id) {
		o.reject(ctx, id, "busy")
		return nil, model.ErrBusy
	}
	holding = true

	req := model.PunchRequest{
		EmployeeID:     id,
		PositionNumber: pos.PositionNumber,
		ClockEventType: a.Type,
		TimeEntryCode:  &tec,
	}
	o.setState(id, Submitting)
	resp, err := o.submit(ctx, req)

	if err == nil && !resp.Durable() {
		err = fmt.Errorf("written_to_tcd=%q", resp.WrittenToTCD)
	}
	if err != nil {
		o.setState(id, Failed)
		metrics.RecordPunch("failed", string(a.Type))
		o.logger.Error(ctx, "punch not recorded",
			logger.String("employee_id", id),
			logger.String("position", pos.PositionNumber),
			logger.String("clock_event_type", string(a.Type)),
			logger.Error(err),
		)
		o.ship(ctx, id, "punch", fmt.Sprintf("punch %s failed for position %s: %v", a.Type, pos.PositionNumber, err), true)
		if s.Live() {
			o.refresh(ctx, s)
		}
		return &Result{Outcome: OutcomeSubmitted, Request: &req, Response: resp}, fmt.Errorf("%w: %w", model.ErrNotDurable, err)
	}

	o.setState(id, Succeeded)
	metrics.RecordPunch("succeeded", string(a.Type))
	o.logger.Info(ctx, "punch recorded",
		logger.String("employee_id", id),
		logger.String("position", pos.PositionNumber),
		logger.String("clock_event_type", string(a.Type)),
		logger.String("punch_time", resp.PunchTime),
	)
	o.ship(ctx, id, "punch", fmt.Sprintf("punch %s recorded for position %s", a.Type, pos.PositionNumber), false)

	res := &Result{Outcome: OutcomeSubmitted, Request: &req, Response: resp}

	// The session may have timed out while the request was in flight.
	if !s.Live() {
		o.logger.Debug(ctx, "session ended during punch, skipping completion", logger.String("employee_id", id))
		return res, nil
	}

	res.Choice = confirmer.ConfirmSuccess(ctx, *resp)
	switch res.Choice {
	case ChoiceLogout:
		s.Logout(ctx, false)
	default:
		res.Choice = ChoiceAcknowledge
		o.refresh(ctx, s)
	}
	return res, nil
}

func (o *Orchestrator) submit(ctx context.Context, req model.PunchRequest) (*model.PunchResponse, error) {
	metrics.UpdatePunchesInFlight(1)
	defer metrics.UpdatePunchesInFlight(-1)

	start := time.Now()
	resp, err := o.gateway.SubmitPunch(ctx, req)
	metrics.RecordPunchLatency(float64(time.Since(start).Milliseconds()))
	if err == nil && resp == nil {
		err = &model.GatewayError{Kind: model.ErrMalformedPayload, Reason: "empty punch response"}
	}
	return resp, err
}

func (o *Orchestrator) refresh(ctx context.Context, s Session) {
	if err := s.Refresh(ctx); err != nil {
		o.logger.Warn(ctx, "refresh after punch failed",
			logger.String("employee_id", s.EmployeeID()),
			logger.Error(err),
		)
	}
}

func (o *Orchestrator) reject(ctx context.Context, employeeID, reason string) {
	metrics.RecordPunchRejection(reason)
	o.logger.Debug(ctx, "punch rejected",
		logger.String("employee_id", employeeID),
		logger.String("reason", reason),
	)
}

func (o *Orchestrator) ship(ctx context.Context, employeeID, button, message string, notify bool) {
	if o.logs == nil {
		return
	}
	o.logs.SendLog(ctx, model.LogEntry{
		Time:       o.clock(),
		Message:    message,
		EmployeeID: employeeID,
		Button:     button,
		Notify:     notify,
	})
}
