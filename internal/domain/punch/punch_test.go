package punch_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/timeclock/internal/domain/model"
	"github.com/okian/timeclock/internal/domain/punch"
	"github.com/okian/timeclock/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeSession struct {
	mu        sync.Mutex
	emp       *model.Employee
	reload    func(*model.Employee) *model.Employee
	refreshes int
	logouts   int
	live      bool
}

func newSession(emp *model.Employee) *fakeSession {
	return &fakeSession{emp: emp, live: true}
}

func (s *fakeSession) EmployeeID() string { return "123456789" }

func (s *fakeSession) Employee() *model.Employee {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.emp
}

func (s *fakeSession) Refresh(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshes++
	if s.reload != nil {
		s.emp = s.reload(s.emp)
	}
	return nil
}

func (s *fakeSession) Logout(context.Context, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logouts++
	s.live = false
}

func (s *fakeSession) Live() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live
}

func (s *fakeSession) Refreshes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshes
}

type fakeGateway struct {
	mu       sync.Mutex
	requests []model.PunchRequest
	written  string
	err      error
	gate     chan struct{}
	after    func()
}

func (g *fakeGateway) SubmitPunch(_ context.Context, req model.PunchRequest) (*model.PunchResponse, error) {
	g.mu.Lock()
	g.requests = append(g.requests, req)
	gate, err, written, after := g.gate, g.err, g.written, g.after
	g.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if after != nil {
		after()
	}
	if err != nil {
		return nil, err
	}
	if written == "" {
		written = "true"
	}
	return &model.PunchResponse{
		WrittenToTCD:   written,
		PunchTime:      "09:00 AM",
		ClockEventType: string(req.ClockEventType),
		Hostname:       "kiosk-01",
	}, nil
}

func (g *fakeGateway) Requests() []model.PunchRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]model.PunchRequest(nil), g.requests...)
}

type recordingSink struct {
	mu      sync.Mutex
	entries []model.LogEntry
}

func (r *recordingSink) SendLog(_ context.Context, e model.LogEntry) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return true
}

type countingConfirmer struct {
	answer bool
	choice punch.Choice
	asked  int
}

func (c *countingConfirmer) ConfirmDoublePunch(context.Context, *model.Position, model.ClockEventType) bool {
	c.asked++
	return c.answer
}

func (c *countingConfirmer) ConfirmSuccess(context.Context, model.PunchResponse) punch.Choice {
	return c.choice
}

// blockingConfirmer holds a double-punch prompt open until release is closed.
type blockingConfirmer struct {
	asked   chan struct{}
	release chan struct{}
}

func (c *blockingConfirmer) ConfirmDoublePunch(context.Context, *model.Position, model.ClockEventType) bool {
	close(c.asked)
	<-c.release
	return true
}

func (c *blockingConfirmer) ConfirmSuccess(context.Context, model.PunchResponse) punch.Choice {
	return punch.ChoiceAcknowledge
}

func employee() *model.Employee {
	return &model.Employee{
		ID:   "123456789",
		Name: "Cosmo Cougar",
		TimeEntryCodes: map[string]model.TimeEntryCode{
			"REG": {ID: "REG", DisplayName: "Regular", SortOrder: 1},
		},
		Positions: []model.Position{
			{PositionNumber: "100", BusinessTitle: "Custodian"},
			{PositionNumber: "200", BusinessTitle: "Lab Assistant"},
		},
	}
}

func clockedIn(emp *model.Employee, position string) *model.Employee {
	out := *emp
	out.Positions = append([]model.Position(nil), emp.Positions...)
	for i := range out.Positions {
		out.Positions[i].InStatus = out.Positions[i].PositionNumber == position
	}
	return &out
}

func TestPunchValidation(t *testing.T) {
	if err := logger.Init(); err != nil {
		t.Fatalf("init logger: %v", err)
	}

	Convey("Given an orchestrator", t, func() {
		gw := &fakeGateway{}
		o := punch.New(gw)
		ctx := context.Background()

		Convey("When the employee has no time entry codes", func() {
			emp := employee()
			emp.TimeEntryCodes = nil
			_, err := o.Punch(ctx, newSession(emp), punch.Attempt{PositionNumber: "100", Type: model.ClockIn})

			Convey("Then the gateway should never be contacted", func() {
				So(errors.Is(err, model.ErrIneligible), ShouldBeTrue)
				So(model.UserMessage(err), ShouldEqual, "You are not eligible for time tracking")
				So(len(gw.Requests()), ShouldEqual, 0)
			})
		})

		Convey("When several codes exist and none is picked", func() {
			emp := employee()
			emp.TimeEntryCodes["OT"] = model.TimeEntryCode{ID: "OT", DisplayName: "Overtime", SortOrder: 2}
			_, err := o.Punch(ctx, newSession(emp), punch.Attempt{PositionNumber: "100", Type: model.ClockIn})

			Convey("Then the attempt should ask for a code", func() {
				So(errors.Is(err, model.ErrTECRequired), ShouldBeTrue)
				So(len(gw.Requests()), ShouldEqual, 0)
			})

			Convey("And a picked code should be sent", func() {
				res, err := o.Punch(ctx, newSession(emp), punch.Attempt{PositionNumber: "100", Type: model.ClockIn, TimeEntryCode: "Overtime"})
				So(err, ShouldBeNil)
				So(*res.Request.TimeEntryCode, ShouldEqual, "OT")
			})
		})

		Convey("When the position is unknown", func() {
			_, err := o.Punch(ctx, newSession(employee()), punch.Attempt{PositionNumber: "999", Type: model.ClockIn})

			Convey("Then it should be rejected", func() {
				So(errors.Is(err, model.ErrUnknownPosition), ShouldBeTrue)
				So(len(gw.Requests()), ShouldEqual, 0)
			})
		})

		Convey("When clocking in on one position while another is in", func() {
			s := newSession(clockedIn(employee(), "100"))
			_, err := o.Punch(ctx, s, punch.Attempt{PositionNumber: "200", Type: model.ClockIn})

			Convey("Then it should be refused with a refresh and no request", func() {
				So(errors.Is(err, model.ErrConflict), ShouldBeTrue)
				So(model.UserMessage(err), ShouldEqual, "A different job is already clocked in")
				So(s.Refreshes(), ShouldEqual, 1)
				So(len(gw.Requests()), ShouldEqual, 0)
				So(o.State(s.EmployeeID()), ShouldEqual, punch.Idle)
			})
		})

		Convey("When clocking out of one position while another is in", func() {
			s := newSession(clockedIn(employee(), "100"))
			_, err := o.Punch(ctx, s, punch.Attempt{
				PositionNumber: "200",
				Type:           model.ClockOut,
				Confirmer:      punch.StaticConfirmer{DoublePunch: true},
			})

			Convey("Then only the double punch rule should apply", func() {
				So(err, ShouldBeNil)
				So(len(gw.Requests()), ShouldEqual, 1)
			})
		})
	})
}

func TestDoublePunch(t *testing.T) {
	if err := logger.Init(); err != nil {
		t.Fatalf("init logger: %v", err)
	}

	Convey("Given an employee already clocked in on position 100", t, func() {
		gw := &fakeGateway{}
		sink := &recordingSink{}
		var states []punch.State
		o := punch.New(gw,
			punch.WithLogSink(sink),
			punch.WithStateObserver(func(_ string, s punch.State) { states = append(states, s) }),
		)
		ctx := context.Background()
		s := newSession(clockedIn(employee(), "100"))

		Convey("When the double punch is declined", func() {
			c := &countingConfirmer{answer: false}
			res, err := o.Punch(ctx, s, punch.Attempt{PositionNumber: "100", Type: model.ClockIn, Confirmer: c})

			Convey("Then nothing should be sent", func() {
				So(err, ShouldBeNil)
				So(res.Outcome, ShouldEqual, punch.OutcomeDeclined)
				So(c.asked, ShouldEqual, 1)
				So(len(gw.Requests()), ShouldEqual, 0)
				So(states, ShouldResemble, []punch.State{punch.Validating, punch.AwaitingConfirmation, punch.Idle})
			})
		})

		Convey("When the double punch is confirmed", func() {
			c := &countingConfirmer{answer: true, choice: punch.ChoiceAcknowledge}
			res, err := o.Punch(ctx, s, punch.Attempt{PositionNumber: "100", Type: model.ClockIn, Confirmer: c})

			Convey("Then exactly one request should be sent", func() {
				So(err, ShouldBeNil)
				So(res.Outcome, ShouldEqual, punch.OutcomeSubmitted)
				So(len(gw.Requests()), ShouldEqual, 1)
				So(states, ShouldResemble, []punch.State{
					punch.Validating, punch.AwaitingConfirmation, punch.Submitting, punch.Succeeded, punch.Idle,
				})
				So(len(sink.entries), ShouldEqual, 1)
				So(sink.entries[0].Notify, ShouldBeFalse)
			})
		})
	})
}

func TestSubmission(t *testing.T) {
	if err := logger.Init(); err != nil {
		t.Fatalf("init logger: %v", err)
	}

	Convey("Given an employee clocked out everywhere", t, func() {
		gw := &fakeGateway{}
		o := punch.New(gw)
		ctx := context.Background()
		s := newSession(employee())
		s.reload = func(e *model.Employee) *model.Employee { return clockedIn(e, "100") }

		Convey("When a durable clock-in is acknowledged", func() {
			res, err := o.Punch(ctx, s, punch.Attempt{PositionNumber: "100", Type: model.ClockIn})

			Convey("Then the request should carry the resolved values", func() {
				So(err, ShouldBeNil)
				req := gw.Requests()[0]
				So(req.EmployeeID, ShouldEqual, "123456789")
				So(req.PositionNumber, ShouldEqual, "100")
				So(req.ClockEventType, ShouldEqual, model.ClockIn)
				So(*req.TimeEntryCode, ShouldEqual, "REG")
				So(res.Response.Durable(), ShouldBeTrue)
			})

			Convey("Then the employee should be reloaded", func() {
				So(res.Choice, ShouldEqual, punch.ChoiceAcknowledge)
				So(s.Refreshes(), ShouldEqual, 1)
				pos, _ := s.Employee().Position("100")
				So(pos.InStatus, ShouldBeTrue)
			})
		})

		Convey("When the employee chooses to log out after success", func() {
			res, err := o.Punch(ctx, s, punch.Attempt{
				PositionNumber: "100",
				Type:           model.ClockIn,
				Confirmer:      punch.StaticConfirmer{AfterSuccess: punch.ChoiceLogout},
			})

			Convey("Then the session should be logged out without a refresh", func() {
				So(err, ShouldBeNil)
				So(res.Choice, ShouldEqual, punch.ChoiceLogout)
				So(s.logouts, ShouldEqual, 1)
				So(s.Refreshes(), ShouldEqual, 0)
			})
		})

		Convey("When the backend does not record the punch", func() {
			gw.written = "false"
			_, err := o.Punch(ctx, s, punch.Attempt{PositionNumber: "100", Type: model.ClockIn})

			Convey("Then a retryable error should surface after a refresh", func() {
				So(errors.Is(err, model.ErrNotDurable), ShouldBeTrue)
				So(model.UserMessage(err), ShouldEqual, "The Punch was not Submitted Successfully")
				So(s.Refreshes(), ShouldEqual, 1)
				So(len(gw.Requests()), ShouldEqual, 1)
				So(o.State(s.EmployeeID()), ShouldEqual, punch.Idle)
			})

			Convey("And the next attempt should not be blocked", func() {
				gw.written = "true"
				_, err := o.Punch(ctx, s, punch.Attempt{PositionNumber: "100", Type: model.ClockIn})
				So(err, ShouldBeNil)
			})
		})

		Convey("When the gateway cannot be reached", func() {
			gw.err = &model.GatewayError{Kind: model.ErrUnreachable}
			_, err := o.Punch(ctx, s, punch.Attempt{PositionNumber: "100", Type: model.ClockIn})

			Convey("Then it should be treated like a non-durable punch", func() {
				So(errors.Is(err, model.ErrNotDurable), ShouldBeTrue)
				So(errors.Is(err, model.ErrUnreachable), ShouldBeTrue)
				So(s.Refreshes(), ShouldEqual, 1)
			})
		})

		Convey("When the session times out while the punch is in flight", func() {
			gw.after = func() { s.Logout(ctx, true) }
			res, err := o.Punch(ctx, s, punch.Attempt{PositionNumber: "100", Type: model.ClockIn})

			Convey("Then completion should be skipped", func() {
				So(err, ShouldBeNil)
				So(res.Choice, ShouldEqual, punch.Choice(""))
				So(s.Refreshes(), ShouldEqual, 0)
				So(s.logouts, ShouldEqual, 1)
			})
		})
	})
}

func TestReentrancy(t *testing.T) {
	if err := logger.Init(); err != nil {
		t.Fatalf("init logger: %v", err)
	}

	Convey("Given a punch stuck in submission", t, func() {
		gw := &fakeGateway{gate: make(chan struct{})}
		o := punch.New(gw)
		ctx := context.Background()
		s := newSession(employee())

		done := make(chan error, 1)
		go func() {
			_, err := o.Punch(ctx, s, punch.Attempt{PositionNumber: "100", Type: model.ClockIn})
			done <- err
		}()

		deadline := time.Now().Add(2 * time.Second)
		for o.State(s.EmployeeID()) != punch.Submitting && time.Now().Before(deadline) {
			time.Sleep(time.Millisecond)
		}

		Convey("When a second attempt is made", func() {
			_, err := o.Punch(ctx, s, punch.Attempt{PositionNumber: "100", Type: model.ClockIn})
			close(gw.gate)

			Convey("Then it should be rejected without a second request", func() {
				So(errors.Is(err, model.ErrBusy), ShouldBeTrue)
				So(<-done, ShouldBeNil)
				So(len(gw.Requests()), ShouldEqual, 1)
			})
		})
	})
}

func TestStateOwnership(t *testing.T) {
	if err := logger.Init(); err != nil {
		t.Fatalf("init logger: %v", err)
	}

	Convey("Given a double clock-in waiting on its prompt", t, func() {
		gw := &fakeGateway{gate: make(chan struct{})}
		o := punch.New(gw)
		ctx := context.Background()
		s := newSession(clockedIn(employee(), "100"))
		id := s.EmployeeID()

		prompt := &blockingConfirmer{asked: make(chan struct{}), release: make(chan struct{})}
		doubled := make(chan error, 1)
		go func() {
			_, err := o.Punch(ctx, s, punch.Attempt{PositionNumber: "100", Type: model.ClockIn, Confirmer: prompt})
			doubled <- err
		}()
		<-prompt.asked
		So(o.State(id), ShouldEqual, punch.AwaitingConfirmation)

		Convey("When a clock-out is submitted while the prompt is open", func() {
			out := make(chan error, 1)
			go func() {
				_, err := o.Punch(ctx, s, punch.Attempt{PositionNumber: "100", Type: model.ClockOut})
				out <- err
			}()

			deadline := time.Now().Add(2 * time.Second)
			for o.State(id) != punch.Submitting && time.Now().Before(deadline) {
				time.Sleep(time.Millisecond)
			}
			So(o.State(id), ShouldEqual, punch.Submitting)

			close(prompt.release)
			err := <-doubled

			Convey("Then the rejected clock-in should leave the submission state alone", func() {
				So(errors.Is(err, model.ErrBusy), ShouldBeTrue)
				So(o.State(id), ShouldEqual, punch.Submitting)

				close(gw.gate)
				So(<-out, ShouldBeNil)
				So(o.State(id), ShouldEqual, punch.Idle)
				So(len(gw.Requests()), ShouldEqual, 1)
				So(gw.Requests()[0].ClockEventType, ShouldEqual, model.ClockOut)
			})
		})
	})
}
