package service_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/timeclock/internal/adapters/gateway"
	"github.com/okian/timeclock/internal/adapters/upstream"
	service "github.com/okian/timeclock/internal/app"
	"github.com/okian/timeclock/internal/domain/calendar"
	"github.com/okian/timeclock/internal/domain/model"
	"github.com/okian/timeclock/internal/domain/punch"
	. "github.com/smartystreets/goconvey/convey"
)

func TestServiceIntegration(t *testing.T) {
	Convey("Given a kiosk wired to the fake backend", t, func() {
		fake := upstream.New(upstream.WithClock(func() time.Time { return testNow }))
		fake.Seed(testNow)
		srv := httptest.NewServer(fake.Handler())
		defer srv.Close()

		client := gateway.NewClient(srv.URL,
			gateway.WithLocation(time.UTC),
			gateway.WithTimeout(2*time.Second),
		)
		svc := service.New(client,
			service.WithClock(func() time.Time { return testNow }),
			service.WithLocation(time.UTC),
			service.WithLogWorkers(1),
		)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When an unknown id logs in", func() {
			_, err := svc.Login(ctx, "1")

			Convey("Then the no-worker message should surface", func() {
				So(errors.Is(err, model.ErrNoWorker), ShouldBeTrue)
				So(model.UserMessage(err), ShouldEqual, "No Worker Matches ID")
			})
		})

		Convey("When a seeded employee logs in", func() {
			ref, err := svc.Login(ctx, "123456789")
			So(err, ShouldBeNil)

			Convey("Then the history should be bucketed by day", func() {
				yesterday, err := svc.Day(testNow.AddDate(0, 0, -1))
				So(err, ShouldBeNil)
				So(yesterday.TotalHours, ShouldEqual, 3.0)
				So(yesterday.Positions, ShouldHaveLength, 2)
				So(yesterday.Positions[0].Day.Punches, ShouldHaveLength, 2)
				So(yesterday.Positions[0].Day.PunchedHours, ShouldEqual, 3.0)
				So(yesterday.Positions[0].Day.ReportedHours, ShouldEqual, 3.0)

				overnight, err := svc.Day(testNow.AddDate(0, 0, -2))
				So(err, ShouldBeNil)
				So(overnight.TotalHours, ShouldEqual, 4.0)
			})

			Convey("Then the calendar should flag punches and open blocks", func() {
				view, err := svc.Calendar("100", calendar.Month{})
				So(err, ShouldBeNil)
				So(view.Month, ShouldResemble, calendar.Month{Year: 2025, Month: time.March})
				So(view.Cells, ShouldHaveLength, calendar.GridCells)
				So(view.CanMoveForward, ShouldBeFalse)
				So(view.CanMoveBack, ShouldBeTrue)

				flags := make(map[int]service.CalendarCell)
				for _, c := range view.Cells {
					if c.InMonth {
						flags[c.Date.Day()] = c
					}
				}
				So(flags[9].HasPunch, ShouldBeTrue)
				So(flags[9].HasPeriod, ShouldBeTrue)
				So(flags[7].HasUndefinedPeriod, ShouldBeTrue)
				So(flags[10].Today, ShouldBeTrue)
				So(flags[10].Selected, ShouldBeTrue)
			})

			Convey("Then an unknown position should have no calendar", func() {
				_, err := svc.Calendar("999", calendar.Month{})
				So(errors.Is(err, model.ErrUnknownPosition), ShouldBeTrue)
			})

			Convey("Then moving the date cursor should not reload", func() {
				So(svc.SelectDate(testNow.AddDate(0, 0, -5)), ShouldBeNil)
				So(ref.SelectedDate().Day(), ShouldEqual, 5)
				So(ref.Live(), ShouldBeTrue)
			})

			Convey("And punches in with a chosen code", func() {
				res, err := svc.Punch(ctx, punch.Attempt{
					PositionNumber: "100",
					Type:           model.ClockIn,
					TimeEntryCode:  "Overtime",
				})
				So(err, ShouldBeNil)

				Convey("Then the backend should record it and the reload should show it", func() {
					So(res.Outcome, ShouldEqual, punch.OutcomeSubmitted)
					So(*res.Request.TimeEntryCode, ShouldEqual, "OT")
					So(fake.Punches(), ShouldHaveLength, 1)

					cur, err := svc.Current()
					So(err, ShouldBeNil)
					pos, _ := cur.Employee().Position("100")
					So(pos.InStatus, ShouldBeTrue)
				})

				Convey("Then clocking in elsewhere should be refused without a request", func() {
					_, err := svc.Punch(ctx, punch.Attempt{
						PositionNumber: "200",
						Type:           model.ClockIn,
						TimeEntryCode:  "REG",
					})
					So(errors.Is(err, model.ErrConflict), ShouldBeTrue)
					So(fake.Punches(), ShouldHaveLength, 1)
				})

				Convey("Then a declined double punch should send nothing", func() {
					res, err := svc.Punch(ctx, punch.Attempt{
						PositionNumber: "100",
						Type:           model.ClockIn,
						TimeEntryCode:  "REG",
					})
					So(err, ShouldBeNil)
					So(res.Outcome, ShouldEqual, punch.OutcomeDeclined)
					So(fake.Punches(), ShouldHaveLength, 1)
				})

				Convey("Then punching out with the logout choice should end the session", func() {
					res, err := svc.Punch(ctx, punch.Attempt{
						PositionNumber: "100",
						Type:           model.ClockOut,
						TimeEntryCode:  "REG",
						Confirmer:      punch.StaticConfirmer{AfterSuccess: punch.ChoiceLogout},
					})
					So(err, ShouldBeNil)
					So(res.Choice, ShouldEqual, punch.ChoiceLogout)
					So(ref.Live(), ShouldBeFalse)
					So(svc.UI().Route, ShouldEqual, "/login")

					stored, _ := fake.Employee("123456789")
					So(bool(stored.Positions[0].ClockedIn), ShouldBeFalse)
				})

				Convey("Then the punch log should reach the backend", func() {
					So(waitFor(func() bool { return len(fake.Logs()) > 0 }), ShouldBeTrue)
					So(fake.Logs()[0].ByuID, ShouldEqual, "123456789")
				})
			})

			Convey("And the backend does not persist the punch", func() {
				fake.SetDurable(false)
				_, err := svc.Punch(ctx, punch.Attempt{
					PositionNumber: "100",
					Type:           model.ClockIn,
					TimeEntryCode:  "REG",
				})

				Convey("Then a retryable error should surface and nothing should change", func() {
					So(errors.Is(err, model.ErrNotDurable), ShouldBeTrue)
					So(model.UserMessage(err), ShouldEqual, "The Punch was not Submitted Successfully")
					cur, err := svc.Current()
					So(err, ShouldBeNil)
					pos, _ := cur.Employee().Position("100")
					So(pos.InStatus, ShouldBeFalse)
				})
			})
		})

		Convey("When an employee without time entry codes punches", func() {
			_, err := svc.Login(ctx, "555555555")
			So(err, ShouldBeNil)
			_, err = svc.Punch(ctx, punch.Attempt{PositionNumber: "400", Type: model.ClockIn})

			Convey("Then the backend should never be contacted", func() {
				So(errors.Is(err, model.ErrIneligible), ShouldBeTrue)
				So(fake.Punches(), ShouldBeEmpty)
			})
		})
	})
}
