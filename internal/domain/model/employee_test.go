package model_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	model "github.com/okian/timeclock/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func at(day, hour, minute int) *time.Time {
	t := time.Date(2025, time.March, day, hour, minute, 0, 0, time.UTC)
	return &t
}

func dayOf(d int) time.Time {
	return time.Date(2025, time.March, d, 0, 0, 0, 0, time.UTC)
}

func TestClockEventType(t *testing.T) {
	convey.Convey("Given clock event spellings from the backend", t, func() {
		cases := map[string]model.ClockEventType{
			"IN": model.ClockIn, "i": model.ClockIn, "check-in": model.ClockIn, "Check-In": model.ClockIn,
			"OUT": model.ClockOut, "o": model.ClockOut, "check-out": model.ClockOut,
		}

		convey.Convey("Then each should parse to its direction", func() {
			for raw, want := range cases {
				got, err := model.ParseClockEventType(raw)
				convey.So(err, convey.ShouldBeNil)
				convey.So(got, convey.ShouldEqual, want)
			}
		})

		convey.Convey("Then unknown spellings should be rejected", func() {
			_, err := model.ParseClockEventType("lunch")
			convey.So(errors.Is(err, model.ErrInvalidInput), convey.ShouldBeTrue)
		})

		convey.Convey("Then reverse should flip the direction", func() {
			convey.So(model.ClockIn.Reverse(), convey.ShouldEqual, model.ClockOut)
			convey.So(model.ClockOut.Reverse(), convey.ShouldEqual, model.ClockIn)
		})
	})
}

func TestPredicates(t *testing.T) {
	convey.Convey("Given an employee with two positions", t, func() {
		emp := &model.Employee{
			Positions: []model.Position{
				{
					PositionNumber: "100",
					Days: []model.Day{
						{Date: dayOf(4), Punches: []model.Punch{{PositionNumber: "100", Type: model.ClockIn, Time: *at(4, 9, 0)}}},
						{Date: dayOf(3)},
					},
				},
				{
					PositionNumber: "200",
					InStatus:       true,
					Days: []model.Day{
						{Date: dayOf(4)},
						{Date: dayOf(3), PeriodBlocks: []model.PeriodBlock{{PositionNumber: "200", Start: at(3, 8, 0)}}},
					},
				},
			},
		}

		convey.Convey("Then punches should be found by calendar date ignoring time of day", func() {
			p, _ := emp.Position("100")
			convey.So(p.HasPunch(time.Date(2025, time.March, 4, 23, 59, 0, 0, time.UTC)), convey.ShouldBeTrue)
			convey.So(p.HasPunch(dayOf(3)), convey.ShouldBeFalse)
		})

		convey.Convey("Then employee-wide predicates should look across positions", func() {
			convey.So(emp.HasPunch(dayOf(4)), convey.ShouldBeTrue)
			convey.So(emp.HasPeriod(dayOf(3)), convey.ShouldBeTrue)
			convey.So(emp.HasUndefinedPeriod(dayOf(3)), convey.ShouldBeTrue)
			convey.So(emp.HasUndefinedPeriod(dayOf(4)), convey.ShouldBeFalse)
			convey.So(emp.HasPeriod(dayOf(1)), convey.ShouldBeFalse)
		})

		convey.Convey("Then the clocked-in position should be reported as elsewhere for the other one", func() {
			other, ok := emp.ClockedInElsewhere("100")
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(other.PositionNumber, convey.ShouldEqual, "200")

			_, ok = emp.ClockedInElsewhere("200")
			convey.So(ok, convey.ShouldBeFalse)
		})

		convey.Convey("Then an unknown position should not resolve", func() {
			_, ok := emp.Position("999")
			convey.So(ok, convey.ShouldBeFalse)
		})
	})
}

func TestHours(t *testing.T) {
	convey.Convey("Given period blocks on a single day", t, func() {
		newEmp := func(blocks ...model.PeriodBlock) *model.Employee {
			return &model.Employee{Positions: []model.Position{
				{PositionNumber: "100", Days: []model.Day{{Date: dayOf(4), PeriodBlocks: blocks}}},
			}}
		}

		convey.Convey("When the blocks are 09:00-12:00 and 13:00-17:30", func() {
			emp := newEmp(
				model.PeriodBlock{Start: at(4, 9, 0), End: at(4, 12, 0)},
				model.PeriodBlock{Start: at(4, 13, 0), End: at(4, 17, 30)},
			)
			total := emp.ApplyTotalHours(dayOf(4))

			convey.Convey("Then the day should total 7.50 hours in both fields", func() {
				convey.So(total, convey.ShouldEqual, 7.5)
				d, _ := emp.Positions[0].DayOn(dayOf(4))
				convey.So(d.PunchedHours, convey.ShouldEqual, 7.5)
				convey.So(d.ReportedHours, convey.ShouldEqual, 7.5)
			})
		})

		convey.Convey("When a block crosses midnight from 22:00 to 02:00", func() {
			emp := newEmp(model.PeriodBlock{Start: at(4, 22, 0), End: at(5, 2, 0)})

			convey.Convey("Then it should count as 4.00 hours", func() {
				convey.So(emp.TotalHours(dayOf(4)), convey.ShouldEqual, 4.0)
			})
		})

		convey.Convey("When a block is open", func() {
			emp := newEmp(
				model.PeriodBlock{Start: at(4, 8, 0), End: at(4, 8, 20)},
				model.PeriodBlock{Start: at(4, 9, 0)},
			)

			convey.Convey("Then only defined blocks count and the result is rounded to 2 decimals", func() {
				convey.So(emp.TotalHours(dayOf(4)), convey.ShouldEqual, 0.33)
			})
		})

		convey.Convey("When hours span several positions", func() {
			emp := &model.Employee{Positions: []model.Position{
				{PositionNumber: "100", Days: []model.Day{{Date: dayOf(4), PeriodBlocks: []model.PeriodBlock{{Start: at(4, 9, 0), End: at(4, 10, 0)}}}}},
				{PositionNumber: "200", Days: []model.Day{{Date: dayOf(4), PeriodBlocks: []model.PeriodBlock{{Start: at(4, 11, 0), End: at(4, 11, 45)}}}}},
			}}
			emp.ApplyTotalHours(dayOf(4))

			convey.Convey("Then every position's day should carry the combined total", func() {
				for i := range emp.Positions {
					d, _ := emp.Positions[i].DayOn(dayOf(4))
					convey.So(d.PunchedHours, convey.ShouldEqual, 1.75)
				}
			})
		})
	})

	convey.Convey("Given decimal hour totals", t, func() {
		convey.Convey("Then they should render as H:MM", func() {
			convey.So(model.FormatHours(2.41), convey.ShouldEqual, "2:25")
			convey.So(model.FormatHours(15), convey.ShouldEqual, "15:00")
			convey.So(model.FormatHours(0.05), convey.ShouldEqual, "0:03")
			convey.So(model.FormatHours(1.999), convey.ShouldEqual, "2:00")
		})
	})
}

func TestTimeEntryCodes(t *testing.T) {
	convey.Convey("Given an employee without time entry codes", t, func() {
		emp := &model.Employee{}

		convey.Convey("Then it should be ineligible", func() {
			convey.So(emp.Eligible(), convey.ShouldBeFalse)
			_, err := emp.ResolveTimeEntryCode("")
			convey.So(errors.Is(err, model.ErrIneligible), convey.ShouldBeTrue)
		})
	})

	convey.Convey("Given an employee with a single code", t, func() {
		emp := &model.Employee{TimeEntryCodes: map[string]model.TimeEntryCode{
			"REG": {ID: "REG", DisplayName: "Regular"},
		}}

		convey.Convey("Then the code should be used regardless of selection", func() {
			convey.So(emp.ShowTEC(), convey.ShouldBeFalse)
			id, err := emp.ResolveTimeEntryCode("anything")
			convey.So(err, convey.ShouldBeNil)
			convey.So(id, convey.ShouldEqual, "REG")
		})
	})

	convey.Convey("Given an employee with several codes", t, func() {
		emp := &model.Employee{TimeEntryCodes: map[string]model.TimeEntryCode{
			"REG": {ID: "REG", DisplayName: "Regular", SortOrder: 2},
			"OT":  {ID: "OT", DisplayName: "Overtime", SortOrder: 1},
			"SCK": {ID: "SCK", DisplayName: "Sick", SortOrder: 2},
		}}

		convey.Convey("Then a selection is required", func() {
			convey.So(emp.ShowTEC(), convey.ShouldBeTrue)
			_, err := emp.ResolveTimeEntryCode(" ")
			convey.So(errors.Is(err, model.ErrTECRequired), convey.ShouldBeTrue)
		})

		convey.Convey("Then selections resolve by id or display name", func() {
			id, err := emp.ResolveTimeEntryCode("OT")
			convey.So(err, convey.ShouldBeNil)
			convey.So(id, convey.ShouldEqual, "OT")

			id, err = emp.ResolveTimeEntryCode("sick")
			convey.So(err, convey.ShouldBeNil)
			convey.So(id, convey.ShouldEqual, "SCK")

			_, err = emp.ResolveTimeEntryCode("Vacation")
			convey.So(errors.Is(err, model.ErrUnknownTimeEntryCode), convey.ShouldBeTrue)
		})

		convey.Convey("Then sorted codes follow sort order then name", func() {
			codes := emp.SortedTimeEntryCodes()
			convey.So(codes[0].ID, convey.ShouldEqual, "OT")
			convey.So(codes[1].ID, convey.ShouldEqual, "REG")
			convey.So(codes[2].ID, convey.ShouldEqual, "SCK")
		})
	})
}

func TestUserMessage(t *testing.T) {
	convey.Convey("Given classified gateway failures", t, func() {
		convey.Convey("Then each maps to its kiosk message", func() {
			convey.So(model.UserMessage(&model.GatewayError{Kind: model.ErrUnreachable, Err: errors.New("dial tcp")}), convey.ShouldEqual, "Unable to Connect to API")
			convey.So(model.UserMessage(&model.GatewayError{Kind: model.ErrNotFound, Status: 404}), convey.ShouldEqual, "Error 404: API not Found")
			convey.So(model.UserMessage(&model.GatewayError{Kind: model.ErrNoWorker, Status: 503, Reason: "no worker with id 42"}), convey.ShouldEqual, "No Worker Matches ID")
			convey.So(model.UserMessage(&model.GatewayError{Kind: model.ErrUpstreamUnavailable, Status: 503, Reason: "workday is down"}), convey.ShouldEqual, "workday is down")
			convey.So(model.UserMessage(&model.GatewayError{Kind: model.ErrUnexpectedStatus, Status: 500, Reason: "boom"}), convey.ShouldEqual, "Error 500: Internal Server Error\r\nboom")
		})

		convey.Convey("Then a no-worker failure is also an upstream outage", func() {
			err := fmt.Errorf("load: %w", &model.GatewayError{Kind: model.ErrNoWorker})
			convey.So(errors.Is(err, model.ErrNoWorker), convey.ShouldBeTrue)
			convey.So(errors.Is(err, model.ErrUpstreamUnavailable), convey.ShouldBeTrue)
			convey.So(errors.Is(err, model.ErrNotFound), convey.ShouldBeFalse)
		})
	})

	convey.Convey("Given punch failures", t, func() {
		convey.Convey("Then non-durability wins over the transport cause", func() {
			err := fmt.Errorf("%w: %w", model.ErrNotDurable, &model.GatewayError{Kind: model.ErrUnreachable})
			convey.So(model.UserMessage(err), convey.ShouldEqual, "The Punch was not Submitted Successfully")
		})

		convey.Convey("Then refusals map to their messages", func() {
			convey.So(model.UserMessage(model.ErrIneligible), convey.ShouldEqual, "You are not eligible for time tracking")
			convey.So(model.UserMessage(model.ErrConflict), convey.ShouldEqual, "A different job is already clocked in")
			convey.So(model.UserMessage(nil), convey.ShouldEqual, "")
		})
	})
}

func TestPunchResponse(t *testing.T) {
	convey.Convey("Given punch responses", t, func() {
		convey.Convey("Then only the literal string true is durable", func() {
			convey.So(model.PunchResponse{WrittenToTCD: "true"}.Durable(), convey.ShouldBeTrue)
			convey.So(model.PunchResponse{WrittenToTCD: "TRUE"}.Durable(), convey.ShouldBeFalse)
			convey.So(model.PunchResponse{}.Durable(), convey.ShouldBeFalse)
		})
	})

	convey.Convey("Given availability flags", t, func() {
		convey.Convey("Then any offline subsystem marks the kiosk offline", func() {
			convey.So(model.Status{EmployeeCacheOnline: true, TimeEventsOnline: true, UpstreamOnline: true}.Offline(), convey.ShouldBeFalse)
			convey.So(model.Status{EmployeeCacheOnline: true, TimeEventsOnline: true}.Offline(), convey.ShouldBeTrue)
		})
	})
}
