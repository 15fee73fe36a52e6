package aggregate_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/okian/timeclock/internal/domain/aggregate"
	"github.com/okian/timeclock/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

var denver = mustLoad("America/Denver")

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.FixedZone("MST", -7*60*60)
	}
	return loc
}

func ptr(t time.Time) *time.Time { return &t }

func fixture(now time.Time) *model.Employee {
	daysAgo := func(n, hour, minute int) time.Time {
		y, m, d := now.AddDate(0, 0, -n).Date()
		return time.Date(y, m, d, hour, minute, 0, 0, now.Location())
	}

	return &model.Employee{
		ID: "123456789",
		Positions: []model.Position{
			{PositionNumber: "100", BusinessTitle: "Custodian"},
			{PositionNumber: "200", BusinessTitle: "Lab Assistant"},
		},
		PeriodPunches: []model.Punch{
			{PositionNumber: "100", Type: model.ClockIn, Time: daysAgo(0, 9, 0)},
			{PositionNumber: "100", Type: model.ClockOut, Time: daysAgo(0, 12, 0)},
			{PositionNumber: "200", Type: model.ClockIn, Time: daysAgo(1, 13, 0)},
			{PositionNumber: "100", Type: model.ClockIn, Time: daysAgo(70, 9, 0)},
			{PositionNumber: "300", Type: model.ClockIn, Time: daysAgo(0, 9, 0)},
		},
		PeriodBlocks: []model.PeriodBlock{
			{PositionNumber: "100", Start: ptr(daysAgo(0, 9, 0)), End: ptr(daysAgo(0, 12, 0))},
			{PositionNumber: "100", Start: ptr(daysAgo(0, 13, 0)), End: ptr(daysAgo(0, 17, 30))},
			{PositionNumber: "200", End: ptr(daysAgo(2, 17, 0))},
			{PositionNumber: "200"},
			{PositionNumber: "100", Start: ptr(daysAgo(70, 9, 0)), End: ptr(daysAgo(70, 10, 0))},
		},
	}
}

func TestWindow(t *testing.T) {
	Convey("Given a reference time", t, func() {
		now := time.Date(2025, time.March, 10, 15, 4, 5, 0, denver)
		days := aggregate.Window(now)

		Convey("Then the window should hold 62 unique consecutive dates ending today", func() {
			So(len(days), ShouldEqual, aggregate.WindowDays)
			So(model.SameDate(days[0].Date, now), ShouldBeTrue)

			seen := make(map[string]bool)
			for i, d := range days {
				key := d.Date.Format("2006-01-02")
				So(seen[key], ShouldBeFalse)
				seen[key] = true
				So(d.Date.Hour(), ShouldEqual, 0)
				if i > 0 {
					So(model.SameDate(d.Date, days[i-1].Date.AddDate(0, 0, -1)), ShouldBeTrue)
				}
			}
		})

		Convey("Then the window should cross the daylight saving change without gaps", func() {
			So(days[61].Date.Format("2006-01-02"), ShouldEqual, "2025-01-08")
		})
	})
}

func TestApply(t *testing.T) {
	Convey("Given an employee with raw punches and blocks", t, func() {
		now := time.Date(2025, time.March, 10, 18, 0, 0, 0, denver)
		emp := fixture(now)
		rawPunches := append([]model.Punch(nil), emp.PeriodPunches...)

		aggregate.Apply(emp, now)

		Convey("Then every position should get a full window", func() {
			for _, p := range emp.Positions {
				So(len(p.Days), ShouldEqual, aggregate.WindowDays)
			}
		})

		Convey("Then punches should land on their own position and date", func() {
			custodian := emp.Positions[0]
			So(len(custodian.Days[0].Punches), ShouldEqual, 2)
			So(custodian.HasPunch(now), ShouldBeTrue)

			lab := emp.Positions[1]
			So(len(lab.Days[0].Punches), ShouldEqual, 0)
			So(len(lab.Days[1].Punches), ShouldEqual, 1)
		})

		Convey("Then records older than the window should be dropped", func() {
			total := 0
			for _, d := range emp.Positions[0].Days {
				total += len(d.Punches)
			}
			So(total, ShouldEqual, 2)
			So(emp.Positions[0].HasPeriod(now.AddDate(0, 0, -70)), ShouldBeFalse)
		})

		Convey("Then blocks should be placed by start date or else end date", func() {
			So(len(emp.Positions[0].Days[0].PeriodBlocks), ShouldEqual, 2)
			So(len(emp.Positions[1].Days[2].PeriodBlocks), ShouldEqual, 1)
			So(emp.Positions[1].HasUndefinedPeriod(now.AddDate(0, 0, -2)), ShouldBeTrue)
		})

		Convey("Then blocks with neither endpoint should be skipped", func() {
			count := 0
			for _, d := range emp.Positions[1].Days {
				count += len(d.PeriodBlocks)
			}
			So(count, ShouldEqual, 1)
		})

		Convey("Then day hours should be computed across positions", func() {
			So(emp.Positions[0].Days[0].PunchedHours, ShouldEqual, 7.5)
			So(emp.Positions[1].Days[0].ReportedHours, ShouldEqual, 7.5)
			So(emp.Positions[1].Days[2].PunchedHours, ShouldEqual, 0)
		})

		Convey("Then the raw records should be left as they were", func() {
			So(reflect.DeepEqual(emp.PeriodPunches, rawPunches), ShouldBeTrue)
		})

		Convey("When applied a second time", func() {
			first := make([][]model.Day, len(emp.Positions))
			for i, p := range emp.Positions {
				first[i] = p.Days
			}
			aggregate.Apply(emp, now)

			Convey("Then the result should be identical", func() {
				for i, p := range emp.Positions {
					So(reflect.DeepEqual(p.Days, first[i]), ShouldBeTrue)
				}
			})
		})
	})

	Convey("Given an employee with no raw records", t, func() {
		now := time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC)
		emp := &model.Employee{Positions: []model.Position{{PositionNumber: "100"}}}

		aggregate.Apply(emp, now)

		Convey("Then the window should still be built with empty days", func() {
			So(len(emp.Positions[0].Days), ShouldEqual, aggregate.WindowDays)
			So(emp.HasPunch(now), ShouldBeFalse)
		})
	})

	Convey("Given a nil employee", t, func() {
		Convey("Then apply should be a no-op", func() {
			So(func() { aggregate.Apply(nil, time.Now()) }, ShouldNotPanic)
		})
	})
}
