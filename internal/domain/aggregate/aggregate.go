// Package aggregate buckets an employee's raw punches and period blocks
// into a fixed trailing window of calendar days per position.
package aggregate

import (
	"time"

	"github.com/okian/timeclock/internal/domain/model"
)

// WindowDays is the number of calendar days kept per position, today included.
const WindowDays = 62

// Window returns WindowDays empty days ending on now's date, newest first.
func Window(now time.Time) []model.Day {
	today := model.DateOf(now, now.Location())
	days := make([]model.Day, WindowDays)
	for i := range days {
		days[i] = model.Day{Date: today.AddDate(0, 0, -i)}
	}
	return days
}

// dateKey identifies a calendar date independent of time of day.
type dateKey struct {
	y int
	m time.Month
	d int
}

func keyOf(t time.Time, loc *time.Location) dateKey {
	y, m, d := t.In(loc).Date()
	return dateKey{y, m, d}
}

// Apply replaces every position's days with a freshly built window and
// fills it from emp.PeriodPunches and emp.PeriodBlocks. Records outside the
// window are dropped; blocks with neither endpoint are skipped. The raw
// slices are left untouched, so applying twice yields the same days.
func Apply(emp *model.Employee, now time.Time) {
	if emp == nil {
		return
	}
	loc := now.Location()

	for pi := range emp.Positions {
		pos := &emp.Positions[pi]
		days := Window(now)

		index := make(map[dateKey]int, len(days))
		for i, d := range days {
			index[keyOf(d.Date, loc)] = i
		}

		for _, p := range emp.PeriodPunches {
			if p.PositionNumber != pos.PositionNumber {
				continue
			}
			if i, ok := index[keyOf(p.Time, loc)]; ok {
				days[i].Punches = append(days[i].Punches, p)
			}
		}

		for _, b := range emp.PeriodBlocks {
			if b.PositionNumber != pos.PositionNumber {
				continue
			}
			anchor, ok := b.AnchorDate()
			if !ok {
				continue
			}
			if i, ok := index[keyOf(anchor, loc)]; ok {
				days[i].PeriodBlocks = append(days[i].PeriodBlocks, b)
			}
		}

		pos.Days = days
	}

	for _, d := range Window(now) {
		emp.ApplyTotalHours(d.Date)
	}
}
