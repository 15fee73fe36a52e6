// Package calendar builds the month view the kiosk uses to pick a day.
package calendar

import "time"

// GridCells is the number of days shown for one month (six weeks).
const GridCells = 42

// Month identifies a calendar month being viewed.
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// Prev returns the previous month.
func (m Month) Prev() Month {
	if m.Month == time.January {
		return Month{Year: m.Year - 1, Month: time.December}
	}
	return Month{Year: m.Year, Month: m.Month - 1}
}

// Next returns the following month.
func (m Month) Next() Month {
	if m.Month == time.December {
		return Month{Year: m.Year + 1, Month: time.January}
	}
	return Month{Year: m.Year, Month: m.Month + 1}
}

// Grid returns GridCells consecutive dates at midnight in loc. The grid
// opens on the Sunday of the week holding the last day of the previous
// month, so the first row always shows some of that month.
func Grid(m Month, loc *time.Location) []time.Time {
	lastOfPrev := time.Date(m.Year, m.Month, 0, 0, 0, 0, 0, loc)
	start := lastOfPrev.AddDate(0, 0, -int(lastOfPrev.Weekday()))

	cells := make([]time.Time, GridCells)
	for i := range cells {
		cells[i] = start.AddDate(0, 0, i)
	}
	return cells
}

// CanMoveBack reports whether the view may step to the previous month.
// Only the current month and later may step back, which keeps the view
// inside the trailing window of loaded days.
func CanMoveBack(m Month, today time.Time) bool {
	if m.Year < today.Year() {
		return false
	}
	return m.Year > today.Year() || m.Month >= today.Month()
}

// CanMoveForward reports whether the view may step to the next month.
func CanMoveForward(m Month, today time.Time) bool {
	return m.Year < today.Year() || (m.Year == today.Year() && m.Month < today.Month())
}
