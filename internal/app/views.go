package service

import (
	"fmt"
	"time"

	"github.com/okian/timeclock/internal/domain/calendar"
	"github.com/okian/timeclock/internal/domain/model"
)

// CalendarCell is one date of the month grid.
type CalendarCell struct {
	Date               time.Time
	InMonth            bool
	Today              bool
	Selected           bool
	HasPunch           bool
	HasPeriod          bool
	HasUndefinedPeriod bool
}

// CalendarView is a position's month grid.
type CalendarView struct {
	PositionNumber string
	Month          calendar.Month
	Cells          []CalendarCell
	CanMoveBack    bool
	CanMoveForward bool
}

// PositionDay is one position's record for a date.
type PositionDay struct {
	PositionNumber string
	BusinessTitle  string
	InStatus       bool
	Day            model.Day
}

// DayOverview is every position's record for a date.
type DayOverview struct {
	Date       time.Time
	TotalHours float64
	Positions  []PositionDay
}

// Calendar builds the month grid for one position. A zero month shows the
// month of the selected date.
func (s *Service) Calendar(positionNumber string, month calendar.Month) (*CalendarView, error) {
	ref, err := s.Current()
	if err != nil {
		return nil, err
	}
	s.Touch()

	emp := ref.Employee()
	pos, ok := emp.Position(positionNumber)
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrUnknownPosition, positionNumber)
	}

	selected := ref.SelectedDate()
	if month.Month == 0 {
		month = calendar.MonthOf(selected)
	}
	today := model.DateOf(s.clock(), s.location)

	grid := calendar.Grid(month, s.location)
	view := &CalendarView{
		PositionNumber: positionNumber,
		Month:          month,
		Cells:          make([]CalendarCell, len(grid)),
		CanMoveBack:    calendar.CanMoveBack(month, today),
		CanMoveForward: calendar.CanMoveForward(month, today),
	}
	for i, date := range grid {
		view.Cells[i] = CalendarCell{
			Date:               date,
			InMonth:            date.Month() == month.Month,
			Today:              model.SameDate(date, today),
			Selected:           model.SameDate(date, selected),
			HasPunch:           pos.HasPunch(date),
			HasPeriod:          pos.HasPeriod(date),
			HasUndefinedPeriod: pos.HasUndefinedPeriod(date),
		}
	}
	return view, nil
}

// Day computes the hours worked on date across every position and returns
// each position's record for it.
func (s *Service) Day(date time.Time) (*DayOverview, error) {
	ref, err := s.Current()
	if err != nil {
		return nil, err
	}
	s.Touch()

	date = model.DateOf(date, s.location)
	emp := ref.Employee()

	// The published employee is shared with other readers; only copies are
	// filled in here.
	total := emp.TotalHours(date)
	out := &DayOverview{
		Date:       date,
		TotalHours: total,
	}
	for i := range emp.Positions {
		pos := &emp.Positions[i]
		pd := PositionDay{
			PositionNumber: pos.PositionNumber,
			BusinessTitle:  pos.BusinessTitle,
			InStatus:       pos.InStatus,
			Day:            model.Day{Date: date},
		}
		if d, ok := pos.DayOn(date); ok {
			pd.Day = *d
			pd.Day.PunchedHours = total
			pd.Day.ReportedHours = total
		}
		out.Positions = append(out.Positions, pd)
	}
	return out, nil
}
