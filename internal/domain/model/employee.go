// Package model contains the time-clock domain types passed between layers.
package model

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// ClockEventType is the direction of a punch.
type ClockEventType string

// Clock event types.
const (
	ClockIn  ClockEventType = "IN"
	ClockOut ClockEventType = "OUT"
)

// ParseClockEventType accepts the spellings used by the time-clock backend
// (IN, OUT, I, O, check-in, check-out) in any case.
func ParseClockEventType(s string) (ClockEventType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "in", "i", "check-in":
		return ClockIn, nil
	case "out", "o", "check-out":
		return ClockOut, nil
	}
	return "", fmt.Errorf("%w: clock event type %q", ErrInvalidInput, s)
}

// Reverse returns the opposite direction.
func (t ClockEventType) Reverse() ClockEventType {
	if t == ClockIn {
		return ClockOut
	}
	return ClockIn
}

// Punch is a single clock event. Punches are never edited once received.
type Punch struct {
	PositionNumber string
	BusinessTitle  string
	Type           ClockEventType
	Time           time.Time
}

// PeriodBlock is a reported span of work. Either endpoint may be missing
// while the block is still open.
type PeriodBlock struct {
	PositionNumber string
	BusinessTitle  string
	Start          *time.Time
	End            *time.Time
	TotalHours     float64
	ReferenceID    string
}

// Undefined reports whether the block is missing an endpoint.
func (b PeriodBlock) Undefined() bool {
	return b.Start == nil || b.End == nil
}

// AnchorDate is the instant used to place the block on a calendar day:
// its start, or its end when the start is missing. It returns false when
// both endpoints are absent.
func (b PeriodBlock) AnchorDate() (time.Time, bool) {
	switch {
	case b.Start != nil:
		return *b.Start, true
	case b.End != nil:
		return *b.End, true
	}
	return time.Time{}, false
}

// Day is one calendar date of a position's history.
type Day struct {
	Date          time.Time
	PunchedHours  float64
	ReportedHours float64
	Punches       []Punch
	PeriodBlocks  []PeriodBlock
}

// HasUndefinedPeriod reports whether any block on the day is open.
func (d Day) HasUndefinedPeriod() bool {
	for _, b := range d.PeriodBlocks {
		if b.Undefined() {
			return true
		}
	}
	return false
}

// Position is a job the employee can punch against.
type Position struct {
	PositionNumber   string
	Primary          bool
	BusinessTitle    string
	TotalWeekHours   float64
	TotalPeriodHours float64
	InStatus         bool
	Days             []Day
}

// DayOn returns the day matching date by calendar date.
func (p *Position) DayOn(date time.Time) (*Day, bool) {
	for i := range p.Days {
		if SameDate(p.Days[i].Date, date) {
			return &p.Days[i], true
		}
	}
	return nil, false
}

// HasPunch reports whether the position has any punch on date.
func (p *Position) HasPunch(date time.Time) bool {
	d, ok := p.DayOn(date)
	return ok && len(d.Punches) > 0
}

// HasPeriod reports whether the position has any period block on date.
func (p *Position) HasPeriod(date time.Time) bool {
	d, ok := p.DayOn(date)
	return ok && len(d.PeriodBlocks) > 0
}

// HasUndefinedPeriod reports whether the position has an open block on date.
func (p *Position) HasUndefinedPeriod(date time.Time) bool {
	d, ok := p.DayOn(date)
	return ok && d.HasUndefinedPeriod()
}

// TimeEntryCode is a pay/time category selectable when punching.
type TimeEntryCode struct {
	ID          string
	DisplayName string
	SortOrder   int
}

// Employee is one freshly loaded employee record. It is replaced wholesale
// on every reload and never persisted by the kiosk.
type Employee struct {
	ID                  string
	Name                string
	InternationalStatus bool
	TotalWeekHours      float64
	TotalPeriodHours    float64
	TimeEntryCodes      map[string]TimeEntryCode
	Positions           []Position
	PeriodPunches       []Punch
	PeriodBlocks        []PeriodBlock
}

// Position returns the position with the given number.
func (e *Employee) Position(number string) (*Position, bool) {
	for i := range e.Positions {
		if e.Positions[i].PositionNumber == number {
			return &e.Positions[i], true
		}
	}
	return nil, false
}

// Eligible reports whether the employee may punch at all.
func (e *Employee) Eligible() bool {
	return len(e.TimeEntryCodes) > 0
}

// ShowTEC reports whether the kiosk must ask for a time entry code.
func (e *Employee) ShowTEC() bool {
	return len(e.TimeEntryCodes) > 1
}

// SortedTimeEntryCodes returns the codes by sort order, then display name.
func (e *Employee) SortedTimeEntryCodes() []TimeEntryCode {
	out := make([]TimeEntryCode, 0, len(e.TimeEntryCodes))
	for _, c := range e.TimeEntryCodes {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		if out[i].DisplayName != out[j].DisplayName {
			return out[i].DisplayName < out[j].DisplayName
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// ResolveTimeEntryCode picks the code to send with a punch. With a single
// code the selection is ignored; with several, selection must name one by
// id or display name.
func (e *Employee) ResolveTimeEntryCode(selection string) (string, error) {
	if !e.Eligible() {
		return "", ErrIneligible
	}
	if !e.ShowTEC() {
		for id := range e.TimeEntryCodes {
			return id, nil
		}
	}

	selection = strings.TrimSpace(selection)
	if selection == "" {
		return "", ErrTECRequired
	}
	if _, ok := e.TimeEntryCodes[selection]; ok {
		return selection, nil
	}
	for id, c := range e.TimeEntryCodes {
		if strings.EqualFold(c.DisplayName, selection) {
			return id, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTimeEntryCode, selection)
}

// ClockedInElsewhere returns a position other than number that is clocked in.
func (e *Employee) ClockedInElsewhere(number string) (*Position, bool) {
	for i := range e.Positions {
		p := &e.Positions[i]
		if p.PositionNumber != number && p.InStatus {
			return p, true
		}
	}
	return nil, false
}

// HasPunch reports whether any position has a punch on date.
func (e *Employee) HasPunch(date time.Time) bool {
	for i := range e.Positions {
		if e.Positions[i].HasPunch(date) {
			return true
		}
	}
	return false
}

// HasPeriod reports whether any position has a period block on date.
func (e *Employee) HasPeriod(date time.Time) bool {
	for i := range e.Positions {
		if e.Positions[i].HasPeriod(date) {
			return true
		}
	}
	return false
}

// HasUndefinedPeriod reports whether any position has an open block on date.
func (e *Employee) HasUndefinedPeriod(date time.Time) bool {
	for i := range e.Positions {
		if e.Positions[i].HasUndefinedPeriod(date) {
			return true
		}
	}
	return false
}

// SameDate compares calendar dates, reading b in a's location.
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.In(a.Location()).Date()
	return ay == by && am == bm && ad == bd
}

// DateOf truncates t to midnight of its calendar date in loc.
func DateOf(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = t.Location()
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
