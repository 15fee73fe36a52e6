package api

import (
	"time"

	service "github.com/okian/timeclock/internal/app"
	"github.com/okian/timeclock/internal/domain/model"
	"github.com/okian/timeclock/internal/domain/punch"
	"github.com/okian/timeclock/internal/domain/session"
)

type timeEntryCodeView struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	SortOrder   int    `json:"sort_order"`
}

type positionView struct {
	PositionNumber     string  `json:"position_number"`
	Primary            bool    `json:"primary"`
	BusinessTitle      string  `json:"business_title"`
	InStatus           bool    `json:"in_status"`
	TotalWeekHours     float64 `json:"total_week_hours"`
	TotalWeekDisplay   string  `json:"total_week_display"`
	TotalPeriodHours   float64 `json:"total_period_hours"`
	TotalPeriodDisplay string  `json:"total_period_display"`
}

type employeeView struct {
	ID                  string              `json:"id"`
	Name                string              `json:"name"`
	InternationalStatus bool                `json:"international_status"`
	TotalWeekHours      float64             `json:"total_week_hours"`
	TotalWeekDisplay    string              `json:"total_week_display"`
	TotalPeriodHours    float64             `json:"total_period_hours"`
	TotalPeriodDisplay  string              `json:"total_period_display"`
	ShowTEC             bool                `json:"show_tec"`
	TimeEntryCodes      []timeEntryCodeView `json:"time_entry_codes"`
	Positions           []positionView      `json:"positions"`
}

type statusView struct {
	EmployeeCacheOnline bool `json:"employee_cache_online"`
	TimeEventsOnline    bool `json:"time_events_online"`
	UpstreamOnline      bool `json:"upstream_online"`
	Offline             bool `json:"offline"`
}

type sessionView struct {
	HandleID        string        `json:"handle_id"`
	Employee        employeeView  `json:"employee"`
	Status          statusView    `json:"status"`
	UnsyncedPunches int           `json:"unsynced_punches"`
	SelectedDate    string        `json:"selected_date"`
	Notices         model.Notices `json:"notices"`
	UI              model.UIState `json:"ui"`
}

func newSessionView(ref *session.Ref, notices model.Notices, ui model.UIState) sessionView {
	emp := ref.Employee()
	st := ref.Status()

	ev := employeeView{
		ID:                  emp.ID,
		Name:                emp.Name,
		InternationalStatus: emp.InternationalStatus,
		TotalWeekHours:      emp.TotalWeekHours,
		TotalWeekDisplay:    model.FormatHours(emp.TotalWeekHours),
		TotalPeriodHours:    emp.TotalPeriodHours,
		TotalPeriodDisplay:  model.FormatHours(emp.TotalPeriodHours),
		ShowTEC:             emp.ShowTEC(),
		TimeEntryCodes:      []timeEntryCodeView{},
		Positions:           make([]positionView, 0, len(emp.Positions)),
	}
	for _, c := range emp.SortedTimeEntryCodes() {
		ev.TimeEntryCodes = append(ev.TimeEntryCodes, timeEntryCodeView{
			ID:          c.ID,
			DisplayName: c.DisplayName,
			SortOrder:   c.SortOrder,
		})
	}
	for _, p := range emp.Positions {
		ev.Positions = append(ev.Positions, positionView{
			PositionNumber:     p.PositionNumber,
			Primary:            p.Primary,
			BusinessTitle:      p.BusinessTitle,
			InStatus:           p.InStatus,
			TotalWeekHours:     p.TotalWeekHours,
			TotalWeekDisplay:   model.FormatHours(p.TotalWeekHours),
			TotalPeriodHours:   p.TotalPeriodHours,
			TotalPeriodDisplay: model.FormatHours(p.TotalPeriodHours),
		})
	}

	return sessionView{
		HandleID: ref.ID(),
		Employee: ev,
		Status: statusView{
			EmployeeCacheOnline: st.EmployeeCacheOnline,
			TimeEventsOnline:    st.TimeEventsOnline,
			UpstreamOnline:      st.UpstreamOnline,
			Offline:             st.Offline(),
		},
		UnsyncedPunches: ref.UnsyncedPunches(),
		SelectedDate:    ref.SelectedDate().Format(dateLayout),
		Notices:         notices,
		UI:              ui,
	}
}

type punchView struct {
	PositionNumber string    `json:"position_number"`
	BusinessTitle  string    `json:"business_title"`
	Type           string    `json:"clock_event_type"`
	Time           time.Time `json:"time"`
}

type periodBlockView struct {
	PositionNumber string     `json:"position_number"`
	Start          *time.Time `json:"start"`
	End            *time.Time `json:"end"`
	TotalHours     float64    `json:"total_hours"`
	ReferenceID    string     `json:"reference_id,omitempty"`
	Undefined      bool       `json:"undefined"`
}

type positionDayView struct {
	PositionNumber string            `json:"position_number"`
	BusinessTitle  string            `json:"business_title"`
	InStatus       bool              `json:"in_status"`
	PunchedHours   float64           `json:"punched_hours"`
	ReportedHours  float64           `json:"reported_hours"`
	Punches        []punchView       `json:"punches"`
	PeriodBlocks   []periodBlockView `json:"period_blocks"`
}

type dayView struct {
	Date         string            `json:"date"`
	TotalHours   float64           `json:"total_hours"`
	TotalDisplay string            `json:"total_display"`
	Positions    []positionDayView `json:"positions"`
}

func newDayView(d *service.DayOverview) dayView {
	out := dayView{
		Date:         d.Date.Format(dateLayout),
		TotalHours:   d.TotalHours,
		TotalDisplay: model.FormatHours(d.TotalHours),
		Positions:    make([]positionDayView, 0, len(d.Positions)),
	}
	for _, p := range d.Positions {
		pv := positionDayView{
			PositionNumber: p.PositionNumber,
			BusinessTitle:  p.BusinessTitle,
			InStatus:       p.InStatus,
			PunchedHours:   p.Day.PunchedHours,
			ReportedHours:  p.Day.ReportedHours,
			Punches:        make([]punchView, 0, len(p.Day.Punches)),
			PeriodBlocks:   make([]periodBlockView, 0, len(p.Day.PeriodBlocks)),
		}
		for _, pu := range p.Day.Punches {
			pv.Punches = append(pv.Punches, punchView{
				PositionNumber: pu.PositionNumber,
				BusinessTitle:  pu.BusinessTitle,
				Type:           string(pu.Type),
				Time:           pu.Time,
			})
		}
		for _, b := range p.Day.PeriodBlocks {
			pv.PeriodBlocks = append(pv.PeriodBlocks, periodBlockView{
				PositionNumber: b.PositionNumber,
				Start:          b.Start,
				End:            b.End,
				TotalHours:     b.TotalHours,
				ReferenceID:    b.ReferenceID,
				Undefined:      b.Undefined(),
			})
		}
		out.Positions = append(out.Positions, pv)
	}
	return out
}

type calendarCellView struct {
	Date               string `json:"date"`
	InMonth            bool   `json:"in_month"`
	Today              bool   `json:"today"`
	Selected           bool   `json:"selected"`
	HasPunch           bool   `json:"has_punch"`
	HasPeriod          bool   `json:"has_period"`
	HasUndefinedPeriod bool   `json:"has_undefined_period"`
}

type calendarView struct {
	PositionNumber string             `json:"position_number"`
	Year           int                `json:"year"`
	Month          int                `json:"month"`
	CanMoveBack    bool               `json:"can_move_back"`
	CanMoveForward bool               `json:"can_move_forward"`
	Cells          []calendarCellView `json:"cells"`
}

func newCalendarView(v *service.CalendarView) calendarView {
	out := calendarView{
		PositionNumber: v.PositionNumber,
		Year:           v.Month.Year,
		Month:          int(v.Month.Month),
		CanMoveBack:    v.CanMoveBack,
		CanMoveForward: v.CanMoveForward,
		Cells:          make([]calendarCellView, len(v.Cells)),
	}
	for i, c := range v.Cells {
		out.Cells[i] = calendarCellView{
			Date:               c.Date.Format(dateLayout),
			InMonth:            c.InMonth,
			Today:              c.Today,
			Selected:           c.Selected,
			HasPunch:           c.HasPunch,
			HasPeriod:          c.HasPeriod,
			HasUndefinedPeriod: c.HasUndefinedPeriod,
		}
	}
	return out
}

type punchResultView struct {
	Outcome        string `json:"outcome"`
	ClockEventType string `json:"clock_event_type,omitempty"`
	PunchTime      string `json:"punch_time,omitempty"`
	Hostname       string `json:"hostname,omitempty"`
	Choice         string `json:"choice,omitempty"`
	LoggedOut      bool   `json:"logged_out"`
}

func newPunchResultView(res *punch.Result, loggedOut bool) punchResultView {
	out := punchResultView{
		Outcome:   string(res.Outcome),
		Choice:    string(res.Choice),
		LoggedOut: loggedOut,
	}
	if res.Response != nil {
		out.ClockEventType = res.Response.ClockEventType
		out.PunchTime = res.Response.PunchTime
		out.Hostname = res.Response.Hostname
	}
	return out
}
