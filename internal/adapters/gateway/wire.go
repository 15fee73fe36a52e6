package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/okian/timeclock/internal/domain/model"
)

// zeroTime is how the backend spells a missing timestamp.
const zeroTime = "0001-01-01T00:00:00Z"

var numericPart = regexp.MustCompile(`[\d.]+`)

// FlexBool decodes JSON booleans and "true"/"false" strings. It encodes as
// a string, the way the backend sends it.
type FlexBool bool

func (b *FlexBool) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case bool:
		*b = FlexBool(t)
	case string:
		*b = FlexBool(strings.EqualFold(strings.TrimSpace(t), "true"))
	case nil:
		*b = false
	default:
		return fmt.Errorf("cannot decode %s as bool", data)
	}
	return nil
}

func (b FlexBool) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatBool(bool(b)))
}

// FlexInt decodes numbers and numeric strings.
type FlexInt int

func (n *FlexInt) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case float64:
		*n = FlexInt(t)
	case string:
		t = strings.TrimSpace(t)
		if t == "" {
			*n = 0
			return nil
		}
		i, err := strconv.Atoi(t)
		if err != nil {
			return fmt.Errorf("cannot decode %q as int: %w", t, err)
		}
		*n = FlexInt(i)
	case nil:
		*n = 0
	default:
		return fmt.Errorf("cannot decode %s as int", data)
	}
	return nil
}

// FlexString keeps the text of a string, boolean or number.
type FlexString string

func (s *FlexString) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = FlexString(str)
		return nil
	}
	*s = FlexString(strings.TrimSpace(string(data)))
	return nil
}

// Hours decodes hour totals such as "2.41 H". Values without a number
// decode as zero.
type Hours float64

func (h *Hours) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case float64:
		*h = Hours(t)
	case string:
		m := numericPart.FindString(t)
		if m == "" {
			*h = 0
			return nil
		}
		f, err := strconv.ParseFloat(m, 64)
		if err != nil {
			*h = 0
			return nil
		}
		*h = Hours(f)
	default:
		*h = 0
	}
	return nil
}

func (h Hours) MarshalJSON() ([]byte, error) {
	return json.Marshal(fmt.Sprintf("%.2f H", float64(h)))
}

// EmployeeResponse is the body of GET /get_employee_data/{id}.
type EmployeeResponse struct {
	Status             StatusDTO    `json:"status"`
	Employee           *EmployeeDTO `json:"employee"`
	Error              string       `json:"error,omitempty"`
	UnprocessedPunches FlexInt      `json:"unprocessed_punches_in_tcd"`
}

// StatusDTO carries the backend's availability flags.
type StatusDTO struct {
	EmployeeCacheOnline FlexBool `json:"TCD_employee_cache_online"`
	TimeEventsOnline    FlexBool `json:"TCD_timeevents_online"`
	WorkdayAPIOnline    FlexBool `json:"workdayAPI_online"`
	UnprocessedPunches  FlexInt  `json:"unprocessed_punches_in_tcd"`
}

type EmployeeDTO struct {
	WorkerID            string            `json:"worker_id"`
	InternationalStatus FlexBool          `json:"international_status"`
	EmployeeName        string            `json:"employee_name"`
	TotalWeekHours      Hours             `json:"total_week_hours"`
	TotalPeriodHours    Hours             `json:"total_period_hours"`
	TimeEntryCodes      TimeEntryCodeList `json:"time_entry_codes"`
	Positions           []PositionDTO     `json:"positions"`
	PeriodPunches       []PunchDTO        `json:"period_punches"`
	PeriodBlocks        []PeriodBlockDTO  `json:"period_blocks"`
}

type TimeEntryCodeDTO struct {
	BackendID    string  `json:"backend_id"`
	FrontendName string  `json:"frontend_name"`
	SortOrder    FlexInt `json:"sort_order"`
}

// TimeEntryCodeList decodes codes sent as an array, as an object keyed by
// backend id, or as null.
type TimeEntryCodeList []TimeEntryCodeDTO

func (l *TimeEntryCodeList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*l = nil
		return nil
	}

	if trimmed[0] == '[' {
		var list []TimeEntryCodeDTO
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return err
		}
		*l = list
		return nil
	}

	var byID map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &byID); err != nil {
		return fmt.Errorf("time_entry_codes: %w", err)
	}
	out := make(TimeEntryCodeList, 0, len(byID))
	for id, raw := range byID {
		var c TimeEntryCodeDTO
		if err := json.Unmarshal(raw, &c); err != nil {
			var name string
			if err := json.Unmarshal(raw, &name); err != nil {
				return fmt.Errorf("time_entry_codes[%s]: %w", id, err)
			}
			c.FrontendName = name
		}
		if c.BackendID == "" {
			c.BackendID = id
		}
		out = append(out, c)
	}
	*l = out
	return nil
}

type PositionDTO struct {
	PositionNumber           string   `json:"position_number"`
	PrimaryPosition          FlexBool `json:"primary_position"`
	BusinessTitle            string   `json:"business_title"`
	SupervisoryOrg           string   `json:"supervisory_org,omitempty"`
	PositionTotalWeekHours   Hours    `json:"position_total_week_hours"`
	PositionTotalPeriodHours Hours    `json:"position_total_period_hours"`
	ClockedIn                FlexBool `json:"clocked_in"`
}

type PunchDTO struct {
	PositionNumber         string `json:"position_number"`
	BusinessTitle          string `json:"business_title"`
	ClockEventType         string `json:"clock_event_type"`
	TimeClockEventDateTime string `json:"time_clock_event_date_time"`
}

type PeriodBlockDTO struct {
	PositionNumber            string `json:"position_number"`
	BusinessTitle             string `json:"business_title"`
	TimeClockEventDateTimeIn  string `json:"time_clock_event_date_time_in"`
	TimeClockEventDateTimeOut string `json:"time_clock_event_date_time_out"`
	Length                    Hours  `json:"length"`
	ReferenceID               string `json:"reference_id"`
	ReportedDate              string `json:"reported_date,omitempty"`
}

// PunchRequestDTO is the body of POST /punch/{id}.
type PunchRequestDTO struct {
	WorkerID       string  `json:"worker_id"`
	PositionNumber string  `json:"position_number"`
	ClockEventType string  `json:"clock_event_type"`
	TimeEntryCode  *string `json:"time_entry_code"`
}

// PunchResponseDTO is the backend's answer to a punch.
type PunchResponseDTO struct {
	WrittenToTCD   FlexString `json:"written_to_tcd"`
	PunchTime      string     `json:"punch_time"`
	ClockEventType string     `json:"clock_event_type"`
	Hostname       string     `json:"hostname"`
}

// LogEntryDTO is the body of POST /log.
type LogEntryDTO struct {
	Time    string `json:"time"`
	Message string `json:"message"`
	ByuID   string `json:"byuID"`
	Button  string `json:"button"`
	Notify  string `json:"notify"`
}

// ErrorResponse is the error body the backend sends with failures.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ParseTime reads a backend timestamp into loc. Empty and zero timestamps
// are absent.
func ParseTime(s string, loc *time.Location) (*time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == zeroTime {
		return nil, false
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, false
	}
	t = t.In(loc)
	return &t, true
}

// FormatTime writes t the way the backend expects: RFC3339 with offset.
func FormatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return zeroTime
	}
	return t.Format(time.RFC3339)
}

// ToModel converts the fetch body into the domain result. Times are
// converted into loc; punches with no usable time or type are dropped.
func (r *EmployeeResponse) ToModel(loc *time.Location) *model.FetchResult {
	unsynced := int(r.UnprocessedPunches)
	if unsynced == 0 {
		unsynced = int(r.Status.UnprocessedPunches)
	}
	res := &model.FetchResult{
		Status: model.Status{
			EmployeeCacheOnline: bool(r.Status.EmployeeCacheOnline),
			TimeEventsOnline:    bool(r.Status.TimeEventsOnline),
			UpstreamOnline:      bool(r.Status.WorkdayAPIOnline),
		},
		UnsyncedPunches: unsynced,
	}
	if r.Employee != nil {
		res.Employee = r.Employee.ToModel(loc)
	}
	return res
}

// ToModel converts the employee payload into the domain type.
func (e *EmployeeDTO) ToModel(loc *time.Location) *model.Employee {
	emp := &model.Employee{
		ID:                  e.WorkerID,
		Name:                e.EmployeeName,
		InternationalStatus: bool(e.InternationalStatus),
		TotalWeekHours:      float64(e.TotalWeekHours),
		TotalPeriodHours:    float64(e.TotalPeriodHours),
	}

	if len(e.TimeEntryCodes) > 0 {
		emp.TimeEntryCodes = make(map[string]model.TimeEntryCode, len(e.TimeEntryCodes))
		for _, c := range e.TimeEntryCodes {
			if c.BackendID == "" {
				continue
			}
			emp.TimeEntryCodes[c.BackendID] = model.TimeEntryCode{
				ID:          c.BackendID,
				DisplayName: c.FrontendName,
				SortOrder:   int(c.SortOrder),
			}
		}
	}

	for _, p := range e.Positions {
		emp.Positions = append(emp.Positions, model.Position{
			PositionNumber:   p.PositionNumber,
			Primary:          bool(p.PrimaryPosition),
			BusinessTitle:    p.BusinessTitle,
			TotalWeekHours:   float64(p.PositionTotalWeekHours),
			TotalPeriodHours: float64(p.PositionTotalPeriodHours),
			InStatus:         bool(p.ClockedIn),
		})
	}

	for _, p := range e.PeriodPunches {
		t, ok := ParseTime(p.TimeClockEventDateTime, loc)
		if !ok {
			continue
		}
		typ, err := model.ParseClockEventType(p.ClockEventType)
		if err != nil {
			continue
		}
		emp.PeriodPunches = append(emp.PeriodPunches, model.Punch{
			PositionNumber: p.PositionNumber,
			BusinessTitle:  p.BusinessTitle,
			Type:           typ,
			Time:           *t,
		})
	}

	for _, b := range e.PeriodBlocks {
		start, _ := ParseTime(b.TimeClockEventDateTimeIn, loc)
		end, _ := ParseTime(b.TimeClockEventDateTimeOut, loc)
		emp.PeriodBlocks = append(emp.PeriodBlocks, model.PeriodBlock{
			PositionNumber: b.PositionNumber,
			BusinessTitle:  b.BusinessTitle,
			Start:          start,
			End:            end,
			TotalHours:     float64(b.Length),
			ReferenceID:    b.ReferenceID,
		})
	}

	return emp
}
