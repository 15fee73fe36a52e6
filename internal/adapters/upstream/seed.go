package upstream

import (
	"time"

	"github.com/okian/timeclock/internal/adapters/gateway"
)

// Seed stores a small set of demo employees with a week of history ending
// at now.
func (s *Server) Seed(now time.Time) {
	at := func(daysAgo, hour, minute int) string {
		y, m, d := now.AddDate(0, 0, -daysAgo).Date()
		return time.Date(y, m, d, hour, minute, 0, 0, now.Location()).Format(time.RFC3339)
	}

	regular := gateway.TimeEntryCodeList{{BackendID: "REG", FrontendName: "Regular", SortOrder: 1}}

	s.Put(gateway.EmployeeDTO{
		WorkerID:            "123456789",
		InternationalStatus: true,
		EmployeeName:        "Cosmo Cougar",
		TotalWeekHours:      16.5,
		TotalPeriodHours:    31.25,
		TimeEntryCodes: gateway.TimeEntryCodeList{
			{BackendID: "REG", FrontendName: "Regular", SortOrder: 1},
			{BackendID: "OT", FrontendName: "Overtime", SortOrder: 2},
		},
		Positions: []gateway.PositionDTO{
			{PositionNumber: "100", PrimaryPosition: true, BusinessTitle: "Custodian", SupervisoryOrg: "Facilities", PositionTotalWeekHours: 12, PositionTotalPeriodHours: 24},
			{PositionNumber: "200", BusinessTitle: "Lab Assistant", SupervisoryOrg: "Chemistry", PositionTotalWeekHours: 4.5, PositionTotalPeriodHours: 7.25},
		},
		PeriodPunches: []gateway.PunchDTO{
			{PositionNumber: "100", BusinessTitle: "Custodian", ClockEventType: "check-in", TimeClockEventDateTime: at(1, 9, 0)},
			{PositionNumber: "100", BusinessTitle: "Custodian", ClockEventType: "check-out", TimeClockEventDateTime: at(1, 12, 0)},
			{PositionNumber: "200", BusinessTitle: "Lab Assistant", ClockEventType: "check-in", TimeClockEventDateTime: at(2, 22, 0)},
			{PositionNumber: "200", BusinessTitle: "Lab Assistant", ClockEventType: "check-out", TimeClockEventDateTime: at(1, 2, 0)},
		},
		PeriodBlocks: []gateway.PeriodBlockDTO{
			{PositionNumber: "100", BusinessTitle: "Custodian", TimeClockEventDateTimeIn: at(1, 9, 0), TimeClockEventDateTimeOut: at(1, 12, 0), Length: 3, ReferenceID: "blk-1"},
			{PositionNumber: "200", BusinessTitle: "Lab Assistant", TimeClockEventDateTimeIn: at(2, 22, 0), TimeClockEventDateTimeOut: at(1, 2, 0), Length: 4, ReferenceID: "blk-2"},
			{PositionNumber: "100", BusinessTitle: "Custodian", TimeClockEventDateTimeIn: "0001-01-01T00:00:00Z", TimeClockEventDateTimeOut: at(3, 17, 0), ReferenceID: "blk-3"},
		},
	})

	s.Put(gateway.EmployeeDTO{
		WorkerID:       "987654321",
		EmployeeName:   "Vera Cougar",
		TimeEntryCodes: regular,
		Positions: []gateway.PositionDTO{
			{PositionNumber: "300", PrimaryPosition: true, BusinessTitle: "Library Aide"},
		},
	})

	s.Put(gateway.EmployeeDTO{
		WorkerID:     "555555555",
		EmployeeName: "Una Eligible",
		Positions: []gateway.PositionDTO{
			{PositionNumber: "400", PrimaryPosition: true, BusinessTitle: "Volunteer"},
		},
	})
}
