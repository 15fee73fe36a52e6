package smoke

import (
	"fmt"
)

// calendarCells is the size of the month grid: six full weeks.
const calendarCells = 42

func verifySession(s session, config *Config) error {
	if s.HandleID == "" {
		return fmt.Errorf("session has no handle")
	}
	if s.Employee.ID != config.EmployeeID {
		return fmt.Errorf("logged in as %s, want %s", s.Employee.ID, config.EmployeeID)
	}
	for _, p := range s.Employee.Positions {
		if p.PositionNumber == config.PositionNumber {
			return nil
		}
	}
	return fmt.Errorf("employee %s has no position %s", config.EmployeeID, config.PositionNumber)
}

func verifyCalendar(grid calendarGrid, selected string) error {
	if len(grid.Cells) != calendarCells {
		return fmt.Errorf("calendar has %d cells, want %d", len(grid.Cells), calendarCells)
	}
	for _, c := range grid.Cells {
		if c.Date == selected {
			return nil
		}
	}
	return fmt.Errorf("selected date %s missing from the calendar", selected)
}
