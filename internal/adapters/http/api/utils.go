package api

import (
	"fmt"
	"strconv"
	"time"

	"github.com/okian/timeclock/internal/domain/calendar"
)

const (
	dateLayout   = "2006-01-02"
	maxBodyBytes = 64 << 10
)

// parseDate reads a YYYY-MM-DD date at midnight in loc.
func parseDate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrBadRequest)
	}
	return t, nil
}

// parseMonth reads the year and month query values. Both empty selects the
// zero month.
func parseMonth(year, month string) (calendar.Month, error) {
	if year == "" && month == "" {
		return calendar.Month{}, nil
	}
	y, err := strconv.Atoi(year)
	if err != nil || y < 1 {
		return calendar.Month{}, fmt.Errorf("%w: invalid year", ErrBadRequest)
	}
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return calendar.Month{}, fmt.Errorf("%w: month must be 1-12", ErrBadRequest)
	}
	return calendar.Month{Year: y, Month: time.Month(m)}, nil
}
