package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const hoursPrecision = 2

var (
	minutesPerHour = decimal.NewFromInt(60)
	hoursPerDay    = decimal.NewFromInt(24)
)

// Hours is the wall-clock length of a fully defined block. An end clock
// time earlier than the start wraps past midnight. Undefined blocks count
// as zero.
func (b PeriodBlock) Hours() decimal.Decimal {
	if b.Undefined() {
		return decimal.Zero
	}
	diff := clockHours(*b.End).Sub(clockHours(*b.Start))
	if diff.IsNegative() {
		diff = diff.Add(hoursPerDay)
	}
	return diff
}

func clockHours(t time.Time) decimal.Decimal {
	return decimal.NewFromInt(int64(t.Hour())).
		Add(decimal.NewFromInt(int64(t.Minute())).Div(minutesPerHour))
}

// TotalHours sums the fully defined blocks of every position on date,
// rounded to two decimals.
func (e *Employee) TotalHours(date time.Time) float64 {
	sum := decimal.Zero
	for i := range e.Positions {
		d, ok := e.Positions[i].DayOn(date)
		if !ok {
			continue
		}
		for _, b := range d.PeriodBlocks {
			sum = sum.Add(b.Hours())
		}
	}
	return sum.Round(hoursPrecision).InexactFloat64()
}

// ApplyTotalHours stores TotalHours(date) as both the punched and reported
// hours of every position's day on date.
func (e *Employee) ApplyTotalHours(date time.Time) float64 {
	total := e.TotalHours(date)
	for i := range e.Positions {
		if d, ok := e.Positions[i].DayOn(date); ok {
			d.PunchedHours = total
			d.ReportedHours = total
		}
	}
	return total
}

// FormatHours renders decimal hours as H:MM, the way the kiosk shows
// weekly and period totals.
func FormatHours(h float64) string {
	d := decimal.NewFromFloat(h)
	whole := d.Floor()
	minutes := d.Sub(whole).Mul(minutesPerHour).Round(0).IntPart()
	hours := whole.IntPart()
	if minutes == 60 {
		hours++
		minutes = 0
	}
	return fmt.Sprintf("%d:%02d", hours, minutes)
}
