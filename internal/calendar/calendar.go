// Package calendar holds the civil-date arithmetic shared by the billing,
// recurring and projection packages. Dates are time.Time values at midnight UTC.
package calendar

import (
	"fmt"
	"time"
)

const (
	// DateLayout is the wire format for dates.
	DateLayout = "2006-01-02"
	// PeriodLayout is the wire format for statement periods and budget months.
	PeriodLayout = "2006-01"
)

// Date returns midnight UTC of the given civil date. Out-of-range days are
// normalized the way time.Date does; use ClampDay first when that matters.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Truncate drops the time-of-day and location, keeping the civil date as seen in t's location.
func Truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return Date(y, m, d)
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return Date(year, month+1, 0).Day()
}

// ClampDay forces day into [1, DaysIn(year, month)].
func ClampDay(year int, month time.Month, day int) int {
	if day < 1 {
		return 1
	}
	if n := DaysIn(year, month); day > n {
		return n
	}
	return day
}

// ClampedDate builds a date whose day is clamped to the month length.
func ClampedDate(year int, month time.Month, day int) time.Time {
	return Date(year, month, ClampDay(year, month, day))
}

// MonthStart returns the first day of t's month.
func MonthStart(t time.Time) time.Time {
	return Date(t.Year(), t.Month(), 1)
}

// MonthEnd returns the last day of t's month.
func MonthEnd(t time.Time) time.Time {
	return Date(t.Year(), t.Month(), DaysIn(t.Year(), t.Month()))
}

// IsLastDay reports whether t is the last day of its month.
func IsLastDay(t time.Time) bool {
	return t.Day() == DaysIn(t.Year(), t.Month())
}

// AddMonths moves t by n calendar months, clamping the day to the target month
// (Jan 31 + 1 month = Feb 28/29).
func AddMonths(t time.Time, n int) time.Time {
	first := Date(t.Year(), t.Month()+time.Month(n), 1)
	return ClampedDate(first.Year(), first.Month(), t.Day())
}

// SameMonth reports whether a and b fall in the same calendar month.
func SameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// MonthIndex orders months: later months compare greater.
func MonthIndex(t time.Time) int {
	return t.Year()*12 + int(t.Month()) - 1
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// ParsePeriod parses a YYYY-MM string into the first day of that month.
func ParsePeriod(s string) (time.Time, error) {
	t, err := time.Parse(PeriodLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid period %q: %w", s, err)
	}
	return t, nil
}

// FormatPeriod renders a period as YYYY-MM.
func FormatPeriod(t time.Time) string {
	return t.Format(PeriodLayout)
}
