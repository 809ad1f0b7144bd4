package model

import (
	"time"

	"cloud.google.com/go/civil"
)

// IsZeroDate reports whether d was never set.
func IsZeroDate(d civil.Date) bool {
	return d == civil.Date{}
}

// AddMonths moves d forward by n calendar months, clamping the day to the
// last day of the target month (Jan 31 + 1 month = Feb 28/29).
func AddMonths(d civil.Date, n int) civil.Date {
	first := time.Date(d.Year, d.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	day := d.Day
	if last := daysIn(first.Year(), first.Month()); day > last {
		day = last
	}
	return civil.Date{Year: first.Year(), Month: first.Month(), Day: day}
}

// MonthsBetween returns the number of whole months elapsed from start to end.
// It is negative when end is before start.
func MonthsBetween(start, end civil.Date) int {
	if end.Before(start) {
		return -MonthsBetween(end, start)
	}
	months := (end.Year-start.Year)*12 + int(end.Month-start.Month)
	if AddMonths(start, months).After(end) {
		months--
	}
	return months
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
