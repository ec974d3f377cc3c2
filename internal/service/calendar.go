package service

import "time"

// WorkingDaysInMonth counts the Monday through Saturday days of the given
// calendar month. Sundays are the only non-working days; the monthly KPI
// budget for operators is spread over this count.
func WorkingDaysInMonth(year int, month time.Month) int {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	days := 0
	for d := first; d.Month() == month; d = d.AddDate(0, 0, 1) {
		if d.Weekday() != time.Sunday {
			days++
		}
	}
	return days
}
