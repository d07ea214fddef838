// Package calendar computes the Monday-to-Sunday weeks the meal planner
// pages through.
package calendar

import (
	"fmt"
	"time"

	"github.com/dukerupert/larder/internal/model"
)

// DaysInWeek is the length of a planner week.
const DaysInWeek = 7

// StartOfDay truncates t to midnight in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Monday returns midnight on the Monday of the ISO week containing t.
func Monday(t time.Time) time.Time {
	day := StartOfDay(t)
	// time.Sunday is 0; shift so Monday is 0 and Sunday is 6.
	back := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -back)
}

// Week returns the seven dates, Monday first, of the week containing today
// shifted by offset weeks. Dates are built with AddDate so a daylight saving
// change inside the week never skips or repeats a day.
func Week(today time.Time, offset int) []time.Time {
	start := Monday(today).AddDate(0, 0, offset*DaysInWeek)
	days := make([]time.Time, DaysInWeek)
	for i := range days {
		days[i] = start.AddDate(0, 0, i)
	}
	return days
}

// ISODate formats t as the YYYY-MM-DD key meal plans are stored under.
func ISODate(t time.Time) string {
	return t.Format(model.DateLayout)
}

// Alias names a week relative to the current one. Weeks further than one
// away are labelled by their first and last day, e.g. "6 Jan - 12 Jan".
func Alias(offset int, days []time.Time) string {
	switch offset {
	case 0:
		return "this week"
	case 1:
		return "next week"
	case -1:
		return "last week"
	}
	if len(days) == 0 {
		return ""
	}
	first, last := days[0], days[len(days)-1]
	return fmt.Sprintf("%s - %s", first.Format("2 Jan"), last.Format("2 Jan"))
}
