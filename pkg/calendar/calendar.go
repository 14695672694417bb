// Package calendar works with plain calendar dates in YYYY-MM-DD form.
// Dates carry no time-of-day or zone; internally they are midnight UTC so
// day arithmetic never crosses a DST transition.
package calendar

import (
	"errors"
	"fmt"
	"time"
)

// Layout is the only accepted date shape.
const Layout = "2006-01-02"

// ErrInvalidDateFormat is returned for anything that is not a zero-padded
// YYYY-MM-DD string naming a real day.
var ErrInvalidDateFormat = errors.New("invalid date format, expected YYYY-MM-DD")

// ParseDate parses an ISO calendar date.
func ParseDate(iso string) (time.Time, error) {
	if !wellFormed(iso) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateFormat, iso)
	}
	t, err := time.ParseInLocation(Layout, iso, time.UTC)
	if err != nil {
		// shape is right but the day does not exist, e.g. 2023-02-29
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateFormat, iso)
	}
	return t, nil
}

// MustParse is ParseDate for literals known to be valid.
func MustParse(iso string) time.Time {
	t, err := ParseDate(iso)
	if err != nil {
		panic(err)
	}
	return t
}

// FormatDate renders t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(Layout)
}

// AddDays shifts iso by n days (n may be negative).
func AddDays(iso string, n int) (string, error) {
	t, err := ParseDate(iso)
	if err != nil {
		return "", err
	}
	return FormatDate(t.AddDate(0, 0, n)), nil
}

// DaysBetween returns b - a in whole days.
func DaysBetween(a, b string) (int, error) {
	ta, err := ParseDate(a)
	if err != nil {
		return 0, err
	}
	tb, err := ParseDate(b)
	if err != nil {
		return 0, err
	}
	return DiffDays(ta, tb), nil
}

// WeekdayOf returns the ISO weekday of iso, Monday=1 .. Sunday=7.
func WeekdayOf(iso string) (int, error) {
	t, err := ParseDate(iso)
	if err != nil {
		return 0, err
	}
	return ISOWeekday(t), nil
}

// StartOfWeek returns the Monday on or before iso.
func StartOfWeek(iso string) (string, error) {
	t, err := ParseDate(iso)
	if err != nil {
		return "", err
	}
	return FormatDate(MondayOf(t)), nil
}

// StartOfMonth returns the first day of iso's month.
func StartOfMonth(iso string) (string, error) {
	t, err := ParseDate(iso)
	if err != nil {
		return "", err
	}
	return FormatDate(FirstOfMonth(t)), nil
}

// ISOWeekday converts Go's Sunday=0 numbering to ISO 1..7.
func ISOWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7
	}
	return wd
}

// MondayOf returns midnight of the Monday of t's ISO week.
func MondayOf(t time.Time) time.Time {
	d := StartOfDay(t)
	return d.AddDate(0, 0, -(ISOWeekday(d) - 1))
}

// FirstOfMonth returns midnight of day 1 of t's month.
func FirstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DiffDays returns the signed day distance b - a between the calendar days
// of a and b. It works on Unix seconds, so spans longer than a
// time.Duration can hold are still exact.
func DiffDays(a, b time.Time) int {
	return int((utcMidnight(b).Unix() - utcMidnight(a).Unix()) / secondsPerDay)
}

const secondsPerDay = 24 * 60 * 60

func utcMidnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Days returns every day from from to to inclusive. It returns nil when
// from is after to.
func Days(from, to time.Time) []time.Time {
	n := DiffDays(from, to)
	if n < 0 {
		return nil
	}
	days := make([]time.Time, 0, n+1)
	for d := StartOfDay(from); !d.After(to); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

func wellFormed(s string) bool {
	if len(s) != len(Layout) {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch i {
		case 4, 7:
			if c != '-' {
				return false
			}
		default:
			if c < '0' || c > '9' {
				return false
			}
		}
	}
	return true
}
