// Package holidays turns iCalendar feeds into capacity exceptions.
package holidays

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/arnavshah/capacity-planner-api/pkg/calendar"
	"github.com/arnavshah/capacity-planner-api/pkg/models"
)

// MaxFileSize bounds how much of an uploaded calendar is read
const MaxFileSize = 5 * 1024 * 1024

// maxEventDays caps a single event so a broken DTEND cannot explode the rules document
const maxEventDays = 366

var (
	// ErrInvalidCalendar is returned when the input is not parseable iCalendar
	ErrInvalidCalendar = errors.New("invalid iCalendar data")
	// ErrNoEvents is returned when the calendar has no all-day events
	ErrNoEvents = errors.New("calendar contains no all-day events")
)

// Options describes the exceptions generated for every imported day
type Options struct {
	// Hours left available on each day; nil means the whole day is off
	Hours *float64
	// StaffID scopes the exceptions to one person; nil makes them global
	StaffID *uint
}

// Parse reads all-day VEVENTs and returns one exception per covered day.
// Timed events are ignored.
func Parse(r io.Reader, opts Options) ([]models.CapacityException, error) {
	cal, err := ics.ParseCalendar(io.LimitReader(r, MaxFileSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCalendar, err)
	}

	var out []models.CapacityException
	for _, evt := range cal.Events() {
		start, end, ok := allDaySpan(evt)
		if !ok {
			continue
		}
		reason := ""
		if p := evt.GetProperty(ics.ComponentPropertySummary); p != nil {
			reason = strings.TrimSpace(p.Value)
		}
		for _, day := range calendar.Days(start, end) {
			out = append(out, models.CapacityException{
				Date:    calendar.FormatDate(day),
				Hours:   opts.Hours,
				StaffID: opts.StaffID,
				Reason:  reason,
			})
		}
	}

	if len(out) == 0 {
		return nil, ErrNoEvents
	}
	return out, nil
}

// allDaySpan returns the inclusive first and last day of an all-day event.
func allDaySpan(evt *ics.VEvent) (time.Time, time.Time, bool) {
	startProp := evt.GetProperty(ics.ComponentPropertyDtStart)
	if startProp == nil {
		return time.Time{}, time.Time{}, false
	}
	start, ok := parseDateValue(startProp.Value)
	if !ok {
		return time.Time{}, time.Time{}, false
	}

	// DTEND of an all-day event is exclusive
	end := start
	if endProp := evt.GetProperty(ics.ComponentPropertyDtEnd); endProp != nil {
		if exclusive, ok := parseDateValue(endProp.Value); ok && exclusive.After(start) {
			end = exclusive.AddDate(0, 0, -1)
		}
	}
	if calendar.DiffDays(start, end) >= maxEventDays {
		end = start.AddDate(0, 0, maxEventDays-1)
	}
	return start, end, true
}

// parseDateValue accepts the DATE form (20241225) only.
func parseDateValue(v string) (time.Time, bool) {
	t, err := time.ParseInLocation("20060102", strings.TrimSpace(v), time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

type exceptionKey struct {
	date    string
	staffID uint
}

func keyOf(e models.CapacityException) exceptionKey {
	k := exceptionKey{date: e.Date}
	if e.StaffID != nil {
		k.staffID = *e.StaffID
	}
	return k
}

// Merge adds imported exceptions to existing ones. An imported entry
// replaces any existing entry for the same date and scope.
func Merge(existing, imported []models.CapacityException) []models.CapacityException {
	replaced := make(map[exceptionKey]bool, len(imported))
	for _, e := range imported {
		replaced[keyOf(e)] = true
	}

	merged := make([]models.CapacityException, 0, len(existing)+len(imported))
	for _, e := range existing {
		if !replaced[keyOf(e)] {
			merged = append(merged, e)
		}
	}

	seen := make(map[exceptionKey]bool, len(imported))
	for _, e := range imported {
		if seen[keyOf(e)] {
			continue
		}
		seen[keyOf(e)] = true
		merged = append(merged, e)
	}
	return merged
}
