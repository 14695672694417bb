// Package capacity computes staff availability against assignment demand.
// Everything here is a pure function of its arguments.
package capacity

import (
	"time"

	"github.com/arnavshah/capacity-planner-api/pkg/calendar"
	"github.com/arnavshah/capacity-planner-api/pkg/models"
)

type staffDate struct {
	staffID uint
	date    string
}

type weekdaySet [8]bool

func newWeekdaySet(days []int) weekdaySet {
	var s weekdaySet
	for _, d := range days {
		if d >= 1 && d <= 7 {
			s[d] = true
		}
	}
	return s
}

func (s weekdaySet) has(day time.Time) bool {
	return s[calendar.ISOWeekday(day)]
}

// Resolver answers availability questions for one rules document. It
// indexes exceptions and overrides up front so lookups are constant time.
type Resolver struct {
	defaultHours     float64
	workdays         weekdaySet
	overrides        map[uint]models.StaffOverride
	overrideDays     map[uint]weekdaySet
	staffExceptions  map[staffDate]float64
	globalExceptions map[string]float64
}

// NewResolver indexes rules. When several entries share a key the later
// one in the document wins.
func NewResolver(rules models.CapacityRules) *Resolver {
	r := &Resolver{
		defaultHours:     rules.DefaultHoursPerDay,
		workdays:         newWeekdaySet(rules.Workdays),
		overrides:        make(map[uint]models.StaffOverride, len(rules.StaffOverrides)),
		overrideDays:     make(map[uint]weekdaySet),
		staffExceptions:  make(map[staffDate]float64),
		globalExceptions: make(map[string]float64),
	}
	for _, o := range rules.StaffOverrides {
		r.overrides[o.StaffID] = o
		if o.Workdays != nil {
			r.overrideDays[o.StaffID] = newWeekdaySet(o.Workdays)
		} else {
			delete(r.overrideDays, o.StaffID)
		}
	}
	for _, e := range rules.Exceptions {
		if e.IsGlobal() {
			r.globalExceptions[e.Date] = e.HoursOrZero()
			continue
		}
		r.staffExceptions[staffDate{staffID: *e.StaffID, date: e.Date}] = e.HoursOrZero()
	}
	return r
}

// hoursRule yields a value and true when it applies to the staff/date pair.
type hoursRule func(r *Resolver, staffID uint, date string) (float64, bool)

// hoursPrecedence is evaluated in order; the first matching rule wins.
var hoursPrecedence = []hoursRule{
	staffExceptionHours,
	globalExceptionHours,
	overrideHours,
	defaultHours,
}

func staffExceptionHours(r *Resolver, staffID uint, date string) (float64, bool) {
	h, ok := r.staffExceptions[staffDate{staffID: staffID, date: date}]
	return h, ok
}

func globalExceptionHours(r *Resolver, _ uint, date string) (float64, bool) {
	h, ok := r.globalExceptions[date]
	return h, ok
}

func overrideHours(r *Resolver, staffID uint, _ string) (float64, bool) {
	o, ok := r.overrides[staffID]
	return o.HoursPerDay, ok
}

func defaultHours(r *Resolver, _ uint, _ string) (float64, bool) {
	return r.defaultHours, true
}

// EffectiveHours returns the hours staffID can work on day after applying
// exceptions, overrides and the default.
func (r *Resolver) EffectiveHours(staffID uint, day time.Time) float64 {
	date := calendar.FormatDate(day)
	for _, rule := range hoursPrecedence {
		if h, ok := rule(r, staffID, date); ok {
			return h
		}
	}
	return r.defaultHours
}

// NominalHours returns staffID's ordinary daily hours, ignoring exceptions.
func (r *Resolver) NominalHours(staffID uint) float64 {
	if h, ok := overrideHours(r, staffID, ""); ok {
		return h
	}
	return r.defaultHours
}

// WorksOn reports whether day's weekday is in staffID's workday set.
func (r *Resolver) WorksOn(staffID uint, day time.Time) bool {
	if days, ok := r.overrideDays[staffID]; ok {
		return days.has(day)
	}
	return r.workdays.has(day)
}

// EffectiveHours resolves available hours for a single staff/day pair.
func EffectiveHours(rules models.CapacityRules, staffID uint, day time.Time) float64 {
	return NewResolver(rules).EffectiveHours(staffID, day)
}

// WorksOn reports whether staffID nominally works on day.
func WorksOn(rules models.CapacityRules, staffID uint, day time.Time) bool {
	return NewResolver(rules).WorksOn(staffID, day)
}
