package capacity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/arnavshah/capacity-planner-api/pkg/calendar"
	"github.com/arnavshah/capacity-planner-api/pkg/models"
)

// span is an assignment with its dates already parsed.
type span struct {
	staffID    uint
	start, end time.Time
}

func (s span) covers(day time.Time) bool {
	return !day.Before(s.start) && !day.After(s.end)
}

// parseSpans drops assignments whose dates do not parse or are reversed;
// those can only come from a damaged store.
func parseSpans(assignments []models.Assignment) []span {
	spans := make([]span, 0, len(assignments))
	for _, a := range assignments {
		start, err := calendar.ParseDate(a.Start)
		if err != nil {
			continue
		}
		end, err := calendar.ParseDate(a.End)
		if err != nil || end.Before(start) {
			continue
		}
		spans = append(spans, span{staffID: a.StaffID, start: start, end: end})
	}
	return spans
}

func (r *Resolver) neededOn(spans []span, day time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, s := range spans {
		if s.covers(day) {
			total = total.Add(decimal.NewFromFloat(r.NominalHours(s.staffID)))
		}
	}
	return total
}

// NeededHoursOn sums the nominal daily hours of every assignment active on
// day. Workdays and exceptions do not reduce demand, and overlapping
// assignments for one person each count in full.
func NeededHoursOn(rules models.CapacityRules, assignments []models.Assignment, day time.Time) float64 {
	return NewResolver(rules).neededOn(parseSpans(assignments), day).InexactFloat64()
}
