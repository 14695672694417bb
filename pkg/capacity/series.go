package capacity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/arnavshah/capacity-planner-api/pkg/calendar"
	"github.com/arnavshah/capacity-planner-api/pkg/models"
)

func (r *Resolver) availableOn(staff []models.Staff, day time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, s := range staff {
		if r.WorksOn(s.ID, day) {
			total = total.Add(decimal.NewFromFloat(r.EffectiveHours(s.ID, day)))
		}
	}
	return total
}

// parseRange validates and parses an inclusive from/to pair.
func parseRange(from, to string) (time.Time, time.Time, error) {
	start, err := calendar.ParseDate(from)
	if err != nil {
		return time.Time{}, time.Time{}, fieldError("from", err)
	}
	end, err := calendar.ParseDate(to)
	if err != nil {
		return time.Time{}, time.Time{}, fieldError("to", err)
	}
	if start.After(end) {
		return time.Time{}, time.Time{}, fieldError("from", ErrInvalidRange)
	}
	return start, end, nil
}

func buildSeries(r *Resolver, staff []models.Staff, spans []span, start, end time.Time) []models.DailyRow {
	days := calendar.Days(start, end)
	rows := make([]models.DailyRow, 0, len(days))
	for _, day := range days {
		rows = append(rows, models.DailyRow{
			Date:      calendar.FormatDate(day),
			Available: r.availableOn(staff, day).InexactFloat64(),
			Needed:    r.neededOn(spans, day).InexactFloat64(),
		})
	}
	return rows
}

// BuildDailySeries returns one row per calendar day from from to to inclusive.
func BuildDailySeries(rules models.CapacityRules, staff []models.Staff, assignments []models.Assignment, from, to string) ([]models.DailyRow, error) {
	start, end, err := parseRange(from, to)
	if err != nil {
		return nil, err
	}
	return buildSeries(NewResolver(rules), staff, parseSpans(assignments), start, end), nil
}
