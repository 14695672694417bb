package capacity

import (
	"github.com/arnavshah/capacity-planner-api/pkg/models"
)

// Forecast builds the daily series for [from, to] and folds it into
// buckets. It reads nothing but its arguments, so identical inputs always
// give identical output.
func Forecast(rules models.CapacityRules, staff []models.Staff, assignments []models.Assignment, from, to, bucket string) (models.ForecastResult, error) {
	start, end, err := parseRange(from, to)
	if err != nil {
		return models.ForecastResult{}, err
	}
	b, err := ParseBucket(bucket)
	if err != nil {
		return models.ForecastResult{}, err
	}

	rows := buildSeries(NewResolver(rules), staff, parseSpans(assignments), start, end)
	points, err := Bucketize(rows, b)
	if err != nil {
		return models.ForecastResult{}, err
	}
	return models.ForecastResult{Bucket: string(b), Points: points}, nil
}

// ValidateQuery checks forecast parameters without computing anything, so
// callers can reject a request before loading data for it.
func ValidateQuery(from, to, bucket string) error {
	if _, _, err := parseRange(from, to); err != nil {
		return err
	}
	_, err := ParseBucket(bucket)
	return err
}
