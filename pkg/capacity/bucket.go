package capacity

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/arnavshah/capacity-planner-api/pkg/calendar"
	"github.com/arnavshah/capacity-planner-api/pkg/models"
)

// Bucket is the granularity of forecast points.
type Bucket string

const (
	BucketDay   Bucket = "day"
	BucketWeek  Bucket = "week"
	BucketMonth Bucket = "month"
)

// DefaultBucket is used by callers when no bucket is requested.
const DefaultBucket = BucketWeek

// ParseBucket accepts exactly day, week or month.
func ParseBucket(s string) (Bucket, error) {
	switch b := Bucket(s); b {
	case BucketDay, BucketWeek, BucketMonth:
		return b, nil
	}
	return "", fieldError("bucket", ErrInvalidBucket)
}

// Start returns the first day of the bucket containing day.
func (b Bucket) Start(day time.Time) time.Time {
	switch b {
	case BucketWeek:
		return calendar.MondayOf(day)
	case BucketMonth:
		return calendar.FirstOfMonth(day)
	default:
		return calendar.StartOfDay(day)
	}
}

type tally struct {
	available decimal.Decimal
	needed    decimal.Decimal
}

// Bucketize folds daily rows into buckets keyed by their first day, in
// ascending order. Only the rows given contribute; edge buckets are not
// padded to full weeks or months.
func Bucketize(rows []models.DailyRow, bucket Bucket) ([]models.BucketPoint, error) {
	if _, err := ParseBucket(string(bucket)); err != nil {
		return nil, err
	}

	sums := make(map[string]*tally)
	for _, row := range rows {
		day, err := calendar.ParseDate(row.Date)
		if err != nil {
			return nil, fieldError("date", err)
		}
		key := calendar.FormatDate(bucket.Start(day))
		t, ok := sums[key]
		if !ok {
			t = &tally{available: decimal.Zero, needed: decimal.Zero}
			sums[key] = t
		}
		t.available = t.available.Add(decimal.NewFromFloat(row.Available))
		t.needed = t.needed.Add(decimal.NewFromFloat(row.Needed))
	}

	keys := make([]string, 0, len(sums))
	for k := range sums {
		keys = append(keys, k)
	}
	// ISO dates sort lexically in calendar order
	sort.Strings(keys)

	points := make([]models.BucketPoint, 0, len(keys))
	for _, k := range keys {
		points = append(points, models.BucketPoint{
			BucketStart: k,
			Available:   sums[k].available.InexactFloat64(),
			Needed:      sums[k].needed.InexactFloat64(),
		})
	}
	return points, nil
}
