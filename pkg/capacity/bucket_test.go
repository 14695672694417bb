package capacity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnavshah/capacity-planner-api/pkg/calendar"
	"github.com/arnavshah/capacity-planner-api/pkg/models"
)

func TestParseBucket(t *testing.T) {
	for _, s := range []string{"day", "week", "month"} {
		b, err := ParseBucket(s)
		require.NoError(t, err)
		assert.Equal(t, Bucket(s), b)
	}
	for _, s := range []string{"", "Week", "quarter", " day"} {
		_, err := ParseBucket(s)
		assert.ErrorIs(t, err, ErrInvalidBucket, s)
	}
}

func TestBucketStart(t *testing.T) {
	sunday := calendar.MustParse("2024-09-01")
	assert.Equal(t, "2024-09-01", calendar.FormatDate(BucketDay.Start(sunday)))
	assert.Equal(t, "2024-08-26", calendar.FormatDate(BucketWeek.Start(sunday)))
	assert.Equal(t, "2024-09-01", calendar.FormatDate(BucketMonth.Start(sunday)))
}

func TestBucketize_SortsAndSums(t *testing.T) {
	rows := []models.DailyRow{
		{Date: "2024-02-01", Available: 1, Needed: 2},
		{Date: "2024-01-31", Available: 3, Needed: 0.5},
		{Date: "2024-02-02", Available: 4, Needed: 1},
	}

	points, err := Bucketize(rows, BucketMonth)
	require.NoError(t, err)
	assert.Equal(t, []models.BucketPoint{
		{BucketStart: "2024-01-01", Available: 3, Needed: 0.5},
		{BucketStart: "2024-02-01", Available: 5, Needed: 3},
	}, points)

	points, err = Bucketize(rows, BucketDay)
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, "2024-01-31", points[0].BucketStart)
}

func TestBucketize_Empty(t *testing.T) {
	points, err := Bucketize(nil, BucketWeek)
	require.NoError(t, err)
	assert.Empty(t, points)
	assert.NotNil(t, points)
}

func TestBucketize_Errors(t *testing.T) {
	_, err := Bucketize([]models.DailyRow{{Date: "2024-01-01"}}, Bucket("year"))
	assert.ErrorIs(t, err, ErrInvalidBucket)

	_, err = Bucketize([]models.DailyRow{{Date: "01/01/2024"}}, BucketDay)
	assert.ErrorIs(t, err, calendar.ErrInvalidDateFormat)
	assert.ErrorIs(t, err, ErrValidation)
}
