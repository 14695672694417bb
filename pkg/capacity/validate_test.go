package capacity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnavshah/capacity-planner-api/pkg/models"
)

func TestValidateRules_Defaults(t *testing.T) {
	assert.NoError(t, ValidateRules(models.DefaultCapacityRules()))
	assert.NoError(t, ValidateRules(models.CapacityRules{}))
}

func TestValidateRules_ReportsEveryField(t *testing.T) {
	rules := models.CapacityRules{
		DefaultHoursPerDay: -1,
		Workdays:           []int{1, 8},
		StaffOverrides: []models.StaffOverride{
			{StaffID: 0, HoursPerDay: 25},
			{StaffID: 3, HoursPerDay: 4, Workdays: []int{0}},
		},
		Exceptions: []models.CapacityException{
			{Date: "2024-13-01"},
			{Date: "2024-12-25", Hours: hours(-2), StaffID: staffRef(0)},
		},
	}

	err := ValidateRules(rules)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))

	got := make(map[string]string)
	for _, f := range verr.Fields {
		got[f.Field] = f.Message
	}
	assert.Equal(t, "must be at least 0", got["defaultHoursPerDay"])
	assert.Equal(t, "must be at most 7", got["workdays[1]"])
	assert.Equal(t, "must be greater than 0", got["staffOverrides[0].staffId"])
	assert.Equal(t, "must be at most 24", got["staffOverrides[0].hoursPerDay"])
	assert.Equal(t, "must be at least 1", got["staffOverrides[1].workdays[0]"])
	assert.Contains(t, got["exceptions[0].date"], "YYYY-MM-DD")
	assert.Equal(t, "must be at least 0", got["exceptions[1].hours"])
	assert.Equal(t, "must be greater than 0", got["exceptions[1].staffId"])
	assert.Len(t, verr.Fields, 8)
}

func TestValidateRules_DuplicateOverride(t *testing.T) {
	rules := models.DefaultCapacityRules()
	rules.StaffOverrides = []models.StaffOverride{
		{StaffID: 4, HoursPerDay: 6},
		{StaffID: 4, HoursPerDay: 7},
	}

	var verr *ValidationError
	require.ErrorAs(t, ValidateRules(rules), &verr)
	require.Len(t, verr.Fields, 1)
	assert.Equal(t, "staffOverrides[1].staffId", verr.Fields[0].Field)
}
