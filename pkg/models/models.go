package models

// Staff represents a person whose time can be assigned to projects
type Staff struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"not null" json:"name"`
}

// Project represents a body of work that staff are assigned to
type Project struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"not null" json:"name"`
}

// Assignment commits a staff member to a project over an inclusive date span
type Assignment struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	StaffID   uint   `gorm:"index;not null" json:"staffId"`
	ProjectID uint   `gorm:"index;not null" json:"projectId"`
	Start     string `gorm:"column:start_date;index;not null" json:"start"`
	End       string `gorm:"column:end_date;index;not null" json:"end"`
	Notes     string `json:"notes,omitempty"`
}

// StaffOverride replaces the default hours and optionally the workdays of one staff member.
// A nil Workdays inherits the global workday set.
type StaffOverride struct {
	StaffID     uint    `json:"staffId" validate:"gt=0"`
	HoursPerDay float64 `json:"hoursPerDay" validate:"gte=0,lte=24"`
	Workdays    []int   `json:"workdays" validate:"omitempty,dive,min=1,max=7"`
}

// CapacityException overrides available hours on a single date.
// Without StaffID it applies to everyone; without Hours it means a day off.
type CapacityException struct {
	Date    string   `json:"date" validate:"isodate"`
	Hours   *float64 `json:"hours,omitempty" validate:"omitempty,gte=0,lte=24"`
	StaffID *uint    `json:"staffId,omitempty" validate:"omitempty,gt=0"`
	Reason  string   `json:"reason,omitempty"`
}

// HoursOrZero returns the exception's hours, treating an omitted value as a full day off
func (e CapacityException) HoursOrZero() float64 {
	if e.Hours == nil {
		return 0
	}
	return *e.Hours
}

// IsGlobal reports whether the exception applies to every staff member
func (e CapacityException) IsGlobal() bool {
	return e.StaffID == nil
}

// CapacityRules is the process-wide availability configuration
type CapacityRules struct {
	DefaultHoursPerDay float64             `json:"defaultHoursPerDay" validate:"gte=0,lte=24"`
	Workdays           []int               `json:"workdays" validate:"omitempty,dive,min=1,max=7"`
	StaffOverrides     []StaffOverride     `json:"staffOverrides" validate:"omitempty,dive"`
	Exceptions         []CapacityException `json:"exceptions" validate:"omitempty,dive"`
}

// DefaultCapacityRules returns the rules used when no document has been stored yet
func DefaultCapacityRules() CapacityRules {
	return CapacityRules{
		DefaultHoursPerDay: 8,
		Workdays:           []int{1, 2, 3, 4, 5},
		StaffOverrides:     []StaffOverride{},
		Exceptions:         []CapacityException{},
	}
}

// Normalize replaces nil lists with empty ones so the document always
// serializes with arrays rather than nulls
func (r *CapacityRules) Normalize() {
	if r.Workdays == nil {
		r.Workdays = []int{}
	}
	if r.StaffOverrides == nil {
		r.StaffOverrides = []StaffOverride{}
	}
	if r.Exceptions == nil {
		r.Exceptions = []CapacityException{}
	}
}

// DailyRow is one day of the forecast before bucketing
type DailyRow struct {
	Date      string  `json:"date"`
	Available float64 `json:"available"`
	Needed    float64 `json:"needed"`
}

// BucketPoint is the aggregated capacity of one day, week or month
type BucketPoint struct {
	BucketStart string  `json:"bucketStart"`
	Available   float64 `json:"available"`
	Needed      float64 `json:"needed"`
}

// Overloaded reports whether demand exceeds availability in the bucket
func (p BucketPoint) Overloaded() bool {
	return p.Needed > p.Available
}

// ForecastResult is the response of a forecast query
type ForecastResult struct {
	Bucket string        `json:"bucket"`
	Points []BucketPoint `json:"points"`
}
