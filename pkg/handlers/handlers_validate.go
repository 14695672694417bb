package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/arnavshah/capacity-planner-api/pkg/calendar"
	"github.com/arnavshah/capacity-planner-api/pkg/capacity"
	"github.com/arnavshah/capacity-planner-api/pkg/database"
	"github.com/arnavshah/capacity-planner-api/pkg/models"
)

// namedInput is the request body for staff and project writes
type namedInput struct {
	Name string `json:"name"`
}

// assignmentInput is the request body for assignment writes
type assignmentInput struct {
	StaffID   uint   `json:"staffId"`
	ProjectID uint   `json:"projectId"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Notes     string `json:"notes"`
}

// rulesInput is the body of PUT /capacity/rules. defaultHoursPerDay and
// workdays must be present.
type rulesInput struct {
	DefaultHoursPerDay *float64                   `json:"defaultHoursPerDay"`
	Workdays           []int                      `json:"workdays"`
	StaffOverrides     []models.StaffOverride     `json:"staffOverrides"`
	Exceptions         []models.CapacityException `json:"exceptions"`
}

// bindRules decodes a full rules document. An explicit empty workdays list
// is accepted; a missing or null one is not.
func bindRules(c *gin.Context) (models.CapacityRules, error) {
	var in rulesInput
	if err := c.ShouldBindJSON(&in); err != nil {
		return models.CapacityRules{}, capacity.Invalid("body", err.Error())
	}

	verr := &capacity.ValidationError{}
	if in.DefaultHoursPerDay == nil {
		verr.Fields = append(verr.Fields, capacity.FieldError{Field: "defaultHoursPerDay", Message: "is required"})
	}
	if in.Workdays == nil {
		verr.Fields = append(verr.Fields, capacity.FieldError{Field: "workdays", Message: "is required"})
	}
	if len(verr.Fields) > 0 {
		return models.CapacityRules{}, verr
	}

	return models.CapacityRules{
		DefaultHoursPerDay: *in.DefaultHoursPerDay,
		Workdays:           in.Workdays,
		StaffOverrides:     in.StaffOverrides,
		Exceptions:         in.Exceptions,
	}, nil
}

// pathID reads the :id route parameter
func pathID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, capacity.Invalid("id", "must be a positive integer")
	}
	return uint(id), nil
}

// bindName decodes and trims a name body
func bindName(c *gin.Context) (string, error) {
	var in namedInput
	if err := c.ShouldBindJSON(&in); err != nil {
		return "", capacity.Invalid("body", err.Error())
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return "", capacity.Invalid("name", "is required")
	}
	return name, nil
}

// bindAssignment decodes an assignment body and checks its shape and
// references. Every field problem is reported, not just the first.
func (h *Handler) bindAssignment(c *gin.Context) (models.Assignment, error) {
	var in assignmentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		return models.Assignment{}, capacity.Invalid("body", err.Error())
	}

	verr := &capacity.ValidationError{}
	if in.StaffID == 0 {
		verr.Fields = append(verr.Fields, capacity.FieldError{Field: "staffId", Message: "is required"})
	}
	if in.ProjectID == 0 {
		verr.Fields = append(verr.Fields, capacity.FieldError{Field: "projectId", Message: "is required"})
	}
	start, startErr := calendar.ParseDate(in.Start)
	if startErr != nil {
		verr.Fields = append(verr.Fields, capacity.FieldError{Field: "start", Message: startErr.Error()})
	}
	end, endErr := calendar.ParseDate(in.End)
	if endErr != nil {
		verr.Fields = append(verr.Fields, capacity.FieldError{Field: "end", Message: endErr.Error()})
	}
	if startErr == nil && endErr == nil && end.Before(start) {
		verr.Fields = append(verr.Fields, capacity.FieldError{Field: "end", Message: "must not be before start"})
	}

	if err := h.checkReferences(c.Request.Context(), in, verr); err != nil {
		return models.Assignment{}, err
	}
	if len(verr.Fields) > 0 {
		return models.Assignment{}, verr
	}

	return models.Assignment{
		StaffID:   in.StaffID,
		ProjectID: in.ProjectID,
		Start:     in.Start,
		End:       in.End,
		Notes:     strings.TrimSpace(in.Notes),
	}, nil
}

// checkReferences adds a field error for each id that does not resolve.
// Only storage failures are returned.
func (h *Handler) checkReferences(ctx context.Context, in assignmentInput, verr *capacity.ValidationError) error {
	if in.StaffID != 0 {
		if _, err := h.Store.GetStaff(ctx, in.StaffID); err != nil {
			if !errors.Is(err, database.ErrNotFound) {
				return err
			}
			verr.Fields = append(verr.Fields, capacity.FieldError{Field: "staffId", Message: "unknown staff member"})
		}
	}
	if in.ProjectID != 0 {
		if _, err := h.Store.GetProject(ctx, in.ProjectID); err != nil {
			if !errors.Is(err, database.ErrNotFound) {
				return err
			}
			verr.Fields = append(verr.Fields, capacity.FieldError{Field: "projectId", Message: "unknown project"})
		}
	}
	return nil
}
