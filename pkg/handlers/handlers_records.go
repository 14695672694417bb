package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arnavshah/capacity-planner-api/pkg/calendar"
	"github.com/arnavshah/capacity-planner-api/pkg/capacity"
	"github.com/arnavshah/capacity-planner-api/pkg/database"
	"github.com/arnavshah/capacity-planner-api/pkg/models"
)

// ListStaff handles GET /staff
func (h *Handler) ListStaff(c *gin.Context) {
	staff, err := h.Store.ListStaff(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, staff)
}

// GetStaff handles GET /staff/:id
func (h *Handler) GetStaff(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	staff, err := h.Store.GetStaff(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, staff)
}

// CreateStaff handles POST /staff
func (h *Handler) CreateStaff(c *gin.Context) {
	name, err := bindName(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	staff := models.Staff{Name: name}
	if err := h.Store.CreateStaff(c.Request.Context(), &staff); err != nil {
		h.respondError(c, err)
		return
	}
	h.Logger.Info("staff created", zap.Uint("id", staff.ID))
	c.JSON(http.StatusCreated, staff)
}

// UpdateStaff handles PUT /staff/:id
func (h *Handler) UpdateStaff(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	name, err := bindName(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	staff := models.Staff{ID: id, Name: name}
	if err := h.Store.UpdateStaff(c.Request.Context(), &staff); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, staff)
}

// DeleteStaff handles DELETE /staff/:id
func (h *Handler) DeleteStaff(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.Store.DeleteStaff(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	h.Logger.Info("staff deleted", zap.Uint("id", id))
	c.Status(http.StatusNoContent)
}

// ListProjects handles GET /projects
func (h *Handler) ListProjects(c *gin.Context) {
	projects, err := h.Store.ListProjects(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, projects)
}

// GetProject handles GET /projects/:id
func (h *Handler) GetProject(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	project, err := h.Store.GetProject(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

// CreateProject handles POST /projects
func (h *Handler) CreateProject(c *gin.Context) {
	name, err := bindName(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	project := models.Project{Name: name}
	if err := h.Store.CreateProject(c.Request.Context(), &project); err != nil {
		h.respondError(c, err)
		return
	}
	h.Logger.Info("project created", zap.Uint("id", project.ID))
	c.JSON(http.StatusCreated, project)
}

// UpdateProject handles PUT /projects/:id
func (h *Handler) UpdateProject(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	name, err := bindName(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	project := models.Project{ID: id, Name: name}
	if err := h.Store.UpdateProject(c.Request.Context(), &project); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

// DeleteProject handles DELETE /projects/:id
func (h *Handler) DeleteProject(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.Store.DeleteProject(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	h.Logger.Info("project deleted", zap.Uint("id", id))
	c.Status(http.StatusNoContent)
}

// ListAssignments handles GET /assignments with optional staffId, from and to filters
func (h *Handler) ListAssignments(c *gin.Context) {
	var f database.AssignmentFilter
	if v := c.Query("staffId"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil || id == 0 {
			h.respondError(c, capacity.Invalid("staffId", "must be a positive integer"))
			return
		}
		f.StaffID = uint(id)
	}
	bounds := []struct {
		field string
		dst   *string
	}{{"from", &f.From}, {"to", &f.To}}
	for _, b := range bounds {
		v := c.Query(b.field)
		if v == "" {
			continue
		}
		if _, err := calendar.ParseDate(v); err != nil {
			h.respondError(c, capacity.Invalid(b.field, err.Error()))
			return
		}
		*b.dst = v
	}

	assignments, err := h.Store.ListAssignments(c.Request.Context(), f)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, assignments)
}

// GetAssignment handles GET /assignments/:id
func (h *Handler) GetAssignment(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	a, err := h.Store.GetAssignment(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// CreateAssignment handles POST /assignments
func (h *Handler) CreateAssignment(c *gin.Context) {
	a, err := h.bindAssignment(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.Store.CreateAssignment(c.Request.Context(), &a); err != nil {
		h.respondError(c, err)
		return
	}
	h.Logger.Info("assignment created",
		zap.Uint("id", a.ID),
		zap.Uint("staff_id", a.StaffID),
		zap.Uint("project_id", a.ProjectID),
	)
	c.JSON(http.StatusCreated, a)
}

// UpdateAssignment handles PUT /assignments/:id
func (h *Handler) UpdateAssignment(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	a, err := h.bindAssignment(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	a.ID = id
	if err := h.Store.UpdateAssignment(c.Request.Context(), &a); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// DeleteAssignment handles DELETE /assignments/:id
func (h *Handler) DeleteAssignment(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.Store.DeleteAssignment(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
