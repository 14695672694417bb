package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arnavshah/capacity-planner-api/pkg/calendar"
	"github.com/arnavshah/capacity-planner-api/pkg/capacity"
	"github.com/arnavshah/capacity-planner-api/pkg/database"
	"github.com/arnavshah/capacity-planner-api/pkg/export"
	"github.com/arnavshah/capacity-planner-api/pkg/metrics"
	"github.com/arnavshah/capacity-planner-api/pkg/models"
)

// Store is the persistence the handlers need
type Store interface {
	ListStaff(ctx context.Context) ([]models.Staff, error)
	GetStaff(ctx context.Context, id uint) (*models.Staff, error)
	CreateStaff(ctx context.Context, staff *models.Staff) error
	UpdateStaff(ctx context.Context, staff *models.Staff) error
	DeleteStaff(ctx context.Context, id uint) error

	ListProjects(ctx context.Context) ([]models.Project, error)
	GetProject(ctx context.Context, id uint) (*models.Project, error)
	CreateProject(ctx context.Context, project *models.Project) error
	UpdateProject(ctx context.Context, project *models.Project) error
	DeleteProject(ctx context.Context, id uint) error

	ListAssignments(ctx context.Context, f database.AssignmentFilter) ([]models.Assignment, error)
	GetAssignment(ctx context.Context, id uint) (*models.Assignment, error)
	CreateAssignment(ctx context.Context, a *models.Assignment) error
	UpdateAssignment(ctx context.Context, a *models.Assignment) error
	DeleteAssignment(ctx context.Context, id uint) error

	GetRules(ctx context.Context) (models.CapacityRules, error)
	SaveRules(ctx context.Context, rules models.CapacityRules) error
	LoadSnapshot(ctx context.Context, from, to string) (database.Snapshot, error)
}

// Handler contains dependencies for the route handlers
type Handler struct {
	Store  Store
	Logger *zap.Logger
}

// NewHandler creates a Handler
func NewHandler(store Store, logger *zap.Logger) *Handler {
	return &Handler{Store: store, Logger: logger}
}

// respondError maps domain errors onto HTTP responses
func (h *Handler) respondError(c *gin.Context, err error) {
	var verr *capacity.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": capacity.ErrValidation.Error(), "fields": verr.Fields})
	case errors.Is(err, database.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Record not found"})
	case errors.Is(err, database.ErrInUse):
		c.JSON(http.StatusConflict, gin.H{"error": "Record is still referenced by assignments"})
	default:
		_ = c.Error(err)
		h.Logger.Error("request failed",
			zap.String("route", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// forecastQuery holds the parameters shared by the forecast endpoints
type forecastQuery struct {
	From   string
	To     string
	Bucket string
}

func parseForecastQuery(c *gin.Context) (forecastQuery, error) {
	q := forecastQuery{
		From:   c.Query("from"),
		To:     c.Query("to"),
		Bucket: c.Query("bucket"),
	}
	// an empty bucket parameter counts as absent
	if q.Bucket == "" {
		q.Bucket = string(capacity.DefaultBucket)
	}
	return q, capacity.ValidateQuery(q.From, q.To, q.Bucket)
}

// runForecast loads a snapshot and computes the forecast for q
func (h *Handler) runForecast(ctx context.Context, q forecastQuery) (models.ForecastResult, error) {
	snap, err := h.Store.LoadSnapshot(ctx, q.From, q.To)
	if err != nil {
		return models.ForecastResult{}, err
	}

	started := time.Now()
	result, err := capacity.Forecast(snap.Rules, snap.Staff, snap.Assignments, q.From, q.To, q.Bucket)
	if err != nil {
		return models.ForecastResult{}, err
	}
	metrics.ForecastDurationSeconds.Observe(time.Since(started).Seconds())

	if days, err := calendar.DaysBetween(q.From, q.To); err == nil {
		metrics.ForecastRangeDays.Observe(float64(days + 1))
	}
	overloaded := 0
	for _, p := range result.Points {
		if p.Overloaded() {
			overloaded++
		}
	}
	metrics.OverloadedBuckets.Set(float64(overloaded))
	return result, nil
}

// forecastOutcome labels a forecast request for metrics
func forecastOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, capacity.ErrValidation):
		return "invalid"
	default:
		return "error"
	}
}

// Forecast handles GET /capacity/forecast
func (h *Handler) Forecast(c *gin.Context) {
	q, err := parseForecastQuery(c)
	if err != nil {
		metrics.ForecastRequestsTotal.WithLabelValues(metricBucket(q.Bucket), forecastOutcome(err)).Inc()
		h.respondError(c, err)
		return
	}

	result, err := h.runForecast(c.Request.Context(), q)
	metrics.ForecastRequestsTotal.WithLabelValues(q.Bucket, forecastOutcome(err)).Inc()
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ExportForecast handles GET /capacity/forecast/export and returns an xlsx workbook
func (h *Handler) ExportForecast(c *gin.Context) {
	q, err := parseForecastQuery(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	result, err := h.runForecast(c.Request.Context(), q)
	if err != nil {
		h.respondError(c, err)
		return
	}

	buf, err := export.Workbook(result, q.From, q.To)
	if err != nil {
		h.respondError(c, err)
		return
	}

	filename := url.QueryEscape(export.Filename(q.From, q.To, q.Bucket))
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+filename)
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}

// metricBucket keeps unknown bucket values out of metric label cardinality
func metricBucket(b string) string {
	if _, err := capacity.ParseBucket(b); err != nil {
		return "invalid"
	}
	return b
}

// GetRules handles GET /capacity/rules
func (h *Handler) GetRules(c *gin.Context) {
	rules, err := h.Store.GetRules(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rules)
}

// PutRules handles PUT /capacity/rules, replacing the whole document
func (h *Handler) PutRules(c *gin.Context) {
	rules, err := bindRules(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.saveRules(c, rules, "put")
}

// saveRules validates and stores rules, then echoes the stored document
func (h *Handler) saveRules(c *gin.Context, rules models.CapacityRules, source string) {
	if err := capacity.ValidateRules(rules); err != nil {
		h.respondError(c, err)
		return
	}
	if err := h.Store.SaveRules(c.Request.Context(), rules); err != nil {
		h.respondError(c, err)
		return
	}
	metrics.RulesUpdatesTotal.WithLabelValues(source).Inc()
	h.Logger.Info("capacity rules replaced",
		zap.String("source", source),
		zap.Int("overrides", len(rules.StaffOverrides)),
		zap.Int("exceptions", len(rules.Exceptions)),
	)

	rules.Normalize()
	c.JSON(http.StatusOK, rules)
}
