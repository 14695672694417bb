// Package server assembles the HTTP engine shared by the standalone server
// and the serverless entrypoint.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/arnavshah/capacity-planner-api/pkg/config"
	"github.com/arnavshah/capacity-planner-api/pkg/handlers"
	"github.com/arnavshah/capacity-planner-api/pkg/metrics"
	"github.com/arnavshah/capacity-planner-api/pkg/middleware"
)

// Version is reported by the root route
const Version = "1.0.0"

// NewEngine wires middleware and routes onto a fresh gin engine
func NewEngine(cfg *config.ServerConfig, h *handlers.Handler, logger *zap.Logger) *gin.Engine {
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Metrics(),
		middleware.CORS(cfg.CORSOrigins),
	)

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Capacity Planner API",
			"version": Version,
		})
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	capacity := r.Group("/capacity")
	{
		capacity.GET("/forecast", h.Forecast)
		capacity.GET("/forecast/export", h.ExportForecast)
		capacity.GET("/rules", h.GetRules)
		capacity.PUT("/rules", h.PutRules)
		capacity.POST("/rules/holidays", h.ImportHolidays)
	}

	staff := r.Group("/staff")
	{
		staff.GET("", h.ListStaff)
		staff.POST("", h.CreateStaff)
		staff.GET("/:id", h.GetStaff)
		staff.PUT("/:id", h.UpdateStaff)
		staff.DELETE("/:id", h.DeleteStaff)
	}

	projects := r.Group("/projects")
	{
		projects.GET("", h.ListProjects)
		projects.POST("", h.CreateProject)
		projects.GET("/:id", h.GetProject)
		projects.PUT("/:id", h.UpdateProject)
		projects.DELETE("/:id", h.DeleteProject)
	}

	assignments := r.Group("/assignments")
	{
		assignments.GET("", h.ListAssignments)
		assignments.POST("", h.CreateAssignment)
		assignments.GET("/:id", h.GetAssignment)
		assignments.PUT("/:id", h.UpdateAssignment)
		assignments.DELETE("/:id", h.DeleteAssignment)
	}

	return r
}
