// Package api contains the HTTP handlers for the idea review service
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"idea-review/backend/internal/services"
	"idea-review/backend/pkg/models"
)

// Pinger checks backing-store connectivity for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds the dependencies for the REST API.
type Handler struct {
	reviews   services.Reviews
	workflows services.Workflows
	db        Pinger
	logger    services.Logger
}

// NewHandler creates a new Handler with required dependencies.
func NewHandler(reviews services.Reviews, workflows services.Workflows, db Pinger, logger services.Logger) *Handler {
	return &Handler{
		reviews:   reviews,
		workflows: workflows,
		db:        db,
		logger:    logger,
	}
}

// RegisterRoutes mounts the authenticated API routes on the given group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.PUT("/workflows", h.PutWorkflow)
	g.GET("/workflows/active", h.GetActiveWorkflow)
	g.GET("/workflows/:id", h.GetWorkflow)
	g.GET("/ideas", h.ListIdeas)
	g.POST("/ideas/:id/review", h.BindReview)
	g.GET("/ideas/:id/review", h.GetProgress)
	g.POST("/ideas/:id/review/transitions", h.PostTransition)
}

// HandleHealth returns basic health status including a database check.
func (h *Handler) HandleHealth(c echo.Context) error {
	status := models.HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Service:   "idea-review",
		Version:   "1.0.0",
		Checks:    map[string]string{"database": "ok"},
	}
	if err := h.db.Ping(c.Request().Context()); err != nil {
		status.Status = "degraded"
		status.Checks["database"] = err.Error()
		return c.JSON(http.StatusServiceUnavailable, status)
	}
	return c.JSON(http.StatusOK, status)
}
