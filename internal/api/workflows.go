package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"idea-review/backend/internal/auth"
	"idea-review/backend/pkg/models"
)

// PutWorkflowRequest carries the ordered stage names for a new workflow
// version.
type PutWorkflowRequest struct {
	StageNames []string `json:"stageNames"`
}

// PutWorkflow creates and activates a new workflow version.
// (PUT /api/v1/workflows)
func (h *Handler) PutWorkflow(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c.Request().Context())
	if !ok {
		return problem(c, http.StatusUnauthorized, "Unauthorized", "no actor in request context")
	}
	if actor.Role != models.RoleAdmin {
		return problem(c, http.StatusForbidden, "Forbidden", "only admins can configure workflows")
	}

	var req PutWorkflowRequest
	if err := c.Bind(&req); err != nil {
		return problem(c, http.StatusBadRequest, "Validation Failed", "invalid request body: "+err.Error())
	}

	wf, err := h.workflows.CreateAndActivate(c.Request().Context(), req.StageNames, actor)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusCreated, wf)
}

// GetActiveWorkflow returns the currently active workflow, or 404 when no
// workflow has been configured yet.
// (GET /api/v1/workflows/active)
func (h *Handler) GetActiveWorkflow(c echo.Context) error {
	wf, err := h.workflows.Active(c.Request().Context())
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, wf)
}

// GetWorkflow returns a workflow version by id, whether or not it is still
// active. Items bound to historical versions resolve their stages here.
// (GET /api/v1/workflows/:id)
func (h *Handler) GetWorkflow(c echo.Context) error {
	wf, err := h.workflows.ByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, wf)
}
