package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"idea-review/backend/internal/auth"
	"idea-review/backend/internal/services"
	"idea-review/backend/pkg/models"
)

// BindReview binds an idea to the currently active workflow, creating its
// version-1 stage state.
// (POST /api/v1/ideas/:id/review)
func (h *Handler) BindReview(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c.Request().Context())
	if !ok {
		return problem(c, http.StatusUnauthorized, "Unauthorized", "no actor in request context")
	}

	result, err := h.reviews.Bind(c.Request().Context(), c.Param("id"), actor)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusCreated, result)
}

// PostTransition applies one review action to an idea.
// (POST /api/v1/ideas/:id/review/transitions)
func (h *Handler) PostTransition(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c.Request().Context())
	if !ok {
		return problem(c, http.StatusUnauthorized, "Unauthorized", "no actor in request context")
	}
	if actor.Role == models.RoleSubmitter {
		return problem(c, http.StatusForbidden, "Forbidden", "submitters cannot execute review transitions")
	}

	var req services.TransitionRequest
	if err := c.Bind(&req); err != nil {
		return problem(c, http.StatusBadRequest, "Validation Failed", "invalid request body: "+err.Error())
	}

	result, err := h.reviews.Transition(c.Request().Context(), c.Param("id"), req, actor)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// GetProgress returns the viewer-shaped review progress of an idea.
// (GET /api/v1/ideas/:id/review)
func (h *Handler) GetProgress(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c.Request().Context())
	if !ok {
		return problem(c, http.StatusUnauthorized, "Unauthorized", "no actor in request context")
	}

	view, err := h.reviews.Progress(c.Request().Context(), c.Param("id"), actor)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// ListIdeas returns idea summaries with blind-review masking applied per item.
// (GET /api/v1/ideas)
func (h *Handler) ListIdeas(c echo.Context) error {
	actor, ok := auth.ActorFromContext(c.Request().Context())
	if !ok {
		return problem(c, http.StatusUnauthorized, "Unauthorized", "no actor in request context")
	}

	summaries, err := h.reviews.ListIdeas(c.Request().Context(), actor)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, summaries)
}
