package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"idea-review/backend/pkg/models"
)

// problem writes an RFC 7807 Problem Details JSON error response.
func problem(c echo.Context, status int, title, detail string) error {
	c.Response().Header().Set(echo.HeaderContentType, "application/problem+json")
	return c.JSON(status, models.ProblemDetails{
		Type:     "about:blank",
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// respondError maps the typed error taxonomy onto distinct response
// categories. A stale-version conflict is 409 and tells the caller to refresh
// before retrying; a structurally invalid move is 422 carrying the exact
// precondition that failed. Anything untyped is a generic 500.
func (h *Handler) respondError(c echo.Context, err error) error {
	var validation *models.ValidationError
	if errors.As(err, &validation) {
		return problem(c, http.StatusBadRequest, "Validation Failed", validation.Detail)
	}

	var notFound *models.NotFoundError
	if errors.As(err, &notFound) {
		return problem(c, http.StatusNotFound, "Not Found", notFound.Error())
	}

	var conflict *models.ConflictError
	if errors.As(err, &conflict) {
		return problem(c, http.StatusConflict, "State Version Conflict", conflict.Error())
	}

	var invalid *models.InvalidTransitionError
	if errors.As(err, &invalid) {
		return problem(c, http.StatusUnprocessableEntity, "Invalid Transition", invalid.Reason)
	}

	h.logger.Error("request failed", "path", c.Request().URL.Path, "error", err)
	return problem(c, http.StatusInternalServerError, "Internal Server Error", "an unexpected error occurred")
}
