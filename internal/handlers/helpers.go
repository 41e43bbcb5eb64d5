package handlers

import (
	"net/http"

	"github.com/farmerhub/backend/internal/engine"
	"github.com/farmerhub/backend/internal/models"
	"github.com/labstack/echo/v4"
)

// getUserIDFromContext extracts the authenticated user ID from the JWT
// claims stored by the auth middleware. Returns 0 when unauthenticated.
func getUserIDFromContext(c echo.Context) uint {
	claims, ok := c.Get("user").(*models.JwtCustomClaims)
	if !ok || claims == nil {
		return 0
	}
	return claims.UserID
}

// httpError translates an engine error into the matching HTTP error.
func httpError(err error) *echo.HTTPError {
	switch engine.CodeOf(err) {
	case engine.CodeValidation:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case engine.CodeNotFound:
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case engine.CodeConflict:
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case engine.CodeNotOwner:
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

// pageMeta is the pagination envelope shared by list endpoints.
func pageMeta(page, totalPages, limit int, totalItems int64) echo.Map {
	return echo.Map{
		"currentPage":     page,
		"totalPages":      totalPages,
		"totalItems":      totalItems,
		"itemsPerPage":    limit,
		"hasNextPage":     page < totalPages,
		"hasPreviousPage": page > 1,
	}
}
