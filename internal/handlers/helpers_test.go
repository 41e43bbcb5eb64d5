package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/farmerhub/backend/internal/engine"
	"github.com/farmerhub/backend/internal/models"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func TestHTTPError_CodeMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"self follow is a bad request", engine.ErrSelfFollow, http.StatusBadRequest},
		{"malformed id is a bad request", engine.ErrMalformedID, http.StatusBadRequest},
		{"missing post is not found", engine.ErrPostNotFound, http.StatusNotFound},
		{"double like is a conflict", engine.ErrAlreadyLiked, http.StatusConflict},
		{"foreign edit is forbidden", engine.ErrNotOwner, http.StatusForbidden},
		{"anything else is internal", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, httpError(tt.err).Code)
		})
	}
}

func TestGetUserIDFromContext(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	assert.Equal(t, uint(0), getUserIDFromContext(c))

	c.Set("user", &models.JwtCustomClaims{UserID: 7})
	assert.Equal(t, uint(7), getUserIDFromContext(c))

	c.Set("user", "not claims")
	assert.Equal(t, uint(0), getUserIDFromContext(c))
}
