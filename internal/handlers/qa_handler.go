package handlers

import (
	"net/http"
	"time"

	"github.com/farmerhub/backend/internal/models"
	"github.com/farmerhub/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// QAHandler handles the farming Q&A lookup HTTP requests
type QAHandler struct {
	qaRepository repositories.QARepository
}

// NewQAHandler creates a new QAHandler
func NewQAHandler(qaRepo repositories.QARepository) *QAHandler {
	return &QAHandler{qaRepository: qaRepo}
}

// RegisterQARoutes registers Q&A routes
func (h *QAHandler) RegisterQARoutes(g *echo.Group) {
	g.POST("/qa", h.CreateQA)
	g.POST("/qa/query", h.QueryQA)
}

// CreateQA adds a curated question/answer pair to the lookup store
func (h *QAHandler) CreateQA(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.CreateQARequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	qa := &models.QA{
		Question:  req.Question,
		Answer:    req.Answer,
		CreatedAt: time.Now(),
	}
	if err := h.qaRepository.CreateQA(c.Request().Context(), qa); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, qa)
}

// QueryQA matches an incoming question against the stored entries and
// returns the best matches, highest relevance first
func (h *QAHandler) QueryQA(c echo.Context) error {
	var req models.QueryQARequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	matches, err := h.qaRepository.Search(c.Request().Context(), req.Question)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	// Matches come back ordered by relevance, best first
	var best *models.QA
	if len(matches) > 0 {
		best = &matches[0]
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"best": best, "matches": matches}})
}
