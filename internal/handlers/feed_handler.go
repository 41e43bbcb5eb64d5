package handlers

import (
	"net/http"
	"strconv"

	"github.com/farmerhub/backend/internal/engine"
	"github.com/labstack/echo/v4"
)

// FeedHandler handles feed-related HTTP requests
type FeedHandler struct {
	engine *engine.Engine
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(eng *engine.Engine) *FeedHandler {
	return &FeedHandler{engine: eng}
}

// RegisterFeedRoutes registers feed-related routes
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.GET("/feed", h.GetFeed)
}

// GetFeed returns the personalized feed: posts from followed users plus
// the user's own, newest first.
func (h *FeedHandler) GetFeed(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	feed, err := h.engine.GetFeed(c.Request().Context(), currentUserID, page, limit)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"posts": feed.Posts},
		"meta":    pageMeta(feed.Page, feed.TotalPages, feed.Limit, feed.TotalItems),
	})
}
