package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/farmerhub/backend/internal/engine"
	"github.com/farmerhub/backend/internal/models"
	"github.com/farmerhub/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// GroupHandler handles community group HTTP requests
type GroupHandler struct {
	engine          *engine.Engine
	groupRepository repositories.GroupRepository
}

// NewGroupHandler creates a new GroupHandler
func NewGroupHandler(eng *engine.Engine, groupRepo repositories.GroupRepository) *GroupHandler {
	return &GroupHandler{engine: eng, groupRepository: groupRepo}
}

// RegisterGroupRoutes registers group-related routes
func (h *GroupHandler) RegisterGroupRoutes(g *echo.Group) {
	g.POST("/groups", h.CreateGroup)
	g.GET("/groups", h.ListGroups)
	g.GET("/groups/:slug", h.GetGroup)
	g.POST("/groups/:id/join", h.JoinGroup)
	g.POST("/groups/:id/requests/:user_id/approve", h.ApproveJoin)
	g.POST("/groups/:id/requests/:user_id/deny", h.DenyJoin)
	g.POST("/groups/:id/leave", h.LeaveGroup)
	g.POST("/groups/:id/members/:user_id/promote", h.PromoteMember)
}

// CreateGroup creates a new group owned by the authenticated user
func (h *GroupHandler) CreateGroup(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.CreateGroupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	group, err := h.engine.CreateGroup(c.Request().Context(), currentUserID, req)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, group)
}

// ListGroups lists groups, optionally filtered by name query and visibility
func (h *GroupHandler) ListGroups(c echo.Context) error {
	query := c.QueryParam("q")
	visibility := c.QueryParam("visibility")
	limit, _ := strconv.ParseInt(c.QueryParam("limit"), 10, 64)
	if limit < 1 || limit > 100 {
		limit = 50
	}

	groups, err := h.groupRepository.ListGroups(c.Request().Context(), query, visibility, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"groups": groups}})
}

// GetGroup retrieves a group by its slug
func (h *GroupHandler) GetGroup(c echo.Context) error {
	group, err := h.groupRepository.GetGroupBySlug(c.Request().Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Group not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, group)
}

// JoinGroup joins a public group immediately, or queues a join request
// on a private one
func (h *GroupHandler) JoinGroup(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.JoinGroupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	outcome, err := h.engine.JoinGroup(c.Request().Context(), c.Param("id"), currentUserID, req.Message)
	if err != nil {
		return httpError(err)
	}

	status := http.StatusOK
	if outcome == engine.JoinPending {
		status = http.StatusAccepted
	}
	return c.JSON(status, echo.Map{"success": true, "data": echo.Map{"status": outcome}})
}

// ApproveJoin approves a pending join request. Admins and the owner only.
func (h *GroupHandler) ApproveJoin(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	userID, err := strconv.ParseUint(c.Param("user_id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}

	if err := h.engine.ApproveJoin(c.Request().Context(), c.Param("id"), currentUserID, uint(userID)); err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"approved": true}})
}

// DenyJoin denies a pending join request. Admins and the owner only.
func (h *GroupHandler) DenyJoin(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	userID, err := strconv.ParseUint(c.Param("user_id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}

	if err := h.engine.DenyJoin(c.Request().Context(), c.Param("id"), currentUserID, uint(userID)); err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"approved": false}})
}

// LeaveGroup removes the authenticated user from a group's member set
func (h *GroupHandler) LeaveGroup(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	if err := h.engine.LeaveGroup(c.Request().Context(), c.Param("id"), currentUserID); err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"member": false}})
}

// PromoteMember promotes a member to group admin. Admins and the owner only.
func (h *GroupHandler) PromoteMember(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	userID, err := strconv.ParseUint(c.Param("user_id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}

	if err := h.engine.PromoteMember(c.Request().Context(), c.Param("id"), currentUserID, uint(userID)); err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"admin": true}})
}
