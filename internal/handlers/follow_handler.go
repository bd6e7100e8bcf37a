package handlers

import (
	"net/http"

	"github.com/anonto42/nano-midea/notifier/internal/models"
	"github.com/anonto42/nano-midea/notifier/internal/notifications"
	"github.com/anonto42/nano-midea/notifier/internal/repositories"
	"github.com/anonto42/nano-midea/notifier/pkg/logger"
	"github.com/labstack/echo/v4"
)

// FollowHandler handles store follow/unfollow HTTP requests
type FollowHandler struct {
	followRepository repositories.FollowRepository
	storeRepository  repositories.StoreRepository
	hub              *notifications.Hub
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(followRepo repositories.FollowRepository, storeRepo repositories.StoreRepository, hub *notifications.Hub) *FollowHandler {
	return &FollowHandler{
		followRepository: followRepo,
		storeRepository:  storeRepo,
		hub:              hub,
	}
}

// RegisterFollowRoutes registers follow-related routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group) {
	g.POST("/stores/:store_id/follow", h.FollowStore)
	g.DELETE("/stores/:store_id/follow", h.UnfollowStore)
}

type followRequest struct {
	StoreID string `param:"store_id" validate:"required,max=64"`
}

func bindFollowRequest(c echo.Context) (followRequest, error) {
	var req followRequest
	if err := c.Bind(&req); err != nil {
		return req, echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return req, err
	}
	return req, nil
}

// FollowStore follows a store
func (h *FollowHandler) FollowStore(c echo.Context) error {
	viewer, err := h.registeredViewer(c)
	if err != nil {
		return err
	}
	req, err := bindFollowRequest(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	storeID := req.StoreID

	stores, err := h.storeRepository.GetStoresByIDs(ctx, []string{storeID})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if len(stores) == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "Store not found")
	}
	if stores[0].OwnerID == viewer.UserID {
		return echo.NewHTTPError(http.StatusBadRequest, "Cannot follow your own store")
	}

	// Check if already following
	isFollowing, err := h.followRepository.IsFollowing(ctx, viewer.UserID, storeID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if isFollowing {
		return echo.NewHTTPError(http.StatusConflict, "Already following this store")
	}

	follow := &models.Follow{FollowerID: viewer.UserID, StoreID: storeID}
	if err := h.followRepository.CreateFollow(ctx, follow); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.refreshSession(c, viewer)
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"following": true}})
}

// UnfollowStore unfollows a store
func (h *FollowHandler) UnfollowStore(c echo.Context) error {
	viewer, err := h.registeredViewer(c)
	if err != nil {
		return err
	}
	req, err := bindFollowRequest(c)
	if err != nil {
		return err
	}

	if err := h.followRepository.DeleteFollow(c.Request().Context(), viewer.UserID, req.StoreID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	h.refreshSession(c, viewer)
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"following": false}})
}

func (h *FollowHandler) registeredViewer(c echo.Context) (models.Viewer, error) {
	viewer, err := viewerFromContext(c)
	if err != nil {
		return viewer, err
	}
	if viewer.UserID == 0 {
		return viewer, echo.NewHTTPError(http.StatusForbidden, "Only registered users can follow stores")
	}
	return viewer, nil
}

// refreshSession re-resolves an open notification session so its
// subscription covers the new set of followed stores.
func (h *FollowHandler) refreshSession(c echo.Context, viewer models.Viewer) {
	if h.hub == nil {
		return
	}
	if _, ok := h.hub.Lookup(viewer.UID); !ok {
		return
	}
	if _, err := h.hub.Acquire(c.Request().Context(), viewer); err != nil {
		logger.Log.WithError(err).WithField("viewer", viewer.UID).Warn("Failed to refresh notification session after follow change")
	}
}
