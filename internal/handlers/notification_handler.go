package handlers

import (
	"errors"
	"net/http"

	"github.com/anonto42/nano-midea/notifier/internal/middleware"
	"github.com/anonto42/nano-midea/notifier/internal/models"
	"github.com/anonto42/nano-midea/notifier/internal/notifications"
	"github.com/labstack/echo/v4"
)

// NotificationHandler serves the viewer's derived notification feed
type NotificationHandler struct {
	hub *notifications.Hub
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(hub *notifications.Hub) *NotificationHandler {
	return &NotificationHandler{hub: hub}
}

// RegisterNotificationRoutes registers notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.GetNotifications)
	g.GET("/notifications/unread-count", h.GetUnreadCount)
	g.PUT("/notifications/panel-opened", h.MarkPanelOpened)
	g.DELETE("/notifications/session", h.EndSession)
}

func viewerFromContext(c echo.Context) (models.Viewer, error) {
	viewer, ok := middleware.ViewerFromContext(c)
	if !ok || viewer.UID == "" {
		return models.Viewer{}, echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	return viewer, nil
}

func (h *NotificationHandler) session(c echo.Context) (*notifications.Session, error) {
	viewer, err := viewerFromContext(c)
	if err != nil {
		return nil, err
	}
	s, err := h.hub.Acquire(c.Request().Context(), viewer)
	if err != nil {
		switch {
		case errors.Is(err, notifications.ErrSubscriptionFailure), errors.Is(err, notifications.ErrHubClosed),
			errors.Is(err, notifications.ErrSessionReleased):
			return nil, echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
		default:
			return nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	return s, nil
}

// GetNotifications returns the current feed and unread counter, opening the
// viewer's session on first use
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}

	data := echo.Map{
		"notifications": s.Notifications(),
		"unreadCount":   s.UnreadCount(),
		"ready":         s.Phase() == notifications.PhaseReady,
	}
	if serr := s.Err(); serr != nil {
		data["error"] = serr.Error()
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": data})
}

// GetUnreadCount returns the unread notification count
func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"count": s.UnreadCount()}})
}

// MarkPanelOpened resets the unread counter without touching the feed
func (h *NotificationHandler) MarkPanelOpened(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return err
	}
	s.MarkPanelOpened()
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"count": s.UnreadCount()}})
}

// EndSession releases the viewer's post subscription, as on logout
func (h *NotificationHandler) EndSession(c echo.Context) error {
	viewer, err := viewerFromContext(c)
	if err != nil {
		return err
	}
	released := h.hub.Release(viewer.UID)
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"released": released}})
}
