package handlers

import (
	"errors"
	"net/http"

	"github.com/anonto42/nano-midea/notifier/internal/repositories"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// UserHandler handles HTTP requests related to the caller's identity
type UserHandler struct {
	userRepository repositories.UserRepository
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userRepo repositories.UserRepository) *UserHandler {
	return &UserHandler{userRepository: userRepo}
}

// RegisterProfileRoutes registers user profile-related routes
func (h *UserHandler) RegisterProfileRoutes(g *echo.Group) {
	g.GET("/profile", h.GetProfile)
}

// GetProfile returns the viewer notifications are computed for and, for
// registered users, their public profile
func (h *UserHandler) GetProfile(c echo.Context) error {
	viewer, err := viewerFromContext(c)
	if err != nil {
		return err
	}

	data := echo.Map{"viewer": viewer}
	if viewer.UserID != 0 {
		user, err := h.userRepository.GetUserByID(viewer.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return echo.NewHTTPError(http.StatusNotFound, "User profile not found")
			}
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		data["user"] = user.ToCompact()
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": data})
}
