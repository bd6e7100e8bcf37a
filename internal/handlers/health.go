package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HealthCheck reports liveness and the post store backend in use
func HealthCheck(postStore string) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":     "healthy",
			"service":    "notifier",
			"post_store": postStore,
		})
	}
}
