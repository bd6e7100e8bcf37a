package middleware

import (
	"context"

	"github.com/anonto42/nano-midea/notifier/internal/models"
	"github.com/labstack/echo/v4"
)

const viewerKey = "viewer"

// StoreLookup finds the store a seller publishes as
type StoreLookup interface {
	StoreIDForOwner(ctx context.Context, userID uint) (string, error)
}

// ViewerFromContext returns the viewer stored by the auth middleware
func ViewerFromContext(c echo.Context) (models.Viewer, bool) {
	v, ok := c.Get(viewerKey).(models.Viewer)
	return v, ok
}

// SetViewer stores the viewer for downstream handlers
func SetViewer(c echo.Context, v models.Viewer) {
	c.Set(viewerKey, v)
}

// viewerForUser derives the viewer of a known user. A seller whose store
// cannot be read keeps their uid as publisher id.
func viewerForUser(ctx context.Context, user *models.User, stores StoreLookup) models.Viewer {
	storeID := ""
	if user.Role == string(models.RoleSeller) && stores != nil {
		if id, err := stores.StoreIDForOwner(ctx, user.ID); err == nil {
			storeID = id
		}
	}
	return user.ToViewer(storeID)
}
