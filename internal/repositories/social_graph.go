package repositories

import (
	"context"
	"errors"

	"github.com/anonto42/nano-midea/notifier/internal/models"
	"gorm.io/gorm"
)

// SocialGraph answers the follow and storefront questions a notification
// session needs, on top of the follow and store repositories.
type SocialGraph struct {
	follows FollowRepository
	stores  StoreRepository
}

func NewSocialGraph(follows FollowRepository, stores StoreRepository) *SocialGraph {
	return &SocialGraph{follows: follows, stores: stores}
}

// FollowedStoreIDs returns the stores the viewer follows. Viewers without a
// local user record follow nothing.
func (g *SocialGraph) FollowedStoreIDs(ctx context.Context, viewer models.Viewer) ([]string, error) {
	if viewer.UserID == 0 {
		return nil, nil
	}
	return g.follows.GetFollowedStoreIDs(ctx, viewer.UserID)
}

// StoreNames maps each known store id to its name. Unknown ids are left out.
func (g *SocialGraph) StoreNames(ctx context.Context, ids []string) (map[string]string, error) {
	stores, err := g.stores.GetStoresByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(stores))
	for _, s := range stores {
		names[s.ID] = s.Name
	}
	return names, nil
}

// StoreIDForOwner returns the id of the store owned by userID, or "" when the
// user owns none.
func (g *SocialGraph) StoreIDForOwner(ctx context.Context, userID uint) (string, error) {
	store, err := g.stores.GetStoreByOwnerID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return store.ID, nil
}
