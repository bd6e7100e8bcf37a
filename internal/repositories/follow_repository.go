package repositories

import (
	"context"

	"github.com/anonto42/nano-midea/notifier/internal/models"
	"gorm.io/gorm"
)

// FollowRepository defines the interface for store follow operations
type FollowRepository interface {
	CreateFollow(ctx context.Context, follow *models.Follow) error
	DeleteFollow(ctx context.Context, followerID uint, storeID string) error
	IsFollowing(ctx context.Context, followerID uint, storeID string) (bool, error)
	GetFollowedStoreIDs(ctx context.Context, followerID uint) ([]string, error)
}

// PostgresFollowRepository implements FollowRepository for PostgreSQL
type PostgresFollowRepository struct {
	db *gorm.DB
}

// NewPostgresFollowRepository creates a new PostgresFollowRepository
func NewPostgresFollowRepository(db *gorm.DB) *PostgresFollowRepository {
	return &PostgresFollowRepository{db: db}
}

// CreateFollow creates a new follow relationship
func (r *PostgresFollowRepository) CreateFollow(ctx context.Context, follow *models.Follow) error {
	return r.db.WithContext(ctx).Create(follow).Error
}

// DeleteFollow removes a follow relationship
func (r *PostgresFollowRepository) DeleteFollow(ctx context.Context, followerID uint, storeID string) error {
	return r.db.WithContext(ctx).Where("follower_id = ? AND store_id = ?", followerID, storeID).Delete(&models.Follow{}).Error
}

func (r *PostgresFollowRepository) IsFollowing(ctx context.Context, followerID uint, storeID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Follow{}).Where("follower_id = ? AND store_id = ?", followerID, storeID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PostgresFollowRepository) GetFollowedStoreIDs(ctx context.Context, followerID uint) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&models.Follow{}).Where("follower_id = ?", followerID).Order("store_id").Pluck("store_id", &ids).Error
	return ids, err
}
