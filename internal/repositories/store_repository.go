package repositories

import (
	"context"

	"github.com/anonto42/nano-midea/notifier/internal/models"
	"gorm.io/gorm"
)

// StoreRepository reads seller storefront profiles
type StoreRepository interface {
	GetStoreByOwnerID(ctx context.Context, ownerID uint) (*models.Store, error)
	GetStoresByIDs(ctx context.Context, ids []string) ([]models.Store, error)
}

// PostgresStoreRepository implements StoreRepository for PostgreSQL
type PostgresStoreRepository struct {
	db *gorm.DB
}

// NewPostgresStoreRepository creates a new PostgresStoreRepository
func NewPostgresStoreRepository(db *gorm.DB) *PostgresStoreRepository {
	return &PostgresStoreRepository{db: db}
}

func (r *PostgresStoreRepository) GetStoreByOwnerID(ctx context.Context, ownerID uint) (*models.Store, error) {
	var store models.Store
	if err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).First(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *PostgresStoreRepository) GetStoresByIDs(ctx context.Context, ids []string) ([]models.Store, error) {
	var stores []models.Store
	if len(ids) == 0 {
		return stores, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&stores).Error
	return stores, err
}
