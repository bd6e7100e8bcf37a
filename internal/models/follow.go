package models

import "time"

// Follow records a user following a store
type Follow struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	FollowerID uint      `json:"follower_id" gorm:"index;uniqueIndex:idx_follower_store"`
	StoreID    string    `json:"store_id" gorm:"size:64;index;uniqueIndex:idx_follower_store"`
	CreatedAt  time.Time `json:"created_at"`
}

// Store is a seller's storefront profile. Its ID is the author id on the
// store's posts.
type Store struct {
	ID        string    `json:"id" gorm:"primaryKey;size:64"`
	OwnerID   uint      `json:"owner_id" gorm:"index"`
	Name      string    `json:"name"`
	LogoURL   string    `json:"logo_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
