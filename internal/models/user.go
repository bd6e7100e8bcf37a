package models

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

type User struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name"`
	Email       string    `json:"email" gorm:"uniqueIndex"` // Ensure email is unique across all users
	Role        string    `json:"role" gorm:"size:20;default:'buyer'"`
	FirebaseUID string    `json:"firebase_uid,omitempty" gorm:"uniqueIndex"` // Link to Firebase User UID
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}

// UserCompact is the public part of a user profile
type UserCompact struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	FirebaseUID string `json:"firebase_uid,omitempty"`
}

func (u *User) ToCompact() UserCompact {
	return UserCompact{ID: u.ID, Name: u.Name, FirebaseUID: u.FirebaseUID}
}

// ToViewer derives the notification viewer for the user. storeID is the
// store the user owns, empty for buyers.
func (u *User) ToViewer(storeID string) Viewer {
	uid := u.FirebaseUID
	if uid == "" {
		uid = u.localUID()
	}
	role := Role(u.Role)
	if role != RoleSeller {
		role = RoleBuyer
	}
	return Viewer{
		UID:         uid,
		UserID:      u.ID,
		DisplayName: u.Name,
		Email:       u.Email,
		Role:        role,
		StoreID:     storeID,
	}
}

func (u *User) localUID() string {
	return "local-" + strconv.FormatUint(uint64(u.ID), 10)
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
