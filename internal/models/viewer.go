package models

import "github.com/go-playground/validator/v10"

type Role string

const (
	RoleSeller Role = "seller"
	RoleBuyer  Role = "buyer"
)

// Viewer is the authenticated identity a notification feed is computed for.
// StoreID is the store a seller publishes as; it falls back to UID.
type Viewer struct {
	UID         string `json:"uid" validate:"required"`
	UserID      uint   `json:"user_id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email" validate:"omitempty,email"`
	Role        Role   `json:"role" validate:"required,oneof=seller buyer"`
	StoreID     string `json:"store_id,omitempty"`
}

var viewerValidate = validator.New()

// Validate checks the viewer's struct tags
func (v Viewer) Validate() error {
	return viewerValidate.Struct(v)
}

// PublisherID is the author id the viewer's own posts carry.
func (v Viewer) PublisherID() string {
	if v.Role == RoleSeller && v.StoreID != "" {
		return v.StoreID
	}
	return v.UID
}

// AuthorIDs lists every author id the viewer's own posts may carry: the
// publisher id and, for sellers publishing as a store, the uid as well.
func (v Viewer) AuthorIDs() []string {
	if id := v.PublisherID(); id != v.UID {
		return []string{id, v.UID}
	}
	return []string{v.UID}
}

// Owns reports whether the post was published by the viewer.
func (v Viewer) Owns(p Post) bool {
	if p.AuthorID == "" {
		return false
	}
	for _, id := range v.AuthorIDs() {
		if p.AuthorID == id {
			return true
		}
	}
	return false
}
