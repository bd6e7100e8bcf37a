package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestViewerValidate(t *testing.T) {
	assert.NoError(t, Viewer{UID: "u1", Role: RoleBuyer}.Validate())
	assert.NoError(t, Viewer{UID: "u1", Role: RoleSeller, Email: "shop@example.com"}.Validate())
	assert.Error(t, Viewer{Role: RoleBuyer}.Validate())
	assert.Error(t, Viewer{UID: "u1", Role: "admin"}.Validate())
	assert.Error(t, Viewer{UID: "u1", Role: RoleBuyer, Email: "not-an-email"}.Validate())
}

func TestViewerPublisherID(t *testing.T) {
	assert.Equal(t, "store-1", Viewer{UID: "u1", Role: RoleSeller, StoreID: "store-1"}.PublisherID())
	assert.Equal(t, "u1", Viewer{UID: "u1", Role: RoleSeller}.PublisherID())
	assert.Equal(t, "u1", Viewer{UID: "u1", Role: RoleBuyer, StoreID: "store-1"}.PublisherID())
}

func TestViewerOwns(t *testing.T) {
	seller := Viewer{UID: "u1", Role: RoleSeller, StoreID: "store-1"}

	assert.True(t, seller.Owns(Post{AuthorID: "store-1"}))
	assert.True(t, seller.Owns(Post{AuthorID: "u1"}))
	assert.False(t, seller.Owns(Post{AuthorID: "store-2"}))
	assert.False(t, Viewer{Role: RoleBuyer}.Owns(Post{}))
}

func TestViewerAuthorIDsCoverOwnedPosts(t *testing.T) {
	tests := []struct {
		name   string
		viewer Viewer
		want   []string
	}{
		{"seller with store", Viewer{UID: "u1", Role: RoleSeller, StoreID: "store-1"}, []string{"store-1", "u1"}},
		{"seller without store", Viewer{UID: "u1", Role: RoleSeller}, []string{"u1"}},
		{"buyer", Viewer{UID: "u2", Role: RoleBuyer, StoreID: "store-2"}, []string{"u2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.viewer.AuthorIDs())
			for _, id := range tt.want {
				assert.True(t, tt.viewer.Owns(Post{AuthorID: id}), id)
			}
		})
	}
}

func TestUserToViewer(t *testing.T) {
	seller := User{ID: 3, Name: "Sam", Email: "sam@example.com", Role: "seller", FirebaseUID: "fb-3"}
	v := seller.ToViewer("store-3")
	assert.Equal(t, Viewer{UID: "fb-3", UserID: 3, DisplayName: "Sam", Email: "sam@example.com", Role: RoleSeller, StoreID: "store-3"}, v)

	local := User{ID: 12, Name: "Bea", Role: "moderator"}
	v = local.ToViewer("")
	assert.Equal(t, "local-12", v.UID)
	assert.Equal(t, RoleBuyer, v.Role)
}

func TestPostFilter(t *testing.T) {
	f := ByAuthors([]string{"b", "", "a", "b"})

	assert.Equal(t, []string{"a", "b"}, f.AuthorIDs)
	assert.True(t, f.Equal(ByAuthors([]string{"a", "b"})))
	assert.False(t, f.Equal(ByAuthor("a")))
	assert.False(t, f.Equal(ByAuthors([]string{"a", "c"})))
	assert.Equal(t, []string{"x"}, ByAuthor("x").AuthorIDs)
}

func TestNewCommentID(t *testing.T) {
	a, b := NewCommentID(), NewCommentID()

	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}
