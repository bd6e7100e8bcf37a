package models

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Post is a social-feed post with its embedded comment thread.
// AuthorID is the id of the store (or buyer) that published it.
type Post struct {
	ID                string     `json:"id" bson:"_id,omitempty" firestore:"-"`
	AuthorID          string     `json:"author_id" bson:"authorId" firestore:"authorId"`
	Text              string     `json:"text" bson:"text" firestore:"text"`
	Media             []string   `json:"media,omitempty" bson:"media,omitempty" firestore:"media,omitempty"`
	Timestamp         *time.Time `json:"timestamp,omitempty" bson:"timestamp,omitempty" firestore:"timestamp,omitempty"`
	Likes             []string   `json:"likes,omitempty" bson:"likes,omitempty" firestore:"likes,omitempty"`
	LastLikeTimestamp *time.Time `json:"last_like_timestamp,omitempty" bson:"lastLikeTimestamp,omitempty" firestore:"lastLikeTimestamp,omitempty"`
	Comments          []Comment  `json:"comments,omitempty" bson:"comments,omitempty" firestore:"comments,omitempty"`
}

// Comment is a top-level comment on a post. Older documents have no ID and
// are only addressable by their position in Post.Comments.
type Comment struct {
	ID                string     `json:"id,omitempty" bson:"id,omitempty" firestore:"id,omitempty"`
	AuthorID          string     `json:"author_id" bson:"authorId" firestore:"authorId"`
	DisplayName       string     `json:"display_name" bson:"displayName" firestore:"displayName"`
	AvatarURL         string     `json:"avatar_url,omitempty" bson:"avatarUrl,omitempty" firestore:"avatarUrl,omitempty"`
	Text              string     `json:"text" bson:"text" firestore:"text"`
	Timestamp         *time.Time `json:"timestamp,omitempty" bson:"timestamp,omitempty" firestore:"timestamp,omitempty"`
	Likes             []string   `json:"likes,omitempty" bson:"likes,omitempty" firestore:"likes,omitempty"`
	LastLikeTimestamp *time.Time `json:"last_like_timestamp,omitempty" bson:"lastLikeTimestamp,omitempty" firestore:"lastLikeTimestamp,omitempty"`
	Replies           []Reply    `json:"replies,omitempty" bson:"replies,omitempty" firestore:"replies,omitempty"`
}

// Reply answers a comment (ParentID nil) or another reply of the same comment.
type Reply struct {
	ID                string     `json:"id" bson:"id" firestore:"id"`
	ParentID          *string    `json:"parent_id,omitempty" bson:"parentId,omitempty" firestore:"parentId,omitempty"`
	AuthorID          string     `json:"author_id" bson:"authorId" firestore:"authorId"`
	DisplayName       string     `json:"display_name" bson:"displayName" firestore:"displayName"`
	AvatarURL         string     `json:"avatar_url,omitempty" bson:"avatarUrl,omitempty" firestore:"avatarUrl,omitempty"`
	Text              string     `json:"text" bson:"text" firestore:"text"`
	Timestamp         *time.Time `json:"timestamp,omitempty" bson:"timestamp,omitempty" firestore:"timestamp,omitempty"`
	Likes             []string   `json:"likes,omitempty" bson:"likes,omitempty" firestore:"likes,omitempty"`
	LastLikeTimestamp *time.Time `json:"last_like_timestamp,omitempty" bson:"lastLikeTimestamp,omitempty" firestore:"lastLikeTimestamp,omitempty"`
}

// HasParent reports whether the reply points at another reply.
func (r Reply) HasParent() bool {
	return r.ParentID != nil && *r.ParentID != ""
}

// NewCommentID returns a durable identifier for a new comment or reply.
// Writers assign it at creation time so identity never depends on position.
func NewCommentID() string {
	return uuid.NewString()
}

// PostFilter selects the posts a subscription delivers: every post whose
// AuthorID is one of AuthorIDs.
type PostFilter struct {
	AuthorIDs []string
}

// ByAuthor selects the posts of a single author.
func ByAuthor(id string) PostFilter {
	return PostFilter{AuthorIDs: []string{id}}
}

// ByAuthors selects the posts of any of ids. Empty and duplicate ids are
// dropped and the rest sorted, so equal author sets compare Equal.
func ByAuthors(ids []string) PostFilter {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Strings(out)
	return PostFilter{AuthorIDs: out}
}

// Equal reports whether both filters list the same authors in the same order.
func (f PostFilter) Equal(other PostFilter) bool {
	if len(f.AuthorIDs) != len(other.AuthorIDs) {
		return false
	}
	for i := range f.AuthorIDs {
		if f.AuthorIDs[i] != other.AuthorIDs[i] {
			return false
		}
	}
	return true
}
