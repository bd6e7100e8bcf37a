package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/anonto42/nano-midea/notifier/internal/notifications"
	"github.com/anonto42/nano-midea/notifier/internal/repositories"
	"github.com/labstack/echo/v4"
)

// FeedHandler serves posts with their comment threads organized for display
type FeedHandler struct {
	postStore repositories.PostStore
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(postStore repositories.PostStore) *FeedHandler {
	return &FeedHandler{postStore: postStore}
}

// RegisterFeedRoutes registers feed-related routes
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.GET("/posts/:post_id/thread", h.GetPostThread)
}

// ThreadedPost is a post whose comments carry nested reply forests
type ThreadedPost struct {
	ID                string                          `json:"id"`
	AuthorID          string                          `json:"author_id"`
	Text              string                          `json:"text"`
	Media             []string                        `json:"media,omitempty"`
	Timestamp         *time.Time                      `json:"timestamp,omitempty"`
	LikesCount        int                             `json:"likes_count"`
	IsLiked           bool                            `json:"is_liked"`
	LastLikeTimestamp *time.Time                      `json:"last_like_timestamp,omitempty"`
	Comments          []notifications.ThreadedComment `json:"comments"`
}

// GetPostThread returns a post with every comment's replies nested under
// the reply they answer
func (h *FeedHandler) GetPostThread(c echo.Context) error {
	viewer, err := viewerFromContext(c)
	if err != nil {
		return err
	}

	post, err := h.postStore.GetPostByID(c.Request().Context(), c.Param("post_id"))
	if err != nil {
		if errors.Is(err, repositories.ErrPostNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Post not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	isLiked := false
	for _, id := range post.Likes {
		if id == viewer.UID {
			isLiked = true
			break
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"post": ThreadedPost{
				ID:                post.ID,
				AuthorID:          post.AuthorID,
				Text:              post.Text,
				Media:             post.Media,
				Timestamp:         post.Timestamp,
				LikesCount:        len(post.Likes),
				IsLiked:           isLiked,
				LastLikeTimestamp: post.LastLikeTimestamp,
				Comments:          notifications.ThreadComments(*post),
			},
		},
	})
}
