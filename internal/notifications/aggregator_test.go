package notifications

import (
	"testing"
	"time"

	"github.com/anonto42/nano-midea/notifier/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mixedSnapshot() []models.Post {
	return []models.Post{
		{
			ID:                "p1",
			AuthorID:          "store-1",
			Timestamp:         ago(50 * time.Hour),
			Likes:             []string{"buyer-2", "buyer-3"},
			LastLikeTimestamp: ago(5 * time.Hour),
			Comments: []models.Comment{
				{AuthorID: "buyer-2", DisplayName: "Bo", Text: "first", Timestamp: ago(2 * time.Hour), Replies: []models.Reply{
					reply("r1", "", "seller-1", ago(90*time.Minute)),
					reply("r2", "r1", "buyer-3", ago(30*time.Minute)),
					reply("r3", "ghost", "buyer-4", nil),
				}},
				{AuthorID: "seller-1", Text: "welcome", Timestamp: ago(40 * time.Hour), Likes: []string{"buyer-2"}, LastLikeTimestamp: ago(30 * time.Hour)},
			},
		},
		{
			ID:       "p2",
			AuthorID: "store-1",
			Comments: []models.Comment{
				{AuthorID: "buyer-5", Text: "undated"},
			},
		},
	}
}

func TestAggregateSellerNewComment(t *testing.T) {
	posts := []models.Post{{
		ID:       "p",
		AuthorID: "store-1",
		Comments: []models.Comment{{AuthorID: "buyer-2", Text: "hi", Timestamp: ago(time.Hour)}},
	}}

	state := Aggregate(posts, sellerViewer, testNow, Options{NoveltyWindow: DefaultNoveltyWindow})

	require.Len(t, state.Items, 1)
	assert.Equal(t, models.NotificationComment, state.Items[0].Type)
	assert.True(t, state.Items[0].IsNew)
	assert.Equal(t, 1, state.Unread)
	assert.Equal(t, testNow, state.ComputedAt)
}

func TestAggregateSellerOwnCommentLiked(t *testing.T) {
	posts := []models.Post{{
		ID:       "p",
		AuthorID: "store-1",
		Comments: []models.Comment{{
			AuthorID:          "seller-1",
			Text:              "restocked",
			Timestamp:         ago(30 * time.Hour),
			Likes:             []string{"buyer-2", "buyer-3"},
			LastLikeTimestamp: ago(10 * time.Hour),
		}},
	}}

	state := Aggregate(posts, sellerViewer, testNow, Options{})

	require.Len(t, state.Items, 1)
	assert.Equal(t, models.NotificationCommentLikes, state.Items[0].Type)
	assert.True(t, state.Items[0].IsNew)
	assert.Equal(t, 1, state.Unread)
}

func TestAggregateIsNewMatchesWindow(t *testing.T) {
	opts := Options{NoveltyWindow: DefaultNoveltyWindow}
	state := Aggregate(mixedSnapshot(), sellerViewer, testNow, opts)

	require.NotEmpty(t, state.Items)
	unread := 0
	for _, item := range state.Items {
		want := item.Timestamp != nil && testNow.Sub(*item.Timestamp) < 24*time.Hour
		assert.Equal(t, want, item.IsNew, item.ID)
		if item.IsNew {
			unread++
		}
	}
	assert.Equal(t, unread, state.Unread)
	assert.Equal(t, 1, state.Orphans)
	assert.Equal(t, 2, state.UnknownTimestamps)
}

func TestAggregateSortsNewestFirst(t *testing.T) {
	state := Aggregate(mixedSnapshot(), sellerViewer, testNow, Options{})

	items := state.Items
	require.Len(t, items, 6)
	seenUnknown := false
	for i, item := range items {
		if item.Timestamp == nil {
			seenUnknown = true
			continue
		}
		require.False(t, seenUnknown, "dated item %s after an undated one", item.ID)
		if i > 0 {
			assert.False(t, item.Timestamp.After(*items[i-1].Timestamp), "%s out of order", item.ID)
		}
	}
	assert.Equal(t, "threaded_reply:p1:0:r2", items[0].ID)
	assert.Equal(t, "comment:p1:0:-", items[1].ID)
	assert.Equal(t, "likes:p1:-:-", items[2].ID)
	assert.Equal(t, "comment:p2:0:-", items[4].ID)
	assert.Equal(t, "reply:p1:0:r3", items[5].ID)
}

func TestAggregateTiesBreakByID(t *testing.T) {
	ts := ago(time.Hour)
	posts := []models.Post{{
		ID:       "p",
		AuthorID: "store-1",
		Comments: []models.Comment{
			{AuthorID: "b", Timestamp: ts},
			{AuthorID: "a", Timestamp: ts},
		},
	}}

	state := Aggregate(posts, sellerViewer, testNow, Options{})

	require.Len(t, state.Items, 2)
	assert.Equal(t, "comment:p:0:-", state.Items[0].ID)
	assert.Equal(t, "comment:p:1:-", state.Items[1].ID)
}

func TestAggregateDeduplicates(t *testing.T) {
	posts := mixedSnapshot()
	doubled := append(append([]models.Post{}, posts...), posts...)

	once := Aggregate(posts, sellerViewer, testNow, Options{})
	twice := Aggregate(doubled, sellerViewer, testNow, Options{})

	assert.Equal(t, once.Items, twice.Items)
	assert.Equal(t, once.Unread, twice.Unread)
	ids := map[string]bool{}
	for _, item := range twice.Items {
		assert.False(t, ids[item.ID], "duplicate %s", item.ID)
		ids[item.ID] = true
	}
}

func TestAggregateIsDeterministic(t *testing.T) {
	opts := Options{FollowedStores: []string{"store-1"}}
	first := Aggregate(mixedSnapshot(), buyerViewer, testNow, opts)
	second := Aggregate(mixedSnapshot(), buyerViewer, testNow, opts)

	assert.Equal(t, first, second)
}

func TestAggregateEmptySnapshot(t *testing.T) {
	state := Aggregate(nil, buyerViewer, testNow, Options{})

	assert.Empty(t, state.Items)
	assert.Zero(t, state.Unread)
}
