package notifications

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/anonto42/nano-midea/notifier/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() time.Time { return testNow }

func commentedPost(ts *time.Time) models.Post {
	return models.Post{
		ID:       "p1",
		AuthorID: "store-1",
		Comments: []models.Comment{{AuthorID: "buyer-2", Text: "hello", Timestamp: ts}},
	}
}

func TestSessionLifecycle(t *testing.T) {
	store := &fakeStore{}
	s := NewSession(sellerViewer, Options{}, fixedClock)
	assert.Equal(t, PhaseIdle, s.Phase())

	require.NoError(t, s.Subscribe(context.Background(), store, models.ByAuthor("store-1")))
	assert.Equal(t, PhaseSubscribed, s.Phase())
	assert.Empty(t, s.Notifications())
	assert.Equal(t, []string{"store-1"}, store.last().filter.AuthorIDs)

	store.last().onSnapshot([]models.Post{commentedPost(ago(time.Hour))})

	assert.Equal(t, PhaseReady, s.Phase())
	require.Len(t, s.Notifications(), 1)
	assert.Equal(t, 1, s.UnreadCount())
	assert.NoError(t, s.Err())
}

func TestSessionMarkPanelOpened(t *testing.T) {
	store := &fakeStore{}
	s := NewSession(sellerViewer, Options{}, fixedClock)
	require.NoError(t, s.Subscribe(context.Background(), store, models.ByAuthor("store-1")))
	store.last().onSnapshot([]models.Post{commentedPost(ago(time.Hour))})
	before := s.Notifications()

	s.MarkPanelOpened()

	assert.Zero(t, s.UnreadCount())
	assert.Equal(t, before, s.Notifications())
	assert.True(t, s.Notifications()[0].IsNew)

	// The next snapshot recomputes the counter from the feed.
	store.last().onSnapshot([]models.Post{commentedPost(ago(time.Hour))})
	assert.Equal(t, 1, s.UnreadCount())
}

func TestSessionSnapshotReplacesFeed(t *testing.T) {
	store := &fakeStore{}
	s := NewSession(sellerViewer, Options{}, fixedClock)
	require.NoError(t, s.Subscribe(context.Background(), store, models.ByAuthor("store-1")))

	store.last().onSnapshot([]models.Post{commentedPost(ago(time.Hour))})
	require.Len(t, s.Notifications(), 1)

	store.last().onSnapshot(nil)
	assert.Empty(t, s.Notifications())
	assert.Zero(t, s.UnreadCount())
}

func TestSessionErrorIsStickyUntilNextSnapshot(t *testing.T) {
	store := &fakeStore{}
	s := NewSession(sellerViewer, Options{}, fixedClock)
	require.NoError(t, s.Subscribe(context.Background(), store, models.ByAuthor("store-1")))
	store.last().onSnapshot([]models.Post{commentedPost(ago(time.Hour))})

	store.last().onError(errors.New("stream reset"))

	assert.ErrorIs(t, s.Err(), ErrSubscriptionFailure)
	assert.Empty(t, s.Notifications())
	assert.Zero(t, s.UnreadCount())
	assert.Equal(t, PhaseReady, s.Phase())

	store.last().onSnapshot([]models.Post{commentedPost(ago(time.Hour))})
	assert.NoError(t, s.Err())
	assert.Len(t, s.Notifications(), 1)
}

func TestSessionSubscribeFailure(t *testing.T) {
	store := &fakeStore{err: errors.New("permission denied")}
	s := NewSession(buyerViewer, Options{}, fixedClock)

	err := s.Subscribe(context.Background(), store, models.ByAuthor("buyer-1"))

	assert.ErrorIs(t, err, ErrSubscriptionFailure)
	assert.ErrorIs(t, s.Err(), ErrSubscriptionFailure)
	assert.Equal(t, PhaseIdle, s.Phase())
}

func TestSessionCloseReleasesOnce(t *testing.T) {
	store := &fakeStore{}
	s := NewSession(sellerViewer, Options{}, fixedClock)
	require.NoError(t, s.Subscribe(context.Background(), store, models.ByAuthor("store-1")))
	sub := store.last()
	sub.onSnapshot([]models.Post{commentedPost(ago(time.Hour))})

	s.Close()
	s.Close()

	assert.Equal(t, 1, sub.released())
	assert.Equal(t, PhaseIdle, s.Phase())
	assert.Empty(t, s.Notifications())
	assert.Zero(t, s.UnreadCount())
}

func TestSessionIgnoresReleasedSubscription(t *testing.T) {
	store := &fakeStore{}
	s := NewSession(buyerViewer, Options{}, fixedClock)
	require.NoError(t, s.Subscribe(context.Background(), store, models.ByAuthor("buyer-1")))
	stale := store.last()

	require.NoError(t, s.Subscribe(context.Background(), store, models.ByAuthor("store-1")))
	assert.Equal(t, 1, stale.released())

	stale.onSnapshot([]models.Post{{ID: "old", AuthorID: "buyer-1", Likes: []string{"x"}}})
	stale.onError(errors.New("late"))
	assert.Equal(t, PhaseSubscribed, s.Phase())
	assert.NoError(t, s.Err())
	assert.Empty(t, s.Notifications())

	s.Close()
	store.last().onSnapshot([]models.Post{{ID: "p", AuthorID: "buyer-1", Likes: []string{"x"}}})
	assert.Equal(t, PhaseIdle, s.Phase())
	assert.Empty(t, s.Notifications())
}

func TestSessionApplyUsesGivenInstant(t *testing.T) {
	store := &fakeStore{}
	s := NewSession(sellerViewer, Options{}, fixedClock)
	require.NoError(t, s.Subscribe(context.Background(), store, models.ByAuthor("store-1")))
	posts := []models.Post{commentedPost(ago(time.Hour))}

	s.Apply(posts, testNow.Add(48*time.Hour))

	require.Len(t, s.Notifications(), 1)
	assert.False(t, s.Notifications()[0].IsNew)
	assert.Zero(t, s.UnreadCount())
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "idle", PhaseIdle.String())
	assert.Equal(t, "subscribed", PhaseSubscribed.String())
	assert.Equal(t, "ready", PhaseReady.String())
	assert.Equal(t, "phase(9)", Phase(9).String())
}
