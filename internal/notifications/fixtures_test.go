package notifications

import (
	"context"
	"sync"
	"time"

	"github.com/anonto42/nano-midea/notifier/internal/models"
	"github.com/anonto42/nano-midea/notifier/internal/repositories"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func ago(d time.Duration) *time.Time {
	t := testNow.Add(-d)
	return &t
}

func ref(s string) *string { return &s }

var (
	sellerViewer = models.Viewer{
		UID:         "seller-1",
		UserID:      1,
		DisplayName: "Sam",
		Email:       "sam@shop.test",
		Role:        models.RoleSeller,
		StoreID:     "store-1",
	}
	buyerViewer = models.Viewer{
		UID:         "buyer-1",
		UserID:      2,
		DisplayName: "Bea",
		Email:       "bea.b@mail.test",
		Role:        models.RoleBuyer,
	}
)

func reply(id, parent, author string, ts *time.Time) models.Reply {
	r := models.Reply{ID: id, AuthorID: author, DisplayName: author, Text: "reply " + id, Timestamp: ts}
	if parent != "" {
		r.ParentID = ref(parent)
	}
	return r
}

func typesOf(items []models.NotificationItem) []models.NotificationType {
	out := make([]models.NotificationType, len(items))
	for i, it := range items {
		out[i] = it.Type
	}
	return out
}

func findItem(items []models.NotificationItem, t models.NotificationType, replyID string) (models.NotificationItem, bool) {
	for _, it := range items {
		if it.Type != t {
			continue
		}
		if replyID == "" || (it.TargetReplyID != nil && *it.TargetReplyID == replyID) {
			return it, true
		}
	}
	return models.NotificationItem{}, false
}

// fakeStore records subscriptions; tests push snapshots through them.
type fakeStore struct {
	mu   sync.Mutex
	subs []*fakeSub
	err  error
}

type fakeSub struct {
	filter       models.PostFilter
	onSnapshot   repositories.SnapshotFunc
	onError      repositories.ErrorFunc
	mu           sync.Mutex
	unsubscribed int
}

func (s *fakeSub) Unsubscribe() {
	s.mu.Lock()
	s.unsubscribed++
	s.mu.Unlock()
}

func (s *fakeSub) released() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unsubscribed
}

func (f *fakeStore) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	return nil, repositories.ErrPostNotFound
}

func (f *fakeStore) Subscribe(ctx context.Context, filter models.PostFilter, onSnapshot repositories.SnapshotFunc, onError repositories.ErrorFunc) (repositories.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	sub := &fakeSub{filter: filter, onSnapshot: onSnapshot, onError: onError}
	f.subs = append(f.subs, sub)
	return sub, nil
}

func (f *fakeStore) last() *fakeSub {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.subs) == 0 {
		return nil
	}
	return f.subs[len(f.subs)-1]
}

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}
