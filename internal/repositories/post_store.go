package repositories

import (
	"context"
	"errors"
	"sync"

	"github.com/anonto42/nano-midea/notifier/internal/models"
)

// ErrPostNotFound is returned when a post lookup matches nothing
var ErrPostNotFound = errors.New("post not found")

// SnapshotFunc receives the full set of posts matching a subscription's
// filter. Every call replaces the previous snapshot.
type SnapshotFunc func(posts []models.Post)

// ErrorFunc receives transport errors. The subscription stops delivering
// snapshots after reporting one.
type ErrorFunc func(err error)

// Subscription is a live post query. Unsubscribe releases it and is safe to
// call more than once.
type Subscription interface {
	Unsubscribe()
}

// PostStore is the read side of the post document store
type PostStore interface {
	GetPostByID(ctx context.Context, id string) (*models.Post, error)
	// Subscribe delivers snapshots of the posts matching filter until ctx is
	// done or the subscription is released. Callbacks run on a goroutine
	// owned by the store, one at a time.
	Subscribe(ctx context.Context, filter models.PostFilter, onSnapshot SnapshotFunc, onError ErrorFunc) (Subscription, error)
}

// subscription ties a listener goroutine to a cancel func.
type subscription struct {
	cancel context.CancelFunc
	once   sync.Once
}

func newSubscription(cancel context.CancelFunc) *subscription {
	return &subscription{cancel: cancel}
}

func (s *subscription) Unsubscribe() {
	s.once.Do(s.cancel)
}
