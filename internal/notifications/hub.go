package notifications

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/anonto42/nano-midea/notifier/internal/models"
	"github.com/anonto42/nano-midea/notifier/internal/repositories"
	"github.com/anonto42/nano-midea/notifier/pkg/logger"
	"github.com/sirupsen/logrus"
)

// Graph resolves the parts of a viewer's social graph a session depends on.
type Graph interface {
	FollowedStoreIDs(ctx context.Context, viewer models.Viewer) ([]string, error)
	StoreNames(ctx context.Context, ids []string) (map[string]string, error)
}

var (
	// ErrHubClosed is returned by Acquire after Close.
	ErrHubClosed = errors.New("notification hub closed")
	// ErrSessionReleased is returned by Acquire when the session was released
	// or replaced while its subscription was opening.
	ErrSessionReleased = errors.New("notification session released")
)

// Hub owns the live sessions, one per viewer uid.
type Hub struct {
	store  repositories.PostStore
	graph  Graph
	window time.Duration
	clock  func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool
}

type HubOption func(*Hub)

// WithClock sets the clock sessions stamp snapshots with.
func WithClock(clock func() time.Time) HubOption {
	return func(h *Hub) { h.clock = clock }
}

// WithNoveltyWindow overrides DefaultNoveltyWindow.
func WithNoveltyWindow(window time.Duration) HubOption {
	return func(h *Hub) {
		if window > 0 {
			h.window = window
		}
	}
}

func NewHub(store repositories.PostStore, graph Graph, opts ...HubOption) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		store:    store,
		graph:    graph,
		window:   DefaultNoveltyWindow,
		clock:    time.Now,
		ctx:      ctx,
		cancel:   cancel,
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Acquire returns the viewer's live session, opening one if needed. A
// session opened for another role, store or set of followed stores is
// replaced. A session whose subscription failed is resubscribed. The hub
// lock only guards the session map; opening the store subscription runs
// outside it, serialized per session.
func (h *Hub) Acquire(ctx context.Context, viewer models.Viewer) (*Session, error) {
	if err := viewer.Validate(); err != nil {
		return nil, fmt.Errorf("invalid viewer: %w", err)
	}
	filter, opts := h.resolve(ctx, viewer)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrHubClosed
	}
	s, ok := h.sessions[viewer.UID]
	var stale *Session
	if ok && !(sameViewer(s.Viewer(), viewer) && s.Filter().Equal(filter)) {
		stale, ok = s, false
	}
	if !ok {
		s = NewSession(viewer, opts, h.clock)
		s.filter = filter
		h.sessions[viewer.UID] = s
	}
	h.mu.Unlock()

	if stale != nil {
		stale.Close()
	}
	err := s.ensureSubscribed(h.ctx, h.store, filter)

	h.mu.Lock()
	current := h.sessions[viewer.UID] == s
	if err != nil && current && !ok {
		delete(h.sessions, viewer.UID)
	}
	closed := h.closed
	h.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if !current {
		s.Close()
		if closed {
			return nil, ErrHubClosed
		}
		return nil, ErrSessionReleased
	}
	return s, nil
}

// Lookup returns the viewer's session without opening one.
func (h *Hub) Lookup(uid string) (*Session, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.sessions[uid]
	return s, ok
}

// Release closes the viewer's session, as on logout. It reports whether one
// was open.
func (h *Hub) Release(uid string) bool {
	h.mu.Lock()
	s, ok := h.sessions[uid]
	delete(h.sessions, uid)
	h.mu.Unlock()

	if ok {
		s.Close()
	}
	return ok
}

// Len is the number of open sessions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// Close releases every session. Acquire fails afterwards.
func (h *Hub) Close() {
	h.mu.Lock()
	sessions := h.sessions
	h.sessions = make(map[string]*Session)
	h.closed = true
	h.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
	h.cancel()
}

// resolve builds the post filter and classifier options for viewer. Graph
// lookups that fail degrade to an empty follow set and placeholder names.
func (h *Hub) resolve(ctx context.Context, viewer models.Viewer) (models.PostFilter, Options) {
	opts := Options{NoveltyWindow: h.window}
	if viewer.Role == models.RoleSeller {
		return models.ByAuthors(viewer.AuthorIDs()), opts
	}

	log := logger.Log.WithFields(logrus.Fields{"viewer": viewer.UID, "role": viewer.Role})
	var followed []string
	if h.graph != nil {
		ids, err := h.graph.FollowedStoreIDs(ctx, viewer)
		if err != nil {
			log.WithError(fmt.Errorf("%w: %v", ErrMissingData, err)).Warn("Could not load followed stores")
		}
		followed = ids
	}
	opts.FollowedStores = followed

	if h.graph != nil && len(followed) > 0 {
		names, err := h.graph.StoreNames(ctx, followed)
		if err != nil {
			log.WithError(fmt.Errorf("%w: %v", ErrMissingData, err)).Warn("Could not load store names")
		}
		opts.StoreNames = names
	}

	return models.ByAuthors(append(viewer.AuthorIDs(), followed...)), opts
}

func sameViewer(a, b models.Viewer) bool {
	return a.Role == b.Role && a.PublisherID() == b.PublisherID() &&
		a.DisplayName == b.DisplayName && a.Email == b.Email
}
