package notifications

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/anonto42/nano-midea/notifier/internal/models"
	"github.com/anonto42/nano-midea/notifier/internal/repositories"
	"github.com/anonto42/nano-midea/notifier/pkg/logger"
	"github.com/anonto42/nano-midea/notifier/pkg/metrics"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Phase is the lifecycle position of a Session.
type Phase int

const (
	// PhaseIdle holds no subscription.
	PhaseIdle Phase = iota
	// PhaseSubscribed waits for the first snapshot.
	PhaseSubscribed
	// PhaseReady has a computed feed.
	PhaseReady
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSubscribed:
		return "subscribed"
	case PhaseReady:
		return "ready"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Session keeps one viewer's notification feed in step with a post store
// subscription. Every snapshot replaces the feed wholesale.
type Session struct {
	viewer models.Viewer
	opts   Options
	clock  func() time.Time
	log    *logrus.Entry

	// subscribing serializes ensureSubscribed so one store handle is opened
	// per session at a time.
	subscribing sync.Mutex

	mu     sync.RWMutex
	phase  Phase
	filter models.PostFilter
	state  State
	unread int
	err    error
	sub    repositories.Subscription
	// gen identifies the live subscription; callbacks of released ones are dropped.
	gen uint64
	// active is set while the session is counted in metrics.ActiveSessions.
	active bool
}

// NewSession returns an idle session. clock supplies the evaluation instant
// for every snapshot; nil means time.Now.
func NewSession(viewer models.Viewer, opts Options, clock func() time.Time) *Session {
	if clock == nil {
		clock = time.Now
	}
	return &Session{
		viewer: viewer,
		opts:   opts,
		clock:  clock,
		log: logger.Log.WithFields(logrus.Fields{
			"session": uuid.NewString(),
			"viewer":  viewer.UID,
			"role":    viewer.Role,
		}),
	}
}

func (s *Session) Viewer() models.Viewer {
	return s.viewer
}

func (s *Session) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

func (s *Session) Filter() models.PostFilter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter
}

// Subscribe opens a subscription for filter, releasing any previous one.
// The session is Subscribed until the first snapshot arrives.
func (s *Session) Subscribe(ctx context.Context, store repositories.PostStore, filter models.PostFilter) error {
	s.mu.Lock()
	prev := s.sub
	s.sub = nil
	s.gen++
	gen := s.gen
	s.filter = filter
	s.err = nil
	s.phase = PhaseSubscribed
	s.setActive(true)
	s.mu.Unlock()

	if prev != nil {
		prev.Unsubscribe()
	}

	sub, err := store.Subscribe(ctx, filter,
		func(posts []models.Post) { s.apply(gen, posts) },
		func(err error) { s.fail(gen, err) },
	)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrSubscriptionFailure, err)
		s.mu.Lock()
		if s.gen == gen {
			s.phase = PhaseIdle
			s.err = err
			s.setActive(false)
		}
		s.mu.Unlock()
		metrics.SubscriptionFailures.Inc()
		s.log.WithError(err).Error("Failed to subscribe to posts")
		return err
	}

	s.mu.Lock()
	if s.gen != gen {
		// Closed or resubscribed while the store was opening.
		s.mu.Unlock()
		sub.Unsubscribe()
		return nil
	}
	s.sub = sub
	s.mu.Unlock()

	s.log.WithField("authors", len(filter.AuthorIDs)).Info("Notification session subscribed")
	return nil
}

// ensureSubscribed subscribes when the session is Idle or its last
// subscription failed, and is a no-op otherwise.
func (s *Session) ensureSubscribed(ctx context.Context, store repositories.PostStore, filter models.PostFilter) error {
	s.subscribing.Lock()
	defer s.subscribing.Unlock()
	if s.Err() == nil && s.Phase() != PhaseIdle {
		return nil
	}
	return s.Subscribe(ctx, store, filter)
}

// setActive keeps metrics.ActiveSessions in step. Callers hold s.mu.
func (s *Session) setActive(active bool) {
	if s.active == active {
		return
	}
	s.active = active
	if active {
		metrics.ActiveSessions.Inc()
	} else {
		metrics.ActiveSessions.Dec()
	}
}

// Apply recomputes the feed from a full snapshot evaluated at now and
// replaces the previous feed. It clears the error flag.
func (s *Session) Apply(posts []models.Post, now time.Time) {
	s.mu.RLock()
	gen := s.gen
	s.mu.RUnlock()
	s.applyAt(gen, posts, now)
}

func (s *Session) apply(gen uint64, posts []models.Post) {
	s.applyAt(gen, posts, s.clock())
}

func (s *Session) applyAt(gen uint64, posts []models.Post, now time.Time) {
	start := time.Now()
	state := Aggregate(posts, s.viewer, now, s.opts)
	metrics.RecomputeDuration.Observe(time.Since(start).Seconds())

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.state = state
	s.unread = state.Unread
	s.err = nil
	s.phase = PhaseReady
	s.mu.Unlock()

	metrics.Recomputes.WithLabelValues(string(s.viewer.Role)).Inc()
	entry := s.log.WithFields(logrus.Fields{
		"posts":  len(posts),
		"items":  len(state.Items),
		"unread": state.Unread,
	})
	if state.Orphans > 0 {
		entry = entry.WithField("orphans", state.Orphans)
		entry.WithError(ErrOrphanReply).Debug("Orphan replies placed at thread root")
	}
	if state.UnknownTimestamps > 0 {
		entry.WithField("unknown_timestamps", state.UnknownTimestamps).WithError(ErrMalformedTimestamp).Debug("Notifications without a usable timestamp")
	}
	entry.Debug("Notification feed recomputed")
}

// fail empties the feed and raises the error flag. The session stays usable;
// the flag clears with the next snapshot.
func (s *Session) fail(gen uint64, err error) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.state = State{ComputedAt: s.clock()}
	s.unread = 0
	s.err = fmt.Errorf("%w: %v", ErrSubscriptionFailure, err)
	s.phase = PhaseReady
	s.mu.Unlock()

	metrics.SubscriptionFailures.Inc()
	s.log.WithError(err).Warn("Post subscription failed")
}

// Notifications returns a copy of the current feed, newest first.
func (s *Session) Notifications() []models.NotificationItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.NotificationItem, len(s.state.Items))
	copy(out, s.state.Items)
	return out
}

// UnreadCount is the number of new items since the panel was last opened.
func (s *Session) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unread
}

// MarkPanelOpened zeroes the unread counter. The feed itself is untouched.
func (s *Session) MarkPanelOpened() {
	s.mu.Lock()
	s.unread = 0
	s.mu.Unlock()
}

// Err is the sticky subscription error, nil after a successful snapshot.
func (s *Session) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// Close releases the subscription and returns the session to Idle.
func (s *Session) Close() {
	s.mu.Lock()
	if s.phase == PhaseIdle {
		s.mu.Unlock()
		return
	}
	sub := s.sub
	s.sub = nil
	s.gen++
	s.phase = PhaseIdle
	s.state = State{}
	s.unread = 0
	s.setActive(false)
	s.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
	}
	s.log.Info("Notification session closed")
}
