package notifications

import (
	"sort"
	"time"

	"github.com/anonto42/nano-midea/notifier/internal/models"
)

// State is the notification feed computed from one post snapshot.
type State struct {
	Items  []models.NotificationItem
	Unread int
	// ComputedAt is the evaluation instant the feed was stamped with.
	ComputedAt time.Time

	// Diagnostics, not part of the feed.
	Orphans           int
	UnknownTimestamps int
}

// Aggregate derives the viewer's notification feed from a full post
// snapshot, evaluated at now. It threads every comment, classifies each post,
// stamps novelty, drops duplicate events, and sorts newest first with unknown
// timestamps last. The result depends only on its arguments.
func Aggregate(posts []models.Post, viewer models.Viewer, now time.Time, opts Options) State {
	state := State{ComputedAt: now}

	var candidates []models.NotificationItem
	for _, post := range posts {
		threads := ThreadComments(post)
		for _, tc := range threads {
			Walk(tc.Thread, func(n, _ *ReplyNode) {
				if n.Orphaned {
					state.Orphans++
				}
			})
		}
		candidates = append(candidates, Classify(post, threads, viewer, now, opts)...)
	}

	seen := make(map[string]bool, len(candidates))
	items := make([]models.NotificationItem, 0, len(candidates))
	for _, item := range candidates {
		if seen[item.ID] {
			continue
		}
		seen[item.ID] = true
		item.IsNew = IsNew(item.Timestamp, now, opts.NoveltyWindow)
		if item.Timestamp == nil {
			state.UnknownTimestamps++
		}
		if item.IsNew {
			state.Unread++
		}
		items = append(items, item)
	}

	sort.Slice(items, func(i, j int) bool {
		return newerFirst(items[i], items[j])
	})
	state.Items = items
	return state
}

func newerFirst(a, b models.NotificationItem) bool {
	switch {
	case a.Timestamp == nil && b.Timestamp == nil:
		return a.ID < b.ID
	case a.Timestamp == nil:
		return false
	case b.Timestamp == nil:
		return true
	case !a.Timestamp.Equal(*b.Timestamp):
		return a.Timestamp.After(*b.Timestamp)
	}
	return a.ID < b.ID
}
