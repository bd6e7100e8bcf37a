package notifications

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/anonto42/nano-midea/notifier/internal/models"
)

const (
	unknownAuthor = "Someone"
	unknownStore  = "A store you follow"
	excerptLength = 120
)

// Options carries the per-viewer context the classifier needs besides the
// posts themselves. It is resolved outside the engine.
type Options struct {
	NoveltyWindow time.Duration
	// FollowedStores are the store ids a buyer follows.
	FollowedStores []string
	// StoreNames maps store ids to display names for new_post titles.
	StoreNames map[string]string
}

type classifier struct {
	viewer   models.Viewer
	opts     Options
	now      time.Time
	followed map[string]bool
	handles  []string
}

func newClassifier(viewer models.Viewer, now time.Time, opts Options) *classifier {
	c := &classifier{
		viewer:   viewer,
		opts:     opts,
		now:      now,
		followed: make(map[string]bool, len(opts.FollowedStores)),
	}
	for _, id := range opts.FollowedStores {
		c.followed[id] = true
	}
	if name := strings.TrimSpace(viewer.DisplayName); name != "" {
		c.handles = append(c.handles, "@"+strings.ToLower(name))
	}
	if at := strings.IndexByte(viewer.Email, '@'); at > 0 {
		c.handles = append(c.handles, "@"+strings.ToLower(viewer.Email[:at]))
	}
	return c
}

// Classify emits the notification candidates one post yields for the viewer.
// threads must be the post's comments as returned by ThreadComments.
// Candidates are not yet novelty-stamped or deduplicated.
func Classify(post models.Post, threads []ThreadedComment, viewer models.Viewer, now time.Time, opts Options) []models.NotificationItem {
	c := newClassifier(viewer, now, opts)
	if viewer.Role == models.RoleSeller {
		return c.seller(post, threads)
	}
	return c.buyer(post, threads)
}

func (c *classifier) seller(post models.Post, threads []ThreadedComment) []models.NotificationItem {
	if !c.viewer.Owns(post) {
		return nil
	}
	var out []models.NotificationItem
	if len(post.Likes) > 0 {
		out = append(out, c.postLikes(models.NotificationLikes, post))
	}
	for _, tc := range threads {
		cm := tc.Comment
		if c.self(cm.AuthorID) {
			if n := likedByOthers(cm.Likes, cm.AuthorID); n > 0 {
				out = append(out, c.commentLikes(post, tc, n))
			}
		} else {
			out = append(out, c.commentItem(models.NotificationComment, post, tc,
				authorName(cm.DisplayName)+" commented on your post"))
		}
		out = append(out, c.replies(post, tc, true)...)
	}
	return out
}

func (c *classifier) buyer(post models.Post, threads []ThreadedComment) []models.NotificationItem {
	owned := c.viewer.Owns(post)
	var out []models.NotificationItem

	if !owned && c.followed[post.AuthorID] && IsNew(post.Timestamp, c.now, c.opts.NoveltyWindow) {
		out = append(out, c.newPost(post))
	}
	if owned && len(post.Likes) > 0 {
		out = append(out, c.postLikes(models.NotificationPostLikes, post))
	}

	joined := c.participated(post)
	for _, tc := range threads {
		cm := tc.Comment
		switch {
		case c.self(cm.AuthorID):
			if n := likedByOthers(cm.Likes, cm.AuthorID); n > 0 {
				out = append(out, c.commentLikes(post, tc, n))
			}
		case c.mentions(cm.Text):
			out = append(out, c.commentItem(models.NotificationMention, post, tc,
				authorName(cm.DisplayName)+" mentioned you in a comment"))
		case owned:
			out = append(out, c.commentItem(models.NotificationCommentOnPost, post, tc,
				authorName(cm.DisplayName)+" commented on your post"))
		case joined:
			out = append(out, c.commentItem(models.NotificationCommentOnPost, post, tc,
				authorName(cm.DisplayName)+" commented on a post you joined"))
		}
		out = append(out, c.replies(post, tc, owned)...)
	}
	return out
}

// replies classifies the reply forest of one comment. owned is true when the
// post belongs to the viewer, which widens relevance to every reply on it.
func (c *classifier) replies(post models.Post, tc ThreadedComment, owned bool) []models.NotificationItem {
	var out []models.NotificationItem
	buyer := c.viewer.Role != models.RoleSeller
	Walk(tc.Thread, func(n, parent *ReplyNode) {
		r := n.Reply
		name := authorName(r.DisplayName)
		if !c.self(r.AuthorID) {
			switch {
			case buyer && c.mentions(r.Text):
				out = append(out, c.replyItem(models.NotificationMention, post, tc, n, name+" mentioned you in a reply", r.Timestamp))
			case parent == nil && c.self(tc.Comment.AuthorID):
				out = append(out, c.replyItem(models.NotificationReply, post, tc, n, name+" replied to your comment", r.Timestamp))
			case parent == nil && owned:
				out = append(out, c.replyItem(models.NotificationReply, post, tc, n, name+" replied to a comment on your post", r.Timestamp))
			case parent != nil && c.self(parent.Reply.AuthorID):
				out = append(out, c.replyItem(models.NotificationThreadedReply, post, tc, n, name+" replied to you", r.Timestamp))
			case parent != nil && owned:
				out = append(out, c.replyItem(models.NotificationThreadActivity, post, tc, n, name+" replied in a thread on your post", r.Timestamp))
			}
		}
		if !owned && !c.self(r.AuthorID) {
			return
		}
		likes := likedByOthers(r.Likes, r.AuthorID)
		if likes == 0 {
			return
		}
		title := name + "'s reply on your post got likes"
		if c.self(r.AuthorID) {
			title = "Your reply got likes"
		}
		item := c.replyItem(models.NotificationReplyLikes, post, tc, n, title, r.LastLikeTimestamp)
		item.ActorID = ""
		item.Body = people(likes) + " liked this reply"
		out = append(out, item)
	})
	return out
}

func (c *classifier) newPost(post models.Post) models.NotificationItem {
	name, ok := c.opts.StoreNames[post.AuthorID]
	if !ok || strings.TrimSpace(name) == "" {
		name = unknownStore
	}
	return models.NotificationItem{
		ID:            notificationID(models.NotificationNewPost, post.ID, nil, nil),
		Type:          models.NotificationNewPost,
		Title:         name + " shared a new post",
		Body:          excerpt(post.Text),
		Timestamp:     post.Timestamp,
		ActorID:       post.AuthorID,
		TargetPostID:  post.ID,
		TargetStoreID: post.AuthorID,
	}
}

func (c *classifier) postLikes(t models.NotificationType, post models.Post) models.NotificationItem {
	return models.NotificationItem{
		ID:            notificationID(t, post.ID, nil, nil),
		Type:          t,
		Title:         "Your post got new likes",
		Body:          people(len(post.Likes)) + " liked your post",
		Timestamp:     post.LastLikeTimestamp,
		TargetPostID:  post.ID,
		TargetStoreID: post.AuthorID,
	}
}

func (c *classifier) commentLikes(post models.Post, tc ThreadedComment, n int) models.NotificationItem {
	item := c.commentItem(models.NotificationCommentLikes, post, tc, "Your comment got likes")
	item.Body = people(n) + " liked your comment"
	item.Timestamp = tc.Comment.LastLikeTimestamp
	item.ActorID = ""
	return item
}

func (c *classifier) commentItem(t models.NotificationType, post models.Post, tc ThreadedComment, title string) models.NotificationItem {
	idx := tc.Index
	return models.NotificationItem{
		ID:                 notificationID(t, post.ID, &idx, nil),
		Type:               t,
		Title:              title,
		Body:               excerpt(tc.Comment.Text),
		Timestamp:          tc.Comment.Timestamp,
		ActorID:            tc.Comment.AuthorID,
		TargetPostID:       post.ID,
		TargetStoreID:      post.AuthorID,
		TargetCommentIndex: &idx,
		TargetCommentID:    tc.Comment.ID,
	}
}

func (c *classifier) replyItem(t models.NotificationType, post models.Post, tc ThreadedComment, n *ReplyNode, title string, ts *time.Time) models.NotificationItem {
	idx := tc.Index
	key := replyKey(n)
	return models.NotificationItem{
		ID:                 notificationID(t, post.ID, &idx, &key),
		Type:               t,
		Title:              title,
		Body:               excerpt(n.Reply.Text),
		Timestamp:          ts,
		ActorID:            n.Reply.AuthorID,
		TargetPostID:       post.ID,
		TargetStoreID:      post.AuthorID,
		TargetCommentIndex: &idx,
		TargetCommentID:    tc.Comment.ID,
		TargetReplyID:      &key,
	}
}

// self reports whether id identifies the viewer, as a user or as a store.
func (c *classifier) self(id string) bool {
	return id != "" && (id == c.viewer.UID || id == c.viewer.PublisherID())
}

// participated reports whether the viewer commented or replied on the post.
func (c *classifier) participated(post models.Post) bool {
	for _, cm := range post.Comments {
		if c.self(cm.AuthorID) {
			return true
		}
		for _, r := range cm.Replies {
			if c.self(r.AuthorID) {
				return true
			}
		}
	}
	return false
}

// mentions reports whether text addresses the viewer as @displayName or
// @email-local-part. The handle must not run on into a longer word.
func (c *classifier) mentions(text string) bool {
	if text == "" || len(c.handles) == 0 {
		return false
	}
	lower := strings.ToLower(text)
	for _, h := range c.handles {
		for from := 0; from < len(lower); {
			i := strings.Index(lower[from:], h)
			if i < 0 {
				break
			}
			end := from + i + len(h)
			if end == len(lower) {
				return true
			}
			next, _ := utf8.DecodeRuneInString(lower[end:])
			if !isHandleRune(next) {
				return true
			}
			from = from + i + 1
		}
	}
	return false
}

func isHandleRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-'
}

// likedByOthers counts the likes not given by author.
func likedByOthers(likes []string, author string) int {
	n := 0
	seen := make(map[string]bool, len(likes))
	for _, id := range likes {
		if id == "" || id == author || seen[id] {
			continue
		}
		seen[id] = true
		n++
	}
	return n
}

// replyKey identifies a reply inside its comment. Replies written before ids
// were assigned fall back to their position.
func replyKey(n *ReplyNode) string {
	if n.Reply.ID != "" {
		return n.Reply.ID
	}
	return "#" + strconv.Itoa(n.Index)
}

// notificationID is the dedup key (type, post, comment?, reply?).
func notificationID(t models.NotificationType, postID string, commentIndex *int, replyID *string) string {
	comment, reply := "-", "-"
	if commentIndex != nil {
		comment = strconv.Itoa(*commentIndex)
	}
	if replyID != nil {
		reply = *replyID
	}
	return fmt.Sprintf("%s:%s:%s:%s", t, postID, comment, reply)
}

func authorName(name string) string {
	if strings.TrimSpace(name) == "" {
		return unknownAuthor
	}
	return name
}

func people(n int) string {
	if n == 1 {
		return "1 person"
	}
	return strconv.Itoa(n) + " people"
}

func excerpt(text string) string {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) <= excerptLength {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:excerptLength])) + "…"
}
