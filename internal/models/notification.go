package models

import "time"

// NotificationType classifies why an item is in a viewer's feed
type NotificationType string

const (
	NotificationNewPost        NotificationType = "new_post"
	NotificationLikes          NotificationType = "likes"
	NotificationPostLikes      NotificationType = "post_likes"
	NotificationComment        NotificationType = "comment"
	NotificationCommentOnPost  NotificationType = "comment_on_post"
	NotificationMention        NotificationType = "mention"
	NotificationCommentLikes   NotificationType = "comment_likes"
	NotificationReply          NotificationType = "reply"
	NotificationThreadedReply  NotificationType = "threaded_reply"
	NotificationThreadActivity NotificationType = "thread_activity"
	NotificationReplyLikes     NotificationType = "reply_likes"
)

// NotificationItem is one entry of a viewer's derived notification feed.
// It is recomputed from post snapshots and never persisted.
type NotificationItem struct {
	ID                 string           `json:"id"`
	Type               NotificationType `json:"type"`
	Title              string           `json:"title"`
	Body               string           `json:"body"`
	Timestamp          *time.Time       `json:"timestamp,omitempty"`
	IsNew              bool             `json:"is_new"`
	ActorID            string           `json:"actor_id,omitempty"` // author of the triggering content, empty for likes
	TargetPostID       string           `json:"target_post_id"`
	TargetStoreID      string           `json:"target_store_id"`
	TargetCommentIndex *int             `json:"target_comment_index,omitempty"`
	TargetCommentID    string           `json:"target_comment_id,omitempty"`
	TargetReplyID      *string          `json:"target_reply_id,omitempty"`
}
