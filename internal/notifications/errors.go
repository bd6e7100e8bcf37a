package notifications

import "errors"

// All of these are recovered inside the package. Only ErrSubscriptionFailure
// reaches callers, through Session.Err.
var (
	// ErrMissingData marks a referenced profile or store document that could not be read.
	ErrMissingData = errors.New("referenced document missing")
	// ErrMalformedTimestamp marks an event whose time is unknown.
	ErrMalformedTimestamp = errors.New("malformed timestamp")
	// ErrOrphanReply marks a reply whose parent is not among its siblings.
	ErrOrphanReply = errors.New("orphan reply reference")
	// ErrSubscriptionFailure wraps errors reported by the post store transport.
	ErrSubscriptionFailure = errors.New("post subscription failed")
)
