package notifications

import "time"

// DefaultNoveltyWindow is how long an event counts as new.
const DefaultNoveltyWindow = 24 * time.Hour

// IsNew reports whether an event at ts is inside the novelty window ending at
// now. Unknown timestamps are never new; future ones always are.
func IsNew(ts *time.Time, now time.Time, window time.Duration) bool {
	if ts == nil {
		return false
	}
	if window <= 0 {
		window = DefaultNoveltyWindow
	}
	return now.Sub(*ts) < window
}
