package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp coerces the timestamp shapes found in stored documents
// (native dates, BSON dates, RFC3339 strings, epoch milliseconds and
// {seconds, nanoseconds} maps) into a time. It returns nil when v is
// missing or cannot be coerced.
func ParseTimestamp(v interface{}) *time.Time {
	var t time.Time
	switch x := v.(type) {
	case nil:
		return nil
	case time.Time:
		t = x
	case *time.Time:
		if x == nil {
			return nil
		}
		t = *x
	case primitive.DateTime:
		t = x.Time()
	case primitive.Timestamp:
		t = time.Unix(int64(x.T), 0)
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return nil
		}
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			t = time.UnixMilli(ms)
			break
		}
		parsed, ok := parseLayouts(s)
		if !ok {
			return nil
		}
		t = parsed
	case int:
		t = time.UnixMilli(int64(x))
	case int32:
		t = time.UnixMilli(int64(x))
	case int64:
		t = time.UnixMilli(x)
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil
		}
		t = time.UnixMilli(int64(x))
	default:
		m, ok := asMap(v)
		if !ok {
			return nil
		}
		secs, ok := firstNumber(m, "seconds", "_seconds")
		if !ok {
			return nil
		}
		nanos, _ := firstNumber(m, "nanoseconds", "_nanoseconds")
		t = time.Unix(secs, nanos)
	}
	if t.IsZero() {
		return nil
	}
	t = t.UTC()
	return &t
}

func parseLayouts(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func firstNumber(m map[string]interface{}, keys ...string) (int64, bool) {
	for _, k := range keys {
		switch n := m[k].(type) {
		case int:
			return int64(n), true
		case int32:
			return int64(n), true
		case int64:
			return n, true
		case float64:
			return int64(n), true
		}
	}
	return 0, false
}

// PostFromDocument builds a Post from a raw stored document. Missing or
// mistyped optional fields become empty values instead of errors.
func PostFromDocument(id string, doc map[string]interface{}) Post {
	if id == "" {
		id = idString(doc["_id"])
	}
	post := Post{
		ID:                id,
		AuthorID:          str(doc, "authorId"),
		Text:              str(doc, "text"),
		Media:             strSlice(doc["media"]),
		Timestamp:         ParseTimestamp(doc["timestamp"]),
		Likes:             uniqueStrings(doc["likes"]),
		LastLikeTimestamp: ParseTimestamp(doc["lastLikeTimestamp"]),
	}
	for _, raw := range asSlice(doc["comments"]) {
		m, ok := asMap(raw)
		if !ok {
			continue
		}
		post.Comments = append(post.Comments, commentFromDocument(m))
	}
	return post
}

func commentFromDocument(doc map[string]interface{}) Comment {
	c := Comment{
		ID:                str(doc, "id"),
		AuthorID:          str(doc, "authorId"),
		DisplayName:       str(doc, "displayName"),
		AvatarURL:         str(doc, "avatarUrl"),
		Text:              str(doc, "text"),
		Timestamp:         ParseTimestamp(doc["timestamp"]),
		Likes:             uniqueStrings(doc["likes"]),
		LastLikeTimestamp: ParseTimestamp(doc["lastLikeTimestamp"]),
	}
	for _, raw := range asSlice(doc["replies"]) {
		m, ok := asMap(raw)
		if !ok {
			continue
		}
		c.Replies = append(c.Replies, replyFromDocument(m))
	}
	return c
}

func replyFromDocument(doc map[string]interface{}) Reply {
	r := Reply{
		ID:                idString(doc["id"]),
		AuthorID:          str(doc, "authorId"),
		DisplayName:       str(doc, "displayName"),
		AvatarURL:         str(doc, "avatarUrl"),
		Text:              str(doc, "text"),
		Timestamp:         ParseTimestamp(doc["timestamp"]),
		Likes:             uniqueStrings(doc["likes"]),
		LastLikeTimestamp: ParseTimestamp(doc["lastLikeTimestamp"]),
	}
	if parent := idString(doc["parentId"]); parent != "" {
		r.ParentID = &parent
	}
	return r
}

func str(doc map[string]interface{}, key string) string {
	s, _ := doc[key].(string)
	return s
}

// idString accepts ids stored as strings, numbers or ObjectIDs.
func idString(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case primitive.ObjectID:
		return x.Hex()
	case int, int32, int64:
		return fmt.Sprintf("%d", x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
	return ""
}

func strSlice(v interface{}) []string {
	var out []string
	for _, item := range asSlice(v) {
		if s, ok := item.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

// uniqueStrings keeps the first occurrence of every id.
func uniqueStrings(v interface{}) []string {
	items := strSlice(v)
	if len(items) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(items))
	out := items[:0]
	for _, s := range items {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func asMap(v interface{}) (map[string]interface{}, bool) {
	switch x := v.(type) {
	case map[string]interface{}:
		return x, true
	case primitive.M:
		return map[string]interface{}(x), true
	case primitive.D:
		m := make(map[string]interface{}, len(x))
		for _, e := range x {
			m[e.Key] = e.Value
		}
		return m, true
	}
	return nil, false
}

func asSlice(v interface{}) []interface{} {
	switch x := v.(type) {
	case []interface{}:
		return x
	case primitive.A:
		return []interface{}(x)
	case []string:
		out := make([]interface{}, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out
	}
	return nil
}
