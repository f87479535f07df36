// Package cache holds the dashboard's query cache: possibly stale copies of
// campaign service responses, keyed by query key and dropped by prefix.
package cache

import (
	"context"
	"net/url"
	"strings"
	"time"
)

// Key identifies a cached query, e.g. Key{"campaign", "42"}.
type Key []string

// String joins the path-escaped segments with "/", so a segment holding "/"
// or a glob character cannot collide with another key or widen a match.
func (k Key) String() string {
	parts := make([]string, len(k))
	for i, seg := range k {
		parts[i] = url.PathEscape(seg)
	}
	return strings.Join(parts, "/")
}

// Scoped returns k with scope appended. Invalidating k still drops every scope.
func (k Key) Scoped(scope string) Key {
	out := make(Key, 0, len(k)+1)
	out = append(out, k...)
	return append(out, scope)
}

// Family is the first segment of the key, used as a metrics label.
func (k Key) Family() string {
	if len(k) == 0 {
		return ""
	}
	return k[0]
}

// HasPrefix reports whether every segment of prefix matches the start of k.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i := range prefix {
		if k[i] != prefix[i] {
			return false
		}
	}
	return true
}

func CampaignsKey() Key {
	return Key{"campaigns"}
}

func CampaignKey(id string) Key {
	return Key{"campaign", id}
}

// QueryCache stores encoded query results.
type QueryCache interface {
	Get(ctx context.Context, key Key) ([]byte, bool, error)
	Set(ctx context.Context, key Key, value []byte, ttl time.Duration) error
	// Invalidate drops every entry whose key starts with prefix and returns how many were dropped.
	Invalidate(ctx context.Context, prefix Key) (int, error)
}
