package cache

import (
	"fmt"
	"strings"
)

// Key identifies a cached query. Segments run from general to specific so a
// prefix selects a family of queries, e.g. {"reviews", "12"} covers every page
// and locale of product 12's reviews.
type Key []string

// K builds a key from arbitrary parts.
func K(parts ...any) Key {
	k := make(Key, 0, len(parts))
	for _, p := range parts {
		k = append(k, fmt.Sprint(p))
	}
	return k
}

func (k Key) String() string { return strings.Join(k, "/") }

// HasPrefix reports whether p is a segment-wise prefix of k.
func (k Key) HasPrefix(p Key) bool {
	if len(p) > len(k) {
		return false
	}
	for i := range p {
		if k[i] != p[i] {
			return false
		}
	}
	return true
}
