package query

import (
	"strconv"
	"strings"
)

// Noms des requêtes servies par l'API.
const (
	GetCurrentUser   = "getCurrentUser"
	GetUsers         = "getUsers"
	GetUserByID      = "getUserById"
	GetRecentPosts   = "getRecentPosts"
	GetInfinitePosts = "getInfinitePosts"
	SearchPosts      = "searchPosts"
	GetPostByID      = "getPostById"
	GetUserPosts     = "getUserPosts"
	GetSavedPosts    = "getSavedPosts"
)

// Key identifies a cached request, e.g. Key{"getPostById", "p1"}.
type Key []string

func NewKey(parts ...string) Key { return Key(parts) }

// String encodes k with each part prefixed by its length, so parts may hold
// any byte without two keys colliding.
func (k Key) String() string {
	var b strings.Builder
	for _, p := range k {
		b.WriteString(strconv.Itoa(len(p)))
		b.WriteByte(':')
		b.WriteString(p)
	}
	return b.String()
}

// With returns a copy of k extended with parts.
func (k Key) With(parts ...string) Key {
	out := make(Key, 0, len(k)+len(parts))
	out = append(out, k...)
	return append(out, parts...)
}

// HasPrefix reports whether the first parts of k equal prefix.
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
