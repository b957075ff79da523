// Package chatkey derives the canonical conversation key for two users.
package chatkey

import "strings"

// Separator joins the two user ids. Ids are generated UUIDs / auth uids and
// never contain an underscore.
const Separator = "_"

// Of returns a stable, order-independent key for the conversation between
// two user ids: the lexicographically smaller trimmed id comes first.
// Returns "" if either id is empty after trimming; callers must guard.
func Of(idA, idB string) string {
	a := strings.TrimSpace(idA)
	b := strings.TrimSpace(idB)
	if a == "" || b == "" {
		return ""
	}
	if a < b {
		return a + Separator + b
	}
	return b + Separator + a
}

// Participants splits a chat key back into its two user ids.
// Returns ok=false for keys that are not of the canonical two-part form.
func Participants(key string) (a, b string, ok bool) {
	parts := strings.Split(key, Separator)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// PairKey is the same ordering trick applied to match records, so an
// unordered user pair always maps to one key.
func PairKey(idA, idB string) string { return Of(idA, idB) }
