// Package discovery computes the eligible candidate set for a viewer.
package discovery

import (
	"math/rand"
	"strings"
	"time"

	"github.com/classmatch/classmatch/internal/db"
)

// InactiveAfter is the activity cutoff: candidates last seen longer ago are
// hidden. A LastSeen of exactly 0 means the field was never set (new user)
// and counts as active.
const InactiveAfter = 90 * 24 * time.Hour

// Filter evaluates candidates against a viewer's exclusion and preference
// state. Zero value is usable; Now and Rand exist so tests can pin time and
// shuffle order.
type Filter struct {
	Now  func() time.Time
	Rand *rand.Rand
}

func (f *Filter) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now()
}

// Eligible returns the candidates from pool that pass every exclusion rule
// for viewer, shuffled so repeated discovery sessions do not present
// candidates in a fixed order. auxSwiped is the id set derived from the
// swipe log, consulted in addition to the viewer's own liked/disliked lists
// in case the two have drifted.
func (f *Filter) Eligible(viewer db.User, pool []db.User, auxSwiped map[string]struct{}) []db.User {
	now := f.now()

	out := make([]db.User, 0, len(pool))
	for _, c := range pool {
		if ExclusionReason(viewer, c, auxSwiped, now) == "" {
			out = append(out, c)
		}
	}

	r := f.Rand
	if r == nil {
		r = rand.New(rand.NewSource(now.UnixNano()))
	}
	r.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// ExclusionReason returns "" when candidate c is eligible for viewer, or a
// short reason naming the first rule that excluded it.
func ExclusionReason(viewer, c db.User, auxSwiped map[string]struct{}, now time.Time) string {
	if c.ID == viewer.ID {
		return "self"
	}

	if viewer.LikedUsers.Contains(c.ID) {
		return "already liked"
	}
	if viewer.DislikedUsers.Contains(c.ID) {
		return "already disliked"
	}
	if _, ok := auxSwiped[c.ID]; ok {
		return "already swiped in log"
	}

	// block is symmetric: either direction hides the candidate
	if viewer.BlockedUsers.Contains(c.ID) {
		return "blocked by viewer"
	}
	if c.BlockedUsers.Contains(viewer.ID) {
		return "viewer blocked by candidate"
	}

	if viewer.MatchedUsers.Contains(c.ID) || c.MatchedUsers.Contains(viewer.ID) {
		return "already matched"
	}

	if c.ProfileImagePublicID == "" {
		return "no profile image"
	}

	if c.LastSeen != 0 && now.UnixMilli()-c.LastSeen > InactiveAfter.Milliseconds() {
		return "inactive"
	}

	if !collegeMatch(viewer.College, c.College) {
		return "college mismatch"
	}

	// One-sided on purpose: the candidate's own preference for the viewer's
	// gender is not checked.
	if viewer.InterestedIn != db.GenderAll && c.Gender != viewer.InterestedIn {
		return "gender preference"
	}

	return ""
}

// collegeMatch tolerates free-text college names: empty-empty matches, and
// either value being a case-insensitive substring of the other matches.
func collegeMatch(a, b string) bool {
	na := strings.ToLower(strings.TrimSpace(a))
	nb := strings.ToLower(strings.TrimSpace(b))

	if na == "" && nb == "" {
		return true
	}
	if na == nb {
		return true
	}
	return strings.Contains(na, nb) || strings.Contains(nb, na)
}
