package db

import (
	"time"
)

// Gender is stored lowercase; "all" is only valid as an InterestedIn value.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
	GenderAll    Gender = "all"
)

// SwipeDirection of a Swipe log entry.
type SwipeDirection string

const (
	SwipeLike    SwipeDirection = "like"
	SwipeDislike SwipeDirection = "dislike"
)

// MatchStatus lifecycle: active → unmatched. Records are never deleted.
type MatchStatus string

const (
	MatchActive    MatchStatus = "active"
	MatchUnmatched MatchStatus = "unmatched"
)

// ReportPending is the initial status of every report.
const ReportPending = "pending"

// IDList is a JSON-serialized set of user ids stored on the profile row.
// Membership checks and appends go through the helpers so the
// append-if-absent invariant lives in one place.
type IDList []string

// Contains reports membership of id.
func (l IDList) Contains(id string) bool {
	for _, v := range l {
		if v == id {
			return true
		}
	}
	return false
}

// Append returns the list with id added, or unchanged if already present.
func (l IDList) Append(id string) IDList {
	if l.Contains(id) {
		return l
	}
	return append(l, id)
}

// Remove returns the list without id.
func (l IDList) Remove(id string) IDList {
	out := make(IDList, 0, len(l))
	for _, v := range l {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// User profile row.
//
// The five id-lists are independently-stored and append-only by design:
// a given other-user id should appear in at most one of LikedUsers /
// DislikedUsers, and there is no re-swipe path that removes entries
// (BlockUser is the one exception, it removes from LikedUsers and
// MatchedUsers).
//
// LastSeen is epoch millis; 0 means "never set", which discovery treats as
// always active.
type User struct {
	ID           string `gorm:"primaryKey;size:64"`
	Name         string `gorm:"size:128;not null"`
	Email        string `gorm:"uniqueIndex;size:128;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	Age          int    `gorm:"not null"`
	Gender       Gender `gorm:"size:16;not null"`
	InterestedIn Gender `gorm:"size:16;not null"`
	College      string `gorm:"size:128"`
	Department   string `gorm:"size:128"`
	Year         string `gorm:"size:32"`
	Bio          string `gorm:"size:1024"`

	ProfileImageURL      string `gorm:"size:512"`
	ProfileImagePublicID string `gorm:"size:255"`

	IsOnline bool
	LastSeen int64

	LikedUsers    IDList `gorm:"serializer:json"`
	DislikedUsers IDList `gorm:"serializer:json"`
	MatchedUsers  IDList `gorm:"serializer:json"`
	BlockedUsers  IDList `gorm:"serializer:json"`
	ReportedUsers IDList `gorm:"serializer:json"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// Swipe is an immutable log entry recording a single directional action.
// Append-only; never mutated or deleted. Consulted by discovery as a second
// source of "already swiped" ids in case the profile lists have drifted.
//
// Indexes:
//   - idx_swipes_actor_ts(actor_id, timestamp DESC)
//     Optimizes per-user history listing, newest first.
type Swipe struct {
	ID        string         `gorm:"primaryKey;size:36"`
	ActorID   string         `gorm:"size:64;not null;index:idx_swipes_actor_ts,priority:1"`
	TargetID  string         `gorm:"size:64;not null;index"`
	Direction SwipeDirection `gorm:"size:16;not null"`
	Timestamp int64          `gorm:"not null;index:idx_swipes_actor_ts,priority:2,sort:desc"`
}

// Match records a detected mutual like.
//
// PairKey is the order-independent key of {UserAID, UserBID} (same ordering
// trick as chat keys) so the existence check and read-time dedup are a
// single indexed lookup. It is deliberately NOT unique: re-matching after an
// unmatch creates a second record for the same pair, and the check-then-act
// race can also produce duplicate active records, which listing collapses.
type Match struct {
	ID            string      `gorm:"primaryKey;size:36"`
	UserAID       string      `gorm:"size:64;not null;index"`
	UserBID       string      `gorm:"size:64;not null;index"`
	PairKey       string      `gorm:"size:130;not null;index"`
	CreatedAt     int64       `gorm:"not null"`
	LastMessage   string      `gorm:"size:512"`
	LastMessageAt int64
	Status        MatchStatus `gorm:"size:16;not null;default:active"`
}

// Report filed by one user against another. Status starts pending.
type Report struct {
	ID         string `gorm:"primaryKey;size:36"`
	ReporterID string `gorm:"size:64;not null;index"`
	ReportedID string `gorm:"size:64;not null;index"`
	Reason     string `gorm:"size:512;not null"`
	Status     string `gorm:"size:16;not null;default:pending"`
	Timestamp  int64  `gorm:"not null"`
}

// ChatMessage under a conversation key. Timestamp is client-assigned at
// write time; readers sort, storage order is not trusted. Exactly one of
// Text/ImageURL is set (empty text counts as absent).
type ChatMessage struct {
	ID         string `gorm:"primaryKey;size:36"`
	ChatKey    string `gorm:"size:130;not null;index"`
	SenderID   string `gorm:"size:64;not null"`
	SenderName string `gorm:"size:128"`
	Text       string `gorm:"size:2048"`
	ImageURL   string `gorm:"size:512"`
	Timestamp  int64  `gorm:"not null"`
}

// ChatSummary is the denormalized "most recent message" projection, one row
// per (owner, chat). Two rows are written on every send, one per
// participant, so listing conversations needs no join.
type ChatSummary struct {
	OwnerID       string `gorm:"primaryKey;size:64"`
	ChatKey       string `gorm:"primaryKey;size:130"`
	OtherUserID   string `gorm:"size:64;not null"`
	OtherUserName string `gorm:"size:128"`
	LastMessage   string `gorm:"size:512"`
	LastMessageAt int64  `gorm:"not null;index"`
}
