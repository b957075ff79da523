package repository

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/classmatch/classmatch/internal/chatkey"
	"github.com/classmatch/classmatch/internal/db"
)

// MatchRepository provides data access for match records.
//
// At most one ACTIVE record should exist per unordered user pair, but that
// is enforced by a lookup-before-create check, not a storage constraint:
// concurrent mutual likes can slip past the check and write duplicates.
// Listing therefore always collapses records by pair key, keeping the most
// recent. Duplicates are tolerated, never assumed impossible.
type MatchRepository struct {
	db *gorm.DB
}

// NewMatchRepository creates a new repository bound to the given DB connection.
func NewMatchRepository(database *gorm.DB) *MatchRepository {
	return &MatchRepository{db: database}
}

// Create writes a new active match record for the pair.
func (r *MatchRepository) Create(ctx context.Context, userA, userB string) (db.Match, error) {
	now := time.Now().UnixMilli()
	match := db.Match{
		ID:            uuid.NewString(),
		UserAID:       userA,
		UserBID:       userB,
		PairKey:       chatkey.PairKey(userA, userB),
		CreatedAt:     now,
		LastMessageAt: now,
		Status:        db.MatchActive,
	}
	err := r.db.WithContext(ctx).Create(&match).Error
	return match, err
}

// FindActiveByPair returns the first active match for the unordered pair,
// or (nil, nil) when none exists. The pair key index makes this one lookup
// instead of two directional scans.
func (r *MatchRepository) FindActiveByPair(ctx context.Context, userA, userB string) (*db.Match, error) {
	var match db.Match
	err := r.db.WithContext(ctx).
		Where("pair_key = ? AND status = ?", chatkey.PairKey(userA, userB), db.MatchActive).
		First(&match).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &match, nil
}

// SetUnmatchedByPair marks every active record for the pair unmatched.
// Affecting zero rows is not an error; records are never deleted.
func (r *MatchRepository) SetUnmatchedByPair(ctx context.Context, userA, userB string) error {
	return r.db.WithContext(ctx).
		Model(&db.Match{}).
		Where("pair_key = ? AND status = ?", chatkey.PairKey(userA, userB), db.MatchActive).
		Update("status", db.MatchUnmatched).Error
}

// TouchLastMessage refreshes the message preview on every active record
// for the pair, so match listings can sort by recency of conversation.
func (r *MatchRepository) TouchLastMessage(ctx context.Context, userA, userB, preview string, atMillis int64) error {
	return r.db.WithContext(ctx).
		Model(&db.Match{}).
		Where("pair_key = ? AND status = ?", chatkey.PairKey(userA, userB), db.MatchActive).
		Updates(map[string]any{"last_message": preview, "last_message_at": atMillis}).Error
}

// ListActiveForUser returns the user's active matches discoverable from
// either directional field, deduplicated by pair key keeping the most
// recent record, ordered newest first.
//
// Example:
//
//	repo.ListActiveForUser(ctx, "u1")
func (r *MatchRepository) ListActiveForUser(ctx context.Context, userID string) ([]db.Match, error) {
	var matches []db.Match
	err := r.db.WithContext(ctx).
		Where("(user_a_id = ? OR user_b_id = ?) AND status = ?", userID, userID, db.MatchActive).
		Find(&matches).Error
	if err != nil {
		return nil, err
	}

	return DedupeByPair(matches), nil
}

// DedupeByPair groups matches by unordered pair key and keeps only the most
// recent record of each group, sorted by CreatedAt descending.
func DedupeByPair(matches []db.Match) []db.Match {
	latest := make(map[string]db.Match, len(matches))
	for _, m := range matches {
		key := m.PairKey
		if key == "" {
			key = chatkey.PairKey(m.UserAID, m.UserBID)
		}
		if cur, ok := latest[key]; !ok || m.CreatedAt > cur.CreatedAt {
			latest[key] = m
		}
	}

	out := make([]db.Match, 0, len(latest))
	for _, m := range latest {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	return out
}
