package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/classmatch/classmatch/internal/db"
	"github.com/classmatch/classmatch/internal/utils/pagination"
)

// SwipeRepository provides data access for the append-only swipe log.
// Entries are never mutated or deleted; the log doubles as an audit trail
// and as a defensive second source of "already swiped" ids.
type SwipeRepository struct {
	db *gorm.DB
}

// NewSwipeRepository creates a new repository bound to the given DB connection.
func NewSwipeRepository(database *gorm.DB) *SwipeRepository {
	return &SwipeRepository{db: database}
}

// Append writes one swipe log entry with a generated key and client-assigned
// timestamp. Not idempotent: calling twice creates two entries, by design.
func (r *SwipeRepository) Append(ctx context.Context, actorID, targetID string, direction db.SwipeDirection) (db.Swipe, error) {
	swipe := db.Swipe{
		ID:        uuid.NewString(),
		ActorID:   actorID,
		TargetID:  targetID,
		Direction: direction,
		Timestamp: time.Now().UnixMilli(),
	}
	err := r.db.WithContext(ctx).Create(&swipe).Error
	return swipe, err
}

// SwipedTargetIDs returns every target the actor has ever swiped on, in
// either direction. Used by discovery as a superset check on top of the
// profile's liked/disliked lists.
func (r *SwipeRepository) SwipedTargetIDs(ctx context.Context, actorID string) (map[string]struct{}, error) {
	var targets []string
	err := r.db.WithContext(ctx).
		Model(&db.Swipe{}).
		Where("actor_id = ?", actorID).
		Pluck("target_id", &targets).Error
	if err != nil {
		return nil, err
	}

	out := make(map[string]struct{}, len(targets))
	for _, t := range targets {
		out[t] = struct{}{}
	}
	return out, nil
}

// LikeHistory returns the actor's like-direction swipes, newest first.
//
// Behavior:
//   - Only direction = like rows are returned.
//   - Ordered by timestamp DESC, id DESC.
//   - Supports cursor-based pagination via paginationToken.
//
// Example:
//
//	repo.LikeHistory(ctx, "u1", nil, 20) // first 20 likes by u1
func (r *SwipeRepository) LikeHistory(
	ctx context.Context,
	actorID string,
	paginationToken *string,
	limit int,
) ([]db.Swipe, *string, error) {
	var swipes []db.Swipe

	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	query := r.db.WithContext(ctx).
		Where("actor_id = ? AND direction = ?", actorID, db.SwipeLike).
		Order("timestamp DESC, id DESC").
		Limit(limit + 1)

	if cursor.SwipeID != "" && cursor.Timestamp > 0 {
		query = query.Where(
			"(timestamp < ? OR (timestamp = ? AND id < ?))",
			cursor.Timestamp, cursor.Timestamp, cursor.SwipeID,
		)
	}

	if err := query.Find(&swipes).Error; err != nil {
		return nil, nil, err
	}

	var nextToken *string
	if len(swipes) > limit {
		last := swipes[limit-1]
		token, _ := pagination.Encode(pagination.Cursor{
			SwipeID:   last.ID,
			Timestamp: last.Timestamp,
		})
		nextToken = &token
		swipes = swipes[:limit]
	}

	return swipes, nextToken, nil
}

// CountLikers counts like-direction swipes targeting the user. Backs the
// cache-first liker count; the cache layer owns TTLs.
func (r *SwipeRepository) CountLikers(ctx context.Context, targetID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Swipe{}).
		Where("target_id = ? AND direction = ?", targetID, db.SwipeLike).
		Distinct("actor_id").
		Count(&count).Error
	return count, err
}

// getString safely dereferences a string pointer for pagination tokens.
func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
