package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/classmatch/classmatch/internal/db"
)

// UserRepository provides data access methods for the User model.
// Profile rows are logically owned by their user's session for writes; the
// id-list updates here are read-modify-write and NOT atomic against
// concurrent writers, which downstream logic tolerates by re-checking and
// by deduplicating at read time.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new repository bound to the given DB connection.
func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

// Create inserts a full profile row.
func (r *UserRepository) Create(ctx context.Context, user *db.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// Get fetches a profile by id. Returns gorm.ErrRecordNotFound when absent.
func (r *UserRepository) Get(ctx context.Context, id string) (db.User, error) {
	var user db.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	return user, err
}

// GetByEmail fetches a profile by email, used by login.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (db.User, error) {
	var user db.User
	err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error
	return user, err
}

// Save overwrites the full profile row.
func (r *UserRepository) Save(ctx context.Context, user *db.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

// UpdateFields applies a partial merge of column → value onto one profile.
//
// Example:
//
//	repo.UpdateFields(ctx, "u1", map[string]any{"bio": "hi", "year": "2"})
func (r *UserRepository) UpdateFields(ctx context.Context, id string, fields map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&db.User{ID: id}).
		Updates(fields).Error
}

// SetOnline flips the activity fields in one write.
func (r *UserRepository) SetOnline(ctx context.Context, id string, online bool, nowMillis int64) error {
	return r.UpdateFields(ctx, id, map[string]any{
		"is_online": online,
		"last_seen": nowMillis,
	})
}

// ListAll returns the full user pool for discovery filtering. Readers get an
// eventually-consistent snapshot; rows may be concurrently mutated by their
// owners.
func (r *UserRepository) ListAll(ctx context.Context) ([]db.User, error) {
	var users []db.User
	err := r.db.WithContext(ctx).Find(&users).Error
	return users, err
}

// list columns addressable by the append/remove helpers
const (
	ListLiked    = "liked_users"
	ListDisliked = "disliked_users"
	ListMatched  = "matched_users"
	ListBlocked  = "blocked_users"
	ListReported = "reported_users"
)

func pickList(u *db.User, column string) *db.IDList {
	switch column {
	case ListLiked:
		return &u.LikedUsers
	case ListDisliked:
		return &u.DislikedUsers
	case ListMatched:
		return &u.MatchedUsers
	case ListBlocked:
		return &u.BlockedUsers
	case ListReported:
		return &u.ReportedUsers
	}
	return nil
}

// AppendToList adds targetID to one of the user's id-lists if absent.
//
// Behavior:
//   - Read-modify-write of the whole row; idempotent on repeat calls.
//   - The mutation goes through Save on the loaded struct: a column-level
//     Update would sidestep the JSON serializer on the list fields and
//     store the raw slice as an unreadable bare string.
//   - Returns gorm.ErrRecordNotFound if the user row is missing.
//
// Example:
//
//	repo.AppendToList(ctx, "u1", repository.ListLiked, "u2")
func (r *UserRepository) AppendToList(ctx context.Context, userID, column, targetID string) error {
	user, err := r.Get(ctx, userID)
	if err != nil {
		return err
	}

	list := pickList(&user, column)
	if list.Contains(targetID) {
		return nil
	}
	*list = list.Append(targetID)

	return r.db.WithContext(ctx).Save(&user).Error
}

// RemoveFromList drops targetID from one of the user's id-lists.
// No-op (nil error) when the id is not present. Persists via Save for the
// same serializer reason as AppendToList.
func (r *UserRepository) RemoveFromList(ctx context.Context, userID, column, targetID string) error {
	user, err := r.Get(ctx, userID)
	if err != nil {
		return err
	}

	list := pickList(&user, column)
	if !list.Contains(targetID) {
		return nil
	}
	*list = list.Remove(targetID)

	return r.db.WithContext(ctx).Save(&user).Error
}
