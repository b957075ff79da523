package repository

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/classmatch/classmatch/internal/db"
)

// ChatRepository provides data access for chat messages and the per-user
// conversation summaries.
type ChatRepository struct {
	db *gorm.DB
}

// NewChatRepository creates a new repository bound to the given DB connection.
func NewChatRepository(database *gorm.DB) *ChatRepository {
	return &ChatRepository{db: database}
}

// AppendMessage stores one message under its chat key with a generated id.
// The timestamp is client-assigned by the caller; storage order is not
// meaningful and readers must sort.
func (r *ChatRepository) AppendMessage(ctx context.Context, msg *db.ChatMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Create(msg).Error
}

// MessagesByChat returns every message of the conversation in ascending
// timestamp order. The sort happens here, on read: insertion order on disk
// is never trusted.
func (r *ChatRepository) MessagesByChat(ctx context.Context, chatKey string) ([]db.ChatMessage, error) {
	var messages []db.ChatMessage
	err := r.db.WithContext(ctx).
		Where("chat_key = ?", chatKey).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	sort.Slice(messages, func(i, j int) bool {
		if messages[i].Timestamp != messages[j].Timestamp {
			return messages[i].Timestamp < messages[j].Timestamp
		}
		return messages[i].ID < messages[j].ID
	})
	return messages, nil
}

// UpsertSummaries writes both participants' summary rows in one batch.
//
// Behavior:
//   - (owner_id, chat_key) composite PK → each send overwrites the pair's
//     previous summary rather than accumulating rows.
//   - Best-effort from the caller's perspective: a failure here never rolls
//     back the already-stored message.
func (r *ChatRepository) UpsertSummaries(ctx context.Context, summaries []db.ChatSummary) error {
	if len(summaries) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "owner_id"}, {Name: "chat_key"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"other_user_id", "other_user_name", "last_message", "last_message_at",
			}),
		}).
		Create(&summaries).Error
}

// SummariesByOwner lists the user's conversations, most recent activity
// first.
func (r *ChatRepository) SummariesByOwner(ctx context.Context, ownerID string) ([]db.ChatSummary, error) {
	var summaries []db.ChatSummary
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("last_message_at DESC").
		Find(&summaries).Error
	return summaries, err
}
