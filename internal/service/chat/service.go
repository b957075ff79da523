// Package chat handles messaging between matched users and the per-user
// conversation summaries.
package chat

import (
	"context"
	"strings"
	"time"

	"github.com/classmatch/classmatch/internal/app"
	"github.com/classmatch/classmatch/internal/chatkey"
	"github.com/classmatch/classmatch/internal/db"
	svcErr "github.com/classmatch/classmatch/internal/errors"
	"github.com/classmatch/classmatch/internal/repository"
)

// ImagePlaceholder is what an image-only message shows as in conversation
// list previews.
const ImagePlaceholder = "[image]"

// Notifier pushes a stored message to connected clients. Satisfied by the
// websocket hub; nil disables push.
type Notifier interface {
	NotifyMessage(chatKey string, msg db.ChatMessage)
}

// Service stores messages and maintains the summary projection.
type Service struct {
	appCtx   *app.AppContext
	users    *repository.UserRepository
	matches  *repository.MatchRepository
	chats    *repository.ChatRepository
	notifier Notifier
}

// NewService creates a chat Service. notifier may be nil.
func NewService(appCtx *app.AppContext, notifier Notifier) *Service {
	return &Service{
		appCtx:   appCtx,
		users:    repository.NewUserRepository(appCtx.DB),
		matches:  repository.NewMatchRepository(appCtx.DB),
		chats:    repository.NewChatRepository(appCtx.DB),
		notifier: notifier,
	}
}

// SendMessage stores a message from sender to recipient and returns it.
//
// Behavior:
//   - Exactly one of text / imageURL must be set.
//   - The pair must have an active match.
//   - timestamp is the client's send time in millis; 0 means "now".
//   - After the message is stored, both participants' conversation
//     summaries and the match preview are refreshed best-effort: a failure
//     there is logged, never returned, and never rolls back the message.
func (s *Service) SendMessage(ctx context.Context, senderID, recipientID, text, imageURL string, timestamp int64) (db.ChatMessage, error) {
	var empty db.ChatMessage

	if strings.TrimSpace(senderID) == "" || strings.TrimSpace(recipientID) == "" {
		return empty, svcErr.InvalidInput("user id must not be empty")
	}
	if senderID == recipientID {
		return empty, svcErr.InvalidInput("cannot message yourself")
	}
	text = strings.TrimSpace(text)
	hasText := text != ""
	hasImage := strings.TrimSpace(imageURL) != ""
	if hasText == hasImage {
		return empty, svcErr.InvalidInput("message must carry either text or an image")
	}

	active, err := s.matches.FindActiveByPair(ctx, senderID, recipientID)
	if err != nil {
		return empty, svcErr.Map(err)
	}
	if active == nil {
		return empty, svcErr.Unauthenticated("users are not matched")
	}

	sender, err := s.users.Get(ctx, senderID)
	if err != nil {
		return empty, svcErr.Map(err)
	}

	if timestamp == 0 {
		timestamp = time.Now().UnixMilli()
	}
	msg := db.ChatMessage{
		ChatKey:    chatkey.Of(senderID, recipientID),
		SenderID:   senderID,
		SenderName: sender.Name,
		Text:       text,
		ImageURL:   imageURL,
		Timestamp:  timestamp,
	}
	if err := s.chats.AppendMessage(ctx, &msg); err != nil {
		return empty, svcErr.Map(err)
	}

	s.refreshSummaries(ctx, sender, recipientID, msg)

	if s.notifier != nil {
		s.notifier.NotifyMessage(msg.ChatKey, msg)
	}
	return msg, nil
}

// refreshSummaries writes the dual summary rows and the match preview.
// Best-effort: the message is already stored, so failures only log.
func (s *Service) refreshSummaries(ctx context.Context, sender db.User, recipientID string, msg db.ChatMessage) {
	preview := msg.Text
	if preview == "" {
		preview = ImagePlaceholder
	}

	recipientName := ""
	if recipient, err := s.users.Get(ctx, recipientID); err == nil {
		recipientName = recipient.Name
	} else {
		s.appCtx.Logger.Warn("failed to load recipient for summary", "recipient", recipientID, "err", err)
	}

	summaries := []db.ChatSummary{
		{
			OwnerID:       sender.ID,
			ChatKey:       msg.ChatKey,
			OtherUserID:   recipientID,
			OtherUserName: recipientName,
			LastMessage:   preview,
			LastMessageAt: msg.Timestamp,
		},
		{
			OwnerID:       recipientID,
			ChatKey:       msg.ChatKey,
			OtherUserID:   sender.ID,
			OtherUserName: sender.Name,
			LastMessage:   preview,
			LastMessageAt: msg.Timestamp,
		},
	}
	if err := s.chats.UpsertSummaries(ctx, summaries); err != nil {
		s.appCtx.Logger.Warn("failed to refresh chat summaries", "chat", msg.ChatKey, "err", err)
	}

	if err := s.matches.TouchLastMessage(ctx, sender.ID, recipientID, preview, msg.Timestamp); err != nil {
		s.appCtx.Logger.Warn("failed to refresh match preview", "chat", msg.ChatKey, "err", err)
	}
}

// ListMessages returns the conversation between the user and the other
// participant, oldest first.
func (s *Service) ListMessages(ctx context.Context, userID, otherID string) ([]db.ChatMessage, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(otherID) == "" {
		return nil, svcErr.InvalidInput("user id must not be empty")
	}

	msgs, err := s.chats.MessagesByChat(ctx, chatkey.Of(userID, otherID))
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return msgs, nil
}

// ListSummaries returns the user's conversation list, most recent activity
// first.
func (s *Service) ListSummaries(ctx context.Context, ownerID string) ([]db.ChatSummary, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, svcErr.InvalidInput("user id must not be empty")
	}

	summaries, err := s.chats.SummariesByOwner(ctx, ownerID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return summaries, nil
}
