// ABOUTME: ConversationService is the central layer for direct-message delivery
// ABOUTME: All sends flow through here - persistence first, broadcast second

package conversation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/quillchat/quill/internal/auth"
	"github.com/quillchat/quill/internal/store"
)

// DefaultHistoryLimit bounds history reads when the caller does not ask
// for a specific window.
const DefaultHistoryLimit = 50

// ConversationStore defines what the service needs from storage
type ConversationStore interface {
	CreateMessage(ctx context.Context, senderID, recipientID int64, content string) (*store.Message, error)
	MessagesBetween(ctx context.Context, userA, userB int64, limit int) ([]*store.Message, error)
	MarkMessagesRead(ctx context.Context, readerID, partnerID int64) (int64, error)
	ConversationStats(ctx context.Context, userID int64) (*store.ConversationStats, error)
	ListUsersExcept(ctx context.Context, id int64) ([]*store.User, error)
}

// Publisher defines what the service needs from the delivery layer
type Publisher interface {
	Publish(channel string, event *MessageEvent) error
}

// Service coordinates message sends: sanitize and validate input, persist
// atomically, then hand the message to the publisher for best-effort
// delivery to the recipient's channel.
type Service struct {
	store     ConversationStore
	publisher Publisher
	validate  *validator.Validate
	logger    *slog.Logger
}

// New creates a new conversation Service. Pass nil logger for default.
func New(store ConversationStore, publisher Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:     store,
		publisher: publisher,
		validate:  validator.New(),
		logger:    logger.With("component", "conversation"),
	}
}

// sendInput is validated after sanitization; the 1000-character cap applies
// to the content as it will be stored.
type sendInput struct {
	Content string `validate:"required,min=1,max=1000"`
}

// SendMessage sanitizes and validates rawContent, persists the message in a
// single store transaction, and publishes it to the recipient's channel.
//
// Key principle: persistence is guaranteed, delivery is best-effort. A
// publish failure is logged and swallowed - the message is already durable
// and the recipient can recover it through history.
//
// Returns *ValidationError for malformed content and store.ErrNotFound when
// either party does not exist; both abort before any persistence.
func (s *Service) SendMessage(ctx context.Context, senderID, recipientID int64, rawContent string) (*store.Message, error) {
	content := sanitizeContent(rawContent)

	if err := s.validate.Struct(sendInput{Content: content}); err != nil {
		return nil, foldValidatorError(err)
	}

	msg, err := s.store.CreateMessage(ctx, senderID, recipientID, content)
	if err != nil {
		return nil, fmt.Errorf("persisting message: %w", err)
	}

	s.logger.Info("message sent",
		"message_id", msg.ID,
		"sender_id", msg.SenderID,
		"recipient_id", msg.RecipientID,
		"content_length", len(msg.Content))

	s.broadcast(msg)
	return msg, nil
}

// broadcast hands the persisted message to the publisher. Failures never
// propagate to the sender and are never retried.
func (s *Service) broadcast(msg *store.Message) {
	channel := auth.ChannelName(msg.RecipientID)

	if err := s.publisher.Publish(channel, &MessageEvent{
		Event:   EventMessageSent,
		Message: msg,
	}); err != nil {
		s.logger.Error("failed to broadcast message",
			"error", err,
			"message_id", msg.ID,
			"channel", channel)
		return
	}

	s.logger.Debug("message broadcast",
		"message_id", msg.ID,
		"channel", channel)
}

// History returns up to limit messages exchanged between the two users in
// either direction, oldest first. A non-positive limit applies
// DefaultHistoryLimit.
func (s *Service) History(ctx context.Context, userA, userB int64, limit int) ([]*store.Message, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return s.store.MessagesBetween(ctx, userA, userB, limit)
}

// MarkRead stamps every unread message from partner to reader and returns
// the number of rows updated. Idempotent.
func (s *Service) MarkRead(ctx context.Context, readerID, partnerID int64) (int64, error) {
	return s.store.MarkMessagesRead(ctx, readerID, partnerID)
}

// Stats returns aggregate messaging statistics for a user.
func (s *Service) Stats(ctx context.Context, userID int64) (*store.ConversationStats, error) {
	return s.store.ConversationStats(ctx, userID)
}

// Partners lists every other user the caller could converse with.
func (s *Service) Partners(ctx context.Context, userID int64) ([]*store.User, error) {
	return s.store.ListUsersExcept(ctx, userID)
}
