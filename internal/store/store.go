// ABOUTME: Store interface and data types for quill persistence
// ABOUTME: Defines User, Message structs and the Store interface for database operations

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrDuplicateUser is returned when trying to create a user with an email
// that is already registered
var ErrDuplicateUser = errors.New("user already exists")

// User represents a registered account. The conversation core only reads
// users; creation happens via bootstrap and the admin CLI.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string // bcrypt hash
	CreatedAt    time.Time
}

// Message represents one directed communication between two users.
// Rows are append-only; the only mutation ever applied is the single
// ReadAt transition from nil to a timestamp.
type Message struct {
	ID          int64
	SenderID    int64
	RecipientID int64
	Content     string
	CreatedAt   time.Time
	ReadAt      *time.Time

	// Resolved identity of the two parties, populated on every read so
	// consumers can render names without a second lookup.
	SenderName    string
	RecipientName string
}

// ConversationStats summarizes a user's messaging activity.
type ConversationStats struct {
	TotalMessages         int64
	MessagesToday         int64
	UniqueConversations   int64
	AverageMessagesPerDay float64
}

// Store defines the interface for user and message persistence
type Store interface {
	// Users
	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, id int64) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	ListUsersExcept(ctx context.Context, id int64) ([]*User, error)
	CountUsers(ctx context.Context) (int64, error)

	// Messages
	CreateMessage(ctx context.Context, senderID, recipientID int64, content string) (*Message, error)
	MessagesBetween(ctx context.Context, userA, userB int64, limit int) ([]*Message, error)
	MarkMessagesRead(ctx context.Context, readerID, partnerID int64) (int64, error)
	ConversationStats(ctx context.Context, userID int64) (*ConversationStats, error)

	// Close releases any resources held by the store
	Close() error
}
