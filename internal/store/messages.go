// ABOUTME: SQLite message operations: transactional insert, pairwise history, read marking
// ABOUTME: The symmetric sender/recipient predicate is the sole definition of a conversation

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// messageColumns is the SELECT list shared by every message read, joining
// both parties so names come back resolved.
const messageColumns = `
	m.id, m.sender_id, m.recipient_id, m.content, m.created_at, m.read_at,
	s.name, r.name
`

const messageJoins = `
	JOIN users s ON s.id = m.sender_id
	JOIN users r ON r.id = m.recipient_id
`

// CreateMessage persists a message inside a single transaction: both users
// are verified to exist, the row is inserted with a store-assigned
// timestamp, and the fully resolved message is returned. Nothing is
// visible unless the whole transaction commits.
// Returns ErrNotFound if the sender or recipient does not exist.
func (s *SQLiteStore) CreateMessage(ctx context.Context, senderID, recipientID int64, content string) (*Message, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var senderName, recipientName string
	if err := tx.QueryRowContext(ctx, `SELECT name FROM users WHERE id = ?`, senderID).Scan(&senderName); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("sender %d: %w", senderID, ErrNotFound)
		}
		return nil, fmt.Errorf("looking up sender: %w", err)
	}
	if err := tx.QueryRowContext(ctx, `SELECT name FROM users WHERE id = ?`, recipientID).Scan(&recipientName); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("recipient %d: %w", recipientID, ErrNotFound)
		}
		return nil, fmt.Errorf("looking up recipient: %w", err)
	}

	now := time.Now().UTC()
	result, err := tx.ExecContext(ctx, `
		INSERT INTO messages (sender_id, recipient_id, content, created_at)
		VALUES (?, ?, ?, ?)
	`, senderID, recipientID, content, formatTime(now))
	if err != nil {
		return nil, fmt.Errorf("inserting message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting message id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing message: %w", err)
	}

	msg := &Message{
		ID:            id,
		SenderID:      senderID,
		RecipientID:   recipientID,
		Content:       content,
		CreatedAt:     now,
		SenderName:    senderName,
		RecipientName: recipientName,
	}

	s.logger.Debug("saved message",
		"id", msg.ID,
		"sender_id", senderID,
		"recipient_id", recipientID,
		"content_length", len(content))
	return msg, nil
}

// MessagesBetween retrieves messages exchanged between two users in either
// direction, in chronological order (oldest first). With a positive limit
// the most recent N are selected newest-first, then re-reversed so the
// caller always sees chronological order.
func (s *SQLiteStore) MessagesBetween(ctx context.Context, userA, userB int64, limit int) ([]*Message, error) {
	between := `
		(m.sender_id = ? AND m.recipient_id = ?) OR
		(m.sender_id = ? AND m.recipient_id = ?)
	`

	var query string
	var args []any

	if limit > 0 {
		query = `
			SELECT ` + messageColumns + `
			FROM (
				SELECT id, sender_id, recipient_id, content, created_at, read_at
				FROM messages m
				WHERE ` + between + `
				ORDER BY created_at DESC, id DESC
				LIMIT ?
			) m ` + messageJoins + `
			ORDER BY m.created_at ASC, m.id ASC
		`
		args = []any{userA, userB, userB, userA, limit}
	} else {
		query = `
			SELECT ` + messageColumns + `
			FROM messages m ` + messageJoins + `
			WHERE ` + between + `
			ORDER BY m.created_at ASC, m.id ASC
		`
		args = []any{userA, userB, userB, userA}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	var messages []*Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating message rows: %w", err)
	}

	return messages, nil
}

func scanMessage(row rowScanner) (*Message, error) {
	var msg Message
	var createdAtStr string
	var readAtStr *string

	err := row.Scan(
		&msg.ID,
		&msg.SenderID,
		&msg.RecipientID,
		&msg.Content,
		&createdAtStr,
		&readAtStr,
		&msg.SenderName,
		&msg.RecipientName,
	)
	if err != nil {
		return nil, fmt.Errorf("scanning message row: %w", err)
	}

	msg.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("parsing message created_at: %w", err)
	}

	if readAtStr != nil {
		t, err := time.Parse(time.RFC3339Nano, *readAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing message read_at: %w", err)
		}
		msg.ReadAt = &t
	}

	return &msg, nil
}

// MarkMessagesRead stamps read_at on every unread message sent by partner
// to reader. Idempotent: messages already marked are untouched, so a
// second call reports zero rows.
func (s *SQLiteStore) MarkMessagesRead(ctx context.Context, readerID, partnerID int64) (int64, error) {
	now := formatTime(time.Now())

	result, err := s.db.ExecContext(ctx, `
		UPDATE messages
		SET read_at = ?
		WHERE sender_id = ? AND recipient_id = ? AND read_at IS NULL
	`, now, partnerID, readerID)
	if err != nil {
		return 0, fmt.Errorf("marking messages read: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected > 0 {
		s.logger.Debug("marked messages read",
			"reader_id", readerID,
			"partner_id", partnerID,
			"count", rowsAffected)
	}
	return rowsAffected, nil
}
