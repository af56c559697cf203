// ABOUTME: SQLite implementation for conversation statistics
// ABOUTME: Aggregates message counts and partner cardinality per user

package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"
)

// ConversationStats returns aggregated messaging statistics for a user.
// "Today" is the server's local calendar day; the boundary is computed
// here and compared against the stored UTC timestamps.
func (s *SQLiteStore) ConversationStats(ctx context.Context, userID int64) (*ConversationStats, error) {
	stats := &ConversationStats{}

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM messages
		WHERE sender_id = ? OR recipient_id = ?
	`, userID, userID).Scan(&stats.TotalMessages)
	if err != nil {
		return nil, fmt.Errorf("counting messages: %w", err)
	}

	now := time.Now()
	year, month, day := now.Date()
	dayStart := time.Date(year, month, day, 0, 0, 0, 0, now.Location())

	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM messages
		WHERE (sender_id = ? OR recipient_id = ?) AND created_at >= ?
	`, userID, userID, formatTime(dayStart)).Scan(&stats.MessagesToday)
	if err != nil {
		return nil, fmt.Errorf("counting today's messages: %w", err)
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT CASE
			WHEN sender_id = ? THEN recipient_id
			ELSE sender_id
		END)
		FROM messages
		WHERE sender_id = ? OR recipient_id = ?
	`, userID, userID, userID).Scan(&stats.UniqueConversations)
	if err != nil {
		return nil, fmt.Errorf("counting conversation partners: %w", err)
	}

	stats.AverageMessagesPerDay, err = s.averageMessagesPerDay(ctx, userID, stats.TotalMessages, now)
	if err != nil {
		return nil, err
	}

	return stats, nil
}

// averageMessagesPerDay divides the total by the days elapsed since the
// user's first message, clamped to at least one day, rounded to two
// decimal places. A user with no messages averages 0.0.
func (s *SQLiteStore) averageMessagesPerDay(ctx context.Context, userID, total int64, now time.Time) (float64, error) {
	var firstStr string
	err := s.db.QueryRowContext(ctx, `
		SELECT created_at
		FROM messages
		WHERE sender_id = ? OR recipient_id = ?
		ORDER BY created_at ASC, id ASC
		LIMIT 1
	`, userID, userID).Scan(&firstStr)
	if err == sql.ErrNoRows {
		return 0.0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("querying first message: %w", err)
	}

	first, err := time.Parse(time.RFC3339Nano, firstStr)
	if err != nil {
		return 0, fmt.Errorf("parsing first message created_at: %w", err)
	}

	days := int64(now.Sub(first).Hours() / 24)
	if days < 1 {
		days = 1
	}

	avg := float64(total) / float64(days)
	return math.Round(avg*100) / 100, nil
}
