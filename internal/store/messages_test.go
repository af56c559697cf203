// ABOUTME: Tests for message persistence, pairwise history, and read marking
// ABOUTME: Covers the symmetric conversation predicate and ordering contract

package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_CreateMessage(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	alice := createTestUser(t, store, "alice")
	bob := createTestUser(t, store, "bob")

	msg, err := store.CreateMessage(ctx, alice.ID, bob.ID, "Hello Bob")
	require.NoError(t, err)

	assert.NotZero(t, msg.ID)
	assert.Equal(t, alice.ID, msg.SenderID)
	assert.Equal(t, bob.ID, msg.RecipientID)
	assert.Equal(t, "Hello Bob", msg.Content)
	assert.Equal(t, "alice", msg.SenderName)
	assert.Equal(t, "bob", msg.RecipientName)
	assert.False(t, msg.CreatedAt.IsZero())
	assert.Nil(t, msg.ReadAt)
}

func TestStore_CreateMessage_UnknownUsers(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	alice := createTestUser(t, store, "alice")

	_, err := store.CreateMessage(ctx, alice.ID, 9999, "hi")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.CreateMessage(ctx, 9999, alice.ID, "hi")
	assert.ErrorIs(t, err, ErrNotFound)

	// Nothing was persisted by the failed attempts
	messages, err := store.MessagesBetween(ctx, alice.ID, 9999, 0)
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestStore_CreateMessage_SelfMessage(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	alice := createTestUser(t, store, "alice")

	// Sending to yourself is allowed
	msg, err := store.CreateMessage(ctx, alice.ID, alice.ID, "note to self")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, msg.SenderID)
	assert.Equal(t, alice.ID, msg.RecipientID)
}

func TestStore_MessagesBetween_Symmetric(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	alice := createTestUser(t, store, "alice")
	bob := createTestUser(t, store, "bob")
	carol := createTestUser(t, store, "carol")

	_, err := store.CreateMessage(ctx, alice.ID, bob.ID, "a to b")
	require.NoError(t, err)
	_, err = store.CreateMessage(ctx, bob.ID, alice.ID, "b to a")
	require.NoError(t, err)
	_, err = store.CreateMessage(ctx, alice.ID, carol.ID, "a to c")
	require.NoError(t, err)

	ab, err := store.MessagesBetween(ctx, alice.ID, bob.ID, 0)
	require.NoError(t, err)
	ba, err := store.MessagesBetween(ctx, bob.ID, alice.ID, 0)
	require.NoError(t, err)

	require.Len(t, ab, 2)
	require.Len(t, ba, 2)
	for i := range ab {
		assert.Equal(t, ab[i].ID, ba[i].ID)
	}

	// Messages to carol do not leak into the alice/bob conversation
	for _, msg := range ab {
		assert.NotEqual(t, carol.ID, msg.RecipientID)
	}
}

func TestStore_MessagesBetween_ChronologicalOrder(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	alice := createTestUser(t, store, "alice")
	bob := createTestUser(t, store, "bob")

	for i := 0; i < 5; i++ {
		_, err := store.CreateMessage(ctx, alice.ID, bob.ID, fmt.Sprintf("message %d", i))
		require.NoError(t, err)
	}

	messages, err := store.MessagesBetween(ctx, alice.ID, bob.ID, 0)
	require.NoError(t, err)
	require.Len(t, messages, 5)

	for i := 1; i < len(messages); i++ {
		assert.Greater(t, messages[i].ID, messages[i-1].ID)
		assert.False(t, messages[i].CreatedAt.Before(messages[i-1].CreatedAt))
	}
}

func TestFormatTime_FixedWidth(t *testing.T) {
	// Trailing fractional zeros must not be trimmed: TEXT ordering relies
	// on every stored timestamp having all nine digits.
	earlier := time.Date(2026, 1, 1, 10, 0, 0, 123450000, time.UTC)
	later := time.Date(2026, 1, 1, 10, 0, 0, 123456000, time.UTC)

	assert.Equal(t, "2026-01-01T10:00:00.123450000Z", formatTime(earlier))
	assert.Equal(t, "2026-01-01T10:00:00.123456000Z", formatTime(later))
	assert.Less(t, formatTime(earlier), formatTime(later))

	// Stored values round-trip through the tolerant parser
	parsed, err := time.Parse(time.RFC3339Nano, formatTime(earlier))
	require.NoError(t, err)
	assert.True(t, parsed.Equal(earlier))
}

func TestStore_MessagesBetween_SubsecondOrdering(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	alice := createTestUser(t, store, "alice")
	bob := createTestUser(t, store, "bob")

	// Two sends in the same second whose fractions are prefixes of each
	// other; chronological and lexicographic order must agree.
	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	insert := func(content string, ts time.Time) {
		_, err := store.db.ExecContext(ctx, `
			INSERT INTO messages (sender_id, recipient_id, content, created_at)
			VALUES (?, ?, ?, ?)
		`, alice.ID, bob.ID, content, formatTime(ts))
		require.NoError(t, err)
	}
	insert("first", base.Add(123450*time.Microsecond))
	insert("second", base.Add(123456*time.Microsecond))

	messages, err := store.MessagesBetween(ctx, alice.ID, bob.ID, 0)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "first", messages[0].Content)
	assert.Equal(t, "second", messages[1].Content)

	// The limited read keeps the most recent one
	messages, err = store.MessagesBetween(ctx, alice.ID, bob.ID, 1)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "second", messages[0].Content)
}

func TestStore_MessagesBetween_LimitKeepsMostRecent(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	alice := createTestUser(t, store, "alice")
	bob := createTestUser(t, store, "bob")

	for i := 0; i < 10; i++ {
		_, err := store.CreateMessage(ctx, alice.ID, bob.ID, fmt.Sprintf("message %d", i))
		require.NoError(t, err)
	}

	messages, err := store.MessagesBetween(ctx, alice.ID, bob.ID, 3)
	require.NoError(t, err)
	require.Len(t, messages, 3)

	// The limit keeps the newest N, returned oldest-to-newest
	assert.Equal(t, "message 7", messages[0].Content)
	assert.Equal(t, "message 8", messages[1].Content)
	assert.Equal(t, "message 9", messages[2].Content)
}

func TestStore_MessagesBetween_ResolvesNames(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	alice := createTestUser(t, store, "alice")
	bob := createTestUser(t, store, "bob")

	_, err := store.CreateMessage(ctx, alice.ID, bob.ID, "hi")
	require.NoError(t, err)

	messages, err := store.MessagesBetween(ctx, alice.ID, bob.ID, 0)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "alice", messages[0].SenderName)
	assert.Equal(t, "bob", messages[0].RecipientName)
}

func TestStore_MarkMessagesRead(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	alice := createTestUser(t, store, "alice")
	bob := createTestUser(t, store, "bob")

	_, err := store.CreateMessage(ctx, alice.ID, bob.ID, "one")
	require.NoError(t, err)
	_, err = store.CreateMessage(ctx, alice.ID, bob.ID, "two")
	require.NoError(t, err)
	// A message in the other direction must not be touched
	_, err = store.CreateMessage(ctx, bob.ID, alice.ID, "reply")
	require.NoError(t, err)

	// Bob marks messages from alice as read
	count, err := store.MarkMessagesRead(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	messages, err := store.MessagesBetween(ctx, alice.ID, bob.ID, 0)
	require.NoError(t, err)
	for _, msg := range messages {
		if msg.SenderID == alice.ID {
			assert.NotNil(t, msg.ReadAt)
		} else {
			assert.Nil(t, msg.ReadAt)
		}
	}
}

func TestStore_MarkMessagesRead_Idempotent(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	alice := createTestUser(t, store, "alice")
	bob := createTestUser(t, store, "bob")

	_, err := store.CreateMessage(ctx, alice.ID, bob.ID, "hello")
	require.NoError(t, err)

	count, err := store.MarkMessagesRead(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = store.MarkMessagesRead(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}
