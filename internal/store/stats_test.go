// ABOUTME: Tests for conversation statistics aggregation
// ABOUTME: Verifies counts, partner cardinality, and the per-day average

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_ConversationStats_Empty(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	alice := createTestUser(t, store, "alice")

	stats, err := store.ConversationStats(ctx, alice.ID)
	require.NoError(t, err)

	assert.Zero(t, stats.TotalMessages)
	assert.Zero(t, stats.MessagesToday)
	assert.Zero(t, stats.UniqueConversations)
	assert.Equal(t, 0.0, stats.AverageMessagesPerDay)
}

func TestStore_ConversationStats(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	alice := createTestUser(t, store, "alice")
	bob := createTestUser(t, store, "bob")
	carol := createTestUser(t, store, "carol")

	_, err := store.CreateMessage(ctx, alice.ID, bob.ID, "to bob")
	require.NoError(t, err)
	_, err = store.CreateMessage(ctx, bob.ID, alice.ID, "from bob")
	require.NoError(t, err)
	_, err = store.CreateMessage(ctx, alice.ID, carol.ID, "to carol")
	require.NoError(t, err)
	// A message not involving alice is excluded entirely
	_, err = store.CreateMessage(ctx, bob.ID, carol.ID, "bob to carol")
	require.NoError(t, err)

	stats, err := store.ConversationStats(ctx, alice.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(3), stats.TotalMessages)
	assert.Equal(t, int64(3), stats.MessagesToday)
	assert.Equal(t, int64(2), stats.UniqueConversations)
	// First message was moments ago: elapsed days clamp to 1
	assert.Equal(t, 3.0, stats.AverageMessagesPerDay)
}

func TestStore_ConversationStats_SelfConversationCountsOnce(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	alice := createTestUser(t, store, "alice")

	_, err := store.CreateMessage(ctx, alice.ID, alice.ID, "note to self")
	require.NoError(t, err)

	stats, err := store.ConversationStats(ctx, alice.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(1), stats.TotalMessages)
	assert.Equal(t, int64(1), stats.UniqueConversations)
}
