// ABOUTME: Tests for the SQLite store's user operations and schema setup
// ABOUTME: Verifies user CRUD, duplicate detection, and partner listing

package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)

	t.Cleanup(func() {
		store.Close()
	})

	return store
}

// createTestUser inserts a user and returns it with the assigned ID.
func createTestUser(t *testing.T, s *SQLiteStore, name string) *User {
	t.Helper()
	user := &User{
		Name:         name,
		Email:        fmt.Sprintf("%s@example.com", name),
		PasswordHash: "$2a$10$fakefakefakefakefakefake",
	}
	require.NoError(t, s.CreateUser(context.Background(), user))
	return user
}

func TestStore_CreateUser(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	user := &User{
		Name:         "Alice",
		Email:        "alice@example.com",
		PasswordHash: "$2a$10$hash",
	}
	err := store.CreateUser(ctx, user)
	require.NoError(t, err)
	assert.NotZero(t, user.ID)

	retrieved, err := store.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", retrieved.Name)
	assert.Equal(t, "alice@example.com", retrieved.Email)
	assert.False(t, retrieved.CreatedAt.IsZero())
}

func TestStore_CreateUser_DuplicateEmail(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	first := &User{Name: "Alice", Email: "alice@example.com", PasswordHash: "x"}
	require.NoError(t, store.CreateUser(ctx, first))

	second := &User{Name: "Other Alice", Email: "alice@example.com", PasswordHash: "y"}
	err := store.CreateUser(ctx, second)
	assert.ErrorIs(t, err, ErrDuplicateUser)
}

func TestStore_GetUser_NotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.GetUser(context.Background(), 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_GetUserByEmail(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	user := createTestUser(t, store, "bob")

	retrieved, err := store.GetUserByEmail(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, retrieved.ID)

	_, err = store.GetUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ListUsersExcept(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	alice := createTestUser(t, store, "alice")
	bob := createTestUser(t, store, "bob")
	carol := createTestUser(t, store, "carol")

	users, err := store.ListUsersExcept(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, users, 2)

	ids := []int64{users[0].ID, users[1].ID}
	assert.Contains(t, ids, bob.ID)
	assert.Contains(t, ids, carol.ID)
	assert.NotContains(t, ids, alice.ID)
}

func TestStore_CountUsers(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	count, err := store.CountUsers(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	createTestUser(t, store, "alice")
	createTestUser(t, store, "bob")

	count, err = store.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestStore_MigrationsIdempotent(t *testing.T) {
	store := setupTestStore(t)

	// Re-running migrations on a fresh schema must be a no-op.
	require.NoError(t, store.runMigrations())
	require.NoError(t, store.runMigrations())
}
