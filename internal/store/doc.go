// ABOUTME: Package documentation for the store package
// ABOUTME: Describes the persistence layer and its data model

// Package store provides persistent storage for quill using SQLite.
//
// # Data Model
//
//   - User: registered accounts (id, name, email, bcrypt password hash)
//   - Message: one directed communication between two users
//
// Messages are append-only. The only mutation ever applied to a row is
// the single read_at transition from NULL to a timestamp, performed by
// MarkMessagesRead.
//
// # Conversations
//
// There is no conversation table. A conversation is the unordered pair of
// users implied by the sender/recipient columns; MessagesBetween
// reconstructs it with a symmetric predicate:
//
//	(sender = A AND recipient = B) OR (sender = B AND recipient = A)
//
// # Ordering
//
// Message ids are assigned monotonically by SQLite and created_at is
// stamped at insert time (RFC3339Nano, UTC). Every ordered query sorts by
// (created_at, id) so history order matches insert order even when two
// inserts land on the same nanosecond.
//
// # Timestamps
//
// All timestamps are stored as RFC3339Nano TEXT in UTC and parsed back on
// read. Nullable timestamps (read_at) scan through *string.
package store
