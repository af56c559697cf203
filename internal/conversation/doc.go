// ABOUTME: Package documentation for the conversation package
// ABOUTME: Describes the send pipeline and its delivery guarantees

// Package conversation implements the direct-message core of quill.
//
// A send flows through exactly one pipeline: sanitize the raw content,
// validate it, persist it in a single store transaction, then publish it
// to the recipient's delivery channel. Persistence is guaranteed before
// any delivery is attempted; delivery itself is best-effort and a failed
// or dropped publish is never surfaced to the sender, because the message
// is already durable and recoverable through a history fetch.
//
// The Broadcaster provides the in-memory pub/sub fabric. Each user owns
// one channel (auth.ChannelName) and the API layer bridges subscriptions
// onto SSE streams.
package conversation
