// ABOUTME: Package documentation for the api package
// ABOUTME: Describes routes, auth requirements, and the SSE contract

// Package api serves the quill HTTP API.
//
// # Routes
//
// Health (no auth):
//
//   - GET /health - Liveness check
//   - GET /health/ready - Readiness check (verifies store access)
//
// API (bearer token required):
//
//   - GET  /api/partners - List conversation partners
//   - GET  /api/conversations/{partnerID}/messages?limit=N - Conversation history
//   - POST /api/conversations/{partnerID}/messages - Send a message
//   - POST /api/conversations/{partnerID}/read - Mark incoming messages read
//   - GET  /api/stats - Aggregate messaging statistics
//   - GET  /api/events?channel=conversation.<id> - SSE message stream
//
// # SSE Contract
//
// The events endpoint authorizes the channel on every attempt (own channel
// only), then streams events in the standard SSE framing:
//
//	event: message.sent
//	data: {"id":1,"sender_id":2,...}
//
// A "subscribed" event confirms the stream before any messages flow.
// Delivery over the stream is best-effort; clients reconcile missed
// messages through the history endpoint.
package api
