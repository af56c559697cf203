// ABOUTME: Package documentation for the auth package
// ABOUTME: Describes tokens, identity propagation, and channel authorization

// Package auth provides authentication and channel authorization for quill.
//
// # Tokens
//
// API clients authenticate with JWT bearer tokens signed with HS256 using
// the configured jwt_secret. The "sub" claim carries the user ID.
//
// # Identity Propagation
//
// HTTPAuthMiddleware verifies the token, resolves the user, and attaches
// an Identity to the request context. Handlers read it back with
// FromContext and pass explicit user IDs down into the service layer -
// there is no ambient session state.
//
// # Channel Authorization
//
// Every user owns exactly one delivery channel, conversation.<userID>.
// CanSubscribe grants a subscription request if and only if the requested
// channel is the caller's own, and the check runs on every attempt.
package auth
