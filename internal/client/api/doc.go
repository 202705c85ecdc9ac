// Package api talks to the studymatch server.
//
// Client wraps the HTTP endpoints and keeps the session cookie in a cookie
// jar, so a successful Login authenticates every later call, including the
// WebSocket handshake made by Subscribe.
//
// Subscriber follows one chat room at a time over the real-time channel.
// Switching rooms clears the locally held message list; messages are kept in
// the order they were received.
//
// Failures are reported with sentinel errors (ErrUnavailable,
// ErrUnauthorized, ErrForbidden, ErrNotFound, ErrRateLimited) that callers
// match with errors.Is. Other non-2xx answers surface as *StatusError.
package api
