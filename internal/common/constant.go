// Package common contains shared constants and sentinel errors used across
// studymatch components.
package common

import "time"

// AuthCookieName is the cookie that carries the session token.
const AuthCookieName = "authToken"

// NewMessageEvent is the real-time event name used for freshly stored chat
// messages.
const NewMessageEvent = "new-message"

// DefaultTokenValidity is the lifetime of a session token and of the cookie
// that carries it.
const DefaultTokenValidity = time.Hour
