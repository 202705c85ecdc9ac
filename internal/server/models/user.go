// Package models defines server-side records persisted in the database.
package models

import "time"

// User is an account. PasswordHash is a bcrypt hash and never leaves the
// server; use Public for anything sent to a client.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	CreatedAt    time.Time
}

// PublicUser is the sanitized projection of a User.
type PublicUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Email: u.Email, Name: u.Name}
}
