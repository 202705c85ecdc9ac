// Package models holds the client-side views of server resources.
package models

import "time"

// User is the public projection of an account.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type Participant struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ImageRef string `json:"imageRef,omitempty"`
}

// RoomSummary is one entry of the caller's chat room list.
type RoomSummary struct {
	RoomID           string      `json:"roomId"`
	OtherParticipant Participant `json:"otherParticipant"`
	CreatedAt        time.Time   `json:"createdAt"`
}

type Message struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"roomId"`
	SenderID  string    `json:"senderId"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}
