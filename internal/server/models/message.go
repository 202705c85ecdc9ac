package models

import "time"

// Message is an immutable chat line. Timestamp is assigned by the server
// when the row is written.
type Message struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"roomId"`
	SenderID  string    `json:"senderId"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}
