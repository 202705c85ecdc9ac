package models

import "time"

// ChatRoom is a one-to-one conversation. ParticipantA sorts before
// ParticipantB, so each unordered pair maps to exactly one row.
type ChatRoom struct {
	ID           string    `json:"id"`
	ParticipantA string    `json:"participantA"`
	ParticipantB string    `json:"participantB"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Participants returns the sorted pair.
func (r *ChatRoom) Participants() [2]string {
	return [2]string{r.ParticipantA, r.ParticipantB}
}

// HasParticipant reports whether userID is one of the two members.
func (r *ChatRoom) HasParticipant(userID string) bool {
	return userID != "" && (r.ParticipantA == userID || r.ParticipantB == userID)
}

// Other returns the member that is not userID.
func (r *ChatRoom) Other(userID string) string {
	if r.ParticipantA == userID {
		return r.ParticipantB
	}
	return r.ParticipantA
}

// CanonicalPair orders two user ids lexicographically.
func CanonicalPair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

// Participant is the display projection of the other member of a room.
type Participant struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ImageRef string `json:"imageRef,omitempty"`
}

// RoomSummary is one entry of a user's room list.
type RoomSummary struct {
	RoomID           string      `json:"roomId"`
	OtherParticipant Participant `json:"otherParticipant"`
	CreatedAt        time.Time   `json:"createdAt"`

	// ImageKey is the object storage key of the other participant's
	// profile image; it is resolved into OtherParticipant.ImageRef.
	ImageKey string `json:"-"`
}
