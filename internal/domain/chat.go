package domain

import (
	"time"
)

// ChatMessage is a single direct message between two users. Messages are
// immutable once persisted; ID and CreatedAt are assigned by the store, and
// ID order breaks ties between equal timestamps.
type ChatMessage struct {
	ID         int64     `json:"id"`
	SenderID   int64     `json:"sender_id"`
	ReceiverID int64     `json:"receiver_id"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

// OtherParticipant returns the participant that is not userID.
func (m *ChatMessage) OtherParticipant(userID int64) int64 {
	if m.SenderID == userID {
		return m.ReceiverID
	}
	return m.SenderID
}

// ChatUser is the correspondent projection: a user this user has exchanged
// at least one message with, carrying display attributes only.
type ChatUser struct {
	UserID    int64   `json:"user_id"`
	Name      string  `json:"name"`
	AvatarURL *string `json:"profile_image_url,omitempty"`
}

// RecentChat is a per-correspondent summary: the correspondent's display
// attributes plus the latest message exchanged in either direction.
type RecentChat struct {
	UserID          int64      `json:"user_id"`
	Name            string     `json:"name"`
	AvatarURL       *string    `json:"profile_image_url,omitempty"`
	LastMessage     *string    `json:"last_message,omitempty"`
	LastMessageTime *time.Time `json:"last_message_time,omitempty"`
}
