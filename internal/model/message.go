package model

import "time"

// ChatMessage is one turn of a conversation. Sessions are not stored as rows
// of their own; they exist only as the set of messages sharing a session id.
type ChatMessage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SessionID string    `gorm:"size:64;not null;index" json:"session_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	IsUser    bool      `gorm:"not null" json:"is_user"`
	UserID    *string   `gorm:"size:36;index" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionHead is the read model for session listings: the newest message of a
// session joined with its user's public fields.
type SessionHead struct {
	SessionID   string    `json:"session_id"`
	CreatedAt   time.Time `json:"created_at"`
	UserID      string    `json:"user_id,omitempty"`
	Username    string    `json:"username,omitempty"`
	DisplayName string    `json:"display_name,omitempty"`
}
