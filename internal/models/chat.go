package models

import (
	"time"

	"gorm.io/datatypes"
)

// ChatMessage is one turn of an assistant conversation, stored inside the
// conversation's JSON message log.
type ChatMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatConversation is a user's running conversation with the assistant.
type ChatConversation struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"not null;index" json:"user_id"`
	Title     string         `gorm:"size:255" json:"title"`
	Messages  datatypes.JSON `gorm:"type:jsonb;not null" json:"messages"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
