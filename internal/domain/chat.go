package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Attachment kinds a chat message may reference. The media itself lives
// outside this service.
const (
	AttachmentImage = "image"
	AttachmentVideo = "video"
	AttachmentAudio = "audio"
	AttachmentOther = "other"
)

// ChatMessage is one message of a conversation. ConversationKey is derived
// from the sorted participant ids, so every participant lands on the same key.
//
// Fields:
//   - Text: optional when an attachment is referenced.
//   - AttachmentID / AttachmentType / AttachmentDuration: optional reference
//     to externally stored media (duration in seconds for audio/video).
//   - ParticipantIDs: every account in the conversation, sender included.
type ChatMessage struct {
	ID                 string                      `json:"id"                            gorm:"type:char(36);primaryKey"`
	ConversationKey    string                      `json:"conversation_key"              gorm:"type:varchar(512);not null;index:idx_chat_conv,priority:1"`
	SenderID           string                      `json:"sender_id"                     gorm:"type:char(36);not null;index"`
	SenderName         string                      `json:"sender_name"                   gorm:"type:varchar(160);not null"`
	Text               string                      `json:"text"                          gorm:"type:text"`
	AttachmentID       string                      `json:"attachment_id,omitempty"       gorm:"type:varchar(255)"`
	AttachmentType     string                      `json:"attachment_type,omitempty"     gorm:"type:varchar(16)"`
	AttachmentDuration float64                     `json:"attachment_duration,omitempty"`
	ParticipantIDs     datatypes.JSONSlice[string] `json:"participant_ids"`
	CreatedAt          time.Time                   `json:"created_at"                    gorm:"index:idx_chat_conv,priority:2"`
	UpdatedAt          time.Time                   `json:"updated_at"`
}

// TableName returns the database table name for ChatMessage.
func (ChatMessage) TableName() string { return "chat_messages" }

// ChatParticipant indexes which accounts take part in a conversation so a
// user's conversations can be listed without scanning every message.
type ChatParticipant struct {
	ConversationKey string    `gorm:"type:varchar(512);primaryKey"`
	AccountID       string    `gorm:"type:char(36);primaryKey;index"`
	CreatedAt       time.Time `gorm:"not null"`
}

// TableName returns the database table name for ChatParticipant.
func (ChatParticipant) TableName() string { return "chat_participants" }
