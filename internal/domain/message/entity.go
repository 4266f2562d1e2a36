package message

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Message types
const (
	TypeText  = "text"
	TypeImage = "image"
	TypeFile  = "file"
)

// Message represents the messages table
type Message struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	ConversationID uuid.UUID `gorm:"type:uuid;not null;index:idx_messages_conversation_created"`
	SenderID       uuid.UUID `gorm:"type:uuid;not null;index"`
	Content        string    `gorm:"not null"`
	Type           string    `gorm:"not null;default:text"`
	FileURL        sql.NullString
	FileName       sql.NullString
	FileSize       sql.NullInt64
	ReplyToID      uuid.NullUUID `gorm:"type:uuid"`
	CreatedAt      time.Time     `gorm:"index:idx_messages_conversation_created,sort:desc"`
	UpdatedAt      time.Time

	Reads []Read `gorm:"foreignKey:MessageID"`
}

// Read represents message_reads: one row per (message, user) read receipt.
// The composite primary key is what makes mark-as-read idempotent.
type Read struct {
	MessageID uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	ReadAt    time.Time
}

// Deletion represents message_deletions: a per-viewer soft delete. Messages
// are never physically removed.
type Deletion struct {
	MessageID uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	DeletedAt time.Time
}

func (Message) TableName() string {
	return "messages"
}

func (Read) TableName() string {
	return "message_reads"
}

func (Deletion) TableName() string {
	return "message_deletions"
}

func (m *Message) IsReadBy(userID uuid.UUID) bool {
	for _, r := range m.Reads {
		if r.UserID == userID {
			return true
		}
	}
	return false
}

func ValidType(t string) bool {
	switch t {
	case TypeText, TypeImage, TypeFile:
		return true
	}
	return false
}
