package conversation

import (
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Conversation represents the conversations table. A direct conversation has
// exactly two participants and a canonical PairKey; a group conversation has
// at least three participants, a name and an admin.
type Conversation struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey"`
	IsGroup          bool           `gorm:"not null;default:false"`
	PairKey          sql.NullString `gorm:"uniqueIndex"`
	GroupName        sql.NullString
	GroupDescription sql.NullString
	GroupAdminID     uuid.NullUUID `gorm:"type:uuid"`
	LastMessageID    uuid.NullUUID `gorm:"type:uuid"`
	CreatedAt        time.Time
	UpdatedAt        time.Time `gorm:"index:idx_conversations_updated_at,sort:desc"`

	Participants []Participant `gorm:"foreignKey:ConversationID"`
}

// Participant represents conversation_participants
type Participant struct {
	ConversationID uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID         uuid.UUID `gorm:"type:uuid;primaryKey;index"`
	JoinedAt       time.Time
}

func (Conversation) TableName() string {
	return "conversations"
}

func (Participant) TableName() string {
	return "conversation_participants"
}

// PairKey builds the canonical key for a direct conversation: the two
// participant ids sorted lexicographically and joined with ':'. The unique
// index on this key is what makes direct-conversation creation race-safe.
func PairKey(a, b uuid.UUID) string {
	x, y := a.String(), b.String()
	if strings.Compare(x, y) > 0 {
		x, y = y, x
	}
	return x + ":" + y
}

func (c *Conversation) IsParticipant(userID uuid.UUID) bool {
	for _, p := range c.Participants {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

func (c *Conversation) IsAdmin(userID uuid.UUID) bool {
	if !c.IsGroup || !c.GroupAdminID.Valid {
		return false
	}
	return c.GroupAdminID.UUID == userID
}

func (c *Conversation) ParticipantIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(c.Participants))
	for _, p := range c.Participants {
		ids = append(ids, p.UserID)
	}
	return ids
}
