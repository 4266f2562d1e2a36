package httpdto

import (
	"encoding/json"
	"time"

	"chatbazaar/internal/domain/conversation"
)

// FlexibleIDList accepts either a single id string or an array of id strings.
// Older clients send participantIds as a scalar for direct conversations.
type FlexibleIDList []string

func (f *FlexibleIDList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*f = FlexibleIDList{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*f = FlexibleIDList(many)
	return nil
}

// CreateConversationRequest is used for POST /api/chat/conversations
type CreateConversationRequest struct {
	ParticipantIDs   FlexibleIDList `json:"participantIds" binding:"required"`
	IsGroup          bool           `json:"isGroup"`
	GroupName        string         `json:"groupName,omitempty"`
	GroupDescription string         `json:"groupDescription,omitempty"`
}

// ConversationDTO represents a conversation in API responses
type ConversationDTO struct {
	ID               string   `json:"id"`
	IsGroup          bool     `json:"isGroup"`
	GroupName        string   `json:"groupName,omitempty"`
	GroupDescription string   `json:"groupDescription,omitempty"`
	GroupAdminID     string   `json:"groupAdminId,omitempty"`
	Participants     []string `json:"participants"`
	LastMessageID    string   `json:"lastMessageId,omitempty"`
	UnreadCount      int64    `json:"unreadCount"`
	CreatedAt        string   `json:"createdAt"`
	UpdatedAt        string   `json:"updatedAt"`
}

func ToConversationDTO(c conversation.Conversation, unread int64) ConversationDTO {
	dto := ConversationDTO{
		ID:          c.ID.String(),
		IsGroup:     c.IsGroup,
		UnreadCount: unread,
		CreatedAt:   c.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   c.UpdatedAt.Format(time.RFC3339),
	}
	if c.GroupName.Valid {
		dto.GroupName = c.GroupName.String
	}
	if c.GroupDescription.Valid {
		dto.GroupDescription = c.GroupDescription.String
	}
	if c.GroupAdminID.Valid {
		dto.GroupAdminID = c.GroupAdminID.UUID.String()
	}
	if c.LastMessageID.Valid {
		dto.LastMessageID = c.LastMessageID.UUID.String()
	}
	for _, id := range c.ParticipantIDs() {
		dto.Participants = append(dto.Participants, id.String())
	}
	return dto
}
