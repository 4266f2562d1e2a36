package httpdto

import (
	"time"

	"chatbazaar/internal/domain/message"
)

// SendMessageRequest is used for POST /api/chat/messages
type SendMessageRequest struct {
	ConversationID string `json:"conversationId" binding:"required"`
	Content        string `json:"content" binding:"required"`
	MessageType    string `json:"messageType,omitempty"`
	FileURL        string `json:"fileUrl,omitempty"`
	FileName       string `json:"fileName,omitempty"`
	FileSize       int64  `json:"fileSize,omitempty"`
	ReplyTo        string `json:"replyTo,omitempty"`
}

// MessageDTO represents a message in API responses
type MessageDTO struct {
	ID             string   `json:"id"`
	ConversationID string   `json:"conversationId"`
	SenderID       string   `json:"senderId"`
	Content        string   `json:"content"`
	MessageType    string   `json:"messageType"`
	FileURL        string   `json:"fileUrl,omitempty"`
	FileName       string   `json:"fileName,omitempty"`
	FileSize       int64    `json:"fileSize,omitempty"`
	ReplyTo        string   `json:"replyTo,omitempty"`
	ReadBy         []string `json:"readBy"`
	CreatedAt      string   `json:"createdAt"`
}

func ToMessageDTO(m message.Message) MessageDTO {
	dto := MessageDTO{
		ID:             m.ID.String(),
		ConversationID: m.ConversationID.String(),
		SenderID:       m.SenderID.String(),
		Content:        m.Content,
		MessageType:    m.Type,
		ReadBy:         make([]string, 0, len(m.Reads)),
		CreatedAt:      m.CreatedAt.Format(time.RFC3339),
	}
	if m.FileURL.Valid {
		dto.FileURL = m.FileURL.String
	}
	if m.FileName.Valid {
		dto.FileName = m.FileName.String
	}
	if m.FileSize.Valid {
		dto.FileSize = m.FileSize.Int64
	}
	if m.ReplyToID.Valid {
		dto.ReplyTo = m.ReplyToID.UUID.String()
	}
	for _, r := range m.Reads {
		dto.ReadBy = append(dto.ReadBy, r.UserID.String())
	}
	return dto
}

// MessagePageResponse is returned for GET /api/chat/messages/:conversationId
type MessagePageResponse struct {
	Messages   []MessageDTO `json:"messages"`
	Total      int64        `json:"total"`
	Page       int          `json:"page"`
	TotalPages int          `json:"totalPages"`
}

// UnreadCountsResponse is returned for GET /api/chat/messages/unread-counts
type UnreadCountsResponse struct {
	Counts map[string]int64 `json:"counts"`
}
