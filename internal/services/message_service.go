package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"chatbazaar/internal/domain/message"
	"chatbazaar/internal/events"
	"chatbazaar/internal/repository"
	bazaar_errors "chatbazaar/pkg/errors"
	"chatbazaar/pkg/logger"

	"github.com/google/uuid"
)

type MessageService struct {
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
	emitter       events.Emitter
	log           *logger.Logger
}

func NewMessageService(conversations repository.ConversationRepository, messages repository.MessageRepository, emitter events.Emitter, log *logger.Logger) *MessageService {
	return &MessageService{
		conversations: conversations,
		messages:      messages,
		emitter:       emitter,
		log:           log,
	}
}

type SendMessageInput struct {
	ConversationID uuid.UUID
	Content        string
	Type           string
	FileURL        string
	FileName       string
	FileSize       int64
	ReplyToID      uuid.NullUUID
}

// Send validates, persists and then fans out a new message. Persistence
// strictly precedes emission: no client may observe an event for a message
// that a concurrent read of the store would not yet return. Every participant
// including the sender receives message:new, so the sender's other tabs stay
// in sync.
func (s *MessageService) Send(ctx context.Context, senderID uuid.UUID, in SendMessageInput) (message.Message, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return message.Message{}, fmt.Errorf("%w: content is required", bazaar_errors.ErrInvalidInput)
	}
	msgType := in.Type
	if msgType == "" {
		msgType = message.TypeText
	}
	if !message.ValidType(msgType) {
		return message.Message{}, fmt.Errorf("%w: unknown message type %q", bazaar_errors.ErrInvalidInput, in.Type)
	}

	conv, err := s.conversations.GetByID(ctx, in.ConversationID)
	if err != nil {
		return message.Message{}, err
	}
	if !conv.IsParticipant(senderID) {
		return message.Message{}, bazaar_errors.ErrNotParticipant
	}

	now := time.Now()
	msg := message.Message{
		ID:             uuid.New(),
		ConversationID: conv.ID,
		SenderID:       senderID,
		Content:        content,
		Type:           msgType,
		FileURL:        nullString(in.FileURL),
		FileName:       nullString(in.FileName),
		FileSize:       nullInt64(in.FileSize),
		ReplyToID:      in.ReplyToID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.messages.Create(ctx, &msg); err != nil {
		return message.Message{}, err
	}
	if err := s.conversations.SetLastMessage(ctx, conv.ID, msg.ID, now); err != nil {
		return message.Message{}, err
	}

	env := events.New(events.TypeMessageNew, events.MessageNewPayload{
		ConversationID: conv.ID.String(),
		Message:        msg,
	})
	for _, participantID := range conv.ParticipantIDs() {
		s.emitter.EmitToUser(participantID.String(), env)
	}
	return msg, nil
}

// MarkRead records a read receipt. A sender cannot mark its own message read;
// marking the same message twice leaves a single receipt. Only the original
// sender is notified.
func (s *MessageService) MarkRead(ctx context.Context, readerID, messageID uuid.UUID) error {
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.SenderID == readerID {
		return fmt.Errorf("%w: cannot mark your own message as read", bazaar_errors.ErrInvalidOperation)
	}
	if err := s.messages.MarkRead(ctx, messageID, readerID); err != nil {
		return err
	}

	s.emitter.EmitToUser(msg.SenderID.String(), events.New(events.TypeMessageRead, events.MessageReadPayload{
		MessageID:      msg.ID.String(),
		ConversationID: msg.ConversationID.String(),
		ReadBy:         readerID.String(),
	}))
	return nil
}

// DeleteForMe hides the message from the requester only. No broadcast: this
// is a private view change.
func (s *MessageService) DeleteForMe(ctx context.Context, requesterID, messageID uuid.UUID) error {
	if _, err := s.messages.GetByID(ctx, messageID); err != nil {
		return err
	}
	return s.messages.SoftDeleteFor(ctx, messageID, requesterID)
}

type MessagePage struct {
	Messages   []message.Message
	Total      int64
	Page       int
	TotalPages int
}

// List returns one page of messages visible to the viewer, oldest-first.
func (s *MessageService) List(ctx context.Context, viewerID, conversationID uuid.UUID, page, limit int) (MessagePage, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 50
	}

	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return MessagePage{}, err
	}
	if !conv.IsParticipant(viewerID) {
		return MessagePage{}, bazaar_errors.ErrNotParticipant
	}

	msgs, total, err := s.messages.ListForViewer(ctx, conversationID, viewerID, page, limit)
	if err != nil {
		return MessagePage{}, err
	}
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return MessagePage{Messages: msgs, Total: total, Page: page, TotalPages: totalPages}, nil
}

func (s *MessageService) UnreadCount(ctx context.Context, conversationID, userID uuid.UUID) (int64, error) {
	return s.messages.UnreadCount(ctx, conversationID, userID)
}

func (s *MessageService) UnreadCounts(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]int64, error) {
	return s.messages.UnreadCounts(ctx, userID)
}

// Typing relays a typing indicator to the conversation room, excluding the
// originating connection. Nothing is persisted; delivery is fire-and-forget.
func (s *MessageService) Typing(conversationID, userID uuid.UUID, isTyping bool, exceptConnID string) {
	t := events.TypeTypingStop
	if isTyping {
		t = events.TypeTypingStart
	}
	s.emitter.EmitToRoomExcept(
		events.ConversationRoom(conversationID.String()),
		exceptConnID,
		events.New(t, events.TypingPayload{
			ConversationID: conversationID.String(),
			UserID:         userID.String(),
		}),
	)
}
