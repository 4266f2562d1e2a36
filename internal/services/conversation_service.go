package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"chatbazaar/internal/domain/conversation"
	"chatbazaar/internal/events"
	"chatbazaar/internal/repository"
	bazaar_errors "chatbazaar/pkg/errors"
	"chatbazaar/pkg/logger"

	"github.com/google/uuid"
)

type ConversationService struct {
	repo    repository.ConversationRepository
	emitter events.Emitter
	log     *logger.Logger
}

func NewConversationService(repo repository.ConversationRepository, emitter events.Emitter, log *logger.Logger) *ConversationService {
	return &ConversationService{repo: repo, emitter: emitter, log: log}
}

type CreateConversationInput struct {
	ParticipantIDs   []uuid.UUID
	IsGroup          bool
	GroupName        string
	GroupDescription string
}

// Create creates a conversation on behalf of the requester. For a direct
// conversation an existing one between the same pair is returned unchanged,
// so creating twice in either order yields the same conversation. The second
// return value reports whether a new conversation was actually created.
func (s *ConversationService) Create(ctx context.Context, requesterID uuid.UUID, in CreateConversationInput) (conversation.Conversation, bool, error) {
	participants := normalizeParticipants(requesterID, in.ParticipantIDs)
	if len(participants) < 2 {
		return conversation.Conversation{}, false, fmt.Errorf("%w: participant ids are required", bazaar_errors.ErrInvalidInput)
	}

	if !in.IsGroup {
		if len(participants) != 2 {
			return conversation.Conversation{}, false, fmt.Errorf("%w: a direct conversation has exactly 2 participants", bazaar_errors.ErrInvalidInput)
		}
		existing, err := s.repo.FindDirect(ctx, participants[0], participants[1])
		if err == nil {
			return existing, false, nil
		}
		if !errors.Is(err, bazaar_errors.ErrNotFound) {
			return conversation.Conversation{}, false, err
		}
	} else {
		name := strings.TrimSpace(in.GroupName)
		if len(name) < 2 {
			return conversation.Conversation{}, false, fmt.Errorf("%w: group name is required (min 2 characters)", bazaar_errors.ErrInvalidInput)
		}
		if len(participants) < 3 {
			return conversation.Conversation{}, false, fmt.Errorf("%w: group must have at least 3 participants", bazaar_errors.ErrInvalidInput)
		}
		in.GroupName = name
	}

	now := time.Now()
	conv := conversation.Conversation{
		ID:        uuid.New(),
		IsGroup:   in.IsGroup,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.IsGroup {
		conv.GroupName = nullString(in.GroupName)
		conv.GroupDescription = nullString(in.GroupDescription)
		conv.GroupAdminID = uuid.NullUUID{UUID: requesterID, Valid: true}
	} else {
		conv.PairKey = nullString(conversation.PairKey(participants[0], participants[1]))
	}
	for _, id := range participants {
		conv.Participants = append(conv.Participants, conversation.Participant{
			ConversationID: conv.ID,
			UserID:         id,
			JoinedAt:       now,
		})
	}

	if err := s.repo.Create(ctx, &conv); err != nil {
		if !in.IsGroup && errors.Is(err, bazaar_errors.ErrAlreadyExists) {
			// Lost the race on the pair key: return the winner.
			existing, ferr := s.repo.FindDirect(ctx, participants[0], participants[1])
			if ferr != nil {
				return conversation.Conversation{}, false, ferr
			}
			return existing, false, nil
		}
		return conversation.Conversation{}, false, err
	}

	for _, id := range participants {
		if id == requesterID {
			continue
		}
		s.emitter.EmitToUser(id.String(), events.New(events.TypeConversationNew, conv))
	}
	return conv, true, nil
}

func (s *ConversationService) List(ctx context.Context, userID uuid.UUID) ([]conversation.Conversation, error) {
	return s.repo.GetUserConversations(ctx, userID)
}

func (s *ConversationService) GetByID(ctx context.Context, id uuid.UUID) (conversation.Conversation, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *ConversationService) IsParticipant(ctx context.Context, conversationID, userID uuid.UUID) (bool, error) {
	return s.repo.IsParticipant(ctx, conversationID, userID)
}

// normalizeParticipants de-duplicates and always includes the requester.
func normalizeParticipants(requesterID uuid.UUID, ids []uuid.UUID) []uuid.UUID {
	seen := map[uuid.UUID]struct{}{requesterID: {}}
	out := []uuid.UUID{requesterID}
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
