package handler

import (
	"net/http"

	"chatbazaar/internal/services"
	"chatbazaar/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ConversationHandler struct {
	conversations *services.ConversationService
	messages      *services.MessageService
}

func NewConversationHandler(conversations *services.ConversationService, messages *services.MessageService) *ConversationHandler {
	return &ConversationHandler{conversations: conversations, messages: messages}
}

func (h *ConversationHandler) Create(c *gin.Context) {
	var req httpdto.CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	requesterID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	participantIDs := make([]uuid.UUID, 0, len(req.ParticipantIDs))
	for _, idStr := range req.ParticipantIDs {
		id, err := uuid.Parse(idStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid participant id", "INVALID_REQUEST"))
			return
		}
		participantIDs = append(participantIDs, id)
	}

	conv, created, err := h.conversations.Create(c.Request.Context(), requesterID, services.CreateConversationInput{
		ParticipantIDs:   participantIDs,
		IsGroup:          req.IsGroup,
		GroupName:        req.GroupName,
		GroupDescription: req.GroupDescription,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, httpdto.NewSuccessResponse(httpdto.ToConversationDTO(conv, 0)))
}

func (h *ConversationHandler) List(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	convs, err := h.conversations.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	unread, err := h.messages.UnreadCounts(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]httpdto.ConversationDTO, 0, len(convs))
	for _, conv := range convs {
		out = append(out, httpdto.ToConversationDTO(conv, unread[conv.ID]))
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(out))
}

func (h *ConversationHandler) GetByID(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}
	conversationID, err := uuid.Parse(c.Param("conversationId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid conversation id", "INVALID_REQUEST"))
		return
	}

	conv, err := h.conversations.GetByID(c.Request.Context(), conversationID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !conv.IsParticipant(userID) {
		c.JSON(http.StatusForbidden, httpdto.NewErrorResponse("not a participant", "NOT_PARTICIPANT"))
		return
	}

	unread, err := h.messages.UnreadCount(c.Request.Context(), conv.ID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.ToConversationDTO(conv, unread)))
}
