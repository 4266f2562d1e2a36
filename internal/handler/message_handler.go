package handler

import (
	"net/http"
	"strconv"

	"chatbazaar/internal/services"
	"chatbazaar/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type MessageHandler struct {
	messages *services.MessageService
}

func NewMessageHandler(messages *services.MessageService) *MessageHandler {
	return &MessageHandler{messages: messages}
}

func (h *MessageHandler) Send(c *gin.Context) {
	var req httpdto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	senderID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}
	conversationID, err := uuid.Parse(req.ConversationID)
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid conversation id", "INVALID_REQUEST"))
		return
	}

	in := services.SendMessageInput{
		ConversationID: conversationID,
		Content:        req.Content,
		Type:           req.MessageType,
		FileURL:        req.FileURL,
		FileName:       req.FileName,
		FileSize:       req.FileSize,
	}
	if req.ReplyTo != "" {
		replyTo, err := uuid.Parse(req.ReplyTo)
		if err != nil {
			c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid replyTo id", "INVALID_REQUEST"))
			return
		}
		in.ReplyToID = uuid.NullUUID{UUID: replyTo, Valid: true}
	}

	msg, err := h.messages.Send(c.Request.Context(), senderID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(httpdto.ToMessageDTO(msg)))
}

func (h *MessageHandler) List(c *gin.Context) {
	viewerID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}
	conversationID, err := uuid.Parse(c.Param("conversationId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid conversation id", "INVALID_REQUEST"))
		return
	}

	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))

	result, err := h.messages.List(c.Request.Context(), viewerID, conversationID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	out := httpdto.MessagePageResponse{
		Messages:   make([]httpdto.MessageDTO, 0, len(result.Messages)),
		Total:      result.Total,
		Page:       result.Page,
		TotalPages: result.TotalPages,
	}
	for _, m := range result.Messages {
		out.Messages = append(out.Messages, httpdto.ToMessageDTO(m))
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(out))
}

func (h *MessageHandler) MarkRead(c *gin.Context) {
	readerID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}
	messageID, err := uuid.Parse(c.Param("messageId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid message id", "INVALID_REQUEST"))
		return
	}

	if err := h.messages.MarkRead(c.Request.Context(), readerID, messageID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"read": true}))
}

func (h *MessageHandler) Delete(c *gin.Context) {
	requesterID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}
	messageID, err := uuid.Parse(c.Param("messageId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid message id", "INVALID_REQUEST"))
		return
	}

	if err := h.messages.DeleteForMe(c.Request.Context(), requesterID, messageID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"deleted": true}))
}

func (h *MessageHandler) UnreadCounts(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	counts, err := h.messages.UnreadCounts(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	out := httpdto.UnreadCountsResponse{Counts: make(map[string]int64, len(counts))}
	for id, n := range counts {
		out.Counts[id.String()] = n
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(out))
}
