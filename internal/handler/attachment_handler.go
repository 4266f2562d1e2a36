package handler

import (
	"net/http"
	"strings"

	"chatbazaar/internal/services"
	"chatbazaar/internal/storage"
	"chatbazaar/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

type AttachmentHandler struct {
	store *storage.Client
}

func NewAttachmentHandler(store *storage.Client) *AttachmentHandler {
	return &AttachmentHandler{store: store}
}

// Presign hands out a direct-to-bucket upload URL for a chat attachment.
func (h *AttachmentHandler) Presign(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, httpdto.NewErrorResponse("attachment storage not configured", "STORAGE_UNAVAILABLE"))
		return
	}

	var req httpdto.PresignUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	key := storage.AttachmentKey(userID, req.FileName)
	url, headers, err := h.store.PresignUpload(c.Request.Context(), key, req.ContentType, req.SizeBytes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.PresignUploadResponse{
		Key:       key,
		UploadURL: url,
		Headers:   headers,
	}))
}

// Download returns a time-limited GET URL for a stored attachment key.
func (h *AttachmentHandler) Download(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, httpdto.NewErrorResponse("attachment storage not configured", "STORAGE_UNAVAILABLE"))
		return
	}
	if _, ok := services.UserIDFromContext(c.Request.Context()); !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	key := strings.TrimPrefix(c.Param("key"), "/")
	if key == "" {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("object key is required", "INVALID_REQUEST"))
		return
	}

	url, err := h.store.PresignDownload(c.Request.Context(), key)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.PresignDownloadResponse{DownloadURL: url}))
}
