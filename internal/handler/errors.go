package handler

import (
	"errors"
	"net/http"

	"chatbazaar/internal/transport/httpdto"
	bazaar_errors "chatbazaar/pkg/errors"

	"github.com/gin-gonic/gin"
)

// respondError maps domain sentinel errors onto HTTP statuses and the stable
// error codes the web client switches on.
func respondError(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, "INTERNAL_ERROR"
	switch {
	case errors.Is(err, bazaar_errors.ErrInvalidInput):
		status, code = http.StatusBadRequest, "INVALID_REQUEST"
	case errors.Is(err, bazaar_errors.ErrInvalidOperation):
		status, code = http.StatusBadRequest, "INVALID_OPERATION"
	case errors.Is(err, bazaar_errors.ErrInvalidSignature):
		status, code = http.StatusBadRequest, "INVALID_SIGNATURE"
	case errors.Is(err, bazaar_errors.ErrPaymentNotCompleted):
		status, code = http.StatusBadRequest, "PAYMENT_NOT_COMPLETED"
	case errors.Is(err, bazaar_errors.ErrUnauthorized):
		status, code = http.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, bazaar_errors.ErrNotParticipant):
		status, code = http.StatusForbidden, "NOT_PARTICIPANT"
	case errors.Is(err, bazaar_errors.ErrForbidden):
		status, code = http.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, bazaar_errors.ErrNotFound):
		status, code = http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, bazaar_errors.ErrAlreadyExists), errors.Is(err, bazaar_errors.ErrConflict):
		status, code = http.StatusConflict, "CONFLICT"
	case errors.Is(err, bazaar_errors.ErrRateLimited):
		status, code = http.StatusTooManyRequests, "RATE_LIMITED"
	case errors.Is(err, bazaar_errors.ErrGateway):
		status, code = http.StatusBadGateway, "GATEWAY_ERROR"
	}
	c.JSON(status, httpdto.NewErrorResponse(err.Error(), code))
}
