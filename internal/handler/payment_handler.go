package handler

import (
	"io"
	"net/http"

	"chatbazaar/internal/services"
	"chatbazaar/internal/transport/httpdto"
	"chatbazaar/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PaymentHandler struct {
	payments *services.PaymentService
	log      *logger.Logger
}

func NewPaymentHandler(payments *services.PaymentService, log *logger.Logger) *PaymentHandler {
	return &PaymentHandler{payments: payments, log: log}
}

func (h *PaymentHandler) parseCreateRequest(c *gin.Context) (uuid.UUID, services.CreateOrderInput, bool) {
	var req httpdto.CreatePaymentOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return uuid.Nil, services.CreateOrderInput{}, false
	}
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return uuid.Nil, services.CreateOrderInput{}, false
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid product id", "INVALID_REQUEST"))
		return uuid.Nil, services.CreateOrderInput{}, false
	}
	return userID, services.CreateOrderInput{
		ProductID:      productID,
		Amount:         req.Amount,
		IdempotencyKey: req.IdempotencyKey,
	}, true
}

func (h *PaymentHandler) CreateRazorpayOrder(c *gin.Context) {
	userID, in, ok := h.parseCreateRequest(c)
	if !ok {
		return
	}
	ord, err := h.payments.CreateRazorpayOrder(c.Request.Context(), userID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(httpdto.ToOrderDTO(ord)))
}

func (h *PaymentHandler) CreateStripeCheckout(c *gin.Context) {
	userID, in, ok := h.parseCreateRequest(c)
	if !ok {
		return
	}
	checkout, err := h.payments.CreateStripeCheckout(c.Request.Context(), userID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(httpdto.StripeCheckoutResponse{
		Order: httpdto.ToOrderDTO(checkout.Order),
		URL:   checkout.URL,
	}))
}

func (h *PaymentHandler) VerifyRazorpayPayment(c *gin.Context) {
	var req httpdto.VerifyRazorpayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}
	orderID, err := uuid.Parse(req.LocalOrderID)
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid order id", "INVALID_REQUEST"))
		return
	}

	gatewayOrderID, paymentID, signature := req.Normalize()
	ord, err := h.payments.VerifyRazorpayPayment(c.Request.Context(), userID, services.VerifyRazorpayInput{
		OrderID:        orderID,
		GatewayOrderID: gatewayOrderID,
		PaymentID:      paymentID,
		Signature:      signature,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.ToOrderDTO(ord)))
}

func (h *PaymentHandler) VerifyStripeSession(c *gin.Context) {
	var req httpdto.VerifyStripeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	ord, err := h.payments.VerifyStripeSession(c.Request.Context(), userID, req.SessionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.ToOrderDTO(ord)))
}

// StripeWebhook handles gateway callbacks. The raw body is needed for the
// signature check, so this route must not run behind any body-parsing
// middleware. The response is always 200 for processed events; returning an
// error status makes Stripe retry.
func (h *PaymentHandler) StripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, 1<<20))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("unreadable payload", "INVALID_REQUEST"))
		return
	}

	if err := h.payments.HandleStripeWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
		h.log.Warnf("stripe webhook rejected: %v", err)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"received": true}))
}

func (h *PaymentHandler) ListOrders(c *gin.Context) {
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	orders, err := h.payments.ListOrders(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]httpdto.OrderDTO, 0, len(orders))
	for _, o := range orders {
		out = append(out, httpdto.ToOrderDTO(o))
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(out))
}
