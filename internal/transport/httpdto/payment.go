package httpdto

import (
	"time"

	"chatbazaar/internal/domain/order"
)

// CreatePaymentOrderRequest is used for both gateway create endpoints. Amount
// is in major units and must match the catalog price; the server never trusts
// it as the charge source.
type CreatePaymentOrderRequest struct {
	Amount         int64  `json:"amount" binding:"required"`
	ProductID      string `json:"productId" binding:"required"`
	IdempotencyKey string `json:"idempotencyKey,omitempty"`
}

// VerifyRazorpayRequest is used for POST /api/payment/razorpay/verify. The
// razorpay_* aliases match the field names Razorpay's checkout handler emits,
// so the client can forward its callback payload untouched.
type VerifyRazorpayRequest struct {
	LocalOrderID      string `json:"localOrderId" binding:"required"`
	GatewayOrderID    string `json:"orderId"`
	RazorpayOrderID   string `json:"razorpay_order_id"`
	PaymentID         string `json:"paymentId"`
	RazorpayPaymentID string `json:"razorpay_payment_id"`
	Signature         string `json:"signature"`
	RazorpaySignature string `json:"razorpay_signature"`
}

func (r *VerifyRazorpayRequest) Normalize() (gatewayOrderID, paymentID, signature string) {
	gatewayOrderID = r.GatewayOrderID
	if gatewayOrderID == "" {
		gatewayOrderID = r.RazorpayOrderID
	}
	paymentID = r.PaymentID
	if paymentID == "" {
		paymentID = r.RazorpayPaymentID
	}
	signature = r.Signature
	if signature == "" {
		signature = r.RazorpaySignature
	}
	return
}

// VerifyStripeRequest is used for POST /api/payment/stripe/verify
type VerifyStripeRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
}

// OrderDTO represents an order in API responses
type OrderDTO struct {
	ID             string `json:"id"`
	ProductID      string `json:"productId,omitempty"`
	ProductName    string `json:"productName"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	PaymentGateway string `json:"paymentGateway"`
	GatewayOrderID string `json:"gatewayOrderId"`
	Status         string `json:"status"`
	Receipt        string `json:"receipt,omitempty"`
	CreatedAt      string `json:"createdAt"`
	UpdatedAt      string `json:"updatedAt"`
}

func ToOrderDTO(o order.Order) OrderDTO {
	dto := OrderDTO{
		ID:             o.ID.String(),
		ProductName:    o.ProductName,
		Amount:         o.Amount,
		Currency:       o.Currency,
		PaymentGateway: string(o.PaymentGateway),
		GatewayOrderID: o.GatewayOrderID,
		Status:         string(o.Status),
		CreatedAt:      o.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      o.UpdatedAt.Format(time.RFC3339),
	}
	if o.ProductID.Valid {
		dto.ProductID = o.ProductID.UUID.String()
	}
	if o.Receipt.Valid {
		dto.Receipt = o.Receipt.String
	}
	return dto
}

// StripeCheckoutResponse is returned for POST /api/payment/stripe/create-checkout-session
type StripeCheckoutResponse struct {
	Order OrderDTO `json:"order"`
	URL   string   `json:"url,omitempty"`
}
