package gateway

import "context"

// Razorpay is the order-create half of the Razorpay flow. Payment capture
// happens on the client; the server later verifies the returned signature.
type Razorpay interface {
	// CreateOrder registers an order with Razorpay and returns the
	// gateway-assigned order id. amountMinor is in paise.
	CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (string, error)
}

// CheckoutInput describes a Stripe hosted-checkout session to create.
type CheckoutInput struct {
	AmountMinor        int64 // cents
	Currency           string
	ProductName        string
	ProductDescription string
	UserID             string
}

// CheckoutSession is the subset of a Stripe session this service reads.
type CheckoutSession struct {
	ID            string
	URL           string
	PaymentStatus string
}

// PaymentStatusPaid is the session payment_status value that permits commit.
const PaymentStatusPaid = "paid"

// WebhookEvent is a verified, minimally-parsed gateway webhook.
type WebhookEvent struct {
	Type      string
	SessionID string
}

// Webhook event types this service reacts to.
const (
	EventCheckoutCompleted = "checkout.session.completed"
	EventCheckoutExpired   = "checkout.session.expired"
)

// Stripe is the session-based checkout flow.
type Stripe interface {
	CreateCheckoutSession(ctx context.Context, in CheckoutInput) (CheckoutSession, error)
	RetrieveSession(ctx context.Context, sessionID string) (CheckoutSession, error)
	// ConstructWebhookEvent verifies the webhook signature before any field
	// of the payload is trusted.
	ConstructWebhookEvent(payload []byte, sigHeader string) (WebhookEvent, error)
}
