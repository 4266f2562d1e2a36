package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	bazaar_errors "chatbazaar/pkg/errors"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"
)

type StripeClient struct {
	api           *client.API
	webhookSecret string
	successURL    string
	cancelURL     string
}

func NewStripeClient(secretKey, webhookSecret, frontendURL string) *StripeClient {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeClient{
		api:           api,
		webhookSecret: webhookSecret,
		successURL:    frontendURL + "/payment/success?session_id={CHECKOUT_SESSION_ID}",
		cancelURL:     frontendURL + "/payment/cancel",
	}
}

func (c *StripeClient) CreateCheckoutSession(ctx context.Context, in CheckoutInput) (CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:         stripe.String(c.successURL),
		CancelURL:          stripe.String(c.cancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(strings.ToLower(in.Currency)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(in.ProductName),
						Description: stripe.String(in.ProductDescription),
					},
					UnitAmount: stripe.Int64(in.AmountMinor),
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx
	params.AddMetadata("user_id", in.UserID)

	sess, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return CheckoutSession{}, fmt.Errorf("%w: stripe checkout create: %v", bazaar_errors.ErrGateway, err)
	}
	return CheckoutSession{
		ID:            sess.ID,
		URL:           sess.URL,
		PaymentStatus: string(sess.PaymentStatus),
	}, nil
}

func (c *StripeClient) RetrieveSession(ctx context.Context, sessionID string) (CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	sess, err := c.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return CheckoutSession{}, fmt.Errorf("%w: stripe session retrieve: %v", bazaar_errors.ErrGateway, err)
	}
	return CheckoutSession{
		ID:            sess.ID,
		URL:           sess.URL,
		PaymentStatus: string(sess.PaymentStatus),
	}, nil
}

func (c *StripeClient) ConstructWebhookEvent(payload []byte, sigHeader string) (WebhookEvent, error) {
	event, err := webhook.ConstructEvent(payload, sigHeader, c.webhookSecret)
	if err != nil {
		return WebhookEvent{}, fmt.Errorf("%w: webhook signature verification failed", bazaar_errors.ErrInvalidSignature)
	}

	out := WebhookEvent{Type: string(event.Type)}
	switch out.Type {
	case EventCheckoutCompleted, EventCheckoutExpired:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return WebhookEvent{}, fmt.Errorf("%w: malformed checkout session payload", bazaar_errors.ErrInvalidInput)
		}
		out.SessionID = sess.ID
	}
	return out, nil
}
