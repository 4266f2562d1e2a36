package gateway

import (
	"context"
	"fmt"

	bazaar_errors "chatbazaar/pkg/errors"

	razorpay "github.com/razorpay/razorpay-go"
)

type RazorpayClient struct {
	client *razorpay.Client
}

func NewRazorpayClient(keyID, keySecret string) *RazorpayClient {
	return &RazorpayClient{client: razorpay.NewClient(keyID, keySecret)}
}

func (c *RazorpayClient) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (string, error) {
	body := map[string]interface{}{
		"amount":   amountMinor,
		"currency": currency,
		"receipt":  receipt,
	}
	res, err := c.client.Order.Create(body, nil)
	if err != nil {
		return "", fmt.Errorf("%w: razorpay order create: %v", bazaar_errors.ErrGateway, err)
	}
	id, ok := res["id"].(string)
	if !ok || id == "" {
		return "", fmt.Errorf("%w: razorpay order create returned no id", bazaar_errors.ErrGateway)
	}
	return id, nil
}
