package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"chatbazaar/internal/domain/order"
	"chatbazaar/internal/gateway"
	"chatbazaar/internal/repository"
	bazaar_errors "chatbazaar/pkg/errors"
	"chatbazaar/pkg/logger"

	"github.com/google/uuid"
)

type PaymentService struct {
	uow            repository.UnitOfWork
	orders         repository.OrderRepository
	products       repository.ProductRepository
	razorpay       gateway.Razorpay
	stripe         gateway.Stripe
	razorpaySecret []byte
	log            *logger.Logger
}

func NewPaymentService(
	uow repository.UnitOfWork,
	orders repository.OrderRepository,
	products repository.ProductRepository,
	rzp gateway.Razorpay,
	stp gateway.Stripe,
	razorpaySecret string,
	log *logger.Logger,
) *PaymentService {
	return &PaymentService{
		uow:            uow,
		orders:         orders,
		products:       products,
		razorpay:       rzp,
		stripe:         stp,
		razorpaySecret: []byte(razorpaySecret),
		log:            log,
	}
}

type CreateOrderInput struct {
	ProductID      uuid.UUID
	Amount         int64
	IdempotencyKey string
}

// loadProduct validates that the product exists, is purchasable and that the
// client-submitted amount matches the catalog price for the given currency.
// The amount check closes the classic price-tampering hole: the client sends
// an amount only so the server can reject a stale or forged one.
func (s *PaymentService) loadProduct(ctx context.Context, in CreateOrderInput, currency string) (name, description string, err error) {
	p, err := s.products.GetByID(ctx, in.ProductID)
	if err != nil {
		return "", "", err
	}
	if !p.IsActive {
		return "", "", fmt.Errorf("%w: product is not available", bazaar_errors.ErrInvalidOperation)
	}
	want := p.PriceINR
	if currency == order.CurrencyUSD {
		want = p.PriceUSD
	}
	if in.Amount != want {
		return "", "", fmt.Errorf("%w: amount does not match product price", bazaar_errors.ErrInvalidInput)
	}
	return p.Name, p.Description, nil
}

// receiptFor returns the idempotency key to store with the order. When the
// caller supplies none a fresh one is generated, so retries without a key
// create distinct orders.
func receiptFor(in CreateOrderInput) string {
	if in.IdempotencyKey != "" {
		return in.IdempotencyKey
	}
	return fmt.Sprintf("receipt_%d", time.Now().UnixMilli())
}

// CreateRazorpayOrder registers an order with Razorpay and records it locally
// in status created. A retry carrying the same idempotency key returns the
// original order instead of creating a second gateway order, unless the
// original already failed.
func (s *PaymentService) CreateRazorpayOrder(ctx context.Context, userID uuid.UUID, in CreateOrderInput) (order.Order, error) {
	if in.Amount <= 0 {
		return order.Order{}, fmt.Errorf("%w: amount must be positive", bazaar_errors.ErrInvalidInput)
	}
	name, description, err := s.loadProduct(ctx, in, order.CurrencyINR)
	if err != nil {
		return order.Order{}, err
	}

	if in.IdempotencyKey != "" {
		existing, err := s.orders.FindByReceipt(ctx, userID, in.IdempotencyKey)
		switch {
		case err == nil:
			if existing.Status != order.StatusFailed {
				return existing, nil
			}
		case !errors.Is(err, bazaar_errors.ErrNotFound):
			return order.Order{}, err
		}
	}

	receipt := receiptFor(in)
	gatewayOrderID, err := s.razorpay.CreateOrder(ctx, in.Amount*100, order.CurrencyINR, receipt)
	if err != nil {
		return order.Order{}, err
	}

	now := time.Now()
	ord := order.Order{
		ID:                 uuid.New(),
		UserID:             userID,
		ProductID:          uuid.NullUUID{UUID: in.ProductID, Valid: true},
		Amount:             in.Amount,
		Currency:           order.CurrencyINR,
		PaymentGateway:     order.GatewayRazorpay,
		PaymentID:          "pending",
		GatewayOrderID:     gatewayOrderID,
		Status:             order.StatusCreated,
		ProductName:        name,
		ProductDescription: description,
		Receipt:            sql.NullString{String: receipt, Valid: true},
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.orders.Create(ctx, &ord); err != nil {
		if errors.Is(err, bazaar_errors.ErrAlreadyExists) && in.IdempotencyKey != "" {
			// Lost a create race against a retry of the same key; the winner's
			// row is the canonical order.
			return s.orders.FindByReceipt(ctx, userID, in.IdempotencyKey)
		}
		return order.Order{}, err
	}
	s.log.InfofCtx(ctx, "razorpay order created order_id=%s gateway_order_id=%s", ord.ID, gatewayOrderID)
	return ord, nil
}

// StripeCheckout pairs the local order with the hosted-checkout redirect URL.
type StripeCheckout struct {
	Order order.Order
	URL   string
}

// CreateStripeCheckout creates a Stripe hosted-checkout session and records a
// local order in status pending. The session id doubles as the payment id
// until the gateway reports a real one.
func (s *PaymentService) CreateStripeCheckout(ctx context.Context, userID uuid.UUID, in CreateOrderInput) (StripeCheckout, error) {
	if in.Amount <= 0 {
		return StripeCheckout{}, fmt.Errorf("%w: amount must be positive", bazaar_errors.ErrInvalidInput)
	}
	name, description, err := s.loadProduct(ctx, in, order.CurrencyUSD)
	if err != nil {
		return StripeCheckout{}, err
	}

	if in.IdempotencyKey != "" {
		existing, err := s.orders.FindByReceipt(ctx, userID, in.IdempotencyKey)
		switch {
		case err == nil:
			if existing.Status != order.StatusFailed {
				return StripeCheckout{Order: existing}, nil
			}
		case !errors.Is(err, bazaar_errors.ErrNotFound):
			return StripeCheckout{}, err
		}
	}

	sess, err := s.stripe.CreateCheckoutSession(ctx, gateway.CheckoutInput{
		AmountMinor:        in.Amount * 100,
		Currency:           order.CurrencyUSD,
		ProductName:        name,
		ProductDescription: description,
		UserID:             userID.String(),
	})
	if err != nil {
		return StripeCheckout{}, err
	}

	now := time.Now()
	ord := order.Order{
		ID:                 uuid.New(),
		UserID:             userID,
		ProductID:          uuid.NullUUID{UUID: in.ProductID, Valid: true},
		Amount:             in.Amount,
		Currency:           order.CurrencyUSD,
		PaymentGateway:     order.GatewayStripe,
		PaymentID:          sess.ID,
		GatewayOrderID:     sess.ID,
		Status:             order.StatusPending,
		ProductName:        name,
		ProductDescription: description,
		Receipt:            sql.NullString{String: receiptFor(in), Valid: true},
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.orders.Create(ctx, &ord); err != nil {
		if errors.Is(err, bazaar_errors.ErrAlreadyExists) && in.IdempotencyKey != "" {
			winner, ferr := s.orders.FindByReceipt(ctx, userID, in.IdempotencyKey)
			if ferr != nil {
				return StripeCheckout{}, ferr
			}
			return StripeCheckout{Order: winner}, nil
		}
		return StripeCheckout{}, err
	}
	s.log.InfofCtx(ctx, "stripe checkout created order_id=%s session_id=%s", ord.ID, sess.ID)
	return StripeCheckout{Order: ord, URL: sess.URL}, nil
}

type VerifyRazorpayInput struct {
	OrderID        uuid.UUID
	GatewayOrderID string
	PaymentID      string
	Signature      string
}

// VerifyRazorpayPayment checks the HMAC-SHA256 signature Razorpay's client SDK
// hands back after capture, then commits the order. The expected signature is
// the hex digest of "gatewayOrderID|paymentID" keyed with the API secret; the
// comparison is constant-time. A bad signature fails the order.
func (s *PaymentService) VerifyRazorpayPayment(ctx context.Context, callerID uuid.UUID, in VerifyRazorpayInput) (order.Order, error) {
	if in.GatewayOrderID == "" || in.PaymentID == "" || in.Signature == "" {
		return order.Order{}, fmt.Errorf("%w: orderId, paymentId and signature are required", bazaar_errors.ErrInvalidInput)
	}

	mac := hmac.New(sha256.New, s.razorpaySecret)
	mac.Write([]byte(in.GatewayOrderID + "|" + in.PaymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(in.Signature)) {
		if _, err := s.orders.UpdateStatus(ctx, in.OrderID,
			[]order.Status{order.StatusCreated, order.StatusPending},
			order.StatusFailed, in.PaymentID); err != nil {
			s.log.ErrorfCtx(ctx, "failed to mark order failed after bad signature order_id=%s: %v", in.OrderID, err)
		}
		return order.Order{}, fmt.Errorf("%w: razorpay signature mismatch", bazaar_errors.ErrInvalidSignature)
	}

	if err := s.commit(ctx, in.OrderID, callerID, in.PaymentID); err != nil {
		return order.Order{}, err
	}
	return s.orders.GetByID(ctx, in.OrderID)
}

// VerifyStripeSession is the client-driven confirmation path: the success page
// posts the session id back and the server asks Stripe whether it was paid.
// An unpaid session changes nothing; the webhook or a later retry may still
// complete the order.
func (s *PaymentService) VerifyStripeSession(ctx context.Context, callerID uuid.UUID, sessionID string) (order.Order, error) {
	if sessionID == "" {
		return order.Order{}, fmt.Errorf("%w: sessionId is required", bazaar_errors.ErrInvalidInput)
	}

	sess, err := s.stripe.RetrieveSession(ctx, sessionID)
	if err != nil {
		return order.Order{}, err
	}
	ord, err := s.orders.FindByPaymentID(ctx, sessionID)
	if err != nil {
		return order.Order{}, err
	}
	if sess.PaymentStatus != gateway.PaymentStatusPaid {
		return ord, fmt.Errorf("%w: session payment_status is %q", bazaar_errors.ErrPaymentNotCompleted, sess.PaymentStatus)
	}

	if err := s.commit(ctx, ord.ID, callerID, sessionID); err != nil {
		return order.Order{}, err
	}
	return s.orders.GetByID(ctx, ord.ID)
}

// HandleStripeWebhook verifies and reacts to a raw webhook delivery.
// checkout.session.completed commits the order on behalf of its owner;
// checkout.session.expired fails it. Unknown event types are acknowledged and
// ignored so Stripe does not retry them.
func (s *PaymentService) HandleStripeWebhook(ctx context.Context, payload []byte, sigHeader string) error {
	event, err := s.stripe.ConstructWebhookEvent(payload, sigHeader)
	if err != nil {
		return err
	}

	switch event.Type {
	case gateway.EventCheckoutCompleted:
		ord, err := s.orders.FindByPaymentID(ctx, event.SessionID)
		if err != nil {
			return err
		}
		// The webhook carries the gateway's authority, so the order owner is
		// the acting party.
		return s.commit(ctx, ord.ID, ord.UserID, event.SessionID)
	case gateway.EventCheckoutExpired:
		ord, err := s.orders.FindByPaymentID(ctx, event.SessionID)
		if err != nil {
			return err
		}
		ok, err := s.orders.UpdateStatus(ctx, ord.ID,
			[]order.Status{order.StatusCreated, order.StatusPending},
			order.StatusFailed, event.SessionID)
		if err != nil {
			return err
		}
		if ok {
			s.log.InfofCtx(ctx, "stripe session expired, order failed order_id=%s", ord.ID)
		}
		return nil
	default:
		s.log.InfofCtx(ctx, "ignoring stripe webhook event type=%s", event.Type)
		return nil
	}
}

// commit finalizes a paid order atomically: the guarded status transition and
// the stock decrement happen in one transaction or not at all. Re-committing a
// completed order is a no-op, so the client verify path and the webhook can
// both fire without double-decrementing stock.
func (s *PaymentService) commit(ctx context.Context, orderID, callerID uuid.UUID, paymentID string) error {
	return s.uow.Do(ctx, func(tx repository.Stores) error {
		ord, err := tx.Orders.GetByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if ord.UserID != callerID {
			return bazaar_errors.ErrForbidden
		}
		if ord.Status == order.StatusCompleted {
			return nil
		}
		if ord.Status == order.StatusFailed {
			return fmt.Errorf("%w: order already failed", bazaar_errors.ErrConflict)
		}

		ok, err := tx.Orders.UpdateStatus(ctx, ord.ID,
			[]order.Status{order.StatusCreated, order.StatusPending},
			order.StatusCompleted, paymentID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: order state changed concurrently", bazaar_errors.ErrConflict)
		}

		if ord.ProductID.Valid {
			p, affected, err := tx.Products.DecrementStock(ctx, ord.ProductID.UUID)
			if err != nil {
				return err
			}
			if !affected {
				// Oversold: payment already captured, so the order still
				// completes. The anomaly is logged for manual reconciliation.
				s.log.ErrorfCtx(ctx, "stock exhausted for paid order order_id=%s product_id=%s", ord.ID, ord.ProductID.UUID)
			} else if p.HasFiniteStock() && p.Stock == 0 {
				s.log.InfofCtx(ctx, "product sold out product_id=%s", p.ID)
			}
		}
		s.log.InfofCtx(ctx, "order completed order_id=%s payment_id=%s", ord.ID, paymentID)
		return nil
	})
}

// ListOrders returns the caller's orders, newest first.
func (s *PaymentService) ListOrders(ctx context.Context, userID uuid.UUID) ([]order.Order, error) {
	return s.orders.GetUserOrders(ctx, userID)
}
