package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"chatbazaar/internal/domain/conversation"
	"chatbazaar/internal/domain/message"
	"chatbazaar/internal/domain/order"
	"chatbazaar/internal/domain/product"
	"chatbazaar/internal/events"
	"chatbazaar/internal/gateway"
	"chatbazaar/internal/repository"
	bazaar_errors "chatbazaar/pkg/errors"
	"chatbazaar/pkg/logger"

	"github.com/google/uuid"
)

func testLogger() *logger.Logger {
	return logger.New(logger.DevelopmentMode)
}

// emission records one fan-out call on the fake emitter.
type emission struct {
	User   string
	Room   string
	Except string
	Env    events.Envelope
}

type fakeEmitter struct {
	mu        sync.Mutex
	emissions []emission
}

func (f *fakeEmitter) EmitToUser(userID string, env events.Envelope) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emissions = append(f.emissions, emission{User: userID, Env: env})
}

func (f *fakeEmitter) EmitToRoom(room string, env events.Envelope) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emissions = append(f.emissions, emission{Room: room, Env: env})
}

func (f *fakeEmitter) EmitToRoomExcept(room, exceptConnID string, env events.Envelope) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emissions = append(f.emissions, emission{Room: room, Except: exceptConnID, Env: env})
}

func (f *fakeEmitter) all() []emission {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]emission(nil), f.emissions...)
}

func (f *fakeEmitter) ofType(t events.Type) []emission {
	var out []emission
	for _, e := range f.all() {
		if e.Env.Event == t {
			out = append(out, e)
		}
	}
	return out
}

type fakeConversationRepo struct {
	mu            sync.Mutex
	conversations map[uuid.UUID]conversation.Conversation
	pairIndex     map[string]uuid.UUID
	createErr     error

	// missDirectOnce makes the next FindDirect report not-found, simulating
	// the window between the existence check and the insert.
	missDirectOnce bool
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{
		conversations: make(map[uuid.UUID]conversation.Conversation),
		pairIndex:     make(map[string]uuid.UUID),
	}
}

func (f *fakeConversationRepo) Create(ctx context.Context, c *conversation.Conversation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if c.PairKey.Valid {
		if _, taken := f.pairIndex[c.PairKey.String]; taken {
			return bazaar_errors.ErrAlreadyExists
		}
		f.pairIndex[c.PairKey.String] = c.ID
	}
	f.conversations[c.ID] = *c
	return nil
}

func (f *fakeConversationRepo) GetByID(ctx context.Context, id uuid.UUID) (conversation.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.conversations[id]
	if !ok {
		return conversation.Conversation{}, bazaar_errors.ErrNotFound
	}
	return c, nil
}

func (f *fakeConversationRepo) GetUserConversations(ctx context.Context, userID uuid.UUID) ([]conversation.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []conversation.Conversation
	for _, c := range f.conversations {
		for _, p := range c.Participants {
			if p.UserID == userID {
				out = append(out, c)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (f *fakeConversationRepo) FindDirect(ctx context.Context, userA, userB uuid.UUID) (conversation.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.missDirectOnce {
		f.missDirectOnce = false
		return conversation.Conversation{}, bazaar_errors.ErrNotFound
	}
	id, ok := f.pairIndex[conversation.PairKey(userA, userB)]
	if !ok {
		return conversation.Conversation{}, bazaar_errors.ErrNotFound
	}
	return f.conversations[id], nil
}

func (f *fakeConversationRepo) IsParticipant(ctx context.Context, conversationID, userID uuid.UUID) (bool, error) {
	c, err := f.GetByID(ctx, conversationID)
	if err != nil {
		return false, err
	}
	return c.IsParticipant(userID), nil
}

func (f *fakeConversationRepo) SetLastMessage(ctx context.Context, conversationID, messageID uuid.UUID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.conversations[conversationID]
	if !ok {
		return bazaar_errors.ErrNotFound
	}
	c.LastMessageID = uuid.NullUUID{UUID: messageID, Valid: true}
	c.UpdatedAt = at
	f.conversations[conversationID] = c
	return nil
}

type fakeMessageRepo struct {
	mu        sync.Mutex
	messages  map[uuid.UUID]message.Message
	reads     map[uuid.UUID]map[uuid.UUID]struct{}
	deletions map[uuid.UUID]map[uuid.UUID]struct{}
	createErr error
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{
		messages:  make(map[uuid.UUID]message.Message),
		reads:     make(map[uuid.UUID]map[uuid.UUID]struct{}),
		deletions: make(map[uuid.UUID]map[uuid.UUID]struct{}),
	}
}

func (f *fakeMessageRepo) Create(ctx context.Context, m *message.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.messages[m.ID] = *m
	return nil
}

func (f *fakeMessageRepo) GetByID(ctx context.Context, id uuid.UUID) (message.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.messages[id]
	if !ok {
		return message.Message{}, bazaar_errors.ErrNotFound
	}
	for userID := range f.reads[id] {
		m.Reads = append(m.Reads, message.Read{MessageID: id, UserID: userID})
	}
	return m, nil
}

func (f *fakeMessageRepo) ListForViewer(ctx context.Context, conversationID, viewerID uuid.UUID, page, limit int) ([]message.Message, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var visible []message.Message
	for _, m := range f.messages {
		if m.ConversationID != conversationID {
			continue
		}
		if _, deleted := f.deletions[m.ID][viewerID]; deleted {
			continue
		}
		visible = append(visible, m)
	}
	sort.Slice(visible, func(i, j int) bool { return visible[i].CreatedAt.Before(visible[j].CreatedAt) })
	total := int64(len(visible))

	// Pages are taken newest-first, each page returned oldest-first.
	end := len(visible) - (page-1)*limit
	if end < 0 {
		end = 0
	}
	start := end - limit
	if start < 0 {
		start = 0
	}
	return visible[start:end], total, nil
}

func (f *fakeMessageRepo) MarkRead(ctx context.Context, messageID, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.messages[messageID]; !ok {
		return bazaar_errors.ErrNotFound
	}
	if f.reads[messageID] == nil {
		f.reads[messageID] = make(map[uuid.UUID]struct{})
	}
	f.reads[messageID][userID] = struct{}{}
	return nil
}

func (f *fakeMessageRepo) SoftDeleteFor(ctx context.Context, messageID, userID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deletions[messageID] == nil {
		f.deletions[messageID] = make(map[uuid.UUID]struct{})
	}
	f.deletions[messageID][userID] = struct{}{}
	return nil
}

func (f *fakeMessageRepo) UnreadCount(ctx context.Context, conversationID, userID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, m := range f.messages {
		if m.ConversationID != conversationID || m.SenderID == userID {
			continue
		}
		if _, read := f.reads[m.ID][userID]; !read {
			n++
		}
	}
	return n, nil
}

func (f *fakeMessageRepo) UnreadCounts(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[uuid.UUID]int64)
	for _, m := range f.messages {
		if m.SenderID == userID {
			continue
		}
		if _, read := f.reads[m.ID][userID]; !read {
			out[m.ConversationID]++
		}
	}
	return out, nil
}

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]order.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[uuid.UUID]order.Order)}
}

func (f *fakeOrderRepo) Create(ctx context.Context, o *order.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.orders {
		if existing.UserID == o.UserID && existing.Receipt.Valid && o.Receipt.Valid && existing.Receipt.String == o.Receipt.String {
			return bazaar_errors.ErrAlreadyExists
		}
		if existing.GatewayOrderID == o.GatewayOrderID {
			return bazaar_errors.ErrAlreadyExists
		}
	}
	f.orders[o.ID] = *o
	return nil
}

func (f *fakeOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return order.Order{}, bazaar_errors.ErrNotFound
	}
	return o, nil
}

func (f *fakeOrderRepo) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (order.Order, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeOrderRepo) FindByReceipt(ctx context.Context, userID uuid.UUID, receipt string) (order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.UserID == userID && o.Receipt.Valid && o.Receipt.String == receipt {
			return o, nil
		}
	}
	return order.Order{}, bazaar_errors.ErrNotFound
}

func (f *fakeOrderRepo) FindByPaymentID(ctx context.Context, paymentID string) (order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.PaymentID == paymentID {
			return o, nil
		}
	}
	return order.Order{}, bazaar_errors.ErrNotFound
}

func (f *fakeOrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from []order.Status, to order.Status, paymentID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return false, nil
	}
	matched := false
	for _, s := range from {
		if o.Status == s {
			matched = true
			break
		}
	}
	if !matched {
		return false, nil
	}
	o.Status = to
	if paymentID != "" {
		o.PaymentID = paymentID
	}
	o.UpdatedAt = time.Now()
	f.orders[id] = o
	return true, nil
}

func (f *fakeOrderRepo) GetUserOrders(ctx context.Context, userID uuid.UUID) ([]order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []order.Order
	for _, o := range f.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type fakeProductRepo struct {
	mu       sync.Mutex
	products map[uuid.UUID]product.Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[uuid.UUID]product.Product)}
}

func (f *fakeProductRepo) put(p product.Product) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.products[p.ID] = p
}

func (f *fakeProductRepo) GetByID(ctx context.Context, id uuid.UUID) (product.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return product.Product{}, bazaar_errors.ErrNotFound
	}
	return p, nil
}

func (f *fakeProductRepo) DecrementStock(ctx context.Context, id uuid.UUID) (product.Product, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return product.Product{}, false, nil
	}
	if p.Stock == product.UnlimitedStock {
		return p, true, nil
	}
	if p.Stock <= 0 {
		return product.Product{}, false, nil
	}
	p.Stock--
	if p.Stock == 0 {
		p.IsActive = false
	}
	f.products[id] = p
	return p, true, nil
}

// fakeUnitOfWork serializes transactions with a mutex, standing in for the
// row lock the real store takes.
type fakeUnitOfWork struct {
	mu     sync.Mutex
	stores repository.Stores
}

func newFakeUnitOfWork(orders *fakeOrderRepo, products *fakeProductRepo) *fakeUnitOfWork {
	return &fakeUnitOfWork{stores: repository.Stores{Orders: orders, Products: products}}
}

func (f *fakeUnitOfWork) Do(ctx context.Context, fn func(tx repository.Stores) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fn(f.stores)
}

type fakeRazorpay struct {
	mu      sync.Mutex
	calls   int
	nextID  string
	fail    error
	lastAmt int64
}

func (f *fakeRazorpay) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastAmt = amountMinor
	if f.fail != nil {
		return "", f.fail
	}
	if f.nextID != "" {
		return f.nextID, nil
	}
	return "order_rzp_test", nil
}

type fakeStripe struct {
	mu            sync.Mutex
	createCalls   int
	session       gateway.CheckoutSession
	retrieveErr   error
	webhookEvent  gateway.WebhookEvent
	webhookErr    error
	paymentStatus string
}

func (f *fakeStripe) CreateCheckoutSession(ctx context.Context, in gateway.CheckoutInput) (gateway.CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.session.ID == "" {
		f.session = gateway.CheckoutSession{ID: "cs_test", URL: "https://checkout.stripe.test/cs_test"}
	}
	return f.session, nil
}

func (f *fakeStripe) RetrieveSession(ctx context.Context, sessionID string) (gateway.CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.retrieveErr != nil {
		return gateway.CheckoutSession{}, f.retrieveErr
	}
	return gateway.CheckoutSession{ID: sessionID, PaymentStatus: f.paymentStatus}, nil
}

func (f *fakeStripe) ConstructWebhookEvent(payload []byte, sigHeader string) (gateway.WebhookEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.webhookErr != nil {
		return gateway.WebhookEvent{}, f.webhookErr
	}
	return f.webhookEvent, nil
}
