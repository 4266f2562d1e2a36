package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"chatbazaar/internal/domain/conversation"
	"chatbazaar/internal/domain/message"
	"chatbazaar/internal/domain/order"
	"chatbazaar/internal/domain/product"
)

type ConversationRepository interface {
	Create(ctx context.Context, c *conversation.Conversation) error
	GetByID(ctx context.Context, id uuid.UUID) (conversation.Conversation, error)
	GetUserConversations(ctx context.Context, userID uuid.UUID) ([]conversation.Conversation, error)
	FindDirect(ctx context.Context, userA, userB uuid.UUID) (conversation.Conversation, error)
	IsParticipant(ctx context.Context, conversationID, userID uuid.UUID) (bool, error)
	SetLastMessage(ctx context.Context, conversationID, messageID uuid.UUID, at time.Time) error
}

type MessageRepository interface {
	Create(ctx context.Context, m *message.Message) error
	GetByID(ctx context.Context, id uuid.UUID) (message.Message, error)
	// ListForViewer returns one page of messages the viewer has not deleted
	// for themselves, oldest-first within the page window, plus the total
	// visible count. Pages are taken newest-first.
	ListForViewer(ctx context.Context, conversationID, viewerID uuid.UUID, page, limit int) ([]message.Message, int64, error)
	MarkRead(ctx context.Context, messageID, userID uuid.UUID) error
	SoftDeleteFor(ctx context.Context, messageID, userID uuid.UUID) error
	UnreadCount(ctx context.Context, conversationID, userID uuid.UUID) (int64, error)
	UnreadCounts(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]int64, error)
}

type OrderRepository interface {
	Create(ctx context.Context, o *order.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (order.Order, error)
	// GetByIDForUpdate takes a row lock; only meaningful inside a unit of work.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (order.Order, error)
	FindByReceipt(ctx context.Context, userID uuid.UUID, receipt string) (order.Order, error)
	FindByPaymentID(ctx context.Context, paymentID string) (order.Order, error)
	// UpdateStatus transitions the order only when its current status is one
	// of from; returns false when the guard matched no row.
	UpdateStatus(ctx context.Context, id uuid.UUID, from []order.Status, to order.Status, paymentID string) (bool, error)
	GetUserOrders(ctx context.Context, userID uuid.UUID) ([]order.Order, error)
}

type ProductRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (product.Product, error)
	// DecrementStock performs the conditional atomic decrement: stock goes
	// down by one iff it is the unlimited sentinel or strictly positive, and
	// the product is deactivated in the same statement when stock hits zero.
	// affected is false when the guard matched no row (stock exhausted).
	DecrementStock(ctx context.Context, id uuid.UUID) (p product.Product, affected bool, err error)
}
