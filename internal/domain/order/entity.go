package order

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Status is the order state machine: created|pending -> completed|failed.
// Terminal states permit no further transition.
type Status string

const (
	StatusCreated   Status = "created"
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransition reports whether the state machine permits from -> to.
func CanTransition(from, to Status) bool {
	if from.Terminal() {
		return false
	}
	return to == StatusCompleted || to == StatusFailed
}

// Supported payment gateways
type Gateway string

const (
	GatewayRazorpay Gateway = "razorpay"
	GatewayStripe   Gateway = "stripe"
)

// Supported currencies
const (
	CurrencyINR = "INR"
	CurrencyUSD = "USD"
	CurrencyEUR = "EUR"
)

// Order represents the orders table. GatewayOrderID is the gateway-assigned
// order/session id; Receipt is the caller-supplied idempotency key guarded by
// a unique (user_id, receipt) index.
type Order struct {
	ID                 uuid.UUID     `gorm:"type:uuid;primaryKey"`
	UserID             uuid.UUID     `gorm:"type:uuid;not null;index;uniqueIndex:ux_orders_user_receipt,priority:1"`
	ProductID          uuid.NullUUID `gorm:"type:uuid"`
	Amount             int64         `gorm:"not null"`
	Currency           string        `gorm:"not null;default:INR"`
	PaymentGateway     Gateway       `gorm:"not null"`
	PaymentID          string        `gorm:"not null;index"`
	GatewayOrderID     string        `gorm:"not null;uniqueIndex"`
	Status             Status        `gorm:"not null;default:created"`
	ProductName        string        `gorm:"not null"`
	ProductDescription string
	Receipt            sql.NullString `gorm:"uniqueIndex:ux_orders_user_receipt,priority:2"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (Order) TableName() string {
	return "orders"
}
