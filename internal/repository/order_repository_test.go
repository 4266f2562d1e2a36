package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"chatbazaar/internal/domain/order"
	bazaar_errors "chatbazaar/pkg/errors"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
		// sqlmock cannot answer the version query gorm issues on connect
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	return gdb, mock
}

func orderRows(o order.Order) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "user_id", "product_id", "amount", "currency", "payment_gateway",
		"payment_id", "gateway_order_id", "status", "product_name",
		"product_description", "receipt", "created_at", "updated_at",
	}).AddRow(
		o.ID, o.UserID, o.ProductID, o.Amount, o.Currency, o.PaymentGateway,
		o.PaymentID, o.GatewayOrderID, o.Status, o.ProductName,
		o.ProductDescription, o.Receipt, o.CreatedAt, o.UpdatedAt,
	)
}

func sampleOrder() order.Order {
	now := time.Now()
	return order.Order{
		ID:             uuid.New(),
		UserID:         uuid.New(),
		ProductID:      uuid.NullUUID{UUID: uuid.New(), Valid: true},
		Amount:         4999,
		Currency:       order.CurrencyINR,
		PaymentGateway: order.GatewayRazorpay,
		PaymentID:      "pending",
		GatewayOrderID: "order_rzp_1",
		Status:         order.StatusCreated,
		ProductName:    "Pro Plan",
		Receipt:        sql.NullString{String: "receipt_1", Valid: true},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestOrderRepository_GetByID(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewOrderRepository(gdb)
	o := sampleOrder()

	mock.ExpectQuery(`SELECT \* FROM "orders" WHERE id = \$1`).
		WithArgs(o.ID, 1).
		WillReturnRows(orderRows(o))

	got, err := repo.GetByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)
	assert.Equal(t, order.StatusCreated, got.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_GetByID_NotFound(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewOrderRepository(gdb)
	id := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "orders"`).
		WithArgs(id, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), id)
	assert.True(t, errors.Is(err, bazaar_errors.ErrNotFound))
}

func TestOrderRepository_GetByIDForUpdate_Locks(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewOrderRepository(gdb)
	o := sampleOrder()

	mock.ExpectQuery(`SELECT \* FROM "orders" WHERE id = \$1 .*FOR UPDATE`).
		WithArgs(o.ID, 1).
		WillReturnRows(orderRows(o))

	got, err := repo.GetByIDForUpdate(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_UpdateStatus_GuardMatches(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewOrderRepository(gdb)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "orders" SET .* WHERE id = \$\d+ AND status IN \(\$\d+,\$\d+\)`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ok, err := repo.UpdateStatus(context.Background(), id,
		[]order.Status{order.StatusCreated, order.StatusPending},
		order.StatusCompleted, "pay_1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_UpdateStatus_GuardMisses(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewOrderRepository(gdb)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "orders"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	// Terminal order: the guard matches no row, no transition happens.
	ok, err := repo.UpdateStatus(context.Background(), id,
		[]order.Status{order.StatusCreated, order.StatusPending},
		order.StatusFailed, "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOrderRepository_FindByReceipt(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewOrderRepository(gdb)
	o := sampleOrder()

	mock.ExpectQuery(`SELECT \* FROM "orders" WHERE user_id = \$1 AND receipt = \$2`).
		WithArgs(o.UserID, "receipt_1", 1).
		WillReturnRows(orderRows(o))

	got, err := repo.FindByReceipt(context.Background(), o.UserID, "receipt_1")
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)
}

func TestOrderRepository_GetUserOrders_NewestFirst(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewOrderRepository(gdb)
	userID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "orders" WHERE user_id = \$1 ORDER BY created_at DESC`).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id"}))

	orders, err := repo.GetUserOrders(context.Background(), userID)
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.NoError(t, mock.ExpectationsWereMet())
}
