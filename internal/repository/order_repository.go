package repository

import (
	"context"
	"errors"
	"time"

	"chatbazaar/internal/domain/order"
	bazaar_errors "chatbazaar/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresOrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &PostgresOrderRepository{db: db}
}

func (r *PostgresOrderRepository) Create(ctx context.Context, o *order.Order) error {
	res := r.db.WithContext(ctx).Create(o)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return bazaar_errors.ErrAlreadyExists
		}
		return res.Error
	}
	return nil
}

func (r *PostgresOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (order.Order, error) {
	var o order.Order
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&o).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return order.Order{}, bazaar_errors.ErrNotFound
		}
		return order.Order{}, err
	}
	return o, nil
}

func (r *PostgresOrderRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (order.Order, error) {
	var o order.Order
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&o).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return order.Order{}, bazaar_errors.ErrNotFound
		}
		return order.Order{}, err
	}
	return o, nil
}

func (r *PostgresOrderRepository) FindByReceipt(ctx context.Context, userID uuid.UUID, receipt string) (order.Order, error) {
	var o order.Order
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND receipt = ?", userID, receipt).
		First(&o).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return order.Order{}, bazaar_errors.ErrNotFound
		}
		return order.Order{}, err
	}
	return o, nil
}

func (r *PostgresOrderRepository) FindByPaymentID(ctx context.Context, paymentID string) (order.Order, error) {
	var o order.Order
	err := r.db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		First(&o).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return order.Order{}, bazaar_errors.ErrNotFound
		}
		return order.Order{}, err
	}
	return o, nil
}

func (r *PostgresOrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from []order.Status, to order.Status, paymentID string) (bool, error) {
	updates := map[string]interface{}{
		"status":     to,
		"updated_at": time.Now(),
	}
	if paymentID != "" {
		updates["payment_id"] = paymentID
	}
	res := r.db.WithContext(ctx).
		Model(&order.Order{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *PostgresOrderRepository) GetUserOrders(ctx context.Context, userID uuid.UUID) ([]order.Order, error) {
	var orders []order.Order
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}
