package repository

import (
	"context"
	"errors"

	"chatbazaar/internal/domain/product"
	bazaar_errors "chatbazaar/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PostgresProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &PostgresProductRepository{db: db}
}

func (r *PostgresProductRepository) GetByID(ctx context.Context, id uuid.UUID) (product.Product, error) {
	var p product.Product
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return product.Product{}, bazaar_errors.ErrNotFound
		}
		return product.Product{}, err
	}
	return p, nil
}

// DecrementStock is a single atomic read-modify-write: the guard in the WHERE
// clause is what prevents lost updates and negative stock under concurrent
// completions. Unlimited stock (-1) passes the guard and is left untouched.
func (r *PostgresProductRepository) DecrementStock(ctx context.Context, id uuid.UUID) (product.Product, bool, error) {
	var p product.Product
	err := r.db.WithContext(ctx).Raw(`
		UPDATE products
		SET stock = CASE WHEN stock > 0 THEN stock - 1 ELSE stock END,
		    is_active = CASE WHEN stock = 1 THEN FALSE ELSE is_active END,
		    updated_at = NOW()
		WHERE id = ? AND (stock = ? OR stock > 0)
		RETURNING *`, id, product.UnlimitedStock).
		Scan(&p).Error
	if err != nil {
		return product.Product{}, false, err
	}
	if p.ID == uuid.Nil {
		// Guard matched no row: product missing or stock exhausted.
		return product.Product{}, false, nil
	}
	return p, true, nil
}
