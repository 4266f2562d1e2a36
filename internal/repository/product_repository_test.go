package repository

import (
	"context"
	"testing"
	"time"

	"chatbazaar/internal/domain/product"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func productRows(p product.Product) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "name", "description", "price_inr", "price_usd", "is_active",
		"stock", "created_at", "updated_at",
	}).AddRow(
		p.ID, p.Name, p.Description, p.PriceINR, p.PriceUSD, p.IsActive,
		p.Stock, p.CreatedAt, p.UpdatedAt,
	)
}

func sampleProduct(stock int) product.Product {
	now := time.Now()
	return product.Product{
		ID:          uuid.New(),
		Name:        "Pro Plan",
		Description: "annual subscription",
		PriceINR:    4999,
		PriceUSD:    59,
		IsActive:    true,
		Stock:       stock,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestProductRepository_DecrementStock_Decrements(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewProductRepository(gdb)
	p := sampleProduct(4)

	mock.ExpectQuery(`UPDATE products\s+SET stock = CASE WHEN stock > 0 THEN stock - 1 ELSE stock END`).
		WithArgs(p.ID, product.UnlimitedStock).
		WillReturnRows(productRows(p))

	got, affected, err := repo.DecrementStock(context.Background(), p.ID)
	require.NoError(t, err)
	assert.True(t, affected)
	assert.Equal(t, p.ID, got.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductRepository_DecrementStock_ExhaustedReturnsUnaffected(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewProductRepository(gdb)
	id := uuid.New()

	// Guard matched no row: RETURNING yields nothing.
	mock.ExpectQuery(`UPDATE products`).
		WithArgs(id, product.UnlimitedStock).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, affected, err := repo.DecrementStock(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, affected)
}

func TestProductRepository_GetByID(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewProductRepository(gdb)
	p := sampleProduct(product.UnlimitedStock)

	mock.ExpectQuery(`SELECT \* FROM "products" WHERE id = \$1`).
		WithArgs(p.ID, 1).
		WillReturnRows(productRows(p))

	got, err := repo.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.False(t, got.HasFiniteStock())
}
