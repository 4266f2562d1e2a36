package repository

import (
	"context"

	"gorm.io/gorm"
)

// Stores are the repositories bound to one transaction.
type Stores struct {
	Orders   OrderRepository
	Products ProductRepository
}

// UnitOfWork runs fn atomically: every repository call inside fn sees and
// mutates the same transaction, and any error rolls the whole thing back.
// The order-status write and the stock decrement must never be split across
// transaction boundaries.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(tx Stores) error) error
}

type gormUnitOfWork struct {
	db *gorm.DB
}

func NewUnitOfWork(db *gorm.DB) UnitOfWork {
	return &gormUnitOfWork{db: db}
}

func (u *gormUnitOfWork) Do(ctx context.Context, fn func(tx Stores) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(Stores{
			Orders:   NewOrderRepository(tx),
			Products: NewProductRepository(tx),
		})
	})
}
