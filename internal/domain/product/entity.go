package product

import (
	"time"

	"github.com/google/uuid"
)

// UnlimitedStock is the sentinel for digital products with no inventory.
const UnlimitedStock = -1

// Product is owned by the catalog subsystem. This service only reads it and
// performs the conditional stock decrement during payment reconciliation.
type Product struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name        string    `gorm:"not null"`
	Description string    `gorm:"not null"`
	PriceINR    int64     `gorm:"not null"`
	PriceUSD    int64     `gorm:"not null"`
	IsActive    bool      `gorm:"not null;default:true"`
	Stock       int       `gorm:"not null;default:-1"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Product) TableName() string {
	return "products"
}

func (p *Product) HasFiniteStock() bool {
	return p.Stock != UnlimitedStock
}
