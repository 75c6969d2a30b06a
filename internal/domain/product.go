package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product represents a product in the catalog
type Product struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	Description string          `json:"description" db:"description"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Stock       int             `json:"stock" db:"stock"`
	IsActive    bool            `json:"is_active" db:"is_active"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// Validate checks the fields an administrator can set.
func (p Product) Validate() error {
	if p.Name == "" || p.Price.IsNegative() || p.Stock < 0 {
		return ErrInvalidProduct
	}
	return nil
}

// Reserve returns a copy of the product with qty units taken out of stock.
func (p Product) Reserve(qty int) (Product, error) {
	if qty < 0 {
		return p, ErrInvalidQuantity
	}
	if p.Stock < qty {
		return p, ErrInsufficientStock
	}
	p.Stock -= qty
	return p, nil
}

// Release returns a copy of the product with qty units put back into stock.
func (p Product) Release(qty int) Product {
	if qty > 0 {
		p.Stock += qty
	}
	return p
}
