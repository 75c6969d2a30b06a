package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cart is a customer's in-progress collection of line items.
type Cart struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	Items       []CartItem      `json:"items"`
	TotalAmount decimal.Decimal `json:"total_amount" db:"total_amount"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// CartItem is one cart row for one product. UnitPrice is a snapshot of the
// product price taken when the line was last added to.
type CartItem struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	CartID         uuid.UUID       `json:"cart_id" db:"cart_id"`
	ProductID      uuid.UUID       `json:"product_id" db:"product_id"`
	Quantity       int             `json:"quantity" db:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price" db:"unit_price"`
	TotalPrice     decimal.Decimal `json:"total_price" db:"total_price"`
	DiscountID     *uuid.UUID      `json:"discount_id,omitempty" db:"discount_id"`
	DiscountAmount decimal.Decimal `json:"discount_amount" db:"discount_amount"`
}

// OriginalTotal is the undiscounted line price.
func (i CartItem) OriginalTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// FindItem returns the index of the line with the given id, or -1.
func (c Cart) FindItem(itemID uuid.UUID) int {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			return i
		}
	}
	return -1
}

// FindProduct returns the index of the first line holding productID, or -1.
func (c Cart) FindProduct(productID uuid.UUID) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// Clone returns a copy of the cart that shares no item storage with c.
func (c Cart) Clone() Cart {
	items := make([]CartItem, len(c.Items))
	copy(items, c.Items)
	for i := range items {
		if items[i].DiscountID != nil {
			id := *items[i].DiscountID
			items[i].DiscountID = &id
		}
	}
	c.Items = items
	return c
}

// ProductIDs lists the distinct products referenced by the cart in line order.
func (c Cart) ProductIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(c.Items))
	ids := make([]uuid.UUID, 0, len(c.Items))
	for _, item := range c.Items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	return ids
}
