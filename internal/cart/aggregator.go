// Package cart implements cart mutations together with the inventory
// reconciliation they imply. Functions take snapshots and return new ones;
// on error the inputs are returned unchanged.
package cart

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"checkout-api/internal/domain"
	"checkout-api/internal/pricing"
)

// New returns an empty cart stamped with now.
func New(id uuid.UUID, now time.Time) domain.Cart {
	return domain.Cart{
		ID:          id,
		Items:       []domain.CartItem{},
		TotalAmount: decimal.Zero,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// AddItem reserves qty units of product and adds them to the cart. A product
// already in the cart grows its existing line and refreshes the line's price
// snapshot; otherwise a new line with id newItemID is appended.
func AddItem(c domain.Cart, product domain.Product, qty int, newItemID uuid.UUID, now time.Time) (domain.Cart, domain.Product, error) {
	if qty < 1 {
		return c, product, domain.ErrInvalidQuantity
	}
	if !product.IsActive {
		return c, product, domain.ErrProductInactive
	}
	reserved, err := product.Reserve(qty)
	if err != nil {
		return c, product, fmt.Errorf("%w for product %s: requested %d, available %d", err, product.Name, qty, product.Stock)
	}

	out := c.Clone()
	if i := out.FindProduct(product.ID); i >= 0 {
		out.Items[i].Quantity += qty
		out.Items[i].UnitPrice = product.Price
		out.Items[i] = pricing.RecomputeItem(out.Items[i])
	} else {
		out.Items = append(out.Items, pricing.RecomputeItem(domain.CartItem{
			ID:             newItemID,
			CartID:         c.ID,
			ProductID:      product.ID,
			Quantity:       qty,
			UnitPrice:      product.Price,
			DiscountAmount: decimal.Zero,
		}))
	}
	return touch(out, now), reserved, nil
}

// RemoveItem deletes a line and returns its quantity to product stock.
// product must be the product the line refers to.
func RemoveItem(c domain.Cart, product domain.Product, itemID uuid.UUID, now time.Time) (domain.Cart, domain.Product, error) {
	i := c.FindItem(itemID)
	if i < 0 {
		return c, product, domain.ErrCartItemNotFound
	}
	if c.Items[i].ProductID != product.ID {
		return c, product, domain.ErrProductMismatch
	}

	released := product.Release(c.Items[i].Quantity)
	out := c.Clone()
	out.Items = append(out.Items[:i], out.Items[i+1:]...)
	return touch(out, now), released, nil
}

// UpdateItemQuantity sets a line's quantity, reserving or releasing the
// difference against product stock.
func UpdateItemQuantity(c domain.Cart, product domain.Product, itemID uuid.UUID, qty int, now time.Time) (domain.Cart, domain.Product, error) {
	i := c.FindItem(itemID)
	if i < 0 {
		return c, product, domain.ErrCartItemNotFound
	}
	if qty < 1 {
		return c, product, domain.ErrInvalidQuantity
	}
	if c.Items[i].ProductID != product.ID {
		return c, product, domain.ErrProductMismatch
	}

	stockDelta := c.Items[i].Quantity - qty
	adjusted := product
	if stockDelta < 0 {
		var err error
		adjusted, err = product.Reserve(-stockDelta)
		if err != nil {
			return c, product, fmt.Errorf("%w for product %s: requested %d more, available %d", err, product.Name, -stockDelta, product.Stock)
		}
	} else {
		adjusted = product.Release(stockDelta)
	}

	out := c.Clone()
	out.Items[i].Quantity = qty
	out.Items[i] = pricing.RecomputeItem(out.Items[i])
	return touch(out, now), adjusted, nil
}

// ReleaseAll returns the stock held by every line of the cart. products must
// contain every product the cart references.
func ReleaseAll(c domain.Cart, products map[uuid.UUID]domain.Product) (map[uuid.UUID]domain.Product, error) {
	out := make(map[uuid.UUID]domain.Product, len(products))
	for id, p := range products {
		out[id] = p
	}
	for _, item := range c.Items {
		p, ok := out[item.ProductID]
		if !ok {
			return products, fmt.Errorf("%w: %s", domain.ErrProductNotFound, item.ProductID)
		}
		out[item.ProductID] = p.Release(item.Quantity)
	}
	return out, nil
}

// TotalQuantity sums the quantity of every line.
func TotalQuantity(c domain.Cart) int {
	total := 0
	for _, item := range c.Items {
		total += item.Quantity
	}
	return total
}

func touch(c domain.Cart, now time.Time) domain.Cart {
	c.TotalAmount = pricing.CartTotal(c.Items)
	c.UpdatedAt = now
	return c
}
