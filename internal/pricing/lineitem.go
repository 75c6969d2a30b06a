package pricing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"checkout-api/internal/domain"
)

// RecomputeItem restores the line invariant
// TotalPrice == UnitPrice*Quantity - DiscountAmount with the discount bounded
// by the undiscounted line price.
func RecomputeItem(item domain.CartItem) domain.CartItem {
	original := item.OriginalTotal()
	item.DiscountAmount = clamp(Amount(item.DiscountAmount), original)
	item.TotalPrice = original.Sub(item.DiscountAmount)
	return item
}

// ResetDiscount clears any applied discount from the line and recomputes it.
func ResetDiscount(item domain.CartItem) domain.CartItem {
	item.DiscountID = nil
	item.DiscountAmount = decimal.Zero
	return RecomputeItem(item)
}

func withDiscount(item domain.CartItem, discountID uuid.UUID, amount decimal.Decimal) domain.CartItem {
	id := discountID
	item.DiscountID = &id
	item.DiscountAmount = amount
	return RecomputeItem(item)
}

// CartTotal sums the line totals.
func CartTotal(items []domain.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.TotalPrice)
	}
	return total
}

// RecomputeTotals recomputes every line and the cart total.
func RecomputeTotals(cart domain.Cart) domain.Cart {
	cart = cart.Clone()
	for i := range cart.Items {
		cart.Items[i] = RecomputeItem(cart.Items[i])
	}
	cart.TotalAmount = CartTotal(cart.Items)
	return cart
}
