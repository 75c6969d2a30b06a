package pricing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"checkout-api/internal/domain"
)

// SelectBest picks the discount with the highest type-specific value for a
// product group of qty units. Discounts whose minimum quantity is not met are
// skipped. On equal values the earliest discount in eligible wins. The bool
// result is false when nothing applies.
func SelectBest(eligible []domain.Discount, qty int) (domain.Discount, bool, error) {
	var (
		best      domain.Discount
		bestValue decimal.Decimal
		found     bool
	)
	for _, d := range eligible {
		if !d.AppliesTo(qty) {
			continue
		}
		r, err := ruleFor(d)
		if err != nil {
			return domain.Discount{}, false, err
		}
		v := r.value(qty)
		if !found || v.GreaterThan(bestValue) {
			best, bestValue, found = d, v, true
		}
	}
	return best, found, nil
}

// Distribute resets the lines of one product group and applies d to them.
// qty is the group's total quantity. The returned slice is a new slice in the
// same order as items.
func Distribute(items []domain.CartItem, d domain.Discount, qty int) ([]domain.CartItem, error) {
	r, err := ruleFor(d)
	if err != nil {
		return nil, err
	}
	out := make([]domain.CartItem, len(items))
	for i := range items {
		out[i] = ResetDiscount(items[i])
	}
	return r.distribute(out, qty), nil
}

// Group is the set of line indexes that hold one product.
type Group struct {
	ProductID uuid.UUID
	Indexes   []int
	Quantity  int
}

// GroupByProduct groups cart lines by product in order of first appearance.
func GroupByProduct(items []domain.CartItem) []Group {
	pos := make(map[uuid.UUID]int)
	var groups []Group
	for i, item := range items {
		g, ok := pos[item.ProductID]
		if !ok {
			g = len(groups)
			pos[item.ProductID] = g
			groups = append(groups, Group{ProductID: item.ProductID})
		}
		groups[g].Indexes = append(groups[g].Indexes, i)
		groups[g].Quantity += item.Quantity
	}
	return groups
}

// Applied records which discount a product group received.
type Applied struct {
	ProductID uuid.UUID
	Discount  domain.Discount
}

// ApplyDiscounts recomputes every line's discount from scratch against the
// catalog as of now and returns the repriced cart. Calling it again with the
// same inputs yields the same cart.
func ApplyDiscounts(cart domain.Cart, catalog []domain.Discount, now time.Time) (domain.Cart, []Applied, error) {
	eligible := Eligible(catalog, now)

	out := cart.Clone()
	for i := range out.Items {
		out.Items[i] = ResetDiscount(out.Items[i])
	}

	var applied []Applied
	for _, g := range GroupByProduct(out.Items) {
		best, ok, err := SelectBest(eligible, g.Quantity)
		if err != nil {
			return cart, nil, err
		}
		if !ok {
			continue
		}
		group := make([]domain.CartItem, len(g.Indexes))
		for k, idx := range g.Indexes {
			group[k] = out.Items[idx]
		}
		group, err = Distribute(group, best, g.Quantity)
		if err != nil {
			return cart, nil, err
		}
		for k, idx := range g.Indexes {
			out.Items[idx] = group[k]
		}
		applied = append(applied, Applied{ProductID: g.ProductID, Discount: best})
	}

	out.TotalAmount = CartTotal(out.Items)
	out.UpdatedAt = now
	return out, applied, nil
}
