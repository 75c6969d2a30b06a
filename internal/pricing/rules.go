package pricing

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"checkout-api/internal/domain"
)

// rule is the behavior of one discount type. The set of implementations is
// closed: ruleFor is the only constructor.
type rule interface {
	// value is the scalar used to rank discounts for a group of qty units.
	value(qty int) decimal.Decimal
	// distribute allocates the discount across freshly reset lines of one
	// product whose quantities sum to qty.
	distribute(items []domain.CartItem, qty int) []domain.CartItem
}

func ruleFor(d domain.Discount) (rule, error) {
	switch d.Type {
	case domain.DiscountPercentage:
		return percentageRule{d: d}, nil
	case domain.DiscountFixedAmount:
		return fixedAmountRule{d: d}, nil
	case domain.DiscountBuyXGetYFree:
		if d.MinQuantity == nil || *d.MinQuantity < 0 {
			return nil, fmt.Errorf("%w: %s requires a minimum quantity", domain.ErrInvalidDiscount, d.Type)
		}
		return buyXGetYFreeRule{d: d, buy: *d.MinQuantity}, nil
	case domain.DiscountSecondUnitPercentage:
		return secondUnitRule{d: d}, nil
	default:
		return nil, fmt.Errorf("%w %q", domain.ErrUnknownDiscountType, d.Type)
	}
}

type percentageRule struct{ d domain.Discount }

func (r percentageRule) value(int) decimal.Decimal {
	return Rate(r.d.Value)
}

func (r percentageRule) distribute(items []domain.CartItem, _ int) []domain.CartItem {
	rate := Rate(r.d.Value)
	for i := range items {
		items[i] = withDiscount(items[i], r.d.ID, Amount(items[i].OriginalTotal().Mul(rate)))
	}
	return items
}

type fixedAmountRule struct{ d domain.Discount }

func (r fixedAmountRule) value(int) decimal.Decimal {
	return r.d.Value
}

// distribute splits the flat amount in proportion to each line's share of the
// group's undiscounted total. Rounding drift is not reconciled.
func (r fixedAmountRule) distribute(items []domain.CartItem, _ int) []domain.CartItem {
	groupTotal := decimal.Zero
	for _, item := range items {
		groupTotal = groupTotal.Add(item.OriginalTotal())
	}
	for i := range items {
		ratio := Ratio(items[i].OriginalTotal(), groupTotal)
		items[i] = withDiscount(items[i], r.d.ID, Amount(r.d.Value.Mul(ratio)))
	}
	return items
}

type buyXGetYFreeRule struct {
	d   domain.Discount
	buy int
}

func (r buyXGetYFreeRule) freeUnits(qty int) int {
	return qty / (r.buy + 1)
}

func (r buyXGetYFreeRule) value(qty int) decimal.Decimal {
	return decimal.NewFromInt(int64(r.freeUnits(qty)))
}

func (r buyXGetYFreeRule) distribute(items []domain.CartItem, qty int) []domain.CartItem {
	remaining := r.freeUnits(qty)
	for _, i := range byQuantityDesc(items) {
		if remaining <= 0 {
			break
		}
		units := min(remaining, items[i].Quantity)
		items[i] = withDiscount(items[i], r.d.ID, Times(items[i].UnitPrice, units))
		remaining -= units
	}
	return items
}

type secondUnitRule struct{ d domain.Discount }

func (r secondUnitRule) value(qty int) decimal.Decimal {
	if qty < 2 {
		return decimal.Zero
	}
	return Rate(r.d.Value)
}

// distribute records unitPrice*(1-rate) for every discounted unit. A line
// contributes at most half of its own quantity.
func (r secondUnitRule) distribute(items []domain.CartItem, qty int) []domain.CartItem {
	if qty < 2 {
		return items
	}
	factor := decimal.NewFromInt(1).Sub(Rate(r.d.Value))
	remaining := qty / 2
	for _, i := range byQuantityDesc(items) {
		if remaining <= 0 {
			break
		}
		units := min(remaining, items[i].Quantity/2)
		if units == 0 {
			continue
		}
		amount := Amount(Times(items[i].UnitPrice.Mul(factor), units))
		items[i] = withDiscount(items[i], r.d.ID, amount)
		remaining -= units
	}
	return items
}

// byQuantityDesc returns item indexes ordered by descending quantity. Equal
// quantities keep their original order.
func byQuantityDesc(items []domain.CartItem) []int {
	idx := make([]int, len(items))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return items[idx[a]].Quantity > items[idx[b]].Quantity
	})
	return idx
}
