package pricing

import (
	"time"

	"checkout-api/internal/domain"
)

// Eligible returns the discounts that are active and inside their validity
// window at now, preserving catalog order.
func Eligible(catalog []domain.Discount, now time.Time) []domain.Discount {
	eligible := make([]domain.Discount, 0, len(catalog))
	for _, d := range catalog {
		if d.ActiveAt(now) {
			eligible = append(eligible, d)
		}
	}
	return eligible
}
