package pricing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"checkout-api/internal/domain"
)

// Receipt is a read-only snapshot of a priced cart.
type Receipt struct {
	CartID      uuid.UUID       `json:"cartId"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	Items       []ReceiptItem   `json:"items"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

// ReceiptItem is one priced line on a receipt.
type ReceiptItem struct {
	ProductID       uuid.UUID        `json:"productId"`
	ProductName     string           `json:"productName"`
	Quantity        int              `json:"quantity"`
	UnitPrice       decimal.Decimal  `json:"unitPrice"`
	TotalPrice      decimal.Decimal  `json:"totalPrice"`
	AppliedDiscount *ReceiptDiscount `json:"appliedDiscount,omitempty"`
}

// ReceiptDiscount describes the discount applied to a receipt line.
type ReceiptDiscount struct {
	DiscountID     uuid.UUID           `json:"discountId"`
	DiscountName   string              `json:"discountName"`
	DiscountType   domain.DiscountType `json:"discountType"`
	DiscountAmount decimal.Decimal     `json:"discountAmount"`
}

// BuildReceipt serializes an already priced cart. Product and discount names
// are resolved from the given snapshots; unknown references render with an
// empty name.
func BuildReceipt(cart domain.Cart, products map[uuid.UUID]domain.Product, discounts map[uuid.UUID]domain.Discount) Receipt {
	receipt := Receipt{
		CartID:      cart.ID,
		CreatedAt:   cart.CreatedAt,
		UpdatedAt:   cart.UpdatedAt,
		Items:       make([]ReceiptItem, 0, len(cart.Items)),
		TotalAmount: cart.TotalAmount,
	}
	for _, item := range cart.Items {
		line := ReceiptItem{
			ProductID:   item.ProductID,
			ProductName: products[item.ProductID].Name,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TotalPrice:  item.TotalPrice,
		}
		if item.DiscountID != nil {
			d := discounts[*item.DiscountID]
			line.AppliedDiscount = &ReceiptDiscount{
				DiscountID:     *item.DiscountID,
				DiscountName:   d.Name,
				DiscountType:   d.Type,
				DiscountAmount: item.DiscountAmount,
			}
		}
		receipt.Items = append(receipt.Items, line)
	}
	return receipt
}
