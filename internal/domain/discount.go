package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DiscountType enumerates the supported promotion algorithms
type DiscountType string

const (
	DiscountPercentage           DiscountType = "PERCENTAGE"
	DiscountFixedAmount          DiscountType = "FIXED_AMOUNT"
	DiscountBuyXGetYFree         DiscountType = "BUY_X_GET_Y_FREE"
	DiscountSecondUnitPercentage DiscountType = "SECOND_UNIT_PERCENTAGE"
)

// DiscountTypes lists every supported type in declaration order.
var DiscountTypes = []DiscountType{
	DiscountPercentage,
	DiscountFixedAmount,
	DiscountBuyXGetYFree,
	DiscountSecondUnitPercentage,
}

// Valid reports whether t is one of the supported types.
func (t DiscountType) Valid() bool {
	switch t {
	case DiscountPercentage, DiscountFixedAmount, DiscountBuyXGetYFree, DiscountSecondUnitPercentage:
		return true
	}
	return false
}

// Discount is a promotional rule. The meaning of Value depends on Type:
// a percentage for PERCENTAGE and SECOND_UNIT_PERCENTAGE, a currency amount
// for FIXED_AMOUNT, and unused for BUY_X_GET_Y_FREE.
type Discount struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	Description string          `json:"description" db:"description"`
	Type        DiscountType    `json:"type" db:"type"`
	Value       decimal.Decimal `json:"value" db:"value"`
	MinQuantity *int            `json:"min_quantity,omitempty" db:"min_quantity"`
	StartDate   *time.Time      `json:"start_date,omitempty" db:"start_date"`
	EndDate     *time.Time      `json:"end_date,omitempty" db:"end_date"`
	IsActive    bool            `json:"is_active" db:"is_active"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// ActiveAt reports whether the discount is enabled and inside its validity
// window at now. Both bounds are exclusive.
func (d Discount) ActiveAt(now time.Time) bool {
	if !d.IsActive {
		return false
	}
	if d.StartDate != nil && !d.StartDate.Before(now) {
		return false
	}
	if d.EndDate != nil && !d.EndDate.After(now) {
		return false
	}
	return true
}

// AppliesTo reports whether the minimum quantity threshold is met by qty.
func (d Discount) AppliesTo(qty int) bool {
	return d.MinQuantity == nil || *d.MinQuantity <= qty
}

// Validate checks the fields an administrator can set.
func (d Discount) Validate() error {
	if !d.Type.Valid() {
		return ErrUnknownDiscountType
	}
	if d.Value.IsNegative() {
		return ErrInvalidDiscount
	}
	switch d.Type {
	case DiscountPercentage, DiscountSecondUnitPercentage:
		if d.Value.GreaterThan(decimal.NewFromInt(100)) {
			return ErrInvalidDiscount
		}
	case DiscountBuyXGetYFree:
		if d.MinQuantity == nil || *d.MinQuantity < 1 {
			return ErrInvalidDiscount
		}
	}
	if d.MinQuantity != nil && *d.MinQuantity < 0 {
		return ErrInvalidDiscount
	}
	if d.StartDate != nil && d.EndDate != nil && !d.StartDate.Before(*d.EndDate) {
		return ErrInvalidDiscount
	}
	return nil
}
