package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every entity-level error below wraps exactly one of these so
// callers can branch with errors.Is on the kind alone.
var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidArgument   = errors.New("invalid argument")
)

var (
	ErrCartNotFound     = fmt.Errorf("cart %w", ErrNotFound)
	ErrCartItemNotFound = fmt.Errorf("cart item %w", ErrNotFound)
	ErrProductNotFound  = fmt.Errorf("product %w", ErrNotFound)
	ErrDiscountNotFound = fmt.Errorf("discount %w", ErrNotFound)

	ErrInvalidQuantity     = fmt.Errorf("%w: quantity must be at least 1", ErrInvalidArgument)
	ErrProductInactive     = fmt.Errorf("%w: product is not active", ErrInvalidArgument)
	ErrProductMismatch     = fmt.Errorf("%w: product does not match cart item", ErrInvalidArgument)
	ErrUnknownDiscountType = fmt.Errorf("%w: unknown discount type", ErrInvalidArgument)
	ErrInvalidDiscount     = fmt.Errorf("%w: invalid discount", ErrInvalidArgument)
	ErrInvalidProduct      = fmt.Errorf("%w: invalid product", ErrInvalidArgument)
)

// IsNotFound reports whether err is of the NotFound kind.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInsufficientStock reports whether err is of the InsufficientStock kind.
func IsInsufficientStock(err error) bool {
	return errors.Is(err, ErrInsufficientStock)
}

// IsInvalidArgument reports whether err is of the InvalidArgument kind.
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}
